//go:build integration

// Integration tests against a local MySQL with the download database and
// user created as documented on New. Run with: go test -tags integration ./repo
package repo

import (
	"testing"
	"time"

	"github.com/NeuralEnsemble/download/conf"
	"github.com/NeuralEnsemble/download/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repo {
	conf.Default()
	r, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	// Log rows reference requests, so they go first
	_, err = r.db.Exec(`DELETE FROM downloads`)
	require.NoError(t, err)
	_, err = r.db.Exec(`DELETE FROM download_requests`)
	require.NoError(t, err)
	return r
}

func testRequest() *domain.DownloadRequest {
	return &domain.DownloadRequest{
		Reference:           domain.NewReference(),
		Name:                "Ada Lovelace",
		Email:               "ada@example.org",
		Institution:         "UCL",
		Country:             "United Kingdom",
		BrainRegion:         "Cerebellum",
		ResearchTopic:       "Modelling",
		DescriptionResearch: "Compartmental models",
		Comment:             "none",
		RequestDate:         time.Now(),
		ClientServer:        "client.example.org",
	}
}

func TestCreateAndGetRequest(t *testing.T) {
	r := newTestRepo(t)
	req := testRequest()
	require.NoError(t, r.CreateRequest(req))

	got, err := r.RequestByReference(req.Reference)
	require.NoError(t, err)
	assert.Equal(t, req.Reference, got.Reference)
	assert.Equal(t, req.Email, got.Email)
	assert.Equal(t, req.BrainRegion, got.BrainRegion)

	_, err = r.RequestByReference("NOSUCHREFERENCE")
	assert.Equal(t, ErrNotFound, err)
}

func TestDuplicateReference(t *testing.T) {
	r := newTestRepo(t)
	req := testRequest()
	require.NoError(t, r.CreateRequest(req))
	dup := testRequest()
	dup.Reference = req.Reference
	assert.Equal(t, ErrDuplicate, r.CreateRequest(dup))
}

func TestDownloadLog(t *testing.T) {
	r := newTestRepo(t)
	req := testRequest()
	require.NoError(t, r.CreateRequest(req))

	count, err := r.DownloadCount(req.Reference)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for i := 0; i < 2; i++ {
		err = r.AddDownload(&domain.Download{
			ClientServer: "client.example.org",
			Reference:    req.Reference,
			Filename:     "neuroConstruct_unix_1_0_1.sh",
		})
		require.NoError(t, err)
	}
	count, err = r.DownloadCount(req.Reference)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	log, err := r.Downloads(domain.StatsFilter{Reference: req.Reference})
	require.NoError(t, err)
	assert.Len(t, log, 2)
	assert.Equal(t, "neuroConstruct_unix_1_0_1.sh", log[0].Filename)
}

// The foreign key rejects log rows for references that were never issued
func TestDownloadRequiresRequest(t *testing.T) {
	r := newTestRepo(t)
	err := r.AddDownload(&domain.Download{
		ClientServer: "client.example.org",
		Reference:    "NEVERISSUEDREFERENCE",
		Filename:     "neuroConstruct_unix_1_0_1.sh",
	})
	assert.Error(t, err)
}

func TestRequestsAndStats(t *testing.T) {
	r := newTestRepo(t)
	first := testRequest()
	require.NoError(t, r.CreateRequest(first))
	second := testRequest()
	second.Email = "zweite@uni.de"
	second.Country = "Germany"
	require.NoError(t, r.CreateRequest(second))
	require.NoError(t, r.AddDownload(&domain.Download{
		ClientServer: "c", Reference: first.Reference, Filename: "neuroConstruct_unix_1_0_1.sh",
	}))

	reqs, err := r.Requests(domain.StatsFilter{})
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	// Newest first
	assert.Equal(t, second.Reference, reqs[0].Reference)
	assert.Equal(t, 0, reqs[0].Downloads)
	assert.Equal(t, 1, reqs[1].Downloads)

	s, err := r.Stats(domain.StatsFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Requests)
	assert.Equal(t, 2, s.DistinctEmails)
	assert.Equal(t, 1, s.Downloads)
	require.Len(t, s.Platforms, 4)
	for _, p := range s.Platforms {
		if p.Platform == "Linux" {
			assert.Equal(t, 1, p.Downloads)
			assert.Equal(t, float64(100), p.Percent)
		} else {
			assert.Equal(t, 0, p.Downloads)
		}
	}

	s, err = r.Stats(domain.StatsFilter{Country: "Germany"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Requests)
	assert.Equal(t, 0, s.Downloads)
	assert.Empty(t, s.Platforms)

	countries, err := r.CountryBreakdown(domain.StatsFilter{})
	require.NoError(t, err)
	assert.Len(t, countries, 2)
}

func TestUserUpsert(t *testing.T) {
	r := newTestRepo(t)
	u := &domain.User{Username: "slavik", Type: domain.UserTypeAdmin}
	u.SetPassword("password")
	require.NoError(t, r.SetUser(u))

	got, err := r.User("slavik")
	require.NoError(t, err)
	assert.Equal(t, u.Hash, got.Hash)

	u.Name = "Slavik"
	require.NoError(t, r.SetUser(u))
	got, err = r.User("slavik")
	require.NoError(t, err)
	assert.Equal(t, "Slavik", got.Name)

	_, err = r.User("ghost")
	assert.Equal(t, ErrNotFound, err)
}
