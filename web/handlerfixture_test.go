package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/NeuralEnsemble/download/conf"
	"github.com/NeuralEnsemble/download/domain"
	"github.com/NeuralEnsemble/download/repo"
	"github.com/NeuralEnsemble/download/util"
	"github.com/gorilla/context"
	"github.com/justinas/alice"
)

// fakeStore is an in-memory Store so handler tests run without MySQL
type fakeStore struct {
	mu        sync.Mutex
	requests  []domain.DownloadRequest
	downloads []domain.Download
	users     map[string]domain.User
	failNext  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]domain.User{}}
}

func (f *fakeStore) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) CreateRequest(req *domain.DownloadRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	for i := range f.requests {
		if f.requests[i].Reference == req.Reference {
			return repo.ErrDuplicate
		}
	}
	f.requests = append(f.requests, *req)
	return nil
}

func (f *fakeStore) RequestByReference(ref string) (*domain.DownloadRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	for i := range f.requests {
		if f.requests[i].Reference == ref {
			req := f.requests[i]
			return &req, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeStore) AddDownload(d *domain.Download) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if d.DownloadDate.IsZero() {
		d.DownloadDate = time.Now()
	}
	f.downloads = append(f.downloads, *d)
	return nil
}

func (f *fakeStore) Requests(filter domain.StatsFilter) ([]domain.RequestSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.RequestSummary
	for i := range f.requests {
		r := f.requests[i]
		if filter.Reference != "" && r.Reference != filter.Reference {
			continue
		}
		if filter.Country != "" && r.Country != filter.Country {
			continue
		}
		count := 0
		for j := range f.downloads {
			if f.downloads[j].Reference == r.Reference {
				count++
			}
		}
		res = append(res, domain.RequestSummary{DownloadRequest: r, Downloads: count})
	}
	return res, nil
}

func (f *fakeStore) Downloads(filter domain.StatsFilter) ([]domain.Download, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.Download
	for i := range f.downloads {
		if filter.Reference != "" && f.downloads[i].Reference != filter.Reference {
			continue
		}
		res = append(res, f.downloads[i])
	}
	return res, nil
}

func (f *fakeStore) Stats(filter domain.StatsFilter) (*domain.Stats, error) {
	reqs, _ := f.Requests(filter)
	dls, _ := f.Downloads(filter)
	emails := map[string]bool{}
	for i := range reqs {
		emails[reqs[i].Email] = true
	}
	s := &domain.Stats{Requests: len(reqs), DistinctEmails: len(emails)}
	if filter.Country != "" {
		return s, nil
	}
	s.Downloads = len(dls)
	return s, nil
}

func (f *fakeStore) CountryBreakdown(filter domain.StatsFilter) ([]domain.CountryCount, error) {
	reqs, _ := f.Requests(filter)
	byCountry := map[string]*domain.CountryCount{}
	var res []domain.CountryCount
	for i := range reqs {
		c, ok := byCountry[reqs[i].Country]
		if !ok {
			res = append(res, domain.CountryCount{Country: reqs[i].Country})
			c = &res[len(res)-1]
			byCountry[reqs[i].Country] = c
		}
		c.Requests++
		c.DistinctEmails++
	}
	return res, nil
}

func (f *fakeStore) User(username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (f *fakeStore) SetUser(u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.Username] = *u
	return nil
}

// fakeMailer records outgoing mail instead of talking to a relay
type fakeMailer struct {
	confirmations []domain.DownloadRequest
	notifications []domain.DownloadRequest
	fail          error
}

func (m *fakeMailer) SendConfirmation(req *domain.DownloadRequest) error {
	if m.fail != nil {
		return m.fail
	}
	m.confirmations = append(m.confirmations, *req)
	return nil
}

func (m *fakeMailer) SendNotification(req *domain.DownloadRequest) error {
	if m.fail != nil {
		return m.fail
	}
	m.notifications = append(m.notifications, *req)
	return nil
}

type HandlerFixture struct {
	appcontext *AppContext
	handlers   alice.Chain
	router     *Router
	response   *httptest.ResponseRecorder
	store      *fakeStore
	mailer     *fakeMailer
}

func newHandlerFixture(t *testing.T) *HandlerFixture {
	hf := new(HandlerFixture)
	conf.Default()
	conf.Options.Dir = t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	_, err = os.Stat(filepath.Join(wd, "static"))
	if err != nil {
		up, _ := filepath.Split(wd)
		_, err = os.Stat(filepath.Join(up, "static"))
		if err != nil {
			t.Fatal(err)
		}
		wd = up
	}
	hf.store = newFakeStore()
	hf.mailer = &fakeMailer{}
	admin := &domain.User{Username: "slavik", Type: domain.UserTypeAdmin}
	admin.SetPassword("password")
	hf.store.SetUser(admin)
	hf.appcontext = NewContext(hf.store, hf.mailer)
	hf.handlers = alice.New(context.ClearHandler, recoverHandler)
	hf.router = New(hf.appcontext, filepath.Join(wd, "static"))
	hf.response = httptest.NewRecorder()
	return hf
}

// addRequest seeds an accepted download request and returns its reference
func (hf *HandlerFixture) addRequest(t *testing.T) string {
	req := &domain.DownloadRequest{
		Reference:   domain.NewReference(),
		Name:        "Tester",
		Email:       "tester@acme.com",
		Institution: "Acme",
		Country:     "France",
		RequestDate: time.Now(),
	}
	if err := hf.store.CreateRequest(req); err != nil {
		t.Fatal(err)
	}
	return req.Reference
}

// addInstaller drops a file with the given content into the download root
func (hf *HandlerFixture) addInstaller(t *testing.T, name string, content []byte) {
	if err := os.WriteFile(filepath.Join(conf.Options.Dir, name), content, 0644); err != nil {
		t.Fatal(err)
	}
}

func (hf *HandlerFixture) sendRequest(req *http.Request, isSessionCookie bool, sessionValue string) {
	hf.response = httptest.NewRecorder()

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	pass := conf.Options.Security.SessionKey
	val, cErr := util.Encrypt(noXSRFAllowed+time.Now().String(), []byte(pass))
	if cErr == nil {
		req.AddCookie(&http.Cookie{Name: xsrfCookie, Value: val})
		req.Header.Set(xsrfHeader, val)
	}
	if isSessionCookie {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionValue})
	}

	hf.router.ServeHTTP(hf.response, req)
}

// sendPublic sends a plain browser-style request to the public surface
func (hf *HandlerFixture) sendPublic(req *http.Request) {
	hf.response = httptest.NewRecorder()
	hf.router.ServeHTTP(hf.response, req)
}
