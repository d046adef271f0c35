package web

import (
	"github.com/NeuralEnsemble/download/domain"
	"github.com/NeuralEnsemble/download/mail"
)

// Store is the persistence surface the handlers need. It is satisfied by
// *repo.Repo and injected so tests can swap an in-memory fake.
type Store interface {
	CreateRequest(req *domain.DownloadRequest) error
	RequestByReference(ref string) (*domain.DownloadRequest, error)
	AddDownload(d *domain.Download) error
	Requests(f domain.StatsFilter) ([]domain.RequestSummary, error)
	Downloads(f domain.StatsFilter) ([]domain.Download, error)
	Stats(f domain.StatsFilter) (*domain.Stats, error)
	CountryBreakdown(f domain.StatsFilter) ([]domain.CountryCount, error)
	User(username string) (*domain.User, error)
	SetUser(u *domain.User) error
}

// AppContext holds the web context for the handlers
type AppContext struct {
	r Store
	m mail.Sender
}

// NewContext creates a new context
func NewContext(r Store, m mail.Sender) *AppContext {
	return &AppContext{r: r, m: m}
}

type session struct {
	User string `json:"user"`
	When int64  `json:"when"`
}
