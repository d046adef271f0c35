package web

import (
	"net/http"

	"github.com/NeuralEnsemble/download/domain"
	log "github.com/sirupsen/logrus"
)

func filterFromQuery(r *http.Request) domain.StatsFilter {
	return domain.StatsFilter{
		Reference: r.FormValue("reference"),
		Country:   r.FormValue("country"),
	}
}

// statsHandler returns the aggregate totals, optionally narrowed to one
// reference or country
func (ac *AppContext) statsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := ac.r.Stats(filterFromQuery(r))
	if err != nil {
		log.WithError(err).Warn("Unable to compute stats")
		WriteError(w, ErrInternalServer)
		return
	}
	writeJSON(w, s)
}

// countriesHandler returns requests grouped by country
func (ac *AppContext) countriesHandler(w http.ResponseWriter, r *http.Request) {
	c, err := ac.r.CountryBreakdown(filterFromQuery(r))
	if err != nil {
		log.WithError(err).Warn("Unable to compute country breakdown")
		WriteError(w, ErrInternalServer)
		return
	}
	writeJSON(w, c)
}

type requestRow struct {
	domain.RequestSummary
	State string `json:"state"`
}

// requestsHandler returns the request records with their download counts and
// lifecycle state
func (ac *AppContext) requestsHandler(w http.ResponseWriter, r *http.Request) {
	reqs, err := ac.r.Requests(filterFromQuery(r))
	if err != nil {
		log.WithError(err).Warn("Unable to retrieve requests")
		WriteError(w, ErrInternalServer)
		return
	}
	rows := make([]requestRow, 0, len(reqs))
	for i := range reqs {
		rows = append(rows, requestRow{RequestSummary: reqs[i], State: reqs[i].State().String()})
	}
	writeJSON(w, rows)
}

// downloadLogHandler returns the list of downloads
func (ac *AppContext) downloadLogHandler(w http.ResponseWriter, r *http.Request) {
	l, err := ac.r.Downloads(filterFromQuery(r))
	if err != nil {
		log.WithError(err).Warn("Unable to retrieve download log")
		WriteError(w, ErrInternalServer)
		return
	}
	writeJSON(w, l)
}
