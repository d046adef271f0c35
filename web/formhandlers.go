package web

import (
	"net"
	"net/http"
	"strings"

	"github.com/NeuralEnsemble/download/domain"
	"github.com/NeuralEnsemble/download/mail"
	"github.com/NeuralEnsemble/download/repo"
	log "github.com/sirupsen/logrus"
)

// How many fresh references to try before giving up on a unique insert.
// Collisions are astronomically unlikely, the loop is for the constraint.
const maxReferenceAttempts = 5

// dispatchHandler is the single parameter-driven endpoint: no parameters
// renders the form, a reference alone lists the installers, a reference plus
// filename streams the file and a filled form runs intake.
func (ac *AppContext) dispatchHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderFailure(w, http.StatusBadRequest, "Malformed request.")
		return
	}
	ref := r.FormValue("reference")
	dl := r.FormValue("dl")
	switch {
	case ref != "" && dl != "":
		ac.fetchHandler(w, r, ref, dl)
	case ref != "":
		ac.listingHandler(w, r, ref)
	case r.FormValue("email") != "":
		ac.intakeHandler(w, r)
	default:
		renderPage(w, http.StatusOK, "form.tmpl", nil)
	}
}

// clientHost resolves the submitting client to a hostname via reverse DNS,
// falling back to the bare address
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	names, err := net.LookupAddr(host)
	if err != nil || len(names) == 0 {
		return host
	}
	return strings.TrimSuffix(names[0], ".")
}

// intakeHandler validates the submission, persists the request with a fresh
// reference and mails the continuation link. No side effect happens before
// all checks pass.
func (ac *AppContext) intakeHandler(w http.ResponseWriter, r *http.Request) {
	sub := &domain.Submission{
		Name:                r.FormValue("name"),
		Email:               r.FormValue("email"),
		Institution:         r.FormValue("institution"),
		Country:             r.FormValue("country"),
		BrainRegionSel:      r.FormValue("brainRegionSel"),
		BrainRegion:         r.FormValue("brainRegion"),
		ResearchTopic:       r.FormValue("researchTopic"),
		DescriptionResearch: r.FormValue("descriptionResearch"),
		Comment:             r.FormValue("comment"),
	}
	if verr := sub.Validate(); verr != nil {
		intakeRejected.WithLabelValues(verr.Field).Inc()
		renderFailure(w, http.StatusBadRequest, verr.Message)
		return
	}

	req := sub.Request(clientHost(r))
	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		err = ac.r.CreateRequest(req)
		if err != repo.ErrDuplicate {
			break
		}
		log.Warnf("Reference collision on %s, reissuing", req.Reference)
		req.Reference = domain.NewReference()
	}
	if err != nil {
		log.WithError(err).Error("Unable to save download request")
		renderFailure(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}
	intakeAccepted.Inc()

	// Mail is best-effort: the request is already committed and stays so
	if err := ac.m.SendConfirmation(req); err != nil {
		log.WithError(err).Warnf("Unable to send confirmation mail to %s", req.Email)
	}
	if err := ac.m.SendNotification(req); err != nil {
		log.WithError(err).Warn("Unable to send notification mail")
	}

	renderPage(w, http.StatusOK, "confirm.tmpl", map[string]string{
		"URL": mail.DownloadURL(req.Reference),
	})
}
