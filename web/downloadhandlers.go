package web

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/NeuralEnsemble/download/conf"
	"github.com/NeuralEnsemble/download/domain"
	"github.com/NeuralEnsemble/download/repo"
	log "github.com/sirupsen/logrus"
)

type listingView struct {
	Reference string
	Current   []domain.Asset
	Older     []domain.Asset
}

// listingHandler shows the installer catalog for a known reference
func (ac *AppContext) listingHandler(w http.ResponseWriter, r *http.Request, ref string) {
	if _, err := ac.r.RequestByReference(ref); err != nil {
		if err == repo.ErrNotFound {
			renderFailure(w, http.StatusNotFound, "Unknown download reference.")
			return
		}
		log.WithError(err).Error("Unable to look up reference")
		renderFailure(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}
	view := listingView{Reference: ref}
	for _, a := range domain.Catalog {
		if a.Current {
			view.Current = append(view.Current, a)
		} else {
			view.Older = append(view.Older, a)
		}
	}
	renderPage(w, http.StatusOK, "listing.tmpl", view)
}

// fetchHandler streams an installer to a client holding a valid reference
// and appends a row to the download log. The catalog allow-list is the only
// mapping from the filename parameter to the download root, so traversal
// attempts never touch the filesystem.
func (ac *AppContext) fetchHandler(w http.ResponseWriter, r *http.Request, ref, dl string) {
	if _, err := ac.r.RequestByReference(ref); err != nil {
		if err == repo.ErrNotFound {
			renderFailure(w, http.StatusNotFound, "Unknown download reference.")
			return
		}
		log.WithError(err).Error("Unable to look up reference")
		renderFailure(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}
	asset, ok := domain.AssetByFilename(dl)
	if !ok {
		log.Warnf("Request for a file outside the catalog - %q", dl)
		renderFailure(w, http.StatusNotFound, "No such file.")
		return
	}

	// Fail before any header goes out if the file is not there
	f, err := os.Open(filepath.Join(conf.Options.Dir, asset.Filename))
	if err != nil {
		log.WithError(err).Errorf("Installer %s missing from download root", asset.Filename)
		renderFailure(w, http.StatusNotFound, "No such file.")
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		log.WithError(err).Errorf("Unable to stat installer %s", asset.Filename)
		renderFailure(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}

	// Best-effort log - a failed insert must not block the transfer
	err = ac.r.AddDownload(&domain.Download{
		ClientServer: clientHost(r),
		Reference:    ref,
		Filename:     asset.Filename,
	})
	if err != nil {
		log.WithError(err).Warnf("Unable to record download of %s for %s", asset.Filename, ref)
	}
	downloadsServed.WithLabelValues(asset.Platform).Inc()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+asset.Filename)
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	w.Header().Set("Cache-Control", "must-revalidate, post-check=0, pre-check=0")
	w.Header().Set("Expires", "0")
	if _, err := io.Copy(w, f); err != nil {
		log.WithError(err).Warnf("Transfer of %s aborted", asset.Filename)
	}
}
