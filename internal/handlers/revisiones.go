package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/grupoheroica/calidadrecintos/internal/middleware"
	"github.com/grupoheroica/calidadrecintos/internal/revision"
)

// maxEvidenciaUpload caps one evidence upload request at 32 MB
const maxEvidenciaUpload = 32 << 20

// listRevisiones returns every revision, optionally filtered by ?search=
func (r *Router) listRevisiones(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	revs, err := r.revisiones.List(db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load revisiones")
		return
	}
	respondJSON(w, http.StatusOK, revision.Search(revs, req.URL.Query().Get("search")))
}

func (r *Router) listRevisionesPendientes(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	revs, err := r.revisiones.ListPendientes(db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load revisiones")
		return
	}
	respondJSON(w, http.StatusOK, revs)
}

func (r *Router) listRevisionesByEvento(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	revs, err := r.revisiones.ListByEvento(db, mux.Vars(req)["idEvento"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load revisiones")
		return
	}
	respondJSON(w, http.StatusOK, revs)
}

func (r *Router) getRevision(w http.ResponseWriter, req *http.Request) {
	db, _, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	rev, err := r.revisiones.Get(db, mux.Vars(req)["id"])
	if err != nil {
		if errors.Is(err, revision.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Revision not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load revision")
		return
	}
	respondJSON(w, http.StatusOK, rev)
}

// createRevision opens a revision in estado 'pendiente'. The author is the
// session's usuario; it never travels in the payload.
func (r *Router) createRevision(w http.ResponseWriter, req *http.Request) {
	db, recinto, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var in revision.CreateInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	in.IDUsuario = middleware.ClaimString(req.Context(), "id")

	rev, err := r.revisiones.Create(db, recinto, in)
	if err != nil {
		if errors.Is(err, revision.ErrValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create revision")
		return
	}
	respondJSON(w, http.StatusCreated, rev)
}

// submitVerification records the quality pass. A stale version claim maps
// to 409 so the client can reload and re-verify.
func (r *Router) submitVerification(w http.ResponseWriter, req *http.Request) {
	db, recinto, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var in revision.VerificationInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	in.AprobadoPorUID = middleware.ClaimString(req.Context(), "uid")
	in.NombreFallback = middleware.ClaimString(req.Context(), "nombre")

	rev, err := r.revisiones.SubmitVerification(db, recinto, mux.Vars(req)["id"], in)
	if err != nil {
		switch {
		case errors.Is(err, revision.ErrNotFound):
			respondError(w, http.StatusNotFound, "Revision not found")
		case errors.Is(err, revision.ErrNotPending):
			respondError(w, http.StatusConflict, "Revision is no longer pending")
		case errors.Is(err, revision.ErrConflict):
			respondError(w, http.StatusConflict, "Revision was modified by another user, reload and retry")
		case errors.Is(err, revision.ErrValidation):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Failed to submit verification")
		}
		return
	}
	respondJSON(w, http.StatusOK, rev)
}

func (r *Router) deleteRevision(w http.ResponseWriter, req *http.Request) {
	db, recinto, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := r.revisiones.Delete(db, recinto, mux.Vars(req)["id"]); err != nil {
		if errors.Is(err, revision.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Revision not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete revision")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// uploadEvidencias stores multipart files (field "files") and appends their
// locators to the revision's evidence list
func (r *Router) uploadEvidencias(w http.ResponseWriter, req *http.Request) {
	db, recinto, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id := mux.Vars(req)["id"]
	rev, err := r.revisiones.Get(db, id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Revision not found")
		return
	}

	if err := req.ParseMultipartForm(maxEvidenciaUpload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	files := req.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "Multipart field 'files' is required")
		return
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "Failed to read upload")
			return
		}
		url, err := r.evidencias.Save(id, fh.Filename, f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to store evidence")
			return
		}
		urls = append(urls, url)
	}

	all := append([]string{}, rev.Evidencias...)
	all = append(all, urls...)
	if err := r.revisiones.UpdateEvidencias(db, recinto, id, all); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update evidence list")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"evidencias": all, "added": urls})
}

// deleteEvidencia removes one locator from the revision first, then the
// blob; a leftover blob after a failed remove is harmless
func (r *Router) deleteEvidencia(w http.ResponseWriter, req *http.Request) {
	db, recinto, err := r.tenant(req)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var in struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil || in.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	id := mux.Vars(req)["id"]
	rev, err := r.revisiones.Get(db, id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Revision not found")
		return
	}

	remaining := make([]string, 0, len(rev.Evidencias))
	found := false
	for _, u := range rev.Evidencias {
		if u == in.URL {
			found = true
			continue
		}
		remaining = append(remaining, u)
	}
	if !found {
		respondError(w, http.StatusNotFound, "Evidence not found on revision")
		return
	}

	if err := r.revisiones.UpdateEvidencias(db, recinto, id, remaining); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update evidence list")
		return
	}
	if err := r.evidencias.Delete(in.URL); err != nil {
		// List is already consistent; the orphaned blob is unreachable
		log.Printf("⚠️ Evidence blob removal failed for %s: %v", in.URL, err)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"evidencias": remaining})
}
