package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type sectionsRequest struct {
	Document string `json:"document"`
	JobID    string `json:"job_id"` // Preview an uploaded document instead
}

// handleSections segments a document without any LLM calls.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req sectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	document, local := req.Document, false
	if req.JobID != "" {
		job := s.orchestrator.GetJob(req.JobID)
		if job == nil || !job.Snapshot().Local {
			jsonError(w, "upload job not found", http.StatusNotFound)
			return
		}
		document, local = req.JobID, true
	}
	if document == "" {
		jsonError(w, "document or job_id is required", http.StatusBadRequest)
		return
	}

	preview, err := s.orchestrator.Preview(r.Context(), document, local)
	if err != nil {
		jsonError(w, err.Error(), statusForError(err))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleListReviews lists past review runs for a document, newest first.
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "review history is not configured", http.StatusServiceUnavailable)
		return
	}
	docID := chi.URLParam(r, "docID")
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.history.List(r.Context(), docID, limit)
	if err != nil {
		jsonError(w, "failed to list reviews: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": docID,
		"reviews":     runs,
	})
}

// handleForgetReviews drops the review history of a document so the next
// request is not treated as a duplicate.
func (s *Server) handleForgetReviews(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "review history is not configured", http.StatusServiceUnavailable)
		return
	}
	docID := chi.URLParam(r, "docID")
	if err := s.history.Forget(r.Context(), docID); err != nil {
		jsonError(w, "failed to delete reviews: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
