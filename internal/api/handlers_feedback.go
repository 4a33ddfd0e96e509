package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docreview/internal/annotate"
	"github.com/dgallion1/docreview/internal/parser"
	"github.com/dgallion1/docreview/internal/pipeline"
)

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Document) == "" {
		jsonError(w, "document is required", http.StatusBadRequest)
		return
	}

	s.submit(w, pipeline.NewJob(req))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewJob(pipeline.Request{
		DocType:      r.FormValue("doc_type"),
		Focus:        r.FormValue("focus"),
		Instructions: r.FormValue("instructions"),
		Language:     r.FormValue("language"),
		Mode:         r.FormValue("mode"),
		Force:        r.FormValue("force") == "true",
	})
	job.Local = true
	job.Filename = filename
	job.SetFileData(data)

	s.submit(w, job)
}

func (s *Server) submit(w http.ResponseWriter, job *pipeline.Job) {
	if err := s.orchestrator.Submit(job); err != nil {
		code := http.StatusServiceUnavailable
		if pipeline.IsInputError(err) {
			code = http.StatusBadRequest
		}
		jsonError(w, err.Error(), code)
		return
	}

	resp := map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/feedback/%s/status", job.ID),
	}
	if job.Local {
		resp["document_url"] = fmt.Sprintf("/api/feedback/%s/document", job.ID)
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleDocument returns the annotated text of an uploaded document.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if !snap.Local {
		jsonError(w, "only uploaded documents can be downloaded; open the Google Doc instead", http.StatusBadRequest)
		return
	}
	if !snap.Status.Terminal() {
		jsonError(w, "job is still running", http.StatusConflict)
		return
	}

	text, err := s.orchestrator.Store().Render(snap.ID)
	if err != nil {
		jsonError(w, "document not available", http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		comments, _ := s.orchestrator.Store().Comments(snap.ID)
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id":   snap.ID,
			"text":     text,
			"comments": comments,
		})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

// statusForError maps pipeline and backend failures to HTTP codes.
func statusForError(err error) int {
	switch {
	case pipeline.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, annotate.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, annotate.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
