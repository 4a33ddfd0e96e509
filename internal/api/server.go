package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docreview/internal/config"
	"github.com/dgallion1/docreview/internal/feedback"
	"github.com/dgallion1/docreview/internal/pipeline"
)

// Server is the HTTP API server for docreview.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	history      pipeline.History
	llm          *feedback.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, history pipeline.History, llm *feedback.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		history:      history,
		llm:          llm,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DocreviewAPIKey, s.log))

		r.Post("/api/feedback", s.handleFeedback)
		r.Post("/api/feedback/upload", s.handleUpload)
		r.Get("/api/feedback/{jobID}/status", s.handleStatus)
		r.Get("/api/feedback/{jobID}/document", s.handleDocument)

		r.Post("/api/sections", s.handleSections)
		r.Get("/api/documents/{docID}/reviews", s.handleListReviews)
		r.Delete("/api/documents/{docID}/reviews", s.handleForgetReviews)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
