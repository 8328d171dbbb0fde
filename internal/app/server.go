package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Wikifaq/internal/api/handlers"
	"github.com/markdave123-py/Wikifaq/internal/config"
	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/core/wiki"
	"github.com/markdave123-py/Wikifaq/internal/pipeline"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, source *wiki.Client, emb core.EmbeddingProvider, index core.VectorIndex, orch *pipeline.Orchestrator, arch core.ObjectClient) *Server {
	faqHandler := handlers.NewFaqHandler(db)
	searchHandler := handlers.NewSearchHandler(emb, index)
	processHandler := handlers.NewProcessHandler(db, orch, source)
	snapshotHandler := handlers.NewSnapshotHandler(arch, cfg.BucketName)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/pages", faqHandler.ListPages)
		api.Get("/pages/{slug}/snapshot", snapshotHandler.GetPageSnapshot)
		api.Get("/faqs/{slug}", faqHandler.GetPageFaqs)
		api.Get("/search", searchHandler.Search)
		api.Get("/queue/stats", faqHandler.QueueStats)
		api.Post("/process", processHandler.TriggerRun)
		api.Post("/queue", processHandler.EnqueuePages)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
