package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/cvelens/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/cvelens/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/cvelens/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

// Options wires the server to the application services.
type Options struct {
	Addr    string
	Service ports.PredictionService
	Repo    ports.CVERepository
	Store   ports.ArtifactStore
	Audit   ports.AuditRepository
	// AdminTokenHash is the bcrypt hash of the admin bearer token; empty disables admin routes.
	AdminTokenHash []byte
	// AllowedOrigins for the websocket endpoint.
	AllowedOrigins []string
	// PredictRateLimit is the per-client request budget per minute on predict routes.
	PredictRateLimit int
	Logger           *slog.Logger
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr            string
	AdminTokenHash  []byte
	PredictHandler  *handlers.PredictHandler
	RecordHandler   *handlers.RecordHandler
	ArtifactHandler *handlers.ArtifactHandler
	WSManager       *websocket.WSManager
	predictLimiter  *middleware.RateLimiter
	logger          *slog.Logger
	srv             *http.Server
}

// NewServer creates a new web server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.PredictRateLimit
	if limit <= 0 {
		limit = 120
	}

	ws := websocket.NewWSManager(opts.Service, opts.AllowedOrigins, logger)
	artifacts := handlers.NewArtifactHandler(opts.Store, opts.Service, opts.Audit)
	artifacts.OnReload = ws.NotifyReload

	return &Server{
		Addr:            opts.Addr,
		AdminTokenHash:  opts.AdminTokenHash,
		PredictHandler:  handlers.NewPredictHandler(opts.Service, logger),
		RecordHandler:   handlers.NewRecordHandler(opts.Repo),
		ArtifactHandler: artifacts,
		WSManager:       ws,
		predictLimiter:  middleware.NewRateLimiter(limit, time.Minute),
		logger:          logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.WSManager.Start(ctx)
	defer s.predictLimiter.Stop()

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           otelhttp.NewHandler(SetupRoutes(s), "cvelens-server"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("Web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Web server shutdown error", "error", err)
		}
	}()

	s.logger.Info("Web server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
