package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"google.golang.org/grpc"

	"github.com/lcalzada-xor/cvelens/internal/adapters/cve"
	"github.com/lcalzada-xor/cvelens/internal/adapters/feed"
	"github.com/lcalzada-xor/cvelens/internal/adapters/model"
	"github.com/lcalzada-xor/cvelens/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/cvelens/internal/adapters/web/server"
	"github.com/lcalzada-xor/cvelens/internal/config"
	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
	"github.com/lcalzada-xor/cvelens/internal/core/services/audit"
	"github.com/lcalzada-xor/cvelens/internal/core/services/features"
	grpcserver "github.com/lcalzada-xor/cvelens/internal/core/services/grpc"
	"github.com/lcalzada-xor/cvelens/internal/core/services/serving"
	"github.com/lcalzada-xor/cvelens/internal/telemetry"
)

// HealthInterval is how often the gRPC health status is refreshed while serving.
const HealthInterval = 5 * time.Second

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config  *config.Config
	Store   *storage.SQLiteAdapter
	Repo    ports.CVERepository
	Scorer  *features.Scorer
	Factory ports.ClassifierFactory
	Service *serving.Service
	Audit   *audit.AuditService
	Feed    ports.FeedSource
	Logger  *slog.Logger
	Actor   string
	closers []func() error
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &Application{
		Config:  cfg,
		Factory: model.Factory{},
		Logger:  logger,
		Actor:   localActor(),
	}

	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	if err := app.initStorage(); err != nil {
		return err
	}

	scorer, err := app.loadScorer()
	if err != nil {
		return err
	}
	app.Scorer = scorer

	app.Service = serving.NewService(app.Store, app.Factory, app.Logger)
	app.Audit = audit.NewAuditService(app.Store, app.Actor)
	app.Feed = feed.NewClient(app.Config.FeedURL,
		feed.WithAPIKey(app.Config.APIKey),
		feed.WithLogger(app.Logger),
	)
	return nil
}

func (app *Application) initStorage() error {
	if app.Config.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
			return fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init artifact storage: %w", err)
	}
	app.Store = store
	app.closers = append(app.closers, store.Close)

	repo, err := cve.NewSQLiteRepository(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init CVE repository: %w", err)
	}
	app.Repo = repo
	app.closers = append(app.closers, repo.Close)
	return nil
}

// loadScorer compiles the configured vocabulary, or the built-in one when none is set.
func (app *Application) loadScorer() (*features.Scorer, error) {
	if app.Config.VocabPath == "" {
		return features.NewDefaultScorer(), nil
	}
	vocab, err := features.LoadVocabulary(app.Config.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	scorer, err := vocab.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile vocabulary %s: %w", app.Config.VocabPath, err)
	}
	app.Logger.Info("Loaded keyword vocabulary", "path", app.Config.VocabPath)
	return scorer, nil
}

// LoadModel serves the artifact file, falling back to the newest stored artifact when
// the file does not exist. Any other failure is returned unchanged.
func (app *Application) LoadModel(ctx context.Context) (domain.ArtifactInfo, error) {
	info, err := app.Service.LoadFile(app.Config.ArtifactPath)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, domain.ErrArtifactNotFound) {
		return domain.ArtifactInfo{}, err
	}

	app.Logger.Warn("Artifact file missing, trying artifact store", "path", app.Config.ArtifactPath)
	info, err = app.Service.Reload(ctx, "")
	if err != nil {
		return domain.ArtifactInfo{}, fmt.Errorf("no artifact at %s and none stored: %w", app.Config.ArtifactPath, err)
	}
	return info, nil
}

// Run loads the model and serves HTTP and gRPC until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	info, err := app.LoadModel(ctx)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	app.Logger.Info("Serving artifact", "id", info.ID, "version", info.Version, "classifier", info.Classifier)

	web := webserver.NewServer(webserver.Options{
		Addr:             app.Config.Addr,
		Service:          app.Service,
		Repo:             app.Repo,
		Store:            app.Store,
		Audit:            app.Store,
		AdminTokenHash:   []byte(app.Config.AdminTokenHash),
		AllowedOrigins:   app.Config.AllowedOrigins,
		PredictRateLimit: app.Config.PredictRateLimit,
		Logger:           app.Logger,
	})
	grpcSrv, reporter := grpcserver.NewGrpcServer(app.Service)
	go reporter.Watch(ctx, HealthInterval)

	errChan := make(chan error, 2)

	go func() {
		if err := web.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	go func() {
		if err := serveGRPC(ctx, grpcSrv, app.Config.GRPCPort, app.Logger); err != nil {
			errChan <- err
		}
	}()

	app.Logger.Info("CVELens ready. Press Ctrl+C to terminate.")

	select {
	case <-ctx.Done():
		app.Logger.Info("Termination signal received")
		return nil
	case err := <-errChan:
		return err
	}
}

func serveGRPC(ctx context.Context, srv *grpc.Server, port int, logger *slog.Logger) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("grpc listen error: %w", err)
	}
	logger.Info("gRPC server listening", "port", port)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("grpc server error: %w", err)
	}
	return nil
}

// record audits an action; failures are logged, never returned.
func (app *Application) record(ctx context.Context, action domain.AuditAction, target, details string) {
	if err := app.Audit.Log(ctx, action, target, details); err != nil {
		app.Logger.Warn("Failed to save audit log", "action", action, "error", err)
	}
}

// Close releases storage handles in reverse order of opening.
func (app *Application) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func localActor() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	if user := os.Getenv("USER"); user != "" {
		return user + "@" + host
	}
	return "cli@" + host
}
