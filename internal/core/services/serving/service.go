// Package serving owns the pipeline currently used for predictions and swaps it
// atomically when a new artifact is promoted.
package serving

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
	"github.com/lcalzada-xor/cvelens/internal/core/services/pipeline"
	"github.com/lcalzada-xor/cvelens/internal/telemetry"
)

// Service implements ports.PredictionService.
type Service struct {
	current atomic.Pointer[pipeline.Pipeline]
	store   ports.ArtifactStore
	factory ports.ClassifierFactory
	logger  *slog.Logger
}

var _ ports.PredictionService = (*Service)(nil)

// NewService creates a service with nothing loaded. store may be nil, in which case
// Reload is unavailable.
func NewService(store ports.ArtifactStore, factory ports.ClassifierFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, factory: factory, logger: logger}
}

// LoadFile promotes the artifact stored at path.
func (s *Service) LoadFile(path string) (domain.ArtifactInfo, error) {
	a, err := pipeline.ReadArtifactFile(path)
	if err != nil {
		return domain.ArtifactInfo{}, err
	}
	return s.promote(a)
}

// Use promotes an already fitted pipeline.
func (s *Service) Use(p *pipeline.Pipeline) {
	s.current.Store(p)
	info := p.Info()
	s.logger.Info("Pipeline promoted", "artifact_id", info.ID, "created_at", info.CreatedAt)
}

func (s *Service) promote(a *pipeline.Artifact) (domain.ArtifactInfo, error) {
	p, err := pipeline.Load(a, s.factory, s.logger)
	if err != nil {
		return domain.ArtifactInfo{}, fmt.Errorf("load artifact %s: %w", a.ID, err)
	}
	s.Use(p)
	return p.Info(), nil
}

// Reload implements ports.PredictionService. On failure the serving pipeline is kept.
func (s *Service) Reload(ctx context.Context, id string) (domain.ArtifactInfo, error) {
	if s.store == nil {
		return domain.ArtifactInfo{}, errors.New("reload: no artifact store configured")
	}
	var (
		payload []byte
		err     error
	)
	if id == "" {
		_, payload, err = s.store.LatestArtifact(ctx)
	} else {
		_, payload, err = s.store.GetArtifact(ctx, id)
	}
	if err != nil {
		return domain.ArtifactInfo{}, err
	}
	a, err := pipeline.UnmarshalArtifact(payload)
	if err != nil {
		return domain.ArtifactInfo{}, err
	}
	return s.promote(a)
}

// Info implements ports.PredictionService.
func (s *Service) Info() (domain.ArtifactInfo, bool) {
	p := s.current.Load()
	if p == nil {
		return domain.ArtifactInfo{}, false
	}
	return p.Info(), true
}

// Predict implements ports.PredictionService.
func (s *Service) Predict(ctx context.Context, records []domain.CVERecord) ([]domain.Prediction, error) {
	p := s.current.Load()
	if p == nil {
		return nil, domain.ErrModelNotLoaded
	}

	start := time.Now()
	preds, diag, err := p.Predict(ctx, records)
	telemetry.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	for _, col := range diag.MissingColumns {
		telemetry.MissingColumns.WithLabelValues(col).Inc()
	}
	for col, n := range diag.UnseenCategories {
		telemetry.UnseenCategories.WithLabelValues(col).Add(float64(n))
	}
	for _, pr := range preds {
		telemetry.PredictionsTotal.WithLabelValues(string(pr.AttackType), string(pr.SeverityBand)).Inc()
	}
	return preds, nil
}
