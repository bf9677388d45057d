// Package pipeline composes cleaning, feature creation, preprocessing and the classifier
// into a trainable and servable unit.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
	"github.com/lcalzada-xor/cvelens/internal/core/services/features"
	"github.com/lcalzada-xor/cvelens/internal/core/services/preprocess"
	"github.com/lcalzada-xor/cvelens/internal/core/services/textnorm"
)

// Columns that identify or describe a record but never reach the classifier.
var passThroughColumns = []string{domain.ColCVEID, domain.ColDescription, domain.ColPublishDate}

// Pipeline is a fitted prediction unit. It holds no mutable state and is safe for
// concurrent Predict calls.
type Pipeline struct {
	info     domain.ArtifactInfo
	features *features.FittedFeatures
	prep     preprocess.State
	clf      ports.Classifier
	columns  []string
	logger   *slog.Logger
}

// Load rebuilds a pipeline from an artifact.
func Load(a *Artifact, factory ports.ClassifierFactory, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ff, err := features.Restore(a.Features)
	if err != nil {
		return nil, err
	}
	st, err := preprocess.RestoreSnapshot(a.Preprocessor, logger)
	if err != nil {
		return nil, err
	}
	clf, err := factory.Restore(a.Classifier.Name, a.Classifier.Params)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		info:     a.Info(),
		features: ff,
		prep:     st,
		clf:      clf,
		columns:  append([]string(nil), a.FeatureColumns...),
		logger:   logger,
	}, nil
}

// Info describes the artifact this pipeline was built from.
func (p *Pipeline) Info() domain.ArtifactInfo {
	return p.info
}

// FeatureColumns lists the classifier input columns in matrix order.
func (p *Pipeline) FeatureColumns() []string {
	return append([]string(nil), p.columns...)
}

// Predict classifies records. Records are cleaned without the withdrawn filter, so
// every input yields exactly one prediction in input order.
func (p *Pipeline) Predict(ctx context.Context, records []domain.CVERecord) ([]domain.Prediction, domain.Diagnostics, error) {
	_, span := otel.Tracer("pipeline").Start(ctx, "Predict")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(records)))

	var diag domain.Diagnostics
	if len(records) == 0 {
		return []domain.Prediction{}, diag, nil
	}

	cleaned, _ := textnorm.CleanRecords(records, textnorm.ModeInference, p.logger)
	X, diag, err := p.matrix(cleaned)
	if err != nil {
		span.RecordError(err)
		return nil, diag, err
	}

	labels, err := p.clf.Predict(X)
	if err != nil {
		span.RecordError(err)
		return nil, diag, fmt.Errorf("classifier predict: %w", err)
	}

	preds := make([]domain.Prediction, len(cleaned))
	for i, l := range labels {
		at, band := domain.AttackType(l[0]), domain.SeverityBand(l[1])
		if !at.IsValid() || !band.IsValid() {
			return nil, diag, fmt.Errorf("%w: (%q, %q)", domain.ErrUnknownLabel, l[0], l[1])
		}
		preds[i] = domain.Prediction{CVEID: cleaned[i].ID, AttackType: at, SeverityBand: band}
	}
	return preds, diag, nil
}

// matrix runs feature creation and preprocessing on cleaned records.
func (p *Pipeline) matrix(cleaned []domain.CVERecord) ([][]float64, domain.Diagnostics, error) {
	frame := p.features.Transform(domain.FrameFromRecords(cleaned, false))
	out, diag, err := p.prep.Transform(frame.Drop(passThroughColumns...))
	if err != nil {
		return nil, diag, fmt.Errorf("preprocess: %w", err)
	}
	X, err := out.Matrix(p.columns)
	if err != nil {
		return nil, diag, err
	}
	return X, diag, nil
}
