package ports

import (
	"context"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// PredictionService serves predictions from the currently loaded pipeline.
type PredictionService interface {
	// Predict classifies records. It fails with domain.ErrModelNotLoaded before a load.
	Predict(ctx context.Context, records []domain.CVERecord) ([]domain.Prediction, error)

	// Info describes the loaded artifact; ok is false when nothing is loaded.
	Info() (info domain.ArtifactInfo, ok bool)

	// Reload swaps in the newest stored artifact, or the one named by id.
	Reload(ctx context.Context, id string) (domain.ArtifactInfo, error)
}
