package ports

import (
	"context"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// ArtifactStore persists serialized pipeline artifacts.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, info domain.ArtifactInfo, payload []byte) error
	GetArtifact(ctx context.Context, id string) (domain.ArtifactInfo, []byte, error)
	// LatestArtifact returns the most recently created artifact.
	LatestArtifact(ctx context.Context) (domain.ArtifactInfo, []byte, error)
	ListArtifacts(ctx context.Context, limit int) ([]domain.ArtifactInfo, error)
	Close() error
}
