package ports

import (
	"context"
	"time"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// CVERepository defines the interface for CVE database operations.
type CVERepository interface {
	// Get specific CVE by ID
	GetByID(ctx context.Context, cveID string) (*domain.CVERecord, error)

	// List records matching the filter, newest first
	List(ctx context.Context, filter domain.RecordFilter) ([]domain.CVERecord, error)

	// Write operations
	UpsertRecord(ctx context.Context, record domain.CVERecord) error
	UpsertBatch(ctx context.Context, records []domain.CVERecord) (int, error)

	// Sync operations
	GetLastSyncTime(ctx context.Context) (time.Time, error)
	UpdateSyncStatus(ctx context.Context, status domain.CVESyncStatus) error
	ListSyncStatus(ctx context.Context) ([]domain.CVESyncStatus, error)

	// Utility
	CountByAttackType(ctx context.Context) (map[domain.AttackType]int, error)
	GetTotalCount(ctx context.Context) (int, error)
	Close() error
}

// FeedSource downloads one year of vulnerability records.
type FeedSource interface {
	FetchYear(ctx context.Context, year int) ([]domain.CVERecord, error)
}
