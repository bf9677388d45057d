package ports

import (
	"context"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// AuditRepository stores operator actions.
type AuditRepository interface {
	SaveAuditLog(ctx context.Context, log domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
