package audit

import (
	"context"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

type actorKey struct{}

// WithActor returns a context whose audit entries are attributed to actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// AuditService records operator actions through an AuditRepository.
type AuditService struct {
	repo         ports.AuditRepository
	defaultActor string
}

// NewAuditService creates a service attributing entries to defaultActor unless the
// context carries one.
func NewAuditService(repo ports.AuditRepository, defaultActor string) *AuditService {
	if defaultActor == "" {
		defaultActor = "system"
	}
	return &AuditService{repo: repo, defaultActor: defaultActor}
}

func (s *AuditService) Log(ctx context.Context, action domain.AuditAction, target, details string) error {
	actor := s.defaultActor
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		actor = a
	}

	// Use Domain Factory to ensure business rules
	entry, err := domain.NewAuditLog(actor, action, target, details)
	if err != nil {
		return err
	}

	return s.repo.SaveAuditLog(ctx, *entry)
}

func (s *AuditService) GetLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, limit)
}
