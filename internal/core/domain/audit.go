package domain

import (
	"errors"
	"time"
)

// AuditAction identifies an operator action recorded in the audit log.
type AuditAction string

const (
	ActionHarvest        AuditAction = "HARVEST"
	ActionTrain          AuditAction = "TRAIN"
	ActionArtifactSaved  AuditAction = "ARTIFACT_SAVED"
	ActionArtifactReload AuditAction = "ARTIFACT_RELOAD"
)

var (
	ErrInvalidAction = errors.New("invalid audit action")
	ErrMissingActor  = errors.New("actor is required for auditing")
)

// AuditLog records a state-changing operation on the corpus or the served model.
type AuditLog struct {
	ID        uint        `json:"id"`
	Actor     string      `json:"actor"` // "cli" or the remote address of an admin request
	Action    AuditAction `json:"action"`
	Target    string      `json:"target"` // Artifact id or year list
	Details   string      `json:"details"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewAuditLog validates and stamps an audit entry.
func NewAuditLog(actor string, action AuditAction, target, details string) (*AuditLog, error) {
	if actor == "" {
		return nil, ErrMissingActor
	}
	switch action {
	case ActionHarvest, ActionTrain, ActionArtifactSaved, ActionArtifactReload:
	default:
		return nil, ErrInvalidAction
	}
	return &AuditLog{
		Actor:     actor,
		Action:    action,
		Target:    target,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}, nil
}
