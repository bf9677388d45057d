package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

// SQLiteAdapter implements ports.ArtifactStore and ports.AuditRepository using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// ArtifactModel is the GORM model for fitted pipeline artifacts.
type ArtifactModel struct {
	ID               string    `gorm:"primaryKey"`
	Version          int       // Artifact format version
	CreatedAt        time.Time `gorm:"index"`
	Classifier       string
	TrainRows        int
	AttackAccuracy   float64
	SeverityAccuracy float64
	Payload          []byte // JSON artifact
}

// AuditModel is the GORM model for audit entries.
type AuditModel struct {
	ID        uint `gorm:"primaryKey"`
	Actor     string
	Action    string `gorm:"index"`
	Target    string
	Details   string
	Timestamp time.Time `gorm:"index"`
}

// NewSQLiteAdapter opens the database, installs the tracing plugin and migrates the schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("install tracing plugin: %w", err)
	}
	if err := db.AutoMigrate(&ArtifactModel{}, &AuditModel{}); err != nil {
		return nil, err
	}
	return &SQLiteAdapter{db: db}, nil
}

// SaveArtifact stores a payload under info.ID, replacing any previous version.
func (a *SQLiteAdapter) SaveArtifact(ctx context.Context, info domain.ArtifactInfo, payload []byte) error {
	if info.ID == "" {
		return errors.New("artifact id is required")
	}
	model := toArtifactModel(info, payload)
	return a.db.WithContext(ctx).Save(&model).Error
}

// GetArtifact retrieves an artifact by id.
func (a *SQLiteAdapter) GetArtifact(ctx context.Context, id string) (domain.ArtifactInfo, []byte, error) {
	var model ArtifactModel
	if err := a.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return domain.ArtifactInfo{}, nil, notFound(err, id)
	}
	return toArtifactInfo(model), model.Payload, nil
}

// LatestArtifact retrieves the most recently created artifact.
func (a *SQLiteAdapter) LatestArtifact(ctx context.Context) (domain.ArtifactInfo, []byte, error) {
	var model ArtifactModel
	if err := a.db.WithContext(ctx).Order("created_at desc").First(&model).Error; err != nil {
		return domain.ArtifactInfo{}, nil, notFound(err, "latest")
	}
	return toArtifactInfo(model), model.Payload, nil
}

// ListArtifacts returns artifact metadata, newest first. Payloads are not loaded.
func (a *SQLiteAdapter) ListArtifacts(ctx context.Context, limit int) ([]domain.ArtifactInfo, error) {
	query := a.db.WithContext(ctx).
		Select("id", "version", "created_at", "classifier", "train_rows", "attack_accuracy", "severity_accuracy").
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []ArtifactModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	infos := make([]domain.ArtifactInfo, len(models))
	for i, m := range models {
		infos[i] = toArtifactInfo(m)
	}
	return infos, nil
}

// SaveAuditLog appends an audit entry.
func (a *SQLiteAdapter) SaveAuditLog(ctx context.Context, log domain.AuditLog) error {
	model := AuditModel{
		Actor:     log.Actor,
		Action:    string(log.Action),
		Target:    log.Target,
		Details:   log.Details,
		Timestamp: log.Timestamp,
	}
	return a.db.WithContext(ctx).Create(&model).Error
}

// ListAuditLogs returns the newest audit entries.
func (a *SQLiteAdapter) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	var models []AuditModel
	if err := a.db.WithContext(ctx).Order("timestamp desc, id desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	logs := make([]domain.AuditLog, len(models))
	for i, m := range models {
		logs[i] = domain.AuditLog{
			ID:        m.ID,
			Actor:     m.Actor,
			Action:    domain.AuditAction(m.Action),
			Target:    m.Target,
			Details:   m.Details,
			Timestamp: m.Timestamp,
		}
	}
	return logs, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("artifact %s: %w", id, domain.ErrArtifactNotFound)
	}
	return err
}

func toArtifactModel(info domain.ArtifactInfo, payload []byte) ArtifactModel {
	created := info.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return ArtifactModel{
		ID:               info.ID,
		Version:          info.Version,
		CreatedAt:        created,
		Classifier:       info.Classifier,
		TrainRows:        info.TrainRows,
		AttackAccuracy:   info.AttackAccuracy,
		SeverityAccuracy: info.SeverityAccuracy,
		Payload:          payload,
	}
}

func toArtifactInfo(m ArtifactModel) domain.ArtifactInfo {
	return domain.ArtifactInfo{
		ID:               m.ID,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		Classifier:       m.Classifier,
		TrainRows:        m.TrainRows,
		AttackAccuracy:   m.AttackAccuracy,
		SeverityAccuracy: m.SeverityAccuracy,
	}
}

// Ensure interface compliance
var (
	_ ports.ArtifactStore   = (*SQLiteAdapter)(nil)
	_ ports.AuditRepository = (*SQLiteAdapter)(nil)
)
