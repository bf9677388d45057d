package web

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// MockPredictionService is a mock of ports.PredictionService
type MockPredictionService struct {
	mock.Mock
}

func (m *MockPredictionService) Predict(ctx context.Context, records []domain.CVERecord) ([]domain.Prediction, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Prediction), args.Error(1)
}

func (m *MockPredictionService) Info() (domain.ArtifactInfo, bool) {
	args := m.Called()
	return args.Get(0).(domain.ArtifactInfo), args.Bool(1)
}

func (m *MockPredictionService) Reload(ctx context.Context, id string) (domain.ArtifactInfo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ArtifactInfo), args.Error(1)
}

// MockCVERepository is a mock of ports.CVERepository
type MockCVERepository struct {
	mock.Mock
}

func (m *MockCVERepository) GetByID(ctx context.Context, cveID string) (*domain.CVERecord, error) {
	args := m.Called(ctx, cveID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CVERecord), args.Error(1)
}

func (m *MockCVERepository) List(ctx context.Context, filter domain.RecordFilter) ([]domain.CVERecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CVERecord), args.Error(1)
}

func (m *MockCVERepository) UpsertRecord(ctx context.Context, record domain.CVERecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockCVERepository) UpsertBatch(ctx context.Context, records []domain.CVERecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockCVERepository) GetLastSyncTime(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockCVERepository) UpdateSyncStatus(ctx context.Context, status domain.CVESyncStatus) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *MockCVERepository) ListSyncStatus(ctx context.Context) ([]domain.CVESyncStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CVESyncStatus), args.Error(1)
}

func (m *MockCVERepository) CountByAttackType(ctx context.Context) (map[domain.AttackType]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.AttackType]int), args.Error(1)
}

func (m *MockCVERepository) GetTotalCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCVERepository) Close() error {
	return m.Called().Error(0)
}

// MockArtifactStore is a mock of ports.ArtifactStore
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) SaveArtifact(ctx context.Context, info domain.ArtifactInfo, payload []byte) error {
	args := m.Called(ctx, info, payload)
	return args.Error(0)
}

func (m *MockArtifactStore) GetArtifact(ctx context.Context, id string) (domain.ArtifactInfo, []byte, error) {
	args := m.Called(ctx, id)
	payload, _ := args.Get(1).([]byte)
	return args.Get(0).(domain.ArtifactInfo), payload, args.Error(2)
}

func (m *MockArtifactStore) LatestArtifact(ctx context.Context) (domain.ArtifactInfo, []byte, error) {
	args := m.Called(ctx)
	payload, _ := args.Get(1).([]byte)
	return args.Get(0).(domain.ArtifactInfo), payload, args.Error(2)
}

func (m *MockArtifactStore) ListArtifacts(ctx context.Context, limit int) ([]domain.ArtifactInfo, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ArtifactInfo), args.Error(1)
}

func (m *MockArtifactStore) Close() error {
	return m.Called().Error(0)
}

// MockAuditRepository is a mock of ports.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) SaveAuditLog(ctx context.Context, log domain.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditRepository) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}
