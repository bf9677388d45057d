package cve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

// SeedLoader loads CVE datasets (JSON arrays or CSV files) into the repository.
type SeedLoader struct {
	repo   ports.CVERepository
	logger *slog.Logger
}

// NewSeedLoader creates a new seed loader.
func NewSeedLoader(repo ports.CVERepository, logger *slog.Logger) *SeedLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeedLoader{repo: repo, logger: logger}
}

// ReadFile parses a dataset file, choosing the format by extension (.csv or .json).
func ReadFile(path string) ([]domain.CVERecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return LoadCSV(f)
	}
	var records []domain.CVERecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return records, nil
}

// LoadFromFile upserts every record of one dataset file and returns the count written.
func (s *SeedLoader) LoadFromFile(ctx context.Context, path string) (int, error) {
	s.logger.Info("Loading CVE seed", "path", path)

	records, err := ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.UpsertBatch(ctx, records)
	if err != nil {
		return 0, err
	}
	s.logger.Info("CVE seed loaded", "path", path, "records", n)
	return n, nil
}

// LoadFromMultipleFiles loads several files, skipping those that fail, and records the
// outcome as the sync status of year 0 (local seeds).
func (s *SeedLoader) LoadFromMultipleFiles(ctx context.Context, paths []string) (int, error) {
	total, loaded := 0, 0
	var lastErr error

	for _, p := range paths {
		n, err := s.LoadFromFile(ctx, p)
		if err != nil {
			s.logger.Warn("Failed to load seed", "path", p, "error", err)
			lastErr = err
			continue
		}
		total += n
		loaded++
	}
	s.logger.Info("Seed files processed", "loaded", loaded, "files", len(paths), "records", total)

	status := domain.CVESyncStatus{Year: 0, LastSyncTime: time.Now(), RecordCount: total}
	if lastErr != nil {
		status.ErrorMessage = lastErr.Error()
	}
	if err := s.repo.UpdateSyncStatus(ctx, status); err != nil {
		return total, err
	}
	if loaded == 0 && lastErr != nil {
		return 0, lastErr
	}
	return total, nil
}
