package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/services/features"
)

// ArtifactVersion is the artifact layout written by this build.
const ArtifactVersion = 1

// Artifact is the persisted form of a trained pipeline: learned parameters only.
type Artifact struct {
	Version        int               `json:"version"`
	ID             string            `json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	FeatureColumns []string          `json:"feature_columns"`
	Features       features.Snapshot `json:"features"`
	Preprocessor   json.RawMessage   `json:"preprocessor"`
	Classifier     ClassifierBlob    `json:"classifier"`
	Metrics        ArtifactMetrics   `json:"metrics"`
}

// ClassifierBlob carries a classifier snapshot and the implementation that reads it.
type ClassifierBlob struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
}

// ArtifactMetrics are the headline numbers of the run that produced the artifact.
type ArtifactMetrics struct {
	TrainRows        int     `json:"train_rows"`
	AttackAccuracy   float64 `json:"attack_accuracy"`
	SeverityAccuracy float64 `json:"severity_accuracy"`
}

// Info summarizes the artifact.
func (a *Artifact) Info() domain.ArtifactInfo {
	return domain.ArtifactInfo{
		ID:               a.ID,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		Classifier:       a.Classifier.Name,
		TrainRows:        a.Metrics.TrainRows,
		AttackAccuracy:   a.Metrics.AttackAccuracy,
		SeverityAccuracy: a.Metrics.SeverityAccuracy,
	}
}

// Marshal encodes the artifact as indented JSON.
func (a *Artifact) Marshal() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// UnmarshalArtifact decodes an artifact and checks its layout version.
func UnmarshalArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("decode artifact: unsupported version %d", a.Version)
	}
	if len(a.FeatureColumns) == 0 {
		return nil, errors.New("decode artifact: no feature columns")
	}
	return &a, nil
}

// WriteFile stores the artifact at path, creating parent directories. The file is
// replaced atomically.
func (a *Artifact) WriteFile(path string) error {
	data, err := a.Marshal()
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadArtifactFile loads an artifact written by WriteFile. A missing file yields an
// error matching domain.ErrArtifactNotFound.
func ReadArtifactFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return UnmarshalArtifact(data)
}
