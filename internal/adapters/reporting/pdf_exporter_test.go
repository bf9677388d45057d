package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

func sampleReport() *domain.TrainingReport {
	frame := domain.NewFrame(2).
		WithText("vendor", []string{"acme", ""}, []bool{true, false}).
		WithNumeric("desc_len", []float64{12, 40}, nil)

	return &domain.TrainingReport{
		Metadata: domain.ReportMetadata{
			ID:          "0f8fad5b-d9cb-469f-a165-70867728950e",
			Title:       "CVE Classifier Training Report",
			GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			GeneratedBy: "cli",
		},
		Artifact: domain.ArtifactInfo{
			ID:               "0f8fad5b-d9cb-469f-a165-70867728950e",
			Version:          1,
			Classifier:       "nearest_centroid",
			TrainRows:        8,
			AttackAccuracy:   0.9,
			SeverityAccuracy: 0.5,
		},
		Stats: domain.TrainingStats{Input: 12, Withdrawn: 1, Labelled: 11, BandsDerived: 10, Rows: 10},
		Evaluation: domain.Evaluation{
			TrainRows: 8,
			TestRows:  2,
			Folds:     3,
			Targets: []domain.TargetEvaluation{
				{Target: domain.ColAttackType, TrainAccuracy: 1, TestAccuracy: 0.9, CVMean: 0.8, CVStd: 0.1,
					ClassCounts: map[string]int{"XSS": 4, "SQLi": 4}},
				{Target: domain.ColSeverityBand, TrainAccuracy: 0.75, TestAccuracy: 0.5,
					ClassCounts: map[string]int{"High": 8}},
			},
		},
		Features: frame,
	}
}

func TestPDFExporterExportTrainingReport(t *testing.T) {
	exporter := NewPDFExporter()

	pdfBytes, err := exporter.ExportTrainingReport(sampleReport())
	require.NoError(t, err)
	assert.NotEmpty(t, pdfBytes)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")), "Output should be a valid PDF")
}

func TestPDFExporterEmptyEvaluation(t *testing.T) {
	exporter := NewPDFExporter()
	report := &domain.TrainingReport{Metadata: domain.ReportMetadata{Title: "Empty", ID: "x"}}

	pdfBytes, err := exporter.ExportTrainingReport(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))
}

func TestGetAccuracyColor(t *testing.T) {
	e := NewPDFExporter()
	r, g, _ := e.getAccuracyColor(0.9)
	assert.Equal(t, 52, r)
	assert.Equal(t, 199, g)

	r, _, _ = e.getAccuracyColor(0.1)
	assert.Equal(t, 220, r)
}
