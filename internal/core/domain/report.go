package domain

import "time"

// TrainingStats counts what happened to the input records of a training run.
type TrainingStats struct {
	Input        int `json:"input"`
	Withdrawn    int `json:"withdrawn"`
	Labelled     int `json:"labelled"`
	BandsDerived int `json:"bands_derived"`
	Dropped      int `json:"dropped_without_targets"`
	Rows         int `json:"rows"`
}

// ReportMetadata identifies a generated report.
type ReportMetadata struct {
	ID          string
	Title       string
	GeneratedAt time.Time
	GeneratedBy string
}

// TrainingReport aggregates everything exported after a training run.
type TrainingReport struct {
	Metadata   ReportMetadata
	Artifact   ArtifactInfo
	Stats      TrainingStats
	Evaluation Evaluation
	// Features is the engineered frame of the fitted rows; optional.
	Features *Frame
}
