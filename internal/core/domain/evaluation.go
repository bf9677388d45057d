package domain

import "time"

// ArtifactInfo describes a persisted pipeline artifact.
type ArtifactInfo struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	// Classifier names the model implementation.
	Classifier string `json:"classifier"`
	TrainRows  int    `json:"train_rows"`
	// Hold-out accuracy per target.
	AttackAccuracy   float64 `json:"attack_accuracy"`
	SeverityAccuracy float64 `json:"severity_accuracy"`
}

// TargetEvaluation holds the scores of one output of the classifier.
type TargetEvaluation struct {
	Target        string         `json:"target"`
	TrainAccuracy float64        `json:"train_accuracy"`
	TestAccuracy  float64        `json:"test_accuracy"`
	CVMean        float64        `json:"cv_mean"`
	CVStd         float64        `json:"cv_std"`
	ClassCounts   map[string]int `json:"class_counts"`
}

// Evaluation summarizes a training run.
type Evaluation struct {
	TrainRows int                `json:"train_rows"`
	TestRows  int                `json:"test_rows"`
	Folds     int                `json:"folds"`
	Targets   []TargetEvaluation `json:"targets"`
}

// Target returns the evaluation of the named target.
func (e Evaluation) Target(name string) (TargetEvaluation, bool) {
	for _, t := range e.Targets {
		if t.Target == name {
			return t, true
		}
	}
	return TargetEvaluation{}, false
}
