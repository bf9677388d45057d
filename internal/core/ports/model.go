package ports

// Classifier is the trained multi-output model. Each label row holds
// (attack_type, severity_band).
type Classifier interface {
	// Name identifies the implementation inside persisted artifacts.
	Name() string
	Fit(X [][]float64, Y [][2]string) error
	Predict(X [][]float64) ([][2]string, error)
	// Snapshot returns the learned parameters.
	Snapshot() ([]byte, error)
}

// ClassifierFactory creates untrained classifiers and restores trained ones.
type ClassifierFactory interface {
	New() Classifier
	Restore(name string, snapshot []byte) (Classifier, error)
}
