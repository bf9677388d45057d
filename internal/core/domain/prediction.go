package domain

// Prediction is the classifier output for one record.
type Prediction struct {
	CVEID        string       `json:"cve_id"`
	AttackType   AttackType   `json:"attack_type"`
	SeverityBand SeverityBand `json:"severity_band"`
}

// Diagnostics collects the non-fatal degradations observed while transforming a batch.
type Diagnostics struct {
	// MissingColumns lists fitted columns absent from the batch (schema mismatch).
	MissingColumns []string `json:"missing_columns,omitempty"`
	// UnseenCategories counts cells mapped to the unknown sentinel code, per column.
	UnseenCategories map[string]int `json:"unseen_categories,omitempty"`
	// ImputedCells counts cells filled by an imputer, per column.
	ImputedCells map[string]int `json:"imputed_cells,omitempty"`
}

// Degraded reports whether any degradation was observed.
func (d Diagnostics) Degraded() bool {
	return len(d.MissingColumns) > 0 || len(d.UnseenCategories) > 0
}
