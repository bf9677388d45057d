package domain

import "time"

// Column names shared by the cleaning, feature and preprocessing stages.
const (
	ColCVEID        = "cve_id"
	ColDescription  = "description"
	ColCWE          = "cwe"
	ColVendor       = "vendor"
	ColProduct      = "product"
	ColPublishDate  = "publish_date"
	ColCVSSScore    = "cvss_score"
	ColAttackType   = "attack_type"
	ColSeverityBand = "severity_band"
)

// TargetColumns are the training targets. They are never part of the feature matrix.
var TargetColumns = []string{ColAttackType, ColSeverityBand}

// CWENoInfo is the canonical spelling of the NVD "no information" weakness sentinel.
const CWENoInfo = "NVD-CWE-noinfo"

// CVERecord represents one vulnerability report as harvested from the NVD feeds.
type CVERecord struct {
	ID          string `json:"cve_id"`      // e.g., "CVE-2024-12345"
	Description string `json:"description"` // free text, may be empty
	CWE         string `json:"cwe"`         // e.g., "CWE-79" or CWENoInfo
	Vendor      string `json:"vendor"`      // e.g., "acme"
	Product     string `json:"product"`     // e.g., "web"
	PublishDate string `json:"publish_date"`

	// CVSSScore is the base score when the feed carried one.
	CVSSScore *float64 `json:"cvss_base_score,omitempty"`

	// Training targets
	AttackType   AttackType   `json:"attack_type,omitempty"`
	SeverityBand SeverityBand `json:"severity_band,omitempty"`
}

// HasTargets reports whether both training targets are populated.
func (r CVERecord) HasTargets() bool {
	return r.AttackType != "" && r.SeverityBand != ""
}

// CVESyncStatus tracks the last synchronization of one feed year.
type CVESyncStatus struct {
	Year         int       `json:"year"`
	LastSyncTime time.Time `json:"last_sync_time"`
	RecordCount  int       `json:"record_count"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// RecordFilter narrows record listings.
type RecordFilter struct {
	AttackType   AttackType
	SeverityBand SeverityBand
	Vendor       string
	Limit        int
}
