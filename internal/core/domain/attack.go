package domain

// AttackType is the closed set of attack categories a CVE is classified into.
type AttackType string

const (
	AttackXSS            AttackType = "XSS"
	AttackSQLi           AttackType = "SQLi"
	AttackRCE            AttackType = "RCE"
	AttackDoS            AttackType = "DoS"
	AttackCSRF           AttackType = "CSRF"
	AttackAuthBypass     AttackType = "AuthBypass"
	AttackPrivEsc        AttackType = "PrivEsc"
	AttackPathTraversal  AttackType = "PathTraversal"
	AttackSSRF           AttackType = "SSRF"
	AttackInfoDisclosure AttackType = "InfoDisclosure"
	AttackOther          AttackType = "Other"
)

// AttackTypes lists every category in feature-column order.
var AttackTypes = []AttackType{
	AttackXSS,
	AttackSQLi,
	AttackRCE,
	AttackDoS,
	AttackCSRF,
	AttackAuthBypass,
	AttackPrivEsc,
	AttackPathTraversal,
	AttackSSRF,
	AttackInfoDisclosure,
	AttackOther,
}

// IsValid reports whether the attack type belongs to the closed set.
func (a AttackType) IsValid() bool {
	for _, t := range AttackTypes {
		if a == t {
			return true
		}
	}
	return false
}

// SeverityBand is the ordinal severity category derived from a CVSS base score.
type SeverityBand string

const (
	SeverityLow      SeverityBand = "Low"
	SeverityMedium   SeverityBand = "Medium"
	SeverityHigh     SeverityBand = "High"
	SeverityCritical SeverityBand = "Critical"
)

// SeverityBands lists bands from lowest to highest.
var SeverityBands = []SeverityBand{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// IsValid reports whether the band belongs to the closed set.
func (s SeverityBand) IsValid() bool {
	for _, b := range SeverityBands {
		if s == b {
			return true
		}
	}
	return false
}

// BandFromScore converts a CVSS base score (0-10) to a severity band.
// Scores outside the CVSS range yield ok=false.
func BandFromScore(score float64) (SeverityBand, bool) {
	switch {
	case score < 0 || score > 10:
		return "", false
	case score >= 9.0:
		return SeverityCritical, true
	case score >= 7.0:
		return SeverityHigh, true
	case score >= 4.0:
		return SeverityMedium, true
	default:
		return SeverityLow, true
	}
}
