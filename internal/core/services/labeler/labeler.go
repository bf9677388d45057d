// Package labeler derives weak-supervision attack-type labels from the CWE identifier
// and description of a CVE. It is used only to manufacture training targets.
package labeler

import (
	"strings"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// Rule fires when the lower-cased description contains any keyword, the CWE starts
// with any prefix, or the CWE equals any exact identifier.
type Rule struct {
	Label       domain.AttackType
	Keywords    []string
	CWEPrefixes []string
	CWEExact    []string
}

func (r Rule) matches(cwe, desc string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	for _, p := range r.CWEPrefixes {
		if strings.HasPrefix(cwe, p) {
			return true
		}
	}
	for _, id := range r.CWEExact {
		if cwe == id {
			return true
		}
	}
	return false
}

// DefaultRules returns the rule table in priority order. Order is significant:
// CWE-2 would otherwise swallow CWE-22, and "xss" outranks "sql injection".
func DefaultRules() []Rule {
	return []Rule{
		{Label: domain.AttackXSS, Keywords: []string{"xss"}, CWEPrefixes: []string{"CWE-79"}},
		{Label: domain.AttackSQLi, Keywords: []string{"sql injection"}, CWEPrefixes: []string{"CWE-89"}},
		{Label: domain.AttackRCE, Keywords: []string{"code execution"}, CWEPrefixes: []string{"CWE-94"}},
		{Label: domain.AttackPathTraversal, Keywords: []string{"traversal"}, CWEPrefixes: []string{"CWE-22"}},
		{Label: domain.AttackPrivEsc, Keywords: []string{"privilege escalation"}, CWEExact: []string{"CWE-269", "CWE-264"}},
		{Label: domain.AttackAuthBypass, Keywords: []string{"authentication bypass"}, CWEPrefixes: []string{"CWE-287"}},
		{Label: domain.AttackInfoDisclosure, Keywords: []string{"information disclosure"}, CWEPrefixes: []string{"CWE-2"}},
		{Label: domain.AttackSSRF, Keywords: []string{"ssrf"}, CWEPrefixes: []string{"CWE-918"}},
		{Label: domain.AttackCSRF, Keywords: []string{"csrf"}},
		{Label: domain.AttackDoS, Keywords: []string{"denial of service", "dos"}},
	}
}

// Labeler evaluates an ordered rule table; the first matching rule wins.
type Labeler struct {
	rules    []Rule
	fallback domain.AttackType
}

// New creates a labeler over rules. A nil table selects DefaultRules.
func New(rules []Rule) *Labeler {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Labeler{rules: rules, fallback: domain.AttackOther}
}

// Classify returns the label of the first rule matching the raw CWE string or the
// lower-cased description. It is total: unmatched input yields Other.
func (l *Labeler) Classify(cwe, description string) domain.AttackType {
	desc := strings.ToLower(description)
	for _, r := range l.rules {
		if r.matches(cwe, desc) {
			return r.Label
		}
	}
	return l.fallback
}

// LabelRecords fills AttackType on records that lack one and returns how many were
// labelled. Existing labels are kept. The input slice is not modified.
func (l *Labeler) LabelRecords(records []domain.CVERecord) ([]domain.CVERecord, int) {
	out := make([]domain.CVERecord, len(records))
	labelled := 0
	for i, r := range records {
		if r.AttackType == "" {
			r.AttackType = l.Classify(r.CWE, r.Description)
			labelled++
		}
		out[i] = r
	}
	return out, labelled
}
