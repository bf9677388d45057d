package labeler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

func TestClassify(t *testing.T) {
	l := New(nil)

	tests := []struct {
		name string
		cwe  string
		desc string
		want domain.AttackType
	}{
		{"cwe prefix fires regardless of text", "CWE-79", "irrelevant", domain.AttackXSS},
		{"sql keyword", "CWE-999", "classic sql injection attack", domain.AttackSQLi},
		{"nothing matches", "CWE-999", "nothing matches", domain.AttackOther},
		{"xss outranks sqli", "", "xss and sql injection in one", domain.AttackXSS},
		{"keyword is case-insensitive", "", "Remote Code Execution via upload", domain.AttackRCE},
		{"traversal before info disclosure prefix", "CWE-22", "", domain.AttackPathTraversal},
		{"privesc exact cwe", "CWE-264", "", domain.AttackPrivEsc},
		{"privesc exact does not prefix", "CWE-2690", "", domain.AttackInfoDisclosure},
		{"auth bypass", "CWE-287", "", domain.AttackAuthBypass},
		{"cwe-2 prefix", "CWE-200", "", domain.AttackInfoDisclosure},
		{"ssrf", "CWE-918", "", domain.AttackSSRF},
		{"csrf keyword only", "CWE-352", "csrf token missing", domain.AttackCSRF},
		{"csrf cwe alone is other", "CWE-352", "form issue", domain.AttackOther},
		{"dos substring", "", "attacker can cause a dos", domain.AttackDoS},
		{"denial of service", "", "Denial of Service via crafted packet", domain.AttackDoS},
		{"cwe is case-sensitive", "cwe-79", "", domain.AttackOther},
		{"noinfo sentinel", domain.CWENoInfo, "", domain.AttackOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.Classify(tt.cwe, tt.desc))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	l := New(nil)
	for i := 0; i < 50; i++ {
		assert.Equal(t, domain.AttackSQLi, l.Classify("CWE-89", "whatever"))
	}
}

func TestNew_CustomRules(t *testing.T) {
	l := New([]Rule{{Label: domain.AttackDoS, Keywords: []string{"crash"}}})
	assert.Equal(t, domain.AttackDoS, l.Classify("CWE-79", "null crash"))
	assert.Equal(t, domain.AttackOther, l.Classify("CWE-79", "xss"))
}

func TestLabelRecords(t *testing.T) {
	l := New(nil)
	in := []domain.CVERecord{
		{ID: "a", CWE: "CWE-79"},
		{ID: "b", CWE: "CWE-79", AttackType: domain.AttackSQLi},
	}

	out, n := l.LabelRecords(in)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.AttackXSS, out[0].AttackType)
	assert.Equal(t, domain.AttackSQLi, out[1].AttackType, "existing labels are kept")
	assert.Empty(t, in[0].AttackType)
}
