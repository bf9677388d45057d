package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

var descriptionSamples = []string{
	"",
	"plain text",
	"  leading and trailing  ",
	"tabs\tand\nnewlines\r\nmixed",
	"nul\x00byte and del\x7f and c1\u0085\u009f",
	"ＦＵＬＬＷＩＤＴＨ ＸＳＳ",
	"ligature ﬁle and superscript x²",
	"non breaking spaces",
	"combining é accent and ´ spacing acute",
	"\x01\x02\x03",
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"already clean", "reflected xss via innerHTML", "reflected xss via innerHTML"},
		{"collapse whitespace", "a   b\t\tc\n\nd", "a b c d"},
		{"trim", "   padded   ", "padded"},
		{"control characters become spaces", "a\x00b\x1fc\x7fd\u0085e", "a b c d e"},
		{"nfkc fullwidth", "ＸＳＳ", "XSS"},
		{"nfkc ligature", "ﬁle", "file"},
		{"only controls", "\x01\x02", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDescription(tt.in))
		})
	}
}

func TestNormalizeDescription_Idempotent(t *testing.T) {
	for _, s := range descriptionSamples {
		once := NormalizeDescription(s)
		assert.Equal(t, once, NormalizeDescription(once), "input %q", s)
	}
}

func TestNormalizeDescription_CleanTextUnchanged(t *testing.T) {
	for _, s := range []string{"a", "single spaced words only", "CVE-2024-1234 allows SQL injection."} {
		assert.Equal(t, s, NormalizeDescription(s))
	}
}

func TestNormalizeCWE(t *testing.T) {
	assert.Equal(t, domain.CWENoInfo, NormalizeCWE("  nvd-cwe-NOINFO "))
	assert.Equal(t, "CWE-79", NormalizeCWE(" CWE-79\n"))
	assert.Equal(t, "NVD-CWE-Other", NormalizeCWE("NVD-CWE-Other"))
	assert.Equal(t, "", NormalizeCWE(""))

	for _, s := range []string{" nvd-cwe-noinfo", "CWE-89 ", "x"} {
		once := NormalizeCWE(s)
		assert.Equal(t, once, NormalizeCWE(once))
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-06-01", "2024-06-01", true},
		{"2024-06-01T15:15:08.123", "2024-06-01", true},
		{"June 1, 2024", "2024-06-01", true},
		{"released on 2024-06-01 per advisory", "2024-06-01", true},
		{"2024-06-01;", "2024-06-01", true},
		{"2024-06-01, rev 2", "2024-06-01", true},
		{"2024-06-01Z", "2024-06-01", true},
		{"Jun 1", "", false},
		{"not a date", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseCVSS(t *testing.T) {
	v, ok := ParseCVSS("7.5")
	assert.True(t, ok)
	assert.Equal(t, 7.5, v)

	v, ok = ParseCVSS("CVSS 9.8 CRITICAL")
	assert.True(t, ok)
	assert.Equal(t, 9.8, v)

	_, ok = ParseCVSS("n/a")
	assert.False(t, ok)
}

func TestIsWithdrawn(t *testing.T) {
	assert.True(t, IsWithdrawn("** REJECT ** This candidate was REJECTED as a DUPLICATE of another."))
	assert.True(t, IsWithdrawn("Duplicate entry. Please use CVE-2023-12345 instead."))
	assert.True(t, IsWithdrawn("Not used; see CVE-2024-0001 instead."))
	assert.False(t, IsWithdrawn("The request was rejected by the firewall."))
	assert.False(t, IsWithdrawn(""))
}

func TestExtractVendorProduct(t *testing.T) {
	v, p := ExtractVendorProduct("A flaw was found in Acme WebPortal allowing XSS")
	assert.Equal(t, "acme", v)
	assert.Equal(t, "webportal", p)

	v, p = ExtractVendorProduct("Issue affecting Foo-Corp, bar.app 2.1")
	assert.Equal(t, "foo-corp", v)
	assert.Equal(t, "bar.app", p)

	v, p = ExtractVendorProduct("nothing")
	assert.Empty(t, v)
	assert.Empty(t, p)
}
