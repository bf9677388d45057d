// Package textnorm cleans and canonicalizes the free-text and structured fields of
// CVE records. Every function is pure and never fails: unparseable input degrades to
// an empty value or a missing marker.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

const dateLayout = "2006-01-02"

var (
	reEmbeddedDate = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	reFirstNumber  = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	reSeeInstead   = regexp.MustCompile(`please use cve-\d{4}-\d+|see cve-\d{4}-\d+ instead`)

	// Anchor phrase followed by two comma- or space-separated tokens.
	reVendorProduct = regexp.MustCompile(
		`(?i)(?:in|affects|affecting|found in|for)\s+([A-Za-z0-9_\-.]+)[, ]+\s*([A-Za-z0-9_\-.]+)`,
	)
)

// NormalizeDescription applies NFKC normalization, replaces C0/C1 control characters
// (U+0000-U+001F, U+007F-U+009F) with spaces, collapses whitespace runs and trims.
// The result is a fixed point: NormalizeDescription(NormalizeDescription(s)) == NormalizeDescription(s).
func NormalizeDescription(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if isControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func isControl(r rune) bool {
	return (r >= 0x00 && r <= 0x1f) || (r >= 0x7f && r <= 0x9f)
}

// NormalizeCWE trims the identifier and canonicalizes any casing of the NVD
// "no information" sentinel. Other values pass through.
func NormalizeCWE(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, domain.CWENoInfo) {
		return domain.CWENoInfo
	}
	return s
}

// NormalizeDate parses a free-form date and reformats it as YYYY-MM-DD. An embedded
// YYYY-MM-DD substring wins over a parse that disagrees with it, and parses without a
// year are rejected. ok is false when neither strategy yields a date.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	embedded := embeddedDate(s)
	if t, err := dateparse.ParseAny(s); err == nil && t.Year() != 0 {
		if parsed := t.Format(dateLayout); embedded == "" || parsed == embedded {
			return parsed, true
		}
	}
	if embedded != "" {
		return embedded, true
	}
	return "", false
}

func embeddedDate(s string) string {
	m := reEmbeddedDate.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if _, err := time.Parse(dateLayout, m[1]); err != nil {
		return ""
	}
	return m[1]
}

// ParseCVSS reads a CVSS base score, accepting either a bare number or text that
// embeds one ("CVSS 7.5 HIGH").
func ParseCVSS(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if m := reFirstNumber.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// IsWithdrawn reports whether a description marks a rejected duplicate or redirects
// to another CVE. Only meaningful for training data.
func IsWithdrawn(description string) bool {
	d := strings.ToLower(description)
	if strings.Contains(d, "rejected") && strings.Contains(d, "duplicate") {
		return true
	}
	return reSeeInstead.MatchString(d)
}

// ExtractVendorProduct guesses vendor and product from phrases such as
// "found in acme webportal". Both values are lower-cased; empty strings mean not found.
func ExtractVendorProduct(description string) (vendor, product string) {
	m := reVendorProduct.FindStringSubmatch(description)
	if m == nil {
		return "", ""
	}
	return strings.ToLower(m[1]), strings.ToLower(m[2])
}
