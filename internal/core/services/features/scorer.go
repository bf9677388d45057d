package features

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// Scorer counts distinct pattern hits per category. It is immutable after Compile
// and safe for concurrent use.
type Scorer struct {
	vocab      Vocabulary
	categories [][]*regexp.Regexp // indexed like domain.AttackTypes
	cvss       []*regexp.Regexp
}

// NewDefaultScorer compiles the built-in vocabulary.
func NewDefaultScorer() *Scorer {
	s, err := DefaultVocabulary().Compile()
	if err != nil {
		panic("features: built-in vocabulary does not compile: " + err.Error())
	}
	return s
}

// Vocabulary returns the source patterns the scorer was compiled from.
func (s *Scorer) Vocabulary() Vocabulary {
	return s.vocab
}

// Score maps every category to the number of its patterns that match the text.
// A pattern counts once no matter how often it occurs. Empty text scores zero everywhere.
func (s *Scorer) Score(description string) map[domain.AttackType]int {
	out := make(map[domain.AttackType]int, len(domain.AttackTypes))
	for i, cat := range domain.AttackTypes {
		out[cat] = countHits(s.categories[i], description)
	}
	return out
}

// CVSSScore counts distinct exploit-characteristic patterns matching the text.
func (s *Scorer) CVSSScore(description string) int {
	return countHits(s.cvss, description)
}

func countHits(patterns []*regexp.Regexp, text string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// LexicalStats are surface statistics of a description. Length counts runes.
type LexicalStats struct {
	Length      int
	WordCount   int
	DigitCount  int
	UpperRatio  float64
	Exclamation int
	Question    int
}

// Lexical computes LexicalStats. UpperRatio divides by max(Length, 1).
func Lexical(description string) LexicalStats {
	st := LexicalStats{
		Length:      utf8.RuneCountInString(description),
		WordCount:   len(strings.Fields(description)),
		Exclamation: strings.Count(description, "!"),
		Question:    strings.Count(description, "?"),
	}
	upper := 0
	for _, r := range description {
		if unicode.IsDigit(r) {
			st.DigitCount++
		}
		if unicode.IsUpper(r) {
			upper++
		}
	}
	st.UpperRatio = float64(upper) / float64(max(st.Length, 1))
	return st
}
