package features

import (
	"errors"
	"fmt"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// Derived column names.
const (
	ColCVSSKeywords       = "cvss_keywords_score"
	ColDescLen            = "desc_len"
	ColDescWordCount      = "desc_word_count"
	ColDescNumCount       = "desc_num_count"
	ColDescUpperRatio     = "desc_upper_ratio"
	ColDescExclamation    = "desc_exclamation"
	ColDescQuestion       = "desc_question"
	ColVendorFreq         = "vendor_freq"
	ColProductFreq        = "product_freq"
	ColVendorProductInter = "vendor_product_interaction"
)

// ScoreColumn names the keyword-score column of a category, e.g. "XSS_score".
func ScoreColumn(cat domain.AttackType) string {
	return string(cat) + "_score"
}

// DerivedColumns lists every column Transform appends, in append order.
func DerivedColumns() []string {
	cols := make([]string, 0, len(domain.AttackTypes)+10)
	for _, cat := range domain.AttackTypes {
		cols = append(cols, ScoreColumn(cat))
	}
	return append(cols,
		ColCVSSKeywords,
		ColDescLen, ColDescWordCount, ColDescNumCount, ColDescUpperRatio, ColDescExclamation, ColDescQuestion,
		ColVendorFreq, ColProductFreq, ColVendorProductInter,
	)
}

// Creator fits the batch-dependent part of feature creation.
type Creator struct {
	scorer *Scorer
}

// NewCreator returns a Creator scoring with s. A nil scorer selects the built-in vocabulary.
func NewCreator(s *Scorer) *Creator {
	if s == nil {
		s = NewDefaultScorer()
	}
	return &Creator{scorer: s}
}

// Fit records the vendor and product frequency tables of the training batch.
func (c *Creator) Fit(f *domain.Frame) (*FittedFeatures, error) {
	if f.Len() == 0 {
		return nil, errors.New("features: cannot fit on an empty batch")
	}
	vendor, _ := f.Column(domain.ColVendor)
	product, _ := f.Column(domain.ColProduct)
	return &FittedFeatures{
		scorer:  c.scorer,
		Vendor:  FitFrequency(vendor),
		Product: FitFrequency(product),
	}, nil
}

// FittedFeatures appends derived columns using frequency tables frozen at fit time.
// It is read-only after construction and safe for concurrent use.
type FittedFeatures struct {
	scorer  *Scorer
	Vendor  FrequencyTable
	Product FrequencyTable
}

// Snapshot is the persisted form of FittedFeatures.
type Snapshot struct {
	Vocabulary Vocabulary     `json:"vocabulary"`
	Vendor     FrequencyTable `json:"vendor_frequency"`
	Product    FrequencyTable `json:"product_frequency"`
}

// Snapshot captures the learned tables and the vocabulary in use.
func (ff *FittedFeatures) Snapshot() Snapshot {
	return Snapshot{Vocabulary: ff.scorer.Vocabulary(), Vendor: ff.Vendor, Product: ff.Product}
}

// Restore rebuilds FittedFeatures from a snapshot.
func Restore(s Snapshot) (*FittedFeatures, error) {
	scorer, err := s.Vocabulary.Compile()
	if err != nil {
		return nil, fmt.Errorf("restore features: %w", err)
	}
	if s.Vendor.Counts == nil {
		s.Vendor.Counts = map[string]int{}
	}
	if s.Product.Counts == nil {
		s.Product.Counts = map[string]int{}
	}
	return &FittedFeatures{scorer: scorer, Vendor: s.Vendor, Product: s.Product}, nil
}

// Transform returns f with every derived column appended. A missing description scores
// as empty text; a missing or unseen vendor/product rates 0.
func (ff *FittedFeatures) Transform(f *domain.Frame) *domain.Frame {
	n := f.Len()
	nCat := len(domain.AttackTypes)

	scores := make([][]float64, nCat)
	for i := range scores {
		scores[i] = make([]float64, n)
	}
	cvss := make([]float64, n)
	length, words, digits := make([]float64, n), make([]float64, n), make([]float64, n)
	upper, excl, quest := make([]float64, n), make([]float64, n), make([]float64, n)
	vf, pf, inter := make([]float64, n), make([]float64, n), make([]float64, n)

	for row := 0; row < n; row++ {
		desc, _ := f.Text(domain.ColDescription, row)

		hits := ff.scorer.Score(desc)
		for i, cat := range domain.AttackTypes {
			scores[i][row] = float64(hits[cat])
		}
		cvss[row] = float64(ff.scorer.CVSSScore(desc))

		st := Lexical(desc)
		length[row] = float64(st.Length)
		words[row] = float64(st.WordCount)
		digits[row] = float64(st.DigitCount)
		upper[row] = st.UpperRatio
		excl[row] = float64(st.Exclamation)
		quest[row] = float64(st.Question)

		if v, ok := f.Text(domain.ColVendor, row); ok {
			vf[row] = ff.Vendor.Rate(v)
		}
		if p, ok := f.Text(domain.ColProduct, row); ok {
			pf[row] = ff.Product.Rate(p)
		}
		inter[row] = vf[row] * pf[row]
	}

	out := f
	for i, cat := range domain.AttackTypes {
		out = out.WithNumeric(ScoreColumn(cat), scores[i], nil)
	}
	return out.
		WithNumeric(ColCVSSKeywords, cvss, nil).
		WithNumeric(ColDescLen, length, nil).
		WithNumeric(ColDescWordCount, words, nil).
		WithNumeric(ColDescNumCount, digits, nil).
		WithNumeric(ColDescUpperRatio, upper, nil).
		WithNumeric(ColDescExclamation, excl, nil).
		WithNumeric(ColDescQuestion, quest, nil).
		WithNumeric(ColVendorFreq, vf, nil).
		WithNumeric(ColProductFreq, pf, nil).
		WithNumeric(ColVendorProductInter, inter, nil)
}
