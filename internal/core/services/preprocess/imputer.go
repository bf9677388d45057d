package preprocess

import (
	"sort"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// Imputation strategies.
const (
	StrategyMostFrequent = "most_frequent"
	StrategyMedian       = "median"
)

// Imputer fills missing cells of one column with a value learned at fit time.
type Imputer struct {
	Column   string            `json:"column"`
	Kind     domain.ColumnKind `json:"kind"`
	Strategy string            `json:"strategy"`
	FillText string            `json:"fill_text,omitempty"`
	FillNum  float64           `json:"fill_num,omitempty"`
}

// fitImputer learns the mode of a text column or the median of a numeric one.
func fitImputer(c *domain.Column) (Imputer, error) {
	if c.Len() == c.Missing() {
		return Imputer{}, &MalformedInputError{Column: c.Name, Stage: "impute", Reason: "no observed values"}
	}
	if c.Kind == domain.KindText {
		return Imputer{Column: c.Name, Kind: c.Kind, Strategy: StrategyMostFrequent, FillText: mode(c)}, nil
	}
	return Imputer{Column: c.Name, Kind: c.Kind, Strategy: StrategyMedian, FillNum: median(c)}, nil
}

// mode returns the most frequent present value; ties resolve to the smallest value.
func mode(c *domain.Column) string {
	counts := make(map[string]int)
	for i, ok := range c.Valid {
		if ok {
			counts[c.Text[i]]++
		}
	}
	best, bestN := "", -1
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

func median(c *domain.Column) float64 {
	vals := make([]float64, 0, c.Len())
	for i, ok := range c.Valid {
		if ok {
			vals = append(vals, c.Num[i])
		}
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// apply returns a column with every missing cell filled, and the number filled.
func (im Imputer) apply(c *domain.Column) (*domain.Column, int) {
	filled := c.Missing()
	if filled == 0 {
		return c, 0
	}
	if c.Kind == domain.KindText {
		vals := make([]string, c.Len())
		for i, ok := range c.Valid {
			if ok {
				vals[i] = c.Text[i]
			} else {
				vals[i] = im.FillText
			}
		}
		return domain.NewTextColumn(c.Name, vals, nil), filled
	}
	vals := make([]float64, c.Len())
	for i, ok := range c.Valid {
		if ok {
			vals[i] = c.Num[i]
		} else {
			vals[i] = im.FillNum
		}
	}
	return domain.NewNumericColumn(c.Name, vals, nil), filled
}
