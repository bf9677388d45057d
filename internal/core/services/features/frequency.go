package features

import "github.com/lcalzada-xor/cvelens/internal/core/domain"

// FrequencyTable records how often each value of a categorical column occurred in the
// batch it was fitted on. Total counts every row, missing cells included.
type FrequencyTable struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// FitFrequency tallies the present values of a text column.
func FitFrequency(c *domain.Column) FrequencyTable {
	t := FrequencyTable{Counts: make(map[string]int)}
	if c == nil {
		return t
	}
	t.Total = c.Len()
	for i, ok := range c.Valid {
		if ok {
			t.Counts[c.Text[i]]++
		}
	}
	return t
}

// Rate returns the fitted share of rows holding value. Values never seen at fit time,
// and any value against an empty table, rate 0.
func (t FrequencyTable) Rate(value string) float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Counts[value]) / float64(t.Total)
}
