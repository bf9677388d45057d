package preprocess

import "github.com/lcalzada-xor/cvelens/internal/core/domain"

// Scaler maps one numeric column onto [0,1] with the min and max seen at fit time.
// A constant column (Min == Max) scales to 0.
type Scaler struct {
	Column string  `json:"column"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func fitScaler(c *domain.Column) Scaler {
	s := Scaler{Column: c.Name}
	first := true
	for i, ok := range c.Valid {
		if !ok {
			continue
		}
		x := c.Num[i]
		if first {
			s.Min, s.Max = x, x
			first = false
			continue
		}
		s.Min = min(s.Min, x)
		s.Max = max(s.Max, x)
	}
	return s
}

// Scale transforms one value. Values outside the fitted range fall outside [0,1].
func (s Scaler) Scale(x float64) float64 {
	span := s.Max - s.Min
	if span == 0 {
		return 0
	}
	return (x - s.Min) / span
}

func (s Scaler) apply(c *domain.Column) *domain.Column {
	vals := make([]float64, c.Len())
	for i, ok := range c.Valid {
		if ok {
			vals[i] = s.Scale(c.Num[i])
		}
	}
	return domain.NewNumericColumn(c.Name, vals, c.Valid)
}
