package preprocess

import (
	"sort"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
)

// UnknownCode is the code assigned to categories not seen at fit time.
const UnknownCode = -1

// Encoder maps the categories of one text column to ordinal codes. Categories are kept
// sorted; a category's code is its index.
type Encoder struct {
	Column     string   `json:"column"`
	Categories []string `json:"categories"`
}

func fitEncoder(c *domain.Column) Encoder {
	seen := make(map[string]struct{})
	for i, ok := range c.Valid {
		if ok {
			seen[c.Text[i]] = struct{}{}
		}
	}
	cats := make([]string, 0, len(seen))
	for v := range seen {
		cats = append(cats, v)
	}
	sort.Strings(cats)
	return Encoder{Column: c.Name, Categories: cats}
}

// Code returns the code of value, or UnknownCode.
func (e Encoder) Code(value string) int {
	i := sort.SearchStrings(e.Categories, value)
	if i < len(e.Categories) && e.Categories[i] == value {
		return i
	}
	return UnknownCode
}

// Decode returns the category for a code.
func (e Encoder) Decode(code int) (string, bool) {
	if code < 0 || code >= len(e.Categories) {
		return "", false
	}
	return e.Categories[code], true
}

// apply encodes a text column into a numeric one and reports how many present cells
// were unseen. Missing cells encode as UnknownCode too but are not counted as unseen.
func (e Encoder) apply(c *domain.Column) (*domain.Column, int) {
	vals := make([]float64, c.Len())
	unseen := 0
	for i, ok := range c.Valid {
		if !ok {
			vals[i] = UnknownCode
			continue
		}
		code := e.Code(c.Text[i])
		if code == UnknownCode {
			unseen++
		}
		vals[i] = float64(code)
	}
	return domain.NewNumericColumn(c.Name, vals, nil), unseen
}
