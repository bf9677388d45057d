package domain

import (
	"fmt"
	"math"
)

// ColumnKind distinguishes text (categorical) columns from numeric ones.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumeric
)

func (k ColumnKind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// Column is one named column of a Frame. Valid[i] == false marks a missing cell.
// Columns are never written after they are attached to a Frame; stages build new ones.
type Column struct {
	Name  string
	Kind  ColumnKind
	Text  []string
	Num   []float64
	Valid []bool
}

// NewTextColumn builds a text column. A nil valid slice marks every cell present.
func NewTextColumn(name string, values []string, valid []bool) *Column {
	return &Column{Name: name, Kind: KindText, Text: values, Valid: fillValid(valid, len(values))}
}

// NewNumericColumn builds a numeric column. NaN cells are always marked missing.
func NewNumericColumn(name string, values []float64, valid []bool) *Column {
	v := fillValid(valid, len(values))
	for i, x := range values {
		if math.IsNaN(x) {
			v[i] = false
		}
	}
	return &Column{Name: name, Kind: KindNumeric, Num: values, Valid: v}
}

func fillValid(valid []bool, n int) []bool {
	out := make([]bool, n)
	if valid == nil {
		for i := range out {
			out[i] = true
		}
		return out
	}
	copy(out, valid)
	return out
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.Valid)
}

// Missing counts missing cells.
func (c *Column) Missing() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// Frame is an in-memory, column-oriented tabular batch.
// All With*/Drop methods return a new Frame and leave the receiver untouched.
type Frame struct {
	rows  int
	names []string
	cols  map[string]*Column
}

// NewFrame creates an empty frame with a fixed row count.
func NewFrame(rows int) *Frame {
	return &Frame{rows: rows, cols: make(map[string]*Column)}
}

// Len returns the row count.
func (f *Frame) Len() int {
	return f.rows
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Has reports whether the column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// WithColumn returns a frame carrying c, replacing any column of the same name.
// It panics when the column length does not match the frame.
func (f *Frame) WithColumn(c *Column) *Frame {
	if c.Len() != f.rows {
		panic(fmt.Sprintf("domain: column %q has %d cells, frame has %d rows", c.Name, c.Len(), f.rows))
	}
	next := f.shallowCopy()
	if _, exists := next.cols[c.Name]; !exists {
		next.names = append(next.names, c.Name)
	}
	next.cols[c.Name] = c
	return next
}

// WithText is shorthand for WithColumn(NewTextColumn(...)).
func (f *Frame) WithText(name string, values []string, valid []bool) *Frame {
	return f.WithColumn(NewTextColumn(name, values, valid))
}

// WithNumeric is shorthand for WithColumn(NewNumericColumn(...)).
func (f *Frame) WithNumeric(name string, values []float64, valid []bool) *Frame {
	return f.WithColumn(NewNumericColumn(name, values, valid))
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	next := NewFrame(f.rows)
	for _, n := range f.names {
		if drop[n] {
			continue
		}
		next.names = append(next.names, n)
		next.cols[n] = f.cols[n]
	}
	return next
}

// Text returns the text value of a cell and whether it is present.
func (f *Frame) Text(name string, row int) (string, bool) {
	c, ok := f.cols[name]
	if !ok || c.Kind != KindText || !c.Valid[row] {
		return "", false
	}
	return c.Text[row], true
}

// Matrix extracts the named numeric columns as a row-major matrix.
func (f *Frame) Matrix(cols []string) ([][]float64, error) {
	selected := make([]*Column, len(cols))
	for j, name := range cols {
		c, ok := f.cols[name]
		if !ok {
			return nil, fmt.Errorf("matrix: column %q not in frame", name)
		}
		if c.Kind != KindNumeric {
			return nil, fmt.Errorf("matrix: column %q is %s, want numeric", name, c.Kind)
		}
		selected[j] = c
	}

	out := make([][]float64, f.rows)
	for i := range out {
		row := make([]float64, len(cols))
		for j, c := range selected {
			if !c.Valid[i] {
				return nil, fmt.Errorf("matrix: column %q row %d is missing", c.Name, i)
			}
			row[j] = c.Num[i]
		}
		out[i] = row
	}
	return out, nil
}

func (f *Frame) shallowCopy() *Frame {
	next := &Frame{
		rows:  f.rows,
		names: make([]string, len(f.names), len(f.names)+1),
		cols:  make(map[string]*Column, len(f.cols)+1),
	}
	copy(next.names, f.names)
	for k, v := range f.cols {
		next.cols[k] = v
	}
	return next
}

// FrameFromRecords lays records out as a frame. Empty structured fields become missing
// cells; the description column is always present. Target columns are added only when
// withTargets is set.
func FrameFromRecords(records []CVERecord, withTargets bool) *Frame {
	n := len(records)
	ids, descs, cwes := make([]string, n), make([]string, n), make([]string, n)
	vendors, products, dates := make([]string, n), make([]string, n), make([]string, n)
	attacks, bands := make([]string, n), make([]string, n)

	for i, r := range records {
		ids[i] = r.ID
		descs[i] = r.Description
		cwes[i] = r.CWE
		vendors[i] = r.Vendor
		products[i] = r.Product
		dates[i] = r.PublishDate
		attacks[i] = string(r.AttackType)
		bands[i] = string(r.SeverityBand)
	}

	f := NewFrame(n).
		WithText(ColCVEID, ids, presence(ids)).
		WithText(ColDescription, descs, nil).
		WithText(ColCWE, cwes, presence(cwes)).
		WithText(ColVendor, vendors, presence(vendors)).
		WithText(ColProduct, products, presence(products)).
		WithText(ColPublishDate, dates, presence(dates))

	if withTargets {
		f = f.WithText(ColAttackType, attacks, presence(attacks)).
			WithText(ColSeverityBand, bands, presence(bands))
	}
	return f
}

func presence(values []string) []bool {
	valid := make([]bool, len(values))
	for i, v := range values {
		valid[i] = v != ""
	}
	return valid
}
