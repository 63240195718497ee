package frame

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrNoColumn is returned when a requested column is absent.
var ErrNoColumn = errors.New("no such column")

// Frame is a column-oriented table of household records. Numeric columns
// hold float64 values (NaN marks a missing cell); text columns hold
// identifiers and codes kept verbatim.
type Frame struct {
	n       int
	order   []string
	numeric map[string][]float64
	text    map[string][]string
}

// New creates an empty Frame with n rows.
func New(n int) *Frame {
	return &Frame{
		n:       n,
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.n }

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	return slices.Clone(f.order)
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, num := f.numeric[name]
	_, txt := f.text[name]
	return num || txt
}

// IsText reports whether name is a text column.
func (f *Frame) IsText(name string) bool {
	_, ok := f.text[name]
	return ok
}

// Float returns a numeric column. The slice is shared with the frame.
func (f *Frame) Float(name string) ([]float64, error) {
	col, ok := f.numeric[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	return col, nil
}

// FloatOr returns a copy of a numeric column, or a column filled with def
// when it is absent.
func (f *Frame) FloatOr(name string, def float64) []float64 {
	if col, ok := f.numeric[name]; ok {
		return slices.Clone(col)
	}
	out := make([]float64, f.n)
	if def != 0 {
		for i := range out {
			out[i] = def
		}
	}
	return out
}

// Text returns a text column. The slice is shared with the frame.
func (f *Frame) Text(name string) ([]string, error) {
	col, ok := f.text[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	return col, nil
}

// SetFloat adds or replaces a numeric column.
func (f *Frame) SetFloat(name string, values []float64) error {
	if len(values) != f.n {
		return fmt.Errorf("column %s: expected %d values, got %d", name, f.n, len(values))
	}
	if _, ok := f.text[name]; ok {
		delete(f.text, name)
	} else if _, ok := f.numeric[name]; !ok {
		f.order = append(f.order, name)
	}
	f.numeric[name] = values
	return nil
}

// SetText adds or replaces a text column.
func (f *Frame) SetText(name string, values []string) error {
	if len(values) != f.n {
		return fmt.Errorf("column %s: expected %d values, got %d", name, f.n, len(values))
	}
	if _, ok := f.numeric[name]; ok {
		delete(f.numeric, name)
	} else if _, ok := f.text[name]; !ok {
		f.order = append(f.order, name)
	}
	f.text[name] = values
	return nil
}

// Rename renames a column. Renaming onto an existing column replaces it.
func (f *Frame) Rename(from, to string) error {
	if from == to {
		return nil
	}
	if !f.Has(from) {
		return fmt.Errorf("%w: %s", ErrNoColumn, from)
	}
	if f.Has(to) {
		f.Drop(to)
	}
	for i, name := range f.order {
		if name == from {
			f.order[i] = to
		}
	}
	if col, ok := f.numeric[from]; ok {
		delete(f.numeric, from)
		f.numeric[to] = col
	}
	if col, ok := f.text[from]; ok {
		delete(f.text, from)
		f.text[to] = col
	}
	return nil
}

// Drop removes a column if present.
func (f *Frame) Drop(name string) {
	if !f.Has(name) {
		return
	}
	delete(f.numeric, name)
	delete(f.text, name)
	f.order = slices.DeleteFunc(f.order, func(s string) bool { return s == name })
}

// FillNaN replaces missing numeric cells with v in every numeric column.
func (f *Frame) FillNaN(v float64) {
	for _, col := range f.numeric {
		for i, x := range col {
			if math.IsNaN(x) {
				col[i] = v
			}
		}
	}
}

// Filter returns a new frame holding the rows for which keep returns true.
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	var idx []int
	for i := 0; i < f.n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}

	out := New(len(idx))
	out.order = slices.Clone(f.order)
	for name, col := range f.numeric {
		sub := make([]float64, len(idx))
		for j, i := range idx {
			sub[j] = col[i]
		}
		out.numeric[name] = sub
	}
	for name, col := range f.text {
		sub := make([]string, len(idx))
		for j, i := range idx {
			sub[j] = col[i]
		}
		out.text[name] = sub
	}
	return out
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	return f.Filter(func(int) bool { return true })
}
