package legislation

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrParameterNotFound is returned when a path is unknown or has no value at
// the requested date.
var ErrParameterNotFound = errors.New("parameter not found")

const dateFormat = "2006-01-02"

// Value is a parameter value in force from Start until the next value.
// A nil Amount means the parameter is not defined from Start on.
type Value struct {
	Start  time.Time
	Amount *decimal.Decimal
}

// Parameter is a piecewise-constant quantity keyed by a dotted path.
type Parameter struct {
	Path        string
	Description string
	Unit        string
	values      []Value // sorted by Start
}

// NewParameter creates a parameter with no values.
func NewParameter(path, description, unit string) *Parameter {
	return &Parameter{Path: path, Description: description, Unit: unit}
}

// Values returns the parameter's dated values in chronological order.
func (p *Parameter) Values() []Value {
	return slices.Clone(p.values)
}

// Set records amount from start on, replacing any value starting on the same day.
// A nil amount closes the parameter from start.
func (p *Parameter) Set(start time.Time, amount *decimal.Decimal) {
	start = day(start)
	i := sort.Search(len(p.values), func(i int) bool { return !p.values[i].Start.Before(start) })
	v := Value{Start: start, Amount: amount}
	if i < len(p.values) && p.values[i].Start.Equal(start) {
		p.values[i] = v
		return
	}
	p.values = slices.Insert(p.values, i, v)
}

// At returns the value in force at t.
func (p *Parameter) At(t time.Time) (decimal.Decimal, bool) {
	t = day(t)
	i := sort.Search(len(p.values), func(i int) bool { return p.values[i].Start.After(t) })
	if i == 0 {
		return decimal.Decimal{}, false
	}
	v := p.values[i-1]
	if v.Amount == nil {
		return decimal.Decimal{}, false
	}
	return *v.Amount, true
}

// Update sets amount over [start, stop] and restores the value that was in
// force the day after stop.
func (p *Parameter) Update(start, stop time.Time, amount decimal.Decimal) {
	after := day(stop).AddDate(0, 0, 1)
	prev, ok := p.At(after)
	var restore *decimal.Decimal
	if ok {
		restore = &prev
	}
	// Drop values that started inside the updated window.
	start = day(start)
	p.values = slices.DeleteFunc(p.values, func(v Value) bool {
		return !v.Start.Before(start) && v.Start.Before(after)
	})
	p.Set(start, &amount)
	p.Set(after, restore)
}

func (p *Parameter) clone() *Parameter {
	c := *p
	c.values = make([]Value, len(p.values))
	for i, v := range p.values {
		c.values[i] = Value{Start: v.Start}
		if v.Amount != nil {
			a := *v.Amount
			c.values[i].Amount = &a
		}
	}
	return &c
}

// Tree is the legislation: every parameter by dotted path.
type Tree struct {
	params map[string]*Parameter
}

// New creates an empty Tree.
func New() *Tree {
	return &Tree{params: make(map[string]*Parameter)}
}

// Add inserts a parameter. Fails on a duplicate path.
func (t *Tree) Add(p *Parameter) error {
	if _, ok := t.params[p.Path]; ok {
		return fmt.Errorf("duplicate parameter %s", p.Path)
	}
	t.params[p.Path] = p
	return nil
}

// Parameter returns a parameter by path.
func (t *Tree) Parameter(path string) (*Parameter, bool) {
	p, ok := t.params[path]
	return p, ok
}

// Get returns the value of path at date at.
func (t *Tree) Get(path string, at time.Time) (decimal.Decimal, error) {
	p, ok := t.params[path]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrParameterNotFound, path)
	}
	v, ok := p.At(at)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s at %s", ErrParameterNotFound, path, at.Format(dateFormat))
	}
	return v, nil
}

// Float returns the value of path at date at as a float64.
func (t *Tree) Float(path string, at time.Time) (float64, error) {
	v, err := t.Get(path, at)
	if err != nil {
		return 0, err
	}
	return v.InexactFloat64(), nil
}

// Paths returns every parameter path, sorted.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.params))
	for p := range t.params {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Children returns the paths directly under node, sorted.
// Children("prix_carburants") -> ["prix_carburants.diesel_ttc", ...]
func (t *Tree) Children(node string) []string {
	prefix := node + "."
	var out []string
	for _, p := range t.Paths() {
		rest, ok := strings.CutPrefix(p, prefix)
		if ok && !strings.Contains(rest, ".") {
			out = append(out, p)
		}
	}
	return out
}

// AddReferences clones every child of node as "<child>_reference", freezing
// the current values as the reference prices a reform is measured against.
func (t *Tree) AddReferences(node string) error {
	children := t.Children(node)
	if len(children) == 0 {
		return fmt.Errorf("%w: node %s has no children", ErrParameterNotFound, node)
	}
	for _, path := range children {
		if strings.HasSuffix(path, "_reference") {
			continue
		}
		ref := t.params[path].clone()
		ref.Path = path + "_reference"
		if err := t.Add(ref); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy; reforms work on clones so the reference tree is
// never mutated.
func (t *Tree) Clone() *Tree {
	c := New()
	for path, p := range t.params {
		c.params[path] = p.clone()
	}
	return c
}

// Date returns January 1st of year, the instant formulas read parameters at.
func Date(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
