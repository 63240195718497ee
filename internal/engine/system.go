package engine

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/incidence-dev/incidence/internal/legislation"
)

var (
	// ErrUnknownVariable is returned when a variable is neither an input nor registered.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrCycle is returned when a variable's formula depends on itself.
	ErrCycle = errors.New("dependency cycle")
)

// Formula computes one value per household for a year. Dependencies are
// read through sim by name.
type Formula func(sim *Simulation, year int) ([]float64, error)

// DatedFormula is a formula in force over the inclusive years [Start, Stop].
// A zero Start or Stop leaves that side open.
type DatedFormula struct {
	Name  string
	Start int
	Stop  int
	Fn    Formula
}

func (d DatedFormula) covers(year int) bool {
	return (d.Start == 0 || d.Start <= year) && (d.Stop == 0 || year <= d.Stop)
}

// Variable is a named household quantity with its dated formulas.
type Variable struct {
	Name     string
	Label    string
	Formulas []DatedFormula
}

// Always returns a variable with a single formula valid for every year.
func Always(name, label string, fn Formula) Variable {
	return Variable{Name: name, Label: label, Formulas: []DatedFormula{{Name: "formula", Fn: fn}}}
}

func (v Variable) formulaFor(year int) (DatedFormula, bool) {
	for _, f := range v.Formulas {
		if f.covers(year) {
			return f, true
		}
	}
	return DatedFormula{}, false
}

// System is a set of variables together with the legislation they read.
type System struct {
	variables  map[string]Variable
	Parameters *legislation.Tree
}

// NewSystem creates an empty System over params.
func NewSystem(params *legislation.Tree) *System {
	if params == nil {
		params = legislation.New()
	}
	return &System{variables: make(map[string]Variable), Parameters: params}
}

// Add registers a new variable. Fails if the name is taken.
func (s *System) Add(v Variable) error {
	if v.Name == "" {
		return fmt.Errorf("variable has no name")
	}
	if _, ok := s.variables[v.Name]; ok {
		return fmt.Errorf("variable %s already registered", v.Name)
	}
	s.variables[v.Name] = cloneVariable(v)
	return nil
}

// Update replaces the formulas of an existing variable.
func (s *System) Update(v Variable) error {
	old, ok := s.variables[v.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, v.Name)
	}
	if v.Label == "" {
		v.Label = old.Label
	}
	s.variables[v.Name] = cloneVariable(v)
	return nil
}

// Put adds v, or updates it when already registered.
func (s *System) Put(v Variable) error {
	if s.Has(v.Name) {
		return s.Update(v)
	}
	return s.Add(v)
}

// Has reports whether a variable is registered.
func (s *System) Has(name string) bool {
	_, ok := s.variables[name]
	return ok
}

// Variable returns a registered variable.
func (s *System) Variable(name string) (Variable, bool) {
	v, ok := s.variables[name]
	if !ok {
		return Variable{}, false
	}
	return cloneVariable(v), true
}

// Names returns every registered variable name, sorted.
func (s *System) Names() []string {
	names := make([]string, 0, len(s.variables))
	for n := range s.variables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the system and its parameters.
func (s *System) Clone() *System {
	c := &System{
		variables:  make(map[string]Variable, len(s.variables)),
		Parameters: s.Parameters.Clone(),
	}
	for name, v := range s.variables {
		c.variables[name] = cloneVariable(v)
	}
	return c
}

func cloneVariable(v Variable) Variable {
	v.Formulas = slices.Clone(v.Formulas)
	return v
}

// Reform is a named overlay on a reference system.
type Reform struct {
	Key  string
	Name string
	// Apply adds or replaces variables and parameters on a clone of the
	// reference system.
	Apply func(s *System) error
}

// WithReform returns a clone of s with r applied. s is left untouched.
func (s *System) WithReform(r Reform) (*System, error) {
	c := s.Clone()
	if r.Apply == nil {
		return c, nil
	}
	if err := r.Apply(c); err != nil {
		return nil, fmt.Errorf("applying reform %s: %w", r.Key, err)
	}
	return c, nil
}
