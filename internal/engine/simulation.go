package engine

import (
	"fmt"
	"slices"

	"github.com/incidence-dev/incidence/internal/frame"
	"github.com/incidence-dev/incidence/internal/legislation"
)

// Simulation evaluates variables of a System for one year over a household
// table. Results are memoised; returned slices must not be modified.
type Simulation struct {
	system    *System
	year      int
	n         int
	input     *frame.Frame
	values    map[string][]float64
	computing map[string]bool
}

// NewSimulation creates a simulation of year over the households in input.
// Numeric input columns take precedence over formulas of the same name.
// The input frame is copied.
func NewSimulation(system *System, input *frame.Frame, year int) *Simulation {
	sim := &Simulation{
		system:    system,
		year:      year,
		n:         input.Len(),
		input:     input.Clone(),
		values:    make(map[string][]float64),
		computing: make(map[string]bool),
	}
	for _, name := range sim.input.Columns() {
		if sim.input.IsText(name) {
			continue
		}
		col, _ := sim.input.Float(name)
		sim.values[name] = col
	}
	return sim
}

// Len returns the number of households.
func (s *Simulation) Len() int { return s.n }

// Year returns the simulated year.
func (s *Simulation) Year() int { return s.year }

// System returns the evaluated system.
func (s *Simulation) System() *System { return s.system }

// SetInput overrides a variable with fixed values.
func (s *Simulation) SetInput(name string, values []float64) error {
	if len(values) != s.n {
		return fmt.Errorf("input %s: expected %d values, got %d", name, s.n, len(values))
	}
	s.values[name] = slices.Clone(values)
	return nil
}

// Calculate returns the values of a variable for the simulated year.
// A registered variable with no formula in force that year is all zeros.
func (s *Simulation) Calculate(name string) ([]float64, error) {
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	v, ok := s.system.variables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	if s.computing[name] {
		return nil, fmt.Errorf("%w: %s", ErrCycle, name)
	}

	f, ok := v.formulaFor(s.year)
	if !ok {
		out := make([]float64, s.n)
		s.values[name] = out
		return out, nil
	}

	s.computing[name] = true
	out, err := f.Fn(s, s.year)
	delete(s.computing, name)
	if err != nil {
		return nil, fmt.Errorf("computing %s (%s, %d): %w", name, f.Name, s.year, err)
	}
	if len(out) != s.n {
		return nil, fmt.Errorf("computing %s: expected %d values, got %d", name, s.n, len(out))
	}
	s.values[name] = out
	return out, nil
}

// Sum calculates every named variable and adds them element-wise.
func (s *Simulation) Sum(names ...string) ([]float64, error) {
	out := make([]float64, s.n)
	for _, name := range names {
		v, err := s.Calculate(name)
		if err != nil {
			return nil, err
		}
		for i, x := range v {
			out[i] += x
		}
	}
	return out, nil
}

// Param returns a legislation parameter at January 1st of the simulated year.
func (s *Simulation) Param(path string) (float64, error) {
	return s.system.Parameters.Float(path, legislation.Date(s.year))
}

// Frame returns the input's text columns followed by the named variables.
func (s *Simulation) Frame(names ...string) (*frame.Frame, error) {
	out := frame.New(s.n)
	for _, col := range s.input.Columns() {
		if !s.input.IsText(col) {
			continue
		}
		txt, _ := s.input.Text(col)
		if err := out.SetText(col, slices.Clone(txt)); err != nil {
			return nil, err
		}
	}
	for _, name := range names {
		v, err := s.Calculate(name)
		if err != nil {
			return nil, err
		}
		if err := out.SetFloat(name, slices.Clone(v)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
