package model

import "time"

// Run is one recorded simulation.
type Run struct {
	ID         string
	Year       int
	ReformKey  string // empty for the reference legislation
	Households int
	CreatedAt  time.Time
}

// DecileRow holds weighted means of simulated variables for one decile.
type DecileRow struct {
	Decile int
	Values map[string]float64
}
