package survey

import (
	"fmt"
	"math"
	"slices"

	"github.com/incidence-dev/incidence/internal/frame"
)

// Recode replaces values of column found in mapping. Unmapped values are kept.
func Recode(f *frame.Frame, column string, mapping map[float64]float64) error {
	col, err := f.Float(column)
	if err != nil {
		return fmt.Errorf("recoding: %w", err)
	}
	for i, v := range col {
		if to, ok := mapping[v]; ok {
			col[i] = to
		}
	}
	return nil
}

// TopCode groups values of column strictly above threshold into bucket.
func TopCode(f *frame.Frame, column string, threshold, bucket float64) error {
	col, err := f.Float(column)
	if err != nil {
		return fmt.Errorf("top-coding: %w", err)
	}
	for i, v := range col {
		if !math.IsNaN(v) && v > threshold {
			col[i] = bucket
		}
	}
	return nil
}

// Donation class columns used by the external matching step.
const (
	ColumnActive        = "nactifs"
	ColumnDonationClass = "donation_class_1"
)

// DonationClasses copies nactifs into donation_class_1, then top-codes
// nactifs at 3.
func DonationClasses(f *frame.Frame) error {
	active, err := f.Float(ColumnActive)
	if err != nil {
		return fmt.Errorf("building donation classes: %w", err)
	}
	if err := f.SetFloat(ColumnDonationClass, slices.Clone(active)); err != nil {
		return fmt.Errorf("building donation classes: %w", err)
	}
	return TopCode(f, ColumnActive, 2, 3)
}
