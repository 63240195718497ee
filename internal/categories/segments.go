package categories

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/incidence-dev/incidence/internal/model"
)

// Years covered by generated category variables.
const (
	YearStart = 1994
	YearStop  = 2014
)

var (
	// ErrNoCategoryTable is returned when no category table was supplied.
	ErrNoCategoryTable = errors.New("no category table")
	// ErrYearOutOfRange is returned for years before the category table.
	ErrYearOutOfRange = errors.New("year before the category table")
)

// CheckYear rejects years no category formula covers. Years after YearStop
// are accepted: the YearStop membership stays in force.
func CheckYear(year int) error {
	if year < YearStart {
		return fmt.Errorf("%w: %d < %d", ErrYearOutOfRange, year, YearStart)
	}
	return nil
}

// FormulaStop is the stop year of a formula built from a range ending at
// stop. Ranges reaching YearStop stay open.
func FormulaStop(stop int) int {
	if stop >= YearStop {
		return 0
	}
	return stop
}

// Segment is a year range over which a category holds the same product codes.
type Segment struct {
	Category string
	Start    int
	Stop     int
	Codes    []string
}

// Segments splits [YearStart, YearStop] into ranges over which the member set
// of category is constant. A new segment opens each year the set differs from
// the year before; a change in YearStop yields a one-year final segment.
func Segments(table []model.CategoryAssignment, category string) ([]Segment, error) {
	if table == nil {
		return nil, ErrNoCategoryTable
	}

	var segs []Segment
	start := YearStart
	prev := codesIn(table, category, YearStart)
	for year := YearStart + 1; year <= YearStop; year++ {
		cur := codesIn(table, category, year)
		if slices.Equal(cur, prev) {
			continue
		}
		segs = append(segs, Segment{Category: category, Start: start, Stop: year - 1, Codes: prev})
		start = year
		prev = cur
	}
	segs = append(segs, Segment{Category: category, Start: start, Stop: YearStop, Codes: prev})
	return segs, nil
}

// AllSegments returns the segments of every non-empty category in table.
func AllSegments(table []model.CategoryAssignment) ([]Segment, error) {
	if table == nil {
		return nil, ErrNoCategoryTable
	}
	var out []Segment
	for _, c := range categoriesOf(table) {
		segs, err := Segments(table, c)
		if err != nil {
			return nil, err
		}
		out = append(out, segs...)
	}
	return out, nil
}

func codesIn(table []model.CategoryAssignment, category string, year int) []string {
	var codes []string
	for _, r := range table {
		if r.Category == category && r.Active(year) {
			codes = append(codes, r.Code)
		}
	}
	sort.Strings(codes)
	return slices.Compact(codes)
}
