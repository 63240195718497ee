package categories

import (
	"fmt"
	"sort"
	"strings"

	"github.com/incidence-dev/incidence/internal/model"
)

// Validate checks the category table. Violations are returned, not fatal:
//   - interval: start after stop
//   - window: interval entirely outside [YearStart, YearStop]
//   - code: empty product code
//   - category: category without a known tax treatment
//   - overlap: a code in two categories the same year
func Validate(table []model.CategoryAssignment) []model.ValidationError {
	var errs []model.ValidationError

	for _, r := range table {
		if strings.TrimSpace(r.Code) == "" {
			errs = append(errs, model.ValidationError{
				Check:       "code",
				Subject:     r.Category,
				Description: "empty product code",
			})
			continue
		}
		if r.Start > r.Stop {
			errs = append(errs, model.ValidationError{
				Check:       "interval",
				Subject:     r.Code,
				Description: fmt.Sprintf("start %d after stop %d", r.Start, r.Stop),
			})
			continue
		}
		if r.Stop < YearStart || r.Start > YearStop {
			errs = append(errs, model.ValidationError{
				Check:       "window",
				Subject:     r.Code,
				Description: fmt.Sprintf("%d-%d outside %d-%d", r.Start, r.Stop, YearStart, YearStop),
			})
		}
		if r.Category != "" && model.KindOf(r.Category) == model.TaxKindNone {
			errs = append(errs, model.ValidationError{
				Check:       "category",
				Subject:     r.Code,
				Description: fmt.Sprintf("unknown fiscal category %q", r.Category),
			})
		}
	}

	svc := NewService(table)
	for _, code := range svc.Codes() {
		rows := svc.Assignments(code)
		for year := YearStart; year <= YearStop; year++ {
			var cats []string
			for _, r := range rows {
				if r.Active(year) {
					cats = append(cats, r.Category)
				}
			}
			if len(cats) > 1 {
				sort.Strings(cats)
				errs = append(errs, model.ValidationError{
					Check:       "overlap",
					Subject:     code,
					Description: fmt.Sprintf("in %s in %d", strings.Join(cats, " and "), year),
				})
				break
			}
		}
	}
	return errs
}
