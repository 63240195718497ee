package categories

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/incidence-dev/incidence/internal/model"
)

// Service provides in-memory lookup over the fiscal category table.
type Service struct {
	rows   []model.CategoryAssignment
	byCode map[string][]model.CategoryAssignment
}

// NewService creates a Service from table rows.
func NewService(rows []model.CategoryAssignment) *Service {
	byCode := make(map[string][]model.CategoryAssignment)
	for _, r := range rows {
		byCode[r.Code] = append(byCode[r.Code], r)
	}
	return &Service{rows: rows, byCode: byCode}
}

// Load reads a category table CSV and returns a Service.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening category table: %w", err)
	}
	defer f.Close()

	rows, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("reading category table %s: %w", path, err)
	}
	return NewService(rows), nil
}

// All returns every row.
func (s *Service) All() []model.CategoryAssignment {
	return s.rows
}

// Codes returns every product code, sorted.
func (s *Service) Codes() []string {
	codes := make([]string, 0, len(s.byCode))
	for c := range s.byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Service) Categories() []string {
	return categoriesOf(s.rows)
}

// CategoryOf returns the category of code in year.
func (s *Service) CategoryOf(code string, year int) (string, bool) {
	for _, r := range s.byCode[code] {
		if r.Active(year) {
			return r.Category, true
		}
	}
	return "", false
}

// Assignments returns the rows of one product code.
func (s *Service) Assignments(code string) []model.CategoryAssignment {
	return s.byCode[code]
}

// Save writes the table to path, creating parent directories.
func (s *Service) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating category table dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating category table file: %w", err)
	}
	if err := WriteTable(f, s.rows); err != nil {
		f.Close()
		return fmt.Errorf("writing category table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing category table file: %w", err)
	}
	return nil
}

func categoriesOf(rows []model.CategoryAssignment) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}
