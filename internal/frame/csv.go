package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadCSV reads a headed CSV into a Frame. A column becomes numeric when every
// non-empty cell parses as a number; empty numeric cells are NaN. Columns
// named in textColumns are always kept as text.
func ReadCSV(r io.Reader, textColumns ...string) (*Frame, error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading survey CSV: %w", err)
	}
	if len(records) == 0 {
		return New(0), nil
	}

	header := records[0]
	rows := records[1:]
	forced := make(map[string]bool, len(textColumns))
	for _, c := range textColumns {
		forced[c] = true
	}

	f := New(len(rows))
	for j, raw := range header {
		name := strings.TrimSpace(raw)
		if f.Has(name) {
			return nil, fmt.Errorf("duplicate column %q", name)
		}

		cells := make([]string, len(rows))
		for i, rec := range rows {
			cells[i] = strings.TrimSpace(rec[j])
		}

		if !forced[name] {
			if values, ok := parseNumeric(cells); ok {
				if err := f.SetFloat(name, values); err != nil {
					return nil, err
				}
				continue
			}
		}
		if err := f.SetText(name, cells); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func parseNumeric(cells []string) ([]float64, bool) {
	values := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" || strings.EqualFold(c, "nan") {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// WriteCSV writes the given columns (all columns when none are given).
func WriteCSV(w io.Writer, f *Frame, columns ...string) error {
	if len(columns) == 0 {
		columns = f.Columns()
	}
	for _, c := range columns {
		if !f.Has(c) {
			return fmt.Errorf("%w: %s", ErrNoColumn, c)
		}
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(columns))
	for i := 0; i < f.n; i++ {
		for j, c := range columns {
			if col, ok := f.text[c]; ok {
				row[j] = col[i]
				continue
			}
			row[j] = FormatFloat(f.numeric[c][i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatFloat renders a cell: shortest representation, empty for NaN.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Load reads a CSV file from disk.
func Load(path string, textColumns ...string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	f, err := ReadCSV(file, textColumns...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return f, nil
}

// Save writes columns of f to path, creating parent directories.
func Save(path string, f *Frame, columns ...string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(file, f, columns...); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
