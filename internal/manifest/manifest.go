// Package manifest keeps a CSV log of every output file written by a command.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
)

// Entry is one row in the manifest.
type Entry struct {
	Timestamp time.Time `csv:"timestamp"`
	Command   string    `csv:"command"`
	Path      string    `csv:"path"`
	Rows      int       `csv:"rows"`
	RunID     string    `csv:"run_id,omitempty"`
}

const (
	logDir  = "logs"
	logFile = "logs/manifest.csv"
)

// Append writes entries to <outputDir>/logs/manifest.csv, creating the file
// and header if needed.
func Append(outputDir string, entries []Entry) error {
	dir := filepath.Join(outputDir, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(outputDir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening manifest: %w", err)
	}
	if err := writeEntries(f, entries, needsHeader); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing manifest: %w", err)
	}
	return nil
}

func writeEntries(w io.Writer, entries []Entry, needsHeader bool) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = needsHeader
	if needsHeader && len(entries) == 0 {
		if err := enc.EncodeHeader(Entry{}); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Record appends one entry stamped with the current time.
func Record(outputDir, command, path string, rows int, runID string) error {
	return Append(outputDir, []Entry{{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Command:   command,
		Path:      path,
		Rows:      rows,
		RunID:     runID,
	}})
}

// Read returns all entries from <outputDir>/logs/manifest.csv.
// Returns nil if the file does not exist.
func Read(outputDir string) ([]Entry, error) {
	path := filepath.Join(outputDir, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// ForRun returns the entries written by the recorded run runID, in
// manifest order.
func ForRun(outputDir, runID string) ([]Entry, error) {
	entries, err := Read(outputDir)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest header: %w", err)
	}

	var entries []Entry
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return entries, nil
}
