// Package survey loads household survey extracts, harmonises their variables
// and prepares them for comparison and statistical matching.
package survey

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/incidence-dev/incidence/internal/frame"
)

// Harmonised column names shared by every source.
const (
	ColumnIdent  = "ident_men"
	ColumnWeight = "pondmen"
)

// Parser converts a survey extract into a harmonised Frame.
type Parser interface {
	Parse(r io.Reader) (*frame.Frame, error)
	Source() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a survey extract found in the data directory.
type FileInfo struct {
	Name   string
	Path   string
	Source string
	Size   int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate source.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Source())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate survey source: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for source, or nil.
func (r *Registry) Get(source string) Parser {
	return r.parsers[strings.ToLower(source)]
}

// Sources returns registered source names in order.
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load parses the extract at path with the parser registered for source.
func (r *Registry) Load(source, path string) (*frame.Frame, error) {
	p := r.Get(source)
	if p == nil {
		return nil, fmt.Errorf("unknown survey source %q", source)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	f, err := p.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// DefaultRegistry returns a registry with the built-in sources.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SourceParser{
		Name: "bdf",
	})
	r.Register(&SourceParser{
		Name: "enl",
		Renames: map[string]string{
			"idlog": ColumnIdent,
			"qex":   ColumnWeight,
		},
	})
	r.Register(&SourceParser{
		Name: "entd",
		Renames: map[string]string{
			"ident_log": ColumnIdent,
			"pondv1":    ColumnWeight,
		},
	})
	r.Register(&SourceParser{
		Name: "erfs",
		Renames: map[string]string{
			"ident": ColumnIdent,
			"wprm":  ColumnWeight,
		},
	})
	return r
}

// SourceParser reads a CSV extract and renames source columns to the
// harmonised names. The household identifier is always kept as text.
type SourceParser struct {
	Name    string
	Renames map[string]string
}

// Source returns the parser name.
func (p *SourceParser) Source() string { return p.Name }

// Parse reads the extract and checks the identifier and weight columns.
func (p *SourceParser) Parse(r io.Reader) (*frame.Frame, error) {
	text := []string{ColumnIdent}
	for from, to := range p.Renames {
		if to == ColumnIdent {
			text = append(text, from)
		}
	}

	f, err := frame.ReadCSV(r, text...)
	if err != nil {
		return nil, fmt.Errorf("reading %s extract: %w", p.Name, err)
	}

	froms := make([]string, 0, len(p.Renames))
	for from := range p.Renames {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, from := range froms {
		if !f.Has(from) {
			continue
		}
		if err := f.Rename(from, p.Renames[from]); err != nil {
			return nil, fmt.Errorf("renaming %s: %w", from, err)
		}
	}

	if f.Len() == 0 {
		return f, nil
	}
	if !f.Has(ColumnIdent) {
		return nil, fmt.Errorf("%s extract: %w: %s", p.Name, frame.ErrNoColumn, ColumnIdent)
	}
	if _, err := f.Float(ColumnWeight); err != nil {
		return nil, fmt.Errorf("%s extract: %w", p.Name, err)
	}
	return f, nil
}

// surveyPrefix is the file name prefix of survey extracts: survey_<source>.csv.
const surveyPrefix = "survey_"

// Scan returns the survey extracts in dataDir whose source is registered.
func (r *Registry) Scan(dataDir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading data dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if !strings.HasSuffix(name, ".csv") || !strings.HasPrefix(name, surveyPrefix) {
			continue
		}
		source := strings.TrimSuffix(strings.TrimPrefix(name, surveyPrefix), ".csv")
		if r.Get(source) == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name:   e.Name(),
			Path:   filepath.Join(dataDir, e.Name()),
			Source: source,
			Size:   info.Size(),
		})
	}
	return files, nil
}

// Path returns the conventional extract path for source under dataDir.
func Path(dataDir, source string) string {
	return filepath.Join(dataDir, surveyPrefix+strings.ToLower(source)+".csv")
}
