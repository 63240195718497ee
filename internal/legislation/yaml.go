package legislation

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a legislation file:
//
//	imposition_indirecte.tva.taux_normal:
//	  description: Taux normal de TVA
//	  unit: "/1"
//	  values:
//	    "2000-04-01": "0.196"
//	    "2014-01-01": "0.2"
type document map[string]parameterDoc

type parameterDoc struct {
	Description string             `yaml:"description,omitempty"`
	Unit        string             `yaml:"unit,omitempty"`
	Values      map[string]*string `yaml:"values"`
}

// Read parses a legislation YAML document.
func Read(r io.Reader) (*Tree, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return New(), nil
		}
		return nil, fmt.Errorf("parsing legislation: %w", err)
	}

	t := New()
	for path, pd := range doc {
		p := NewParameter(path, pd.Description, pd.Unit)
		for date, raw := range pd.Values {
			start, err := time.Parse(dateFormat, date)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: parsing date %q: %w", path, date, err)
			}
			if raw == nil {
				p.Set(start, nil)
				continue
			}
			amount, err := decimal.NewFromString(*raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: parsing value %q: %w", path, *raw, err)
			}
			p.Set(start, &amount)
		}
		if err := t.Add(p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Write serialises the tree as a legislation YAML document.
func Write(w io.Writer, t *Tree) error {
	doc := make(document, len(t.params))
	for path, p := range t.params {
		pd := parameterDoc{Description: p.Description, Unit: p.Unit, Values: make(map[string]*string, len(p.values))}
		for _, v := range p.values {
			if v.Amount == nil {
				pd.Values[v.Start.Format(dateFormat)] = nil
				continue
			}
			s := v.Amount.String()
			pd.Values[v.Start.Format(dateFormat)] = &s
		}
		doc[path] = pd
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding legislation: %w", err)
	}
	return enc.Close()
}

// Load reads a legislation file from disk.
func Load(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening legislation: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading legislation %s: %w", path, err)
	}
	return t, nil
}

// Save writes a legislation file to disk.
func Save(path string, t *Tree) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating legislation file: %w", err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing legislation file: %w", err)
	}
	return nil
}
