package categories

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/incidence-dev/incidence/internal/model"
	"github.com/incidence-dev/incidence/internal/naming"
)

// ReadTable reads a fiscal category table
// (code_coicop,categorie_fiscale,start,stop).
func ReadTable(r io.Reader) ([]model.CategoryAssignment, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []model.CategoryAssignment{}, nil
		}
		return nil, fmt.Errorf("reading category table header: %w", err)
	}

	rows := []model.CategoryAssignment{}
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding category table: %w", err)
	}
	return rows, nil
}

// WriteTable writes a fiscal category table with its header.
func WriteTable(w io.Writer, rows []model.CategoryAssignment) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		if err := enc.EncodeHeader(model.CategoryAssignment{}); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type segmentRow struct {
	Category string `csv:"categorie_fiscale"`
	Start    int    `csv:"start"`
	Stop     int    `csv:"stop"`
	Function string `csv:"function"`
	Codes    string `csv:"codes_coicop"`
}

// WriteSegments writes one row per segment, codes separated by spaces.
func WriteSegments(w io.Writer, segs []Segment) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(segs) == 0 {
		if err := enc.EncodeHeader(segmentRow{}); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, s := range segs {
		row := segmentRow{
			Category: s.Category,
			Start:    s.Start,
			Stop:     s.Stop,
			Function: naming.FunctionName(s.Start, s.Stop),
			Codes:    strings.Join(s.Codes, " "),
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("writing segment %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
