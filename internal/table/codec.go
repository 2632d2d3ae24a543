package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/loomworks/loom/internal/errors"
)

// Decode parses a CSV byte stream into a Table. The first record is the
// header; names must be non-empty and unique. Empty fields decode as
// missing cells. Column types are inferred from the decoded values.
// All failures surface as MALFORMED_INPUT.
func Decode(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 0 // every record must match the header width

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.NewMalformedInput("", fmt.Errorf("empty input"))
	}
	if err != nil {
		return nil, errors.NewMalformedInput("", err)
	}

	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if strings.TrimSpace(name) == "" {
			return nil, errors.NewMalformedInput("", fmt.Errorf("empty column name in header"))
		}
		if seen[name] {
			return nil, errors.NewMalformedInput("", fmt.Errorf("duplicate column name %q", name))
		}
		seen[name] = true
	}

	t := &Table{Columns: make([]Column, len(header))}
	for i, name := range header {
		t.Columns[i] = Column{Name: name}
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewMalformedInput("", err)
		}
		for i, field := range record {
			cell := Cell{Raw: field}
			if field == "" {
				cell = MissingCell
			}
			t.Columns[i].Cells = append(t.Columns[i].Cells, cell)
		}
	}

	for i := range t.Columns {
		t.Columns[i].Type = InferType(t.Columns[i].Cells)
	}
	return t, nil
}

// Encode serializes the table to CSV bytes: header first, then rows in
// the table's current column order, no index column. Missing cells
// encode as empty fields.
func Encode(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Names()); err != nil {
		return nil, errors.NewInternal(err)
	}

	row := make([]string, len(t.Columns))
	for i := 0; i < t.RowCount(); i++ {
		for j, c := range t.Columns {
			if c.Cells[i].Missing {
				row[j] = ""
			} else {
				row[j] = c.Cells[i].Raw
			}
		}
		// csv.Writer emits a bare newline for a record holding one empty
		// field, and the reader drops blank records on the next load.
		// Quote the field explicitly so the row survives a round trip.
		if len(row) == 1 && row[0] == "" {
			w.Flush()
			if err := w.Error(); err != nil {
				return nil, errors.NewInternal(err)
			}
			buf.WriteString("\"\"\n")
			continue
		}
		if err := w.Write(row); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}
