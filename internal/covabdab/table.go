package covabdab

// Package covabdab models the CSV export of the Coronavirus Antibody
// Database (CoV-AbDab) as an ordered table of named fields and knows how
// to download it from the official site.

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Default column sets of the CoV-AbDab export schema. Callers may
// override both; these match the database's published CSV headers.
var (
	DefaultHeaderColumns   = []string{"Name", "Ab or Nb", "Origin"}
	DefaultSequenceColumns = []string{"CDRH3", "CDRL3", "VH or VHH", "VL"}
)

// BadInputError reports input that could not be read as a CSV table.
type BadInputError struct {
	Reason string
	Err    error
}

func (e *BadInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bad input: %s: %v", e.Reason, e.Err)
	}
	return "bad input: " + e.Reason
}

func (e *BadInputError) Unwrap() error { return e.Err }

// SchemaError reports expected columns missing from the table header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "schema mismatch: missing column(s): " + strings.Join(e.Missing, ", ")
}

// Table is a parsed CSV export. Columns preserves the header order and
// Rows preserves the file's row order; each row maps column name to the
// cell text.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// ReadTable parses CSV data with a header row. An empty input (no header
// at all) or unparseable CSV yields a BadInputError. A header-only file
// is valid and produces a table with zero rows.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &BadInputError{Reason: "empty file"}
	}
	if err != nil {
		return nil, &BadInputError{Reason: "cannot parse CSV header", Err: err}
	}

	t := &Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &BadInputError{Reason: fmt.Sprintf("cannot parse CSV row %d", len(t.Rows)+2), Err: err}
		}
		// ragged rows never get here: encoding/csv enforces the
		// header's field count and the error is wrapped above
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the header contains the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RequireColumns checks that every named column exists, returning a
// SchemaError listing all absentees at once so the user sees the whole
// problem in one message.
func (t *Table) RequireColumns(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
