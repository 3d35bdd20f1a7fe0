package covabdab

import (
	"errors"
	"strings"
	"testing"
)

func TestReadTableSimple(t *testing.T) {
	input := "Name,VH or VHH,VL\nAb123,EVQLVESGG,DIQMTQ\nAb456,QVQLQESGG,EIVLTQ\n"
	tbl, err := ReadTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(tbl.Columns))
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.Len())
	}
	if tbl.Rows[0]["Name"] != "Ab123" || tbl.Rows[1]["VL"] != "EIVLTQ" {
		t.Fatalf("unexpected rows: %#v", tbl.Rows)
	}
}

func TestReadTableHeaderOnly(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("Name,VH or VHH\n"))
	if err != nil {
		t.Fatalf("header-only input must not error, got %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected 0 rows, got %d", tbl.Len())
	}
}

func TestReadTableEmpty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""))
	var bad *BadInputError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadInputError for empty input, got %v", err)
	}
}

func TestReadTableMalformed(t *testing.T) {
	// unterminated quote makes the CSV unparseable
	_, err := ReadTable(strings.NewReader("Name,VH\n\"Ab123,EVQ\n"))
	var bad *BadInputError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadInputError for malformed CSV, got %v", err)
	}
}

func TestReadTableRaggedRow(t *testing.T) {
	// a row with fewer fields than the header is rejected, not padded
	_, err := ReadTable(strings.NewReader("Name,VH,VL\nAb123,EVQ\n"))
	var bad *BadInputError
	if !errors.As(err, &bad) {
		t.Fatalf("expected BadInputError for ragged row, got %v", err)
	}
}

func TestRequireColumns(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("Name,VH or VHH\nAb123,EVQ\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tbl.RequireColumns("Name", "VH or VHH"); err != nil {
		t.Fatalf("expected columns present, got %v", err)
	}
	err = tbl.RequireColumns("Name", "VL", "CDRH3")
	var schema *SchemaError
	if !errors.As(err, &schema) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schema.Missing) != 2 || schema.Missing[0] != "VL" || schema.Missing[1] != "CDRH3" {
		t.Fatalf("unexpected missing list: %#v", schema.Missing)
	}
}
