package convert

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"covabdab/internal/covabdab"
	"covabdab/internal/fasta"
)

func mustTable(t *testing.T, csv string) *covabdab.Table {
	t.Helper()
	tbl, err := covabdab.ReadTable(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected table error: %v", err)
	}
	return tbl
}

func TestConvertSingleRow(t *testing.T) {
	tbl := mustTable(t, "Name,heavy_seq\nAb123,EVQLVESGG\n")
	res, err := Convert(tbl, Options{
		HeaderColumns:   []string{"Name"},
		SequenceColumns: []string{"heavy_seq"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}
	var buf bytes.Buffer
	if err := fasta.WriteRecords(res.Records, &buf, "\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	want := ">Ab123|heavy_seq\nEVQLVESGG\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q, want %q", buf.String(), want)
	}
}

func TestConvertPreservesRowOrder(t *testing.T) {
	tbl := mustTable(t, "Name,VH\nAb1,EVQ\nAb2,QVQ\nAb3,AVQ\n")
	res, err := Convert(tbl, Options{HeaderColumns: []string{"Name"}, SequenceColumns: []string{"VH"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Emitted != 3 || res.Rows != 3 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	for i, want := range []string{"Ab1|VH", "Ab2|VH", "Ab3|VH"} {
		if res.Records[i].Header != want {
			t.Fatalf("record %d header %q, want %q", i, res.Records[i].Header, want)
		}
	}
}

func TestConvertDefaultsToCovAbDabSchema(t *testing.T) {
	tbl := mustTable(t, `Name,Ab or Nb,Origin,CDRH3,CDRL3,VH or VHH,VL
C105,Ab,B-cells; SARS-CoV2 patient,ARGDSSGYYYYFDY,QQSYSTPPEYT,EVQLVESGG,DIQMTQ
`)
	res, err := Convert(tbl, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Emitted != 4 {
		t.Fatalf("expected 4 records (one per sequence column), got %d", res.Emitted)
	}
	wantHeader := "C105|Ab|B-cells;_SARS-CoV2_patient|CDRH3"
	if res.Records[0].Header != wantHeader {
		t.Fatalf("unexpected header %q, want %q", res.Records[0].Header, wantHeader)
	}
}

func TestConvertSkipsPlaceholders(t *testing.T) {
	tbl := mustTable(t, "Name,VH,VL\nAb1,EVQ,ND\nAb2,TBC,\nAb3,QVQ,DIQ\n")
	res, err := Convert(tbl, Options{HeaderColumns: []string{"Name"}, SequenceColumns: []string{"VH", "VL"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Emitted != 3 {
		t.Fatalf("expected 3 records, got %d", res.Emitted)
	}
	if res.SkippedValues != 3 {
		t.Fatalf("expected 3 skipped values, got %d", res.SkippedValues)
	}
	if res.SkippedRows != 1 {
		t.Fatalf("expected 1 fully skipped row, got %d", res.SkippedRows)
	}
}

func TestConvertSchemaMismatch(t *testing.T) {
	tbl := mustTable(t, "Name,Origin\nAb1,Human\n")
	_, err := Convert(tbl, Options{HeaderColumns: []string{"Name"}, SequenceColumns: []string{"VH"}})
	var schema *covabdab.SchemaError
	if !errors.As(err, &schema) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schema.Missing) != 1 || schema.Missing[0] != "VH" {
		t.Fatalf("unexpected missing columns: %#v", schema.Missing)
	}
}

func TestConvertHeaderOnlyTable(t *testing.T) {
	tbl := mustTable(t, "Name,VH\n")
	res, err := Convert(tbl, Options{HeaderColumns: []string{"Name"}, SequenceColumns: []string{"VH"}})
	if err != nil {
		t.Fatalf("header-only table must convert cleanly, got %v", err)
	}
	if len(res.Records) != 0 || res.Rows != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestConvertIdempotent(t *testing.T) {
	const csv = "Name,VH,VL\nAb1,EVQ,DIQ\nAb2,QVQ,ND\n"
	opts := Options{HeaderColumns: []string{"Name"}, SequenceColumns: []string{"VH", "VL"}}

	render := func() string {
		tbl := mustTable(t, csv)
		res, err := Convert(tbl, opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var buf bytes.Buffer
		if err := fasta.WriteRecords(res.Records, &buf, "\n"); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		return buf.String()
	}

	first, second := render(), render()
	if first != second {
		t.Fatalf("conversion is not idempotent:\n%q\n%q", first, second)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	tbl := mustTable(t, "Name,VH\nAb123,EVQLVESGG\nAb456,QVQLQESGG\n")
	res, err := Convert(tbl, Options{HeaderColumns: []string{"Name"}, SequenceColumns: []string{"VH"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	if err := fasta.WriteRecords(res.Records, &buf, "\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	back := fasta.ParseFasta(&buf)
	if len(back) != 2 {
		t.Fatalf("expected 2 parsed records, got %d", len(back))
	}
	if back[0].Header != "Ab123|VH" || back[0].Sequence != "EVQLVESGG" {
		t.Fatalf("round trip lost data: %+v", back[0])
	}
}

func TestOutputName(t *testing.T) {
	cases := map[string]string{
		"CoV-AbDab_230321.csv":   "CoV-AbDab_230321.fasta",
		"/tmp/upload/export.CSV": "export.fasta",
		"http-download":          "http-download.fasta",
		"":                       "covabdab.fasta",
	}
	for in, want := range cases {
		if got := OutputName(in); got != want {
			t.Fatalf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}
