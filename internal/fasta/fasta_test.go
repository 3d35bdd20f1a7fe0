package fasta

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFastaSimple(t *testing.T) {
	input := ">seq1\nATGC\n>seq2 desc\nGGTT\n"
	recs := ParseFasta(strings.NewReader(input))
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Header != "seq1" || recs[0].Sequence != "ATGC" {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].Header != "seq2 desc" || recs[1].Sequence != "GGTT" {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
}

func TestWriteRecords(t *testing.T) {
	recs := []Record{
		{Header: "Ab123|VH", Sequence: "EVQLVESGG"},
		{Header: "Ab123|VL", Sequence: "DIQMTQ"},
	}
	var buf bytes.Buffer
	if err := WriteRecords(recs, &buf, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ">Ab123|VH\nEVQLVESGG\n>Ab123|VL\nDIQMTQ\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteRejectsEmptyHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := (Record{Sequence: "EVQ"}).Write(&buf, "\n"); err == nil {
		t.Fatalf("expected error for empty header")
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	recs := []Record{
		{Header: "Ab123|Human|VH_or_VHH", Sequence: "EVQLVESGG"},
		{Header: "Ab456|Mouse|VL", Sequence: "DIQMTQSPSS"},
	}
	var buf bytes.Buffer
	if err := WriteRecords(recs, &buf, "\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back := ParseFasta(&buf)
	if len(back) != len(recs) {
		t.Fatalf("expected %d records back, got %d", len(recs), len(back))
	}
	for i := range recs {
		if back[i] != recs[i] {
			t.Fatalf("record %d mismatch: got %+v want %+v", i, back[i], recs[i])
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("VH or VHH"); got != "VH_or_VHH" {
		t.Fatalf("unexpected sanitized token: %q", got)
	}
	if got := SanitizeToken("Ab123"); got != "Ab123" {
		t.Fatalf("sanitize must not change clean tokens, got %q", got)
	}
}
