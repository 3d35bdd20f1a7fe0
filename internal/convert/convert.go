package convert

// Package convert maps rows of a CoV-AbDab table to FASTA records. The
// mapping is a pure single pass: nothing outside the returned Result is
// mutated, and converting the same table twice yields identical output.

import (
	"path/filepath"
	"strings"

	"covabdab/internal/covabdab"
	"covabdab/internal/fasta"
)

// defaultSkipValues are the placeholder markers the CoV-AbDab export
// uses for sequences that are not determined or to be confirmed.
var defaultSkipValues = []string{"ND", "TBC"}

// Options configures a conversion. The zero value resolves to the
// CoV-AbDab export defaults.
type Options struct {
	// HeaderColumns are joined with '|' to form the base of each FASTA
	// header, in order.
	HeaderColumns []string
	// SequenceColumns each produce one FASTA record per row when the
	// cell holds sequence text.
	SequenceColumns []string
	// LineEnding defaults to "\n".
	LineEnding string
	// SkipValues are cell values treated as absent sequences.
	SkipValues []string
}

func (o Options) withDefaults() Options {
	if len(o.HeaderColumns) == 0 {
		o.HeaderColumns = covabdab.DefaultHeaderColumns
	}
	if len(o.SequenceColumns) == 0 {
		o.SequenceColumns = covabdab.DefaultSequenceColumns
	}
	if o.LineEnding == "" {
		o.LineEnding = "\n"
	}
	if o.SkipValues == nil {
		o.SkipValues = defaultSkipValues
	}
	return o
}

// Result carries the converted records plus the counters every caller
// must surface: a skipped cell or row is never silent.
type Result struct {
	Records []fasta.Record
	// Rows is the number of input data rows seen.
	Rows int
	// Emitted is the number of FASTA records produced.
	Emitted int
	// SkippedValues counts sequence cells skipped for being empty or a
	// placeholder marker.
	SkippedValues int
	// SkippedRows counts rows that produced no record at all.
	SkippedRows int
}

// Convert runs the row-to-record mapping over tbl. Missing header or
// sequence columns yield a covabdab.SchemaError and zero records; a
// table with zero rows yields an empty, valid Result.
func Convert(tbl *covabdab.Table, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	required := append(append([]string{}, opts.HeaderColumns...), opts.SequenceColumns...)
	if err := tbl.RequireColumns(required...); err != nil {
		return nil, err
	}

	res := &Result{Rows: tbl.Len()}
	skip := make(map[string]bool, len(opts.SkipValues))
	for _, v := range opts.SkipValues {
		skip[v] = true
	}

	for _, row := range tbl.Rows {
		parts := make([]string, 0, len(opts.HeaderColumns))
		for _, h := range opts.HeaderColumns {
			parts = append(parts, fasta.SanitizeToken(row[h]))
		}
		base := strings.Join(parts, "|")

		emittedForRow := 0
		for _, sc := range opts.SequenceColumns {
			seq := row[sc]
			if seq == "" || skip[seq] {
				res.SkippedValues++
				continue
			}
			res.Records = append(res.Records, fasta.Record{
				Header:   base + "|" + fasta.SanitizeToken(sc),
				Sequence: seq,
			})
			emittedForRow++
		}
		if emittedForRow == 0 {
			res.SkippedRows++
		}
		res.Emitted += emittedForRow
	}
	return res, nil
}

// OutputName derives the download filename for a converted input:
// the base name with its extension swapped for ".fasta".
func OutputName(inputName string) string {
	base := filepath.Base(inputName)
	if base == "." || base == "/" || base == "" {
		base = "covabdab"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".fasta"
}
