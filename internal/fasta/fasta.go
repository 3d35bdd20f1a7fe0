package fasta

// Package fasta contains minimal helpers to format and parse FASTA data
// used by the converter. It intentionally keeps both directions simple
// and conservative.

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record represents a single FASTA record (header and sequence). The
// header is stored without the leading '>'.
type Record struct {
	Header   string
	Sequence string
}

// Write emits the record as FASTA text using the given line ending. The
// sequence is written verbatim on a single line, so a record never
// contains internal blank lines.
func (r Record) Write(w io.Writer, lineEnding string) error {
	if r.Header == "" {
		return fmt.Errorf("fasta: refusing to write record with empty header")
	}
	_, err := fmt.Fprintf(w, ">%s%s%s%s", r.Header, lineEnding, r.Sequence, lineEnding)
	return err
}

// WriteRecords writes all records to w in order. An empty lineEnding
// defaults to "\n".
func WriteRecords(records []Record, w io.Writer, lineEnding string) error {
	if lineEnding == "" {
		lineEnding = "\n"
	}
	for _, r := range records {
		if err := r.Write(w, lineEnding); err != nil {
			return err
		}
	}
	return nil
}

// SanitizeToken makes a value safe for use inside a FASTA header by
// replacing spaces with underscores. Downstream tools split headers on
// whitespace, so embedded spaces would truncate the identifier.
func SanitizeToken(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}

// ParseFasta reads FASTA records from r and returns a slice of Record.
// Lines beginning with '>' denote headers; sequence lines are concatenated.
func ParseFasta(r io.Reader) []Record {
	scanner := bufio.NewScanner(r)
	var records []Record
	var current Record
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ">") {
			if current.Header != "" {
				records = append(records, current)
			}
			current = Record{Header: line[1:], Sequence: ""}
		} else {
			current.Sequence += line
		}
	}
	if current.Header != "" {
		records = append(records, current)
	}
	return records
}
