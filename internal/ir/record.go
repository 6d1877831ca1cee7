package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is one input item: its identifier and the identifiers it requires.
//
// Prerequisites may contain duplicates; membership is what matters.
type Record struct {
	Name          string   `json:"name" yaml:"name"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`
}

// NormalizeName trims surrounding whitespace and applies Unicode NFC, so that
// visually identical identifiers compare equal regardless of encoding.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Normalized returns a copy of r with every identifier normalized.
// A nil prerequisite list stays nil.
func (r Record) Normalized() Record {
	out := Record{Name: NormalizeName(r.Name)}
	if r.Prerequisites != nil {
		out.Prerequisites = make([]string, len(r.Prerequisites))
		for i, p := range r.Prerequisites {
			out.Prerequisites[i] = NormalizeName(p)
		}
	}
	return out
}

// NormalizeRecords returns normalized copies of records, with a missing
// prerequisite list made empty. Every data source passes its records
// through here before they reach the resolver.
func NormalizeRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		n := rec.Normalized()
		if n.Prerequisites == nil {
			n.Prerequisites = []string{}
		}
		out[i] = n
	}
	return out
}

// EdgeCount returns the total number of declared prerequisite edges.
func EdgeCount(records []Record) int {
	n := 0
	for _, r := range records {
		n += len(r.Prerequisites)
	}
	return n
}
