// Package sheet loads named tables shaped as a two-row header (field keys,
// then human descriptions) followed by data rows.
package sheet

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Record is one data row keyed by the header row. Missing cells are stored
// as empty strings, so lookups never fail.
type Record map[string]string

// NewRecord pairs headers with row cells positionally. Cells beyond the
// header are dropped; headers beyond the row map to "". When a header name
// repeats, the last occurrence wins.
func NewRecord(headers, row []string) Record {
	r := make(Record, len(headers))
	for i, h := range headers {
		if i < len(row) {
			r[h] = row[i]
		} else {
			r[h] = ""
		}
	}
	return r
}

// Get returns the raw cell value for name, or "" when absent.
func (r Record) Get(name string) string {
	return r[name]
}

// Has reports whether the header contained name.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Trimmed returns the whitespace-trimmed value of name.
func (r Record) Trimmed(name string) string {
	return strings.TrimSpace(r[name])
}

// First returns the first non-blank trimmed value among names, in order.
func (r Record) First(names ...string) string {
	for _, n := range names {
		if v := r.Trimmed(n); v != "" {
			return v
		}
	}
	return ""
}

// Fold is First with case-insensitive header matching. Exact matches are
// tried before folded ones; among folded matches keys are visited in sorted
// order so the result does not depend on map iteration.
func (r Record) Fold(names ...string) string {
	if v := r.First(names...); v != "" {
		return v
	}

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, n := range names {
		want := fold(n)
		for _, k := range keys {
			if fold(k) != want {
				continue
			}
			if v := r.Trimmed(k); v != "" {
				return v
			}
		}
	}
	return ""
}

// IsBlank reports whether every cell is empty after trimming.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// fold returns the Unicode case-folded, trimmed form of s. A fresh Caser is
// used per call because Casers are stateful.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// FoldString exposes the case folding used for header matching.
func FoldString(s string) string {
	return fold(s)
}
