// Package pipeline runs one logical query end to end: it walks the
// facet-relaxation ladder, drives pagination, extracts records from each
// page, and accumulates them into a deduplicated result set.
package pipeline

import "github.com/parkerdavis/leadscout/internal/extract"

// ResultSet is an insertion-ordered sequence of candidate records, unique by
// identity key. First-seen wins: a later record with a known identity is
// discarded regardless of which strategy or rung produced it, since no
// strategy is presumed more trustworthy than another; all of them are fed
// from the same live trust boundary.
type ResultSet struct {
	records []extract.CandidateRecord
	index   map[string]struct{}
}

// NewResultSet returns an empty set.
func NewResultSet() *ResultSet {
	return &ResultSet{index: make(map[string]struct{})}
}

// Records returns the accumulated records in insertion order. The returned
// slice is a copy; the set itself is never exposed mutable.
func (rs *ResultSet) Records() []extract.CandidateRecord {
	out := make([]extract.CandidateRecord, len(rs.records))
	copy(out, rs.records)
	return out
}

// Size returns the number of unique records.
func (rs *ResultSet) Size() int {
	return len(rs.records)
}

// Has reports whether an identity key is already present.
func (rs *ResultSet) Has(identityKey string) bool {
	_, ok := rs.index[identityKey]
	return ok
}

// Merge returns a new set combining existing with incoming. It is a pure
// function: neither input is mutated. Incoming records with an empty
// identity key are dropped; records whose identity already exists are
// dropped; new records append in discovery order. Merging the same batch
// twice changes nothing.
func Merge(existing *ResultSet, incoming []extract.CandidateRecord) *ResultSet {
	out := NewResultSet()
	if existing != nil {
		out.records = append(out.records, existing.records...)
		for k := range existing.index {
			out.index[k] = struct{}{}
		}
	}
	for _, record := range incoming {
		if record.IdentityKey == "" {
			continue
		}
		if _, dup := out.index[record.IdentityKey]; dup {
			continue
		}
		out.index[record.IdentityKey] = struct{}{}
		out.records = append(out.records, record)
	}
	return out
}

// Truncate returns a copy capped to at most n records, preserving order.
func (rs *ResultSet) Truncate(n int) *ResultSet {
	if n < 0 || n >= len(rs.records) {
		return Merge(rs, nil)
	}
	return Merge(NewResultSet(), rs.records[:n])
}
