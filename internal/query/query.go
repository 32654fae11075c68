// Package query models a logical people-search query and its canonical
// request representation, including the facet-relaxation ladder used when an
// over-constrained search silently returns nothing.
package query

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Query is an immutable logical search. Role titles define the search intent
// and are never dropped; the other facets are optional and relaxable.
// GeoCodes are preferred over free-text Locations when present, since the
// target site's geo facet matches exactly while free-text locations are the
// most failure-prone facet in practice.
type Query struct {
	RoleTitles []string `json:"role_titles" validate:"required,min=1,dive,required"`
	Locations  []string `json:"locations,omitempty"`
	Industries []string `json:"industries,omitempty"`
	GeoCodes   []string `json:"geo_codes,omitempty"`
	MaxResults int      `json:"max_results" validate:"min=1"`
	MaxPages   int      `json:"max_pages" validate:"min=1"`
}

// Validate checks the query is runnable.
func (q Query) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}

// Normalize returns a copy with facet values trimmed and de-duplicated,
// preserving first-seen order.
func (q Query) Normalize() Query {
	out := q
	out.RoleTitles = dedupe(q.RoleTitles)
	out.Locations = dedupe(q.Locations)
	out.Industries = dedupe(q.Industries)
	out.GeoCodes = dedupe(q.GeoCodes)
	return out
}

// OptionalFacets returns how many relaxable facets the query carries.
func (q Query) OptionalFacets() int {
	n := 0
	if len(q.GeoCodes) > 0 {
		n++
	}
	if len(q.Industries) > 0 {
		n++
	}
	if len(q.Locations) > 0 {
		n++
	}
	return n
}

// IsFloor reports whether the query is at the bottom of the ladder: role
// titles only.
func (q Query) IsFloor() bool {
	return q.OptionalFacets() == 0
}

// Facet names reported when a rung drops one.
const (
	FacetGeoCodes   = "geo_codes"
	FacetIndustries = "industries"
	FacetLocations  = "locations"
)

// Relax returns the next rung of the ladder: a copy of the query with the
// least-essential remaining facet removed, plus the name of the dropped
// facet. The drop order is fixed: geo codes first, then industries, then
// free-text locations. Returns nil when already at the floor.
func Relax(q Query) (*Query, string) {
	switch {
	case len(q.GeoCodes) > 0:
		out := q
		out.GeoCodes = nil
		return &out, FacetGeoCodes
	case len(q.Industries) > 0:
		out := q
		out.Industries = nil
		return &out, FacetIndustries
	case len(q.Locations) > 0:
		out := q
		out.Locations = nil
		return &out, FacetLocations
	default:
		return nil, ""
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
