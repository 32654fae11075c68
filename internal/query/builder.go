package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Builder turns a logical query into the site's people-search URL. The
// mapping is deterministic: the same query and page always produce the same
// URL.
type Builder struct {
	// BaseURL is the people-search results route.
	BaseURL string
	// Origin is the search origin parameter the site expects.
	Origin string
}

// NewBuilder returns a builder with the target site's defaults.
func NewBuilder() *Builder {
	return &Builder{
		BaseURL: "https://www.linkedin.com/search/results/people/",
		Origin:  "FACETED_SEARCH",
	}
}

// Build produces the request URL for one result page (1-based). Role titles
// are joined with logical OR, never AND, to maximize recall at the top of
// the ladder. Geography uses structured geo codes when present; free-text
// locations are folded into the keywords only when no codes are supplied.
func (b *Builder) Build(q Query, page int) string {
	params := url.Values{}

	terms := make([]string, 0, len(q.RoleTitles)+len(q.Locations))
	for _, title := range q.RoleTitles {
		terms = append(terms, strconv.Quote(title))
	}
	if len(q.GeoCodes) == 0 {
		for _, loc := range q.Locations {
			terms = append(terms, strconv.Quote(loc))
		}
	}
	params.Set("keywords", strings.Join(terms, " OR "))
	params.Set("origin", b.Origin)

	if len(q.GeoCodes) > 0 {
		params.Set("geoUrn", bracketList(q.GeoCodes))
	}
	if len(q.Industries) > 0 {
		params.Set("industry", bracketList(q.Industries))
	}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	return b.BaseURL + "?" + params.Encode()
}

// bracketList renders values as the site's facet-list syntax: ["a","b"].
func bracketList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return fmt.Sprintf("[%s]", strings.Join(quoted, ","))
}
