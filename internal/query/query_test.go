package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullQuery() Query {
	return Query{
		RoleTitles: []string{"CEO", "CTO"},
		Locations:  []string{"Berlin"},
		Industries: []string{"Insurance"},
		GeoCodes:   []string{"101282230"},
		MaxResults: 5,
		MaxPages:   2,
	}
}

func TestQuery_Validate(t *testing.T) {
	require.NoError(t, fullQuery().Validate())

	assert.Error(t, Query{MaxResults: 10, MaxPages: 1}.Validate(), "role titles are required")
	assert.Error(t, Query{RoleTitles: []string{"CEO"}, MaxResults: 0, MaxPages: 1}.Validate())
	assert.Error(t, Query{RoleTitles: []string{"CEO"}, MaxResults: 5, MaxPages: 0}.Validate())
}

func TestQuery_Normalize(t *testing.T) {
	q := Query{
		RoleTitles: []string{" CEO ", "CEO", "CTO", ""},
		Locations:  []string{"Berlin", "Berlin"},
		MaxResults: 5,
		MaxPages:   1,
	}
	n := q.Normalize()
	assert.Equal(t, []string{"CEO", "CTO"}, n.RoleTitles)
	assert.Equal(t, []string{"Berlin"}, n.Locations)
	assert.Nil(t, n.Industries)

	// Original untouched.
	assert.Len(t, q.RoleTitles, 4)
}

// The ladder reaches the floor in exactly |optional facets| steps, then
// returns nil.
func TestRelax_MonotonicLadder(t *testing.T) {
	q := fullQuery()
	require.Equal(t, 3, q.OptionalFacets())

	r1, dropped := Relax(q)
	require.NotNil(t, r1)
	assert.Equal(t, FacetGeoCodes, dropped)
	assert.Empty(t, r1.GeoCodes)
	assert.NotEmpty(t, r1.Industries)

	r2, dropped := Relax(*r1)
	require.NotNil(t, r2)
	assert.Equal(t, FacetIndustries, dropped)
	assert.Empty(t, r2.Industries)
	assert.NotEmpty(t, r2.Locations)

	r3, dropped := Relax(*r2)
	require.NotNil(t, r3)
	assert.Equal(t, FacetLocations, dropped)
	assert.True(t, r3.IsFloor())

	r4, dropped := Relax(*r3)
	assert.Nil(t, r4)
	assert.Empty(t, dropped)

	// Role titles survive every rung.
	assert.Equal(t, q.RoleTitles, r3.RoleTitles)
}

func TestRelax_DoesNotMutateInput(t *testing.T) {
	q := fullQuery()
	_, _ = Relax(q)
	assert.NotEmpty(t, q.GeoCodes)
}

func TestBuilder_Build_TitlesJoinedWithOR(t *testing.T) {
	b := NewBuilder()
	raw := b.Build(Query{RoleTitles: []string{"CEO", "Chief Executive Officer"}, MaxResults: 10, MaxPages: 1}, 1)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "www.linkedin.com", u.Host)
	assert.Equal(t, "/search/results/people/", u.Path)

	params := u.Query()
	assert.Equal(t, `"CEO" OR "Chief Executive Officer"`, params.Get("keywords"))
	assert.Equal(t, "FACETED_SEARCH", params.Get("origin"))
	assert.Empty(t, params.Get("page"), "page 1 carries no page parameter")
}

func TestBuilder_Build_GeoCodesPreferredOverLocations(t *testing.T) {
	b := NewBuilder()
	q := fullQuery()

	params := mustParams(t, b.Build(q, 1))
	assert.Equal(t, `["101282230"]`, params.Get("geoUrn"))
	assert.NotContains(t, params.Get("keywords"), "Berlin", "free-text location omitted when geo codes present")

	// Without geo codes, locations fall back into the keywords.
	q.GeoCodes = nil
	params = mustParams(t, b.Build(q, 1))
	assert.Empty(t, params.Get("geoUrn"))
	assert.Contains(t, params.Get("keywords"), `"Berlin"`)
}

func TestBuilder_Build_IndustriesAndPaging(t *testing.T) {
	b := NewBuilder()
	q := fullQuery()

	params := mustParams(t, b.Build(q, 3))
	assert.Equal(t, `["Insurance"]`, params.Get("industry"))
	assert.Equal(t, "3", params.Get("page"))
}

func TestBuilder_Build_Deterministic(t *testing.T) {
	b := NewBuilder()
	q := fullQuery()
	assert.Equal(t, b.Build(q, 2), b.Build(q, 2))
}

func mustParams(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query()
}
