package extract

// SelectorConfig holds every DOM selector the structural strategies use, in
// priority order. Earlier entries are tried first; the first selector that
// matches wins. The defaults track the target site's current markup and are
// expected to need replacement over time, which is why the whole set loads
// from configuration without touching extraction logic.
type SelectorConfig struct {
	// Version labels the selector set so exported data and debug artifacts
	// can be correlated with the markup generation they were captured under.
	Version string `json:"version,omitempty"`

	// Containers locate one search-result entry each.
	Containers []string `json:"containers"`

	// Per-field selectors, resolved relative to a container. A field whose
	// selectors all miss yields an empty field, never an aborted record.
	Name         []string `json:"name"`
	ProfileLink  []string `json:"profile_link"`
	Role         []string `json:"role"`
	Organization []string `json:"organization"`
	Location     []string `json:"location"`

	// AnchorFallback finds bare profile links anywhere on the page when no
	// container matches at all.
	AnchorFallback string `json:"anchor_fallback"`
}

// DefaultSelectorConfig returns the selector set for the target site's
// current people-search markup.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Version: "2026-08",
		Containers: []string{
			".entity-result__item",
			".reusable-search__result-container",
			".search-result__wrapper",
		},
		Name: []string{
			`.entity-result__title-text a span[aria-hidden="true"]`,
			".entity-result__title-text a",
			".app-aware-link .actor-name",
		},
		ProfileLink: []string{
			".entity-result__title-text a",
			`a.app-aware-link[href*="/in/"]`,
			`a[href*="/in/"]`,
		},
		Role: []string{
			".entity-result__primary-subtitle",
			".actor-occupation",
		},
		Organization: []string{
			".entity-result__summary strong",
			".entity-result__secondary-subtitle span",
		},
		Location: []string{
			".entity-result__location",
			".entity-result__secondary-subtitle",
			".actor-location",
		},
		AnchorFallback: `a[href*="/in/"]`,
	}
}

func (c *SelectorConfig) withDefaults() SelectorConfig {
	def := DefaultSelectorConfig()
	out := *c
	if len(out.Containers) == 0 {
		out.Containers = def.Containers
	}
	if len(out.Name) == 0 {
		out.Name = def.Name
	}
	if len(out.ProfileLink) == 0 {
		out.ProfileLink = def.ProfileLink
	}
	if len(out.Role) == 0 {
		out.Role = def.Role
	}
	if len(out.Organization) == 0 {
		out.Organization = def.Organization
	}
	if len(out.Location) == 0 {
		out.Location = def.Location
	}
	if out.AnchorFallback == "" {
		out.AnchorFallback = def.AnchorFallback
	}
	return out
}
