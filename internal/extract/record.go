// Package extract pulls candidate profile records out of a loaded search
// results page. Extraction runs an ordered chain of strategies (structural
// selectors, link-anchor reconstruction, then captured backend payloads) and
// stops at the first one that yields records. Selector strings are
// configuration data, not logic: they rot with the target UI and stay
// externally adjustable.
package extract

import (
	"net/url"
	"strings"
	"time"
)

// Strategy names recorded on each extracted record.
const (
	StrategyStructural = "structural"
	StrategyAnchor     = "anchor"
	StrategyPayload    = "payload"
)

// CandidateRecord is one extracted profile entity. Records are never mutated
// after creation; downstream stages replace rather than patch.
type CandidateRecord struct {
	// IdentityKey is derived from a stable profile identifier (canonical
	// profile path or URN), never from the display name alone. A record
	// whose identity cannot be derived is dropped, not emitted with a
	// placeholder.
	IdentityKey    string    `json:"identity_key"`
	DisplayName    string    `json:"display_name"`
	CurrentRole    string    `json:"current_role,omitempty"`
	Organization   string    `json:"organization,omitempty"`
	Location       string    `json:"location,omitempty"`
	SourceStrategy string    `json:"source_strategy"`
	ExtractedAt    time.Time `json:"extracted_at"`
}

// IdentityFromURL derives the canonical identity key from a profile link:
// the lowercased "/in/<slug>" path with query and trailing segments
// stripped. Returns "" when the URL does not point at a profile.
func IdentityFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	path := u.Path
	idx := strings.Index(path, "/in/")
	if idx < 0 {
		return ""
	}
	slug := strings.Trim(path[idx+len("/in/"):], "/")
	if cut := strings.IndexByte(slug, '/'); cut >= 0 {
		slug = slug[:cut]
	}
	if slug == "" {
		return ""
	}
	return "/in/" + strings.ToLower(slug)
}

// identityFromURN accepts a backend profile URN as an identity key. URNs are
// stable per profile, so they dedupe correctly against themselves, though
// not against path-derived keys for the same person; first-seen still wins.
func identityFromURN(urn string) string {
	urn = strings.TrimSpace(urn)
	if strings.Contains(urn, "fsd_profile:") || strings.Contains(urn, ":member:") {
		return urn
	}
	return ""
}
