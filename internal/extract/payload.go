package extract

import (
	"encoding/json"
	"strings"

	"github.com/parkerdavis/leadscout/internal/browser"
)

// extractPayloads is the last-resort strategy: instead of the rendered DOM it
// parses the backend responses captured while the page loaded. The UI can
// render zero visible items while the backend already returned data, so an
// empty structural extraction is not proof of an empty result set.
func (e *Engine) extractPayloads(captured []browser.CapturedResponse) []CandidateRecord {
	var records []CandidateRecord
	seen := make(map[string]struct{})

	for _, resp := range captured {
		var payload any
		if err := json.Unmarshal(resp.Body, &payload); err != nil {
			continue
		}
		walkJSON(payload, func(obj map[string]any) {
			record, ok := e.profileFromObject(obj)
			if !ok {
				return
			}
			if _, dup := seen[record.IdentityKey]; dup {
				return
			}
			seen[record.IdentityKey] = struct{}{}
			records = append(records, record)
		})
	}
	return records
}

// profileFromObject decides whether a JSON object looks like a profile
// entity: it must carry a stable identifier plus a name-like field. Untrusted
// shape-shifting input, so every lookup is defensive.
func (e *Engine) profileFromObject(obj map[string]any) (CandidateRecord, bool) {
	identity := payloadIdentity(obj)
	if identity == "" {
		return CandidateRecord{}, false
	}
	name := payloadName(obj)
	if name == "" {
		return CandidateRecord{}, false
	}

	return CandidateRecord{
		IdentityKey:    identity,
		DisplayName:    name,
		CurrentRole:    textValue(firstOf(obj, "primarySubtitle", "headline", "occupation")),
		Organization:   textValue(firstOf(obj, "companyName", "currentCompany")),
		Location:       textValue(firstOf(obj, "secondarySubtitle", "locationName", "geoRegion")),
		SourceStrategy: StrategyPayload,
		ExtractedAt:    e.now(),
	}, true
}

func payloadIdentity(obj map[string]any) string {
	if s, ok := obj["publicIdentifier"].(string); ok && s != "" {
		return "/in/" + strings.ToLower(s)
	}
	if s, ok := obj["navigationUrl"].(string); ok {
		if id := IdentityFromURL(s); id != "" {
			return id
		}
	}
	if s, ok := obj["entityUrn"].(string); ok {
		if id := identityFromURN(s); id != "" {
			return id
		}
	}
	return ""
}

func payloadName(obj map[string]any) string {
	if name := textValue(firstOf(obj, "name", "title")); name != "" {
		return name
	}
	first, _ := obj["firstName"].(string)
	last, _ := obj["lastName"].(string)
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// walkJSON visits every JSON object nested anywhere inside v.
func walkJSON(v any, visit func(map[string]any)) {
	switch v := v.(type) {
	case map[string]any:
		visit(v)
		for _, child := range v {
			walkJSON(child, visit)
		}
	case []any:
		for _, child := range v {
			walkJSON(child, visit)
		}
	}
}

// firstOf returns the first present key's value.
func firstOf(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// textValue unwraps the site's two text encodings: a plain string, or an
// object with a "text" field.
func textValue(v any) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if s, ok := v["text"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
