package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkerdavis/leadscout/internal/browser"
)

const resultsHTML = `<html><body>
<ul>
  <li class="reusable-search__result-container">
    <div class="entity-result__title-text">
      <a class="app-aware-link" href="https://www.linkedin.com/in/Jane-Doe?miniProfileUrn=x">
        <span aria-hidden="true">Jane Doe</span>
      </a>
    </div>
    <div class="entity-result__primary-subtitle">CEO at Acme Insurance</div>
    <div class="entity-result__secondary-subtitle">Berlin, Germany</div>
  </li>
  <li class="reusable-search__result-container">
    <div class="entity-result__title-text">
      <a class="app-aware-link" href="/in/max-m%C3%BCller/">
        <span aria-hidden="true">Max Müller</span>
      </a>
    </div>
    <div class="entity-result__primary-subtitle">CTO</div>
  </li>
  <li class="reusable-search__result-container">
    <div class="entity-result__title-text"><span>LinkedIn Member</span></div>
  </li>
</ul>
</body></html>`

const anchorsOnlyHTML = `<html><body>
<div class="feed-shared-block">
  <a href="https://www.linkedin.com/in/ada-l/">Ada Lovelace</a>
  <div class="entity-result__primary-subtitle">Engineering Lead</div>
</div>
<a href="https://www.linkedin.com/in/ada-l/">Ada Lovelace</a>
<a href="https://www.linkedin.com/company/acme/">Acme</a>
</body></html>`

func TestIdentityFromURL(t *testing.T) {
	assert.Equal(t, "/in/jane-doe", IdentityFromURL("https://www.linkedin.com/in/Jane-Doe?trk=search"))
	assert.Equal(t, "/in/max", IdentityFromURL("/in/max/"))
	assert.Equal(t, "/in/max", IdentityFromURL("/in/max/details/experience/"))
	assert.Empty(t, IdentityFromURL("https://www.linkedin.com/company/acme/"))
	assert.Empty(t, IdentityFromURL(""))
	assert.Empty(t, IdentityFromURL("/in/"))
}

func TestEngine_StructuralExtraction(t *testing.T) {
	engine := NewEngine(SelectorConfig{}, false)
	records, strategy := engine.Extract(&browser.PageView{URL: "https://x/search", HTML: resultsHTML})

	assert.Equal(t, StrategyStructural, strategy)
	require.Len(t, records, 2, "the identity-less third container is dropped")

	assert.Equal(t, "/in/jane-doe", records[0].IdentityKey)
	assert.Equal(t, "Jane Doe", records[0].DisplayName)
	assert.Equal(t, "CEO at Acme Insurance", records[0].CurrentRole)
	assert.Equal(t, "Berlin, Germany", records[0].Location)
	assert.Equal(t, StrategyStructural, records[0].SourceStrategy)
	assert.False(t, records[0].ExtractedAt.IsZero())

	// Partial-field extraction: the missing location selector yields an
	// empty field, not a dropped record.
	assert.Equal(t, "/in/max-müller", records[1].IdentityKey)
	assert.Equal(t, "CTO", records[1].CurrentRole)
	assert.Empty(t, records[1].Location)
}

func TestEngine_ContainerSelectorPriority(t *testing.T) {
	cfg := SelectorConfig{Containers: []string{".does-not-exist", ".reusable-search__result-container"}}
	engine := NewEngine(cfg, false)

	records, strategy := engine.Extract(&browser.PageView{HTML: resultsHTML})
	assert.Equal(t, StrategyStructural, strategy)
	assert.Len(t, records, 2)
}

func TestEngine_AnchorFallback(t *testing.T) {
	engine := NewEngine(SelectorConfig{}, false)
	records, strategy := engine.Extract(&browser.PageView{HTML: anchorsOnlyHTML})

	assert.Equal(t, StrategyAnchor, strategy)
	require.Len(t, records, 1, "duplicate anchors and company links are skipped")
	assert.Equal(t, "/in/ada-l", records[0].IdentityKey)
	assert.Equal(t, "Ada Lovelace", records[0].DisplayName)
	assert.Equal(t, "Engineering Lead", records[0].CurrentRole, "role salvaged from the enclosing block")
}

func TestEngine_PayloadFallback(t *testing.T) {
	payload := `{
		"data": {
			"elements": [
				{
					"title": {"text": "Grace Hopper"},
					"primarySubtitle": {"text": "Rear Admiral / Computer Scientist"},
					"secondarySubtitle": {"text": "Arlington, Virginia"},
					"navigationUrl": "https://www.linkedin.com/in/grace-hopper?origin=search",
					"trackingUrn": "urn:li:member:1"
				},
				{
					"publicIdentifier": "Alan-Turing",
					"firstName": "Alan",
					"lastName": "Turing",
					"headline": "Mathematician"
				},
				{"entityUrn": "urn:li:fsd_company:42", "name": "Not a person"},
				{"title": {"text": "No identity here"}}
			]
		}
	}`
	view := &browser.PageView{
		URL:  "https://x/search",
		HTML: "<html><body><div>throttled render</div></body></html>",
		Captured: []browser.CapturedResponse{
			{URL: "https://x/voyager/api/search/dash/clusters", Body: []byte(payload)},
			{URL: "https://x/voyager/api/other", Body: []byte(`not json`)},
		},
	}

	engine := NewEngine(SelectorConfig{}, false)
	records, strategy := engine.Extract(view)

	assert.Equal(t, StrategyPayload, strategy)
	require.Len(t, records, 2)
	assert.Equal(t, "/in/grace-hopper", records[0].IdentityKey)
	assert.Equal(t, "Grace Hopper", records[0].DisplayName)
	assert.Equal(t, "Rear Admiral / Computer Scientist", records[0].CurrentRole)
	assert.Equal(t, "Arlington, Virginia", records[0].Location)
	assert.Equal(t, "/in/alan-turing", records[1].IdentityKey)
	assert.Equal(t, "Alan Turing", records[1].DisplayName)
	assert.Equal(t, "Mathematician", records[1].CurrentRole)
}

func TestEngine_PayloadDeduplicatesWithinPage(t *testing.T) {
	body := []byte(`{"a": {"publicIdentifier": "jane", "name": "Jane"}, "b": {"publicIdentifier": "jane", "name": "Jane"}}`)
	view := &browser.PageView{Captured: []browser.CapturedResponse{{URL: "u", Body: body}}}

	engine := NewEngine(SelectorConfig{}, false)
	records, _ := engine.Extract(view)
	assert.Len(t, records, 1)
}

func TestEngine_StructuralWinsOverPayload(t *testing.T) {
	view := &browser.PageView{
		HTML: resultsHTML,
		Captured: []browser.CapturedResponse{
			{URL: "u", Body: []byte(`{"publicIdentifier": "payload-person", "name": "Payload Person"}`)},
		},
	}
	engine := NewEngine(SelectorConfig{}, false)
	records, strategy := engine.Extract(view)

	assert.Equal(t, StrategyStructural, strategy)
	for _, r := range records {
		assert.NotEqual(t, "/in/payload-person", r.IdentityKey)
	}
}

func TestEngine_AllStrategiesEmpty(t *testing.T) {
	engine := NewEngine(SelectorConfig{}, false)
	records, strategy := engine.Extract(&browser.PageView{HTML: "<html><body><p>nothing</p></body></html>"})

	assert.Nil(t, records)
	assert.Empty(t, strategy)
}
