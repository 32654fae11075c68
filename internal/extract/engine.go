package extract

import (
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/parkerdavis/leadscout/internal/browser"
)

// Engine extracts candidate records from one loaded results page. It is
// stateless apart from its selector configuration and safe to share across
// sequential page views of one pipeline run.
type Engine struct {
	cfg     SelectorConfig
	verbose bool
	now     func() time.Time
}

// NewEngine creates an engine; zero-value selector fields use the defaults.
func NewEngine(cfg SelectorConfig, verbose bool) *Engine {
	return &Engine{cfg: cfg.withDefaults(), verbose: verbose, now: time.Now}
}

// Extract runs the strategy chain against the view and returns the records
// plus the name of the strategy that produced them. An empty result with an
// empty strategy name means every tier came up empty, which is not
// necessarily "no results": callers should treat it as a signal to capture a
// page snapshot for selector maintenance.
func (e *Engine) Extract(view *browser.PageView) ([]CandidateRecord, string) {
	if view == nil {
		return nil, ""
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(view.HTML))
	if docErr == nil {
		if records := e.extractStructural(doc); len(records) > 0 {
			e.logStrategy(StrategyStructural, len(records))
			return records, StrategyStructural
		}
		if records := e.extractAnchors(doc); len(records) > 0 {
			e.logStrategy(StrategyAnchor, len(records))
			return records, StrategyAnchor
		}
	} else if e.verbose {
		log.Printf("[EXTRACT] Could not parse page HTML, falling through to payload strategy: %v", docErr)
	}

	if records := e.extractPayloads(view.Captured); len(records) > 0 {
		e.logStrategy(StrategyPayload, len(records))
		return records, StrategyPayload
	}

	if e.verbose {
		log.Printf("[EXTRACT] All strategies empty for %s", view.URL)
	}
	return nil, ""
}

func (e *Engine) logStrategy(strategy string, n int) {
	if e.verbose {
		log.Printf("[EXTRACT] %s strategy produced %d records", strategy, n)
	}
}

// extractStructural walks result containers and pulls each sub-field through
// its own prioritized selector list. A missing sub-field yields an empty
// field; only a missing identity drops the record.
func (e *Engine) extractStructural(doc *goquery.Document) []CandidateRecord {
	containers := e.findContainers(doc)
	if containers == nil {
		return nil
	}

	var records []CandidateRecord
	containers.Each(func(_ int, container *goquery.Selection) {
		identity := e.identityIn(container)
		if identity == "" {
			return
		}
		records = append(records, CandidateRecord{
			IdentityKey:    identity,
			DisplayName:    firstText(container, e.cfg.Name),
			CurrentRole:    firstText(container, e.cfg.Role),
			Organization:   firstText(container, e.cfg.Organization),
			Location:       firstText(container, e.cfg.Location),
			SourceStrategy: StrategyStructural,
			ExtractedAt:    e.now(),
		})
	})
	return records
}

// findContainers returns the matches of the first container selector that
// hits anything.
func (e *Engine) findContainers(doc *goquery.Document) *goquery.Selection {
	for _, sel := range e.cfg.Containers {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func (e *Engine) identityIn(container *goquery.Selection) string {
	for _, sel := range e.cfg.ProfileLink {
		href, ok := container.Find(sel).First().Attr("href")
		if !ok {
			continue
		}
		if id := IdentityFromURL(href); id != "" {
			return id
		}
	}
	return ""
}

// extractAnchors reconstructs minimal records (name + identity) from bare
// profile links when no result container matched, walking up to the nearest
// enclosing block to salvage a role line when one is adjacent.
func (e *Engine) extractAnchors(doc *goquery.Document) []CandidateRecord {
	var records []CandidateRecord
	seen := make(map[string]struct{})

	doc.Find(e.cfg.AnchorFallback).Each(func(_ int, anchor *goquery.Selection) {
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		identity := IdentityFromURL(href)
		if identity == "" {
			return
		}
		if _, dup := seen[identity]; dup {
			return
		}

		name := strings.TrimSpace(anchor.Text())
		if name == "" {
			return
		}

		record := CandidateRecord{
			IdentityKey:    identity,
			DisplayName:    name,
			SourceStrategy: StrategyAnchor,
			ExtractedAt:    e.now(),
		}
		if block := anchor.ParentsFiltered("li, div").First(); block.Length() > 0 {
			record.CurrentRole = firstText(block, e.cfg.Role)
		}

		seen[identity] = struct{}{}
		records = append(records, record)
	})
	return records
}

// firstText returns the trimmed text of the first selector in the list that
// matches a non-empty node.
func firstText(scope *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(scope.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
