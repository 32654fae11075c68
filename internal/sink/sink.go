// Package sink persists run outcomes. Every sink consumes the same outcome;
// which sinks are active is a deployment decision, so they compose rather
// than know about each other.
package sink

import (
	"context"
	"strings"
	"unicode"

	"github.com/parkerdavis/leadscout/internal/pipeline"
)

// Sink receives one completed run outcome.
type Sink interface {
	// Name identifies the sink in logs and error messages.
	Name() string
	Write(ctx context.Context, outcome *pipeline.Outcome) error
}

// Multi fans one outcome out to several sinks. The first failure stops the
// fan-out and is returned; earlier sinks keep whatever they wrote.
type Multi struct {
	sinks []Sink
}

// NewMulti builds a fan-out sink.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Write(ctx context.Context, outcome *pipeline.Outcome) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, outcome); err != nil {
			return err
		}
	}
	return nil
}

// Title categories used to bucket extracted role lines for reporting.
const (
	CategoryCEOFounder  = "CEO/Founder"
	CategoryCTO         = "CTO"
	CategoryCFO         = "CFO"
	CategoryCOO         = "COO"
	CategoryVPDirector  = "VP/Director"
	CategoryPresidentMD = "President/MD"
	CategoryOther       = "Other Executive"
	CategoryUnknown     = "Unknown"
)

// categoryRules are matched in order; the first bucket with a hit wins, so
// "Chief Executive Officer & President" lands in CEO/Founder, not
// President/MD.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{CategoryCEOFounder, []string{"ceo", "chief executive", "founder", "co-founder"}},
	{CategoryCTO, []string{"cto", "chief technology", "chief technical"}},
	{CategoryCFO, []string{"cfo", "chief financial"}},
	{CategoryCOO, []string{"coo", "chief operating"}},
	{CategoryVPDirector, []string{"vp", "vice president", "director"}},
	{CategoryPresidentMD, []string{"president", "managing director"}},
}

// CategorizeTitle buckets a free-text role line into a coarse seniority
// category. Matching is case-insensitive; short acronyms match whole words
// only, so "Director" does not trip the "cto" keyword. An empty title is
// Unknown.
func CategorizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return CategoryUnknown
	}
	lower := strings.ToLower(title)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if keywordMatches(lower, words, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

func keywordMatches(lower string, words []string, kw string) bool {
	if len(kw) > 3 || strings.Contains(kw, " ") {
		return strings.Contains(lower, kw)
	}
	for _, w := range words {
		if w == kw {
			return true
		}
	}
	return false
}
