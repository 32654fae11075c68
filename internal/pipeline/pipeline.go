package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/parkerdavis/leadscout/internal/browser"
	"github.com/parkerdavis/leadscout/internal/extract"
	"github.com/parkerdavis/leadscout/internal/query"
)

// Navigator fetches one results page. *browser.Page implementations satisfy
// it; tests substitute a scripted fake.
type Navigator interface {
	Navigate(ctx context.Context, url string) (*browser.PageView, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Extractor turns a page view into candidate records.
type Extractor interface {
	Extract(view *browser.PageView) ([]extract.CandidateRecord, string)
}

// Reason codes explaining why a run ended.
const (
	ReasonSatisfied = "satisfied" // result target met
	ReasonExhausted = "exhausted" // ladder floor reached with fewer results than requested
	ReasonCancelled = "cancelled"
)

// Outcome is the full account of one run.
type Outcome struct {
	RunID         string                    `json:"run_id"`
	Query         query.Query               `json:"query"`
	Records       []extract.CandidateRecord `json:"records"`
	RungReached   int                       `json:"rung_reached"`
	DroppedFacets []string                  `json:"dropped_facets,omitempty"`
	PagesFetched  int                       `json:"pages_fetched"`
	Elapsed       time.Duration             `json:"elapsed"`
	Reason        string                    `json:"reason"`
}

// Options tunes a pipeline. Zero delays mean no pacing, which is what tests
// want; production runs should start from DefaultOptions.
type Options struct {
	// PageDelay is the pause between page fetches within one rung.
	PageDelay time.Duration
	// RungDelay is the pause before re-issuing a relaxed query.
	RungDelay time.Duration
	// Notifier receives operator events. Nil means discard.
	Notifier Notifier
	// Debug receives page snapshots when every extraction strategy comes up
	// empty. Nil disables capture.
	Debug   DebugSink
	Verbose bool
}

// DefaultOptions returns production pacing. The delays keep request cadence
// below the target site's anomaly thresholds; they are deliberately long.
func DefaultOptions() Options {
	return Options{
		PageDelay: 3 * time.Second,
		RungDelay: 5 * time.Second,
	}
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Notifier == nil {
		out.Notifier = NopNotifier{}
	}
	return out
}

// Pipeline executes one logical query: it walks the relaxation ladder from
// the fully-faceted query down to the role-titles-only floor, paginating each
// rung until the page is empty, yields nothing new, or the page cap is hit,
// and stops the moment the result target is met.
type Pipeline struct {
	nav       Navigator
	extractor Extractor
	builder   *query.Builder
	opts      Options
}

// New creates a pipeline. A nil builder uses the target site's defaults.
func New(nav Navigator, extractor Extractor, builder *query.Builder, opts Options) *Pipeline {
	if builder == nil {
		builder = query.NewBuilder()
	}
	return &Pipeline{nav: nav, extractor: extractor, builder: builder, opts: opts.withDefaults()}
}

// Run executes the query to completion. Cancellation via ctx ends the run
// between page fetches; the partial outcome is still returned so whatever was
// accumulated is not lost.
func (p *Pipeline) Run(ctx context.Context, q query.Query) (*Outcome, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	outcome := &Outcome{
		RunID: uuid.NewString(),
		Query: q.Normalize(),
	}
	current := outcome.Query
	results := NewResultSet()

	// The view of the last page that produced zero records, kept for the
	// exhaustion snapshot.
	var lastEmptyView *browser.PageView

	for {
		var satisfied bool
		var emptyView *browser.PageView
		var err error
		results, satisfied, emptyView, err = p.runRung(ctx, outcome, current, results)
		if emptyView != nil {
			lastEmptyView = emptyView
		}
		if err != nil {
			outcome.Reason = ReasonCancelled
			return p.finish(outcome, results, start), err
		}
		if satisfied {
			outcome.Reason = ReasonSatisfied
			return p.finish(outcome, results, start), nil
		}

		next, facet := query.Relax(current)
		if next == nil {
			break
		}
		outcome.RungReached++
		outcome.DroppedFacets = append(outcome.DroppedFacets, facet)
		p.logf("Rung %d yielded %d/%d results, dropping facet %q",
			outcome.RungReached-1, results.Size(), current.MaxResults, facet)
		p.opts.Notifier.Notify(Event{Kind: EventFacetDropped, RunID: outcome.RunID, Message: facet})

		current = *next
		if err := p.pause(ctx, p.opts.RungDelay); err != nil {
			outcome.Reason = ReasonCancelled
			return p.finish(outcome, results, start), err
		}
	}

	outcome.Reason = ReasonExhausted
	if results.Size() == 0 {
		p.opts.Notifier.Notify(Event{
			Kind:    EventExtractionExhausted,
			RunID:   outcome.RunID,
			Message: "every rung of the relaxation ladder produced zero records",
		})
		p.captureDebug(ctx, outcome.RunID, lastEmptyView)
	}
	return p.finish(outcome, results, start), nil
}

// runRung paginates one rung. It returns the accumulated result set,
// satisfied=true when the result target was met, and the view of the page
// that ended pagination empty, if any. The result set is shared across rungs
// so later rungs cannot re-introduce identities an earlier rung already
// found.
func (p *Pipeline) runRung(ctx context.Context, outcome *Outcome, q query.Query, results *ResultSet) (*ResultSet, bool, *browser.PageView, error) {
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return results, false, nil, err
		}

		pageURL := p.builder.Build(q, page)
		view, err := p.nav.Navigate(ctx, pageURL)
		outcome.PagesFetched++
		if err != nil {
			if ctx.Err() != nil {
				return results, false, nil, ctx.Err()
			}
			// Transient navigation failures end the rung the same way an
			// empty page does; the ladder continues instead of aborting.
			p.logf("Navigation failed on rung %d page %d: %v", outcome.RungReached, page, err)
			return results, false, nil, nil
		}

		records, strategy := p.extractor.Extract(view)
		if len(records) == 0 {
			p.logf("Rung %d page %d produced no records, ending rung", outcome.RungReached, page)
			return results, false, view, nil
		}
		p.logf("Rung %d page %d: %d records via %s strategy", outcome.RungReached, page, len(records), strategy)

		before := results.Size()
		results = Merge(results, records)

		if results.Size() >= q.MaxResults {
			return results.Truncate(q.MaxResults), true, nil, nil
		}
		if results.Size() == before {
			p.logf("Rung %d page %d added nothing new, ending rung", outcome.RungReached, page)
			return results, false, nil, nil
		}
		if page >= q.MaxPages {
			p.logf("Rung %d hit the page cap (%d), ending rung", outcome.RungReached, q.MaxPages)
			return results, false, nil, nil
		}
		if err := p.pause(ctx, p.opts.PageDelay); err != nil {
			return results, false, nil, err
		}
	}
}

func (p *Pipeline) finish(outcome *Outcome, results *ResultSet, start time.Time) *Outcome {
	outcome.Records = results.Records()
	outcome.Elapsed = time.Since(start)
	return outcome
}

// captureDebug snapshots the last empty page for selector maintenance.
// Failures here are logged and swallowed: debug capture must never change a
// run's outcome.
func (p *Pipeline) captureDebug(ctx context.Context, runID string, view *browser.PageView) {
	if p.opts.Debug == nil || view == nil {
		return
	}
	artifact := Artifact{RunID: runID, URL: view.URL, HTML: view.HTML}
	if shot, err := p.nav.Screenshot(ctx); err == nil {
		artifact.Screenshot = shot
	} else {
		p.logf("Screenshot capture failed: %v", err)
	}
	if err := p.opts.Debug.Capture(ctx, artifact); err != nil {
		p.logf("Debug capture failed: %v", err)
	}
}

func (p *Pipeline) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.opts.Verbose {
		log.Printf("[PIPELINE] "+format, args...)
	}
}
