package pipeline

import "context"

// Event kinds surfaced to the operator channel. These are human-facing
// signals, not control flow: the pipeline's behavior never depends on whether
// anyone is listening.
const (
	EventAuthRequired        = "auth_required"
	EventExtractionExhausted = "extraction_exhausted"
	EventRunFailed           = "run_failed"
	EventFacetDropped        = "facet_dropped"
)

// Event is one operator notification.
type Event struct {
	Kind    string `json:"kind"`
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}

// Notifier delivers events to the operator. Implementations must not block
// the run; delivery failures are the notifier's problem.
type Notifier interface {
	Notify(event Event)
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}

// Artifact is a snapshot of a page that produced zero records through every
// extraction strategy. It exists for selector maintenance: when the target
// site's markup shifts, the artifact shows what the page actually looked
// like.
type Artifact struct {
	RunID      string
	URL        string
	HTML       string
	Screenshot []byte
}

// DebugSink persists artifacts. A nil sink disables capture.
type DebugSink interface {
	Capture(ctx context.Context, artifact Artifact) error
}
