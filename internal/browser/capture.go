package browser

import "sync"

// captureState tracks matching backend responses for one page across
// navigations. Response bodies only become readable once the browser reports
// loading finished, so a matching request is remembered when its headers
// arrive and resolved on the finished event. A generation counter fences out
// bodies that resolve after the buffer was reset for the next navigation.
type captureState struct {
	mu       sync.Mutex
	gen      uint64
	pending  map[string]string // request ID -> response URL
	captured []CapturedResponse
}

func newCaptureState() *captureState {
	return &captureState{pending: make(map[string]string)}
}

// reset clears the buffer for a new navigation. Requests still pending from
// the previous navigation are dropped; their bodies belong to a page we are
// leaving.
func (c *captureState) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.pending = make(map[string]string)
	c.captured = nil
}

// markPending remembers a matching response's URL until loading finishes.
func (c *captureState) markPending(requestID, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[requestID] = url
}

// finish resolves a pending request. It returns the response URL and the
// generation token the body fetch must present back to add; ok is false for
// requests that were never marked (or were dropped by a reset).
func (c *captureState) finish(requestID string) (url string, gen uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok = c.pending[requestID]
	if ok {
		delete(c.pending, requestID)
	}
	return url, c.gen, ok
}

// add appends a captured body unless the buffer was reset since gen was
// issued, which means the body arrived too late for the navigation that
// requested it.
func (c *captureState) add(gen uint64, resp CapturedResponse) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.captured = append(c.captured, resp)
	return true
}

// snapshot returns a copy of the captures accumulated since the last reset.
func (c *captureState) snapshot() []CapturedResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CapturedResponse, len(c.captured))
	copy(out, c.captured)
	return out
}
