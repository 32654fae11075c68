// Package browser drives a real Chrome instance behind a small Page
// interface, so the session and pipeline layers never touch a specific
// automation library. Two engines are provided: chromedp (default) and rod
// (with stealth patches for sites that fingerprint automation).
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parkerdavis/leadscout/internal/credentials"
)

// Engine names accepted by New.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// DefaultUserAgent is presented to the target site. Mirrors a plain desktop
// Chrome so the session looks like the one the cookies were minted in.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// CapturedResponse is one backend response body recorded while a page loaded.
// Bodies are kept in memory only for the duration of a single navigation.
type CapturedResponse struct {
	URL  string
	Body []byte
}

// PageView is the observable outcome of one navigation: where the browser
// ended up, the rendered markup, and any backend responses that matched the
// capture patterns while the page loaded.
type PageView struct {
	URL      string
	HTML     string
	Captured []CapturedResponse
}

// Page is a single browser tab driven by one logical flow of control.
// Implementations are not safe for concurrent use; run independent queries
// against independent Page instances.
type Page interface {
	// ApplyCookies injects the whole cookie set into the browser context in
	// a single operation. The bundle is applied entirely or not at all.
	ApplyCookies(ctx context.Context, cookies []credentials.Cookie) error

	// Navigate loads the URL, waits for the page to settle, and returns the
	// resulting view. The response-capture buffer is reset at the start of
	// every navigation so captures never accumulate across a pagination run.
	Navigate(ctx context.Context, url string) (*PageView, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	Close() error
}

// Options configures a browser engine.
type Options struct {
	Engine          string
	Headless        bool
	NoSandbox       bool
	UserAgent       string
	UserDataDir     string
	NavTimeout      time.Duration
	SettleDelay     time.Duration
	CapturePatterns []string // substring matches against response URLs
	Verbose         bool
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() *Options {
	return &Options{
		Engine:          EngineChromedp,
		Headless:        true,
		NoSandbox:       true,
		UserAgent:       DefaultUserAgent,
		NavTimeout:      30 * time.Second,
		SettleDelay:     3 * time.Second,
		CapturePatterns: []string{"/voyager/api/"},
	}
}

func (o *Options) withDefaults() *Options {
	def := DefaultOptions()
	out := *o
	if out.Engine == "" {
		out.Engine = def.Engine
	}
	if out.UserAgent == "" {
		out.UserAgent = def.UserAgent
	}
	if out.NavTimeout <= 0 {
		out.NavTimeout = def.NavTimeout
	}
	if out.SettleDelay <= 0 {
		out.SettleDelay = def.SettleDelay
	}
	if len(out.CapturePatterns) == 0 {
		out.CapturePatterns = def.CapturePatterns
	}
	return &out
}

// New launches a browser with the selected engine and opens one page.
func New(ctx context.Context, opts *Options) (Page, error) {
	if opts == nil {
		opts = DefaultOptions()
	} else {
		opts = opts.withDefaults()
	}
	switch opts.Engine {
	case EngineChromedp:
		return newChromedpPage(ctx, opts)
	case EngineRod:
		return newRodPage(opts)
	default:
		return nil, fmt.Errorf("unknown browser engine %q (want %q or %q)", opts.Engine, EngineChromedp, EngineRod)
	}
}

// matchesAny reports whether the URL contains any of the capture patterns.
func matchesAny(patterns []string, url string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(url, p) {
			return true
		}
	}
	return false
}
