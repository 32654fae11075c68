// Package session keeps a saved authenticated session usable without
// interactive login: it applies the stored cookie bundle to a browser context
// and verifies the result by probing an authenticated-only route.
package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/parkerdavis/leadscout/internal/browser"
)

// State describes where a session is in its lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateProbing
	StateAuthenticated
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateProbing:
		return "probing"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ProbeConfig holds the signals used to classify a loaded page. All of it is
// configuration data: the markers rot with the target UI and must stay
// adjustable without touching probe logic.
type ProbeConfig struct {
	// ProbeURL is an authenticated-only route; an expired session gets
	// redirected away from it.
	ProbeURL string `json:"probe_url"`

	// LoginURLMarkers are path fragments that identify a login or
	// verification-challenge redirect.
	LoginURLMarkers []string `json:"login_url_markers"`

	// LoginFormSelectors match elements only present on the login page.
	LoginFormSelectors []string `json:"login_form_selectors"`

	// LandmarkSelectors match "logged-in chrome" (navigation bar, account
	// menu) only rendered for authenticated users.
	LandmarkSelectors []string `json:"landmark_selectors"`

	Timeout time.Duration `json:"-"`
}

// DefaultProbeConfig returns the marker set for the target site.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		ProbeURL:        "https://www.linkedin.com/feed/",
		LoginURLMarkers: []string{"/login", "/checkpoint", "/uas/", "/authwall"},
		LoginFormSelectors: []string{
			`form[action*="login"]`,
			`input[name="session_key"]`,
		},
		LandmarkSelectors: []string{
			`nav.global-nav`,
			`img.global-nav__me-photo`,
			`[data-test-global-nav-link="feed"]`,
			`a[href*="/feed/"]`,
		},
		Timeout: 15 * time.Second,
	}
}

// Result is the outcome of one probe. Provisional means the classification
// could not be confirmed (timeout or transient error) and the session was
// assumed valid; callers needing certainty should re-probe.
type Result struct {
	State       State
	Provisional bool
	Reason      string
}

// Probe classifies a live page as authenticated or expired.
type Probe struct {
	cfg     ProbeConfig
	verbose bool
}

// NewProbe creates a probe. Zero-value config fields fall back to defaults.
func NewProbe(cfg ProbeConfig, verbose bool) *Probe {
	def := DefaultProbeConfig()
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = def.ProbeURL
	}
	if len(cfg.LoginURLMarkers) == 0 {
		cfg.LoginURLMarkers = def.LoginURLMarkers
	}
	if len(cfg.LoginFormSelectors) == 0 {
		cfg.LoginFormSelectors = def.LoginFormSelectors
	}
	if len(cfg.LandmarkSelectors) == 0 {
		cfg.LandmarkSelectors = def.LandmarkSelectors
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Probe{cfg: cfg, verbose: verbose}
}

// Run navigates to the probe route and classifies the result. A navigation
// timeout or transient error yields provisional-authenticated rather than
// expired: the only recovery from "expired" is an out-of-band interactive
// step, so a false negative costs far more than proceeding on an ambiguous
// signal.
func (p *Probe) Run(ctx context.Context, page browser.Page) Result {
	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	view, err := page.Navigate(probeCtx, p.cfg.ProbeURL)
	if err != nil {
		if p.verbose {
			log.Printf("[SESSION] Probe navigation inconclusive, assuming session valid: %v", err)
		}
		return Result{
			State:       StateAuthenticated,
			Provisional: true,
			Reason:      fmt.Sprintf("probe navigation inconclusive: %v", err),
		}
	}
	return p.Classify(view.URL, view.HTML)
}

// Classify applies the three ordered checks to a loaded page; the first match
// wins. It is pure so the classification rules can be tested without a
// browser.
func (p *Probe) Classify(finalURL, html string) Result {
	// 1. Redirected to a login or verification challenge.
	for _, marker := range p.cfg.LoginURLMarkers {
		if strings.Contains(finalURL, marker) {
			return Result{State: StateExpired, Reason: fmt.Sprintf("redirected to %s (matched %q)", finalURL, marker)}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparseable markup is an ambiguous signal, not proof of expiry.
		return Result{
			State:       StateAuthenticated,
			Provisional: true,
			Reason:      fmt.Sprintf("could not parse probe page: %v", err),
		}
	}

	// 2. Login form rendered in place.
	for _, sel := range p.cfg.LoginFormSelectors {
		if doc.Find(sel).Length() > 0 {
			return Result{State: StateExpired, Reason: fmt.Sprintf("login form present (%s)", sel)}
		}
	}

	// 3. Logged-in chrome landmarks.
	for _, sel := range p.cfg.LandmarkSelectors {
		if doc.Find(sel).Length() > 0 {
			return Result{State: StateAuthenticated, Reason: fmt.Sprintf("landmark present (%s)", sel)}
		}
	}

	// Nothing matched: bias toward optimism instead of discarding a session
	// that may still be valid.
	return Result{
		State:       StateAuthenticated,
		Provisional: true,
		Reason:      "no login or landmark signals found",
	}
}
