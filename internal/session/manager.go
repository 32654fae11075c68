package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/parkerdavis/leadscout/internal/browser"
	"github.com/parkerdavis/leadscout/internal/credentials"
)

// Manager orchestrates the session lifecycle for one run: load the stored
// bundle, inject it into the browser context, and probe the result. On any
// failure it surfaces ErrAuthRequired to the caller; it never performs an
// interactive login itself and never retries. Retry policy belongs to the
// caller.
type Manager struct {
	store          *credentials.Store
	probe          *Probe
	staleThreshold time.Duration
	verbose        bool

	state State
}

// NewManager wires a manager from its collaborators. A zero staleThreshold
// uses the default 29-day policy.
func NewManager(store *credentials.Store, probe *Probe, staleThreshold time.Duration, verbose bool) *Manager {
	if staleThreshold <= 0 {
		staleThreshold = credentials.DefaultStaleThreshold
	}
	return &Manager{
		store:          store,
		probe:          probe,
		staleThreshold: staleThreshold,
		verbose:        verbose,
		state:          StateUnauthenticated,
	}
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// EnsureSession makes the page authenticated using the stored bundle and
// returns the bundle in use. An absent bundle, a failed injection, or a probe
// that classifies the session as expired all return an error matching
// ErrAuthRequired so an external collaborator can trigger interactive
// recovery.
func (m *Manager) EnsureSession(ctx context.Context, page browser.Page) (*credentials.Bundle, error) {
	m.state = StateUnauthenticated

	bundle, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if bundle == nil {
		return nil, &AuthRequiredError{Reason: "no stored token bundle"}
	}

	if credentials.IsStale(bundle, m.staleThreshold) {
		// Advisory only: age is not proof of expiry. The probe decides.
		log.Printf("[SESSION] Stored bundle is %s old (threshold %s); proceeding, validity decided by probe",
			credentials.AgeOf(bundle).Round(time.Hour), m.staleThreshold)
	}

	if err := page.ApplyCookies(ctx, bundle.Cookies); err != nil {
		return nil, &AuthRequiredError{Reason: "could not apply token bundle to browser context", Cause: err}
	}

	m.state = StateProbing
	result := m.probe.Run(ctx, page)
	if m.verbose {
		log.Printf("[SESSION] Probe result: %s (provisional=%t): %s", result.State, result.Provisional, result.Reason)
	}

	switch result.State {
	case StateAuthenticated:
		m.state = StateAuthenticated
		return bundle, nil
	default:
		m.state = StateExpired
		return nil, &AuthRequiredError{Reason: result.Reason}
	}
}
