package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkerdavis/leadscout/internal/browser"
	"github.com/parkerdavis/leadscout/internal/credentials"
)

// fakePage is a scripted browser.Page for session tests.
type fakePage struct {
	navURL    string
	navHTML   string
	navErr    error
	applyErr  error
	appliedN  int
	navCalled int
}

func (f *fakePage) ApplyCookies(_ context.Context, cookies []credentials.Cookie) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.appliedN = len(cookies)
	return nil
}

func (f *fakePage) Navigate(_ context.Context, _ string) (*browser.PageView, error) {
	f.navCalled++
	if f.navErr != nil {
		return nil, f.navErr
	}
	return &browser.PageView{URL: f.navURL, HTML: f.navHTML}, nil
}

func (f *fakePage) Screenshot(context.Context) ([]byte, error) { return []byte("png"), nil }
func (f *fakePage) Close() error                               { return nil }

const loggedInHTML = `<html><body>
	<nav class="global-nav"><img class="global-nav__me-photo" src="me.jpg"></nav>
	<main>feed</main>
</body></html>`

const loginFormHTML = `<html><body>
	<form action="/uas/login-submit"><input name="session_key"><input name="session_password"></form>
</body></html>`

func TestProbe_Classify_LoginRedirectWins(t *testing.T) {
	p := NewProbe(ProbeConfig{}, false)

	// URL check comes first even when the body looks authenticated.
	res := p.Classify("https://www.linkedin.com/checkpoint/challenge/x", loggedInHTML)
	assert.Equal(t, StateExpired, res.State)
	assert.False(t, res.Provisional)

	res = p.Classify("https://www.linkedin.com/login?session_redirect=%2Ffeed%2F", "<html></html>")
	assert.Equal(t, StateExpired, res.State)
}

func TestProbe_Classify_LoginFormMeansExpired(t *testing.T) {
	p := NewProbe(ProbeConfig{}, false)

	res := p.Classify("https://www.linkedin.com/feed/", loginFormHTML)
	assert.Equal(t, StateExpired, res.State)
	assert.False(t, res.Provisional)
}

func TestProbe_Classify_LandmarkMeansAuthenticated(t *testing.T) {
	p := NewProbe(ProbeConfig{}, false)

	res := p.Classify("https://www.linkedin.com/feed/", loggedInHTML)
	assert.Equal(t, StateAuthenticated, res.State)
	assert.False(t, res.Provisional)
}

func TestProbe_Classify_NoSignalsIsProvisionalAuthenticated(t *testing.T) {
	p := NewProbe(ProbeConfig{}, false)

	res := p.Classify("https://www.linkedin.com/feed/", "<html><body><div>loading…</div></body></html>")
	assert.Equal(t, StateAuthenticated, res.State)
	assert.True(t, res.Provisional)
}

func TestProbe_Run_NavigationErrorIsProvisionalAuthenticated(t *testing.T) {
	p := NewProbe(ProbeConfig{}, false)
	page := &fakePage{navErr: context.DeadlineExceeded}

	res := p.Run(context.Background(), page)
	assert.Equal(t, StateAuthenticated, res.State)
	assert.True(t, res.Provisional)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "expired", StateExpired.String())
	assert.Equal(t, "probing", StateProbing.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
}

func TestAuthRequiredError_MatchesSentinel(t *testing.T) {
	var err error = &AuthRequiredError{Reason: "no stored token bundle"}
	assert.True(t, errors.Is(err, ErrAuthRequired))

	wrapped := &AuthRequiredError{Reason: "inject failed", Cause: errors.New("boom")}
	assert.True(t, errors.Is(wrapped, ErrAuthRequired))
	require.Contains(t, wrapped.Error(), "inject failed")
}
