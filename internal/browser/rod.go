package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/parkerdavis/leadscout/internal/credentials"
)

// rodPage drives one rod browser with the stealth evasions applied. The
// response-capture listener is scoped to a single navigation: it is cancelled
// and re-registered every time Navigate is called.
type rodPage struct {
	opts    *Options
	browser *rod.Browser
	page    *rod.Page

	capture     *captureState
	stopCapture context.CancelFunc
}

func newRodPage(opts *Options) (Page, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled")
	if opts.NoSandbox {
		l = l.NoSandbox(true)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	// stealth.Page installs the anti-fingerprinting init script (webdriver
	// flag, plugins, permissions) before any site script runs.
	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to open stealth page: %w", err)
	}
	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	return &rodPage{opts: opts, browser: b, page: page, capture: newCaptureState()}, nil
}

// ApplyCookies injects all cookies in one call; rod forwards them as a single
// Storage.setCookies command, keeping the bundle all-or-nothing.
func (p *rodPage) ApplyCookies(_ context.Context, cookies []credentials.Cookie) error {
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies to apply")
	}
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		cp := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: rodSameSiteFromString(c.SameSite),
		}
		if c.Expires > 0 {
			cp.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		params = append(params, cp)
	}
	if err := p.page.SetCookies(params); err != nil {
		return fmt.Errorf("failed to apply %d cookies: %w", len(params), err)
	}
	if p.opts.Verbose {
		log.Printf("[BROWSER] Applied %d cookies to browser context", len(params))
	}
	return nil
}

// startCapture registers a navigation-scoped listener for backend responses.
// The previous listener, if any, is cancelled first so captures never span
// two navigations. Matching requests are only remembered when their headers
// arrive; the body is not readable until the browser reports loading
// finished, so the fetch waits for that event.
func (p *rodPage) startCapture() {
	if p.stopCapture != nil {
		p.stopCapture()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.stopCapture = cancel

	pg := p.page.Context(ctx)
	go pg.EachEvent(
		func(e *proto.NetworkResponseReceived) {
			if e.Response == nil || !matchesAny(p.opts.CapturePatterns, e.Response.URL) {
				return
			}
			p.capture.markPending(string(e.RequestID), e.Response.URL)
		},
		func(e *proto.NetworkLoadingFinished) {
			url, gen, ok := p.capture.finish(string(e.RequestID))
			if !ok {
				return
			}
			go p.fetchBody(pg, e.RequestID, url, gen)
		},
	)()
}

func (p *rodPage) fetchBody(pg *rod.Page, id proto.NetworkRequestID, url string, gen uint64) {
	res, err := proto.NetworkGetResponseBody{RequestID: id}.Call(pg)
	if err != nil {
		if p.opts.Verbose {
			log.Printf("[BROWSER] Could not read captured response body for %s: %v", url, err)
		}
		return
	}
	body := []byte(res.Body)
	if res.Base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(res.Body)
		if err != nil {
			return
		}
		body = decoded
	}
	p.capture.add(gen, CapturedResponse{URL: url, Body: body})
}

func (p *rodPage) Navigate(ctx context.Context, url string) (*PageView, error) {
	p.capture.reset()
	p.startCapture()

	pg := p.page.Context(ctx).Timeout(p.opts.NavTimeout)
	if err := pg.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return nil, fmt.Errorf("page load for %s did not finish: %w", url, err)
	}
	select {
	case <-time.After(p.opts.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	info, err := pg.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to read page info: %w", err)
	}
	html, err := pg.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page HTML: %w", err)
	}

	captured := p.capture.snapshot()
	view := &PageView{URL: info.URL, HTML: html, Captured: captured}
	if p.opts.Verbose {
		log.Printf("[BROWSER] Loaded %s (%d bytes, %d captured responses)", info.URL, len(html), len(captured))
	}
	return view, nil
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	buf, err := p.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

func (p *rodPage) Close() error {
	if p.stopCapture != nil {
		p.stopCapture()
	}
	return p.browser.Close()
}

func rodSameSiteFromString(s string) proto.NetworkCookieSameSite {
	switch strings.ToLower(s) {
	case "lax":
		return proto.NetworkCookieSameSiteLax
	case "strict":
		return proto.NetworkCookieSameSiteStrict
	case "none", "no_restriction":
		return proto.NetworkCookieSameSiteNone
	default:
		return ""
	}
}
