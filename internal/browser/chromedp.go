package browser

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/parkerdavis/leadscout/internal/credentials"
)

// chromedpPage drives one chromedp browser context. The CDP event listener is
// registered once for the life of the page; the capture buffer it feeds is
// cleared at the start of every navigation so a long pagination run never
// accumulates response bodies.
type chromedpPage struct {
	opts *Options

	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc

	capture *captureState
}

func newChromedpPage(ctx context.Context, opts *Options) (Page, error) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", opts.NoSandbox),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.UserDataDir != "" {
		execOpts = append(execOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)

	p := &chromedpPage{
		opts:        opts,
		allocCancel: allocCancel,
		pageCtx:     pageCtx,
		pageCancel:  pageCancel,
		capture:     newCaptureState(),
	}
	p.listen()

	// Start the browser process up front so later failures surface here.
	if err := chromedp.Run(pageCtx, network.Enable()); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to start chromedp browser: %w", err)
	}
	return p, nil
}

// listen records backend responses whose URL matches a capture pattern.
// Response bodies only become readable once loading finishes, so matching
// requests are remembered and their bodies pulled on EventLoadingFinished.
func (p *chromedpPage) listen() {
	chromedp.ListenTarget(p.pageCtx, func(ev any) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			if ev.Response == nil || !matchesAny(p.opts.CapturePatterns, ev.Response.URL) {
				return
			}
			p.capture.markPending(string(ev.RequestID), ev.Response.URL)
		case *network.EventLoadingFinished:
			url, gen, ok := p.capture.finish(string(ev.RequestID))
			if !ok {
				return
			}
			go p.fetchBody(ev.RequestID, url, gen)
		}
	})
}

// fetchBody pulls one finished response body. The generation token keeps a
// slow fetch from landing in the buffer of a later navigation.
func (p *chromedpPage) fetchBody(id network.RequestID, url string, gen uint64) {
	c := chromedp.FromContext(p.pageCtx)
	if c == nil || c.Target == nil {
		return
	}
	body, err := network.GetResponseBody(id).Do(cdp.WithExecutor(p.pageCtx, c.Target))
	if err != nil {
		if p.opts.Verbose {
			log.Printf("[BROWSER] Could not read captured response body for %s: %v", url, err)
		}
		return
	}
	p.capture.add(gen, CapturedResponse{URL: url, Body: body})
}

// ApplyCookies injects all cookies in one CDP call, so the bundle lands in
// the browser entirely or not at all.
func (p *chromedpPage) ApplyCookies(ctx context.Context, cookies []credentials.Cookie) error {
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies to apply")
	}
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		cp := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSiteFromString(c.SameSite),
		}
		if c.Expires > 0 {
			exp := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			cp.Expires = &exp
		}
		params = append(params, cp)
	}

	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to apply %d cookies: %w", len(params), err)
	}
	if p.opts.Verbose {
		log.Printf("[BROWSER] Applied %d cookies to browser context", len(params))
	}
	return nil
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) (*PageView, error) {
	p.capture.reset()

	err := p.run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(p.opts.SettleDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	var loc, html string
	err = p.run(ctx,
		chromedp.Location(&loc),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read page after navigating to %s: %w", url, err)
	}

	view := &PageView{URL: loc, HTML: html, Captured: p.capture.snapshot()}
	if p.opts.Verbose {
		log.Printf("[BROWSER] Loaded %s (%d bytes, %d captured responses)", loc, len(html), len(view.Captured))
	}
	return view, nil
}

func (p *chromedpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// run executes actions on the page context with the navigation timeout,
// honoring cancellation of the caller's context as well.
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.pageCtx, p.opts.NavTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (p *chromedpPage) Close() error {
	p.pageCancel()
	p.allocCancel()
	return nil
}

func sameSiteFromString(s string) network.CookieSameSite {
	switch strings.ToLower(s) {
	case "lax":
		return network.CookieSameSiteLax
	case "strict":
		return network.CookieSameSiteStrict
	case "none", "no_restriction":
		return network.CookieSameSiteNone
	default:
		return ""
	}
}
