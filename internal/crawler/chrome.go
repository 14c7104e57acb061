package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sjsage522/recruitcrawler/logger"
	"sjsage522/recruitcrawler/pkg/errors"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// Session is one headless browser tab reused across the records of a run
type Session interface {
	SetUserAgent(ctx context.Context, ua string) error
	Navigate(ctx context.Context, url string) error
	// WaitPresent waits until sel is in the DOM, failing after timeout
	WaitPresent(ctx context.Context, sel string, timeout time.Duration) error
	// Click waits for sel and clicks it, failing after timeout
	Click(ctx context.Context, sel string, timeout time.Duration) error
	// ClickNth clicks the i-th element matching sel through the DOM
	ClickNth(ctx context.Context, sel string, i int) error
	Count(ctx context.Context, sel string) (int, error)
	HTML(ctx context.Context) (string, error)
	// FrameText returns the body text of the iframe with the given id, nil
	// when the frame is absent
	FrameText(ctx context.Context, id string) (*string, error)
	// Release drops the current page so the tab can serve the next record
	Release(ctx context.Context) error
	Close() error
}

// ChromeSession drives a local headless Chrome through chromedp. The browser
// starts on first use.
type ChromeSession struct {
	Headless bool
	Provider string

	mu          sync.Mutex
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closed      bool
	log         *logger.Logger
}

// NewChromeSession creates a session; no browser runs until the first call
func NewChromeSession(provider string, headless bool) *ChromeSession {
	return &ChromeSession{
		Headless: headless,
		Provider: provider,
		log:      logger.ForBrowser().WithStr("source", provider),
	}
}

func (s *ChromeSession) allocate() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.NewBrowser(s.Provider, "session is closed", nil)
	}
	if s.tab != nil {
		return s.tab, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, errors.NewBrowser(s.Provider, "failed to start browser", err)
	}

	s.tab, s.cancelTab, s.cancelAlloc = tab, cancelTab, cancelAlloc
	s.log.Info().Bool("headless", s.Headless).Msg("Browser started")
	return tab, nil
}

// run executes actions on the tab, bounded by ctx and an optional timeout
func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tab, err := s.allocate()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// SetUserAgent overrides the tab user agent; an empty ua keeps the default
func (s *ChromeSession) SetUserAgent(ctx context.Context, ua string) error {
	if ua == "" {
		return nil
	}
	return s.run(ctx, 0, emulation.SetUserAgentOverride(ua))
}

// Navigate loads url in the tab
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return errors.NewBrowser(s.Provider, "failed to navigate to "+url, err)
	}
	return nil
}

// WaitPresent waits until sel is in the DOM, up to timeout
func (s *ChromeSession) WaitPresent(ctx context.Context, sel string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitReady(sel, chromedp.ByQuery))
}

// Click waits for sel and clicks its first match
func (s *ChromeSession) Click(ctx context.Context, sel string, timeout time.Duration) error {
	return s.run(ctx, timeout,
		chromedp.WaitReady(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
}

// ClickNth clicks the i-th element matching sel
func (s *ChromeSession) ClickNth(ctx context.Context, sel string, i int) error {
	q, _ := json.Marshal(sel)
	var ok bool
	js := fmt.Sprintf(`(() => { const el = document.querySelectorAll(%s)[%d]; if (!el) return false; el.click(); return true; })()`, q, i)
	if err := s.run(ctx, 0, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no element %d for %s", i, sel)
	}
	return nil
}

// Count returns how many elements match sel
func (s *ChromeSession) Count(ctx context.Context, sel string) (int, error) {
	q, _ := json.Marshal(sel)
	var n int
	if err := s.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%s).length`, q), &n)); err != nil {
		return 0, err
	}
	return n, nil
}

// HTML returns the outer HTML of the current document
func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", errors.NewBrowser(s.Provider, "failed to read page source", err)
	}
	return html, nil
}

// FrameText returns the body text of iframe id, or nil when the frame has no readable body
func (s *ChromeSession) FrameText(ctx context.Context, id string) (*string, error) {
	q, _ := json.Marshal(id)
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	js := fmt.Sprintf(`(() => {
		const f = document.getElementById(%s);
		const body = f && f.contentDocument && f.contentDocument.body;
		return body ? { found: true, text: body.innerText.trim() } : { found: false, text: "" };
	})()`, q)
	if err := s.run(ctx, 0, chromedp.Evaluate(js, &res)); err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, nil
	}
	return &res.Text, nil
}

// Release blanks the tab so the next record starts clean
func (s *ChromeSession) Release(ctx context.Context) error {
	s.mu.Lock()
	started := s.tab != nil && !s.closed
	s.mu.Unlock()
	if !started {
		return nil
	}
	return s.run(ctx, 0, chromedp.Navigate("about:blank"))
}

// Close shuts the browser down. It is safe to call more than once.
func (s *ChromeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cancelTab != nil {
		s.cancelTab()
		s.cancelAlloc()
		s.log.Info().Msg("Browser closed")
	}
	return nil
}

// RenderRequest describes one page load
type RenderRequest struct {
	Provider  string
	URL       string
	UserAgent string
	Markers   []string      // selectors that must be present before extraction
	Timeout   time.Duration // bound for each marker wait
	Required  bool          // a missing marker fails the request instead of degrading it
	Settle    time.Duration // pause after the markers before reading the page
	Frames    []string      // iframe ids whose text to capture
}

// RenderResult is the page captured by Render
type RenderResult struct {
	HTML     string
	Degraded bool     // a marker never appeared; HTML is whatever had loaded
	Missing  []string // markers that timed out
	Frames   map[string]*string
}

type renderState int

const (
	stateNavigate renderState = iota
	stateWaitMarker
	stateExtract
	stateRelease
	stateDone
)

// Render loads req.URL in s and captures the page. The page is released on
// every path out, including failures.
func Render(ctx context.Context, s Session, req RenderRequest) (RenderResult, error) {
	var (
		res   RenderResult
		err   error
		state = stateNavigate
	)

	for state != stateDone {
		switch state {
		case stateNavigate:
			if err = s.SetUserAgent(ctx, req.UserAgent); err == nil {
				err = s.Navigate(ctx, req.URL)
			}
			state = stateWaitMarker
			if err != nil {
				state = stateRelease
			}

		case stateWaitMarker:
			for _, m := range req.Markers {
				if werr := s.WaitPresent(ctx, m, req.Timeout); werr != nil {
					if ctx.Err() != nil {
						err = ctx.Err()
						break
					}
					res.Missing = append(res.Missing, m)
				}
			}
			state = stateExtract
			switch {
			case err != nil:
				state = stateRelease
			case len(res.Missing) > 0 && req.Required:
				err = errors.NewBrowser(req.Provider, fmt.Sprintf("required content %v did not load", res.Missing), nil)
				state = stateRelease
			case len(res.Missing) > 0:
				res.Degraded = true
			}

		case stateExtract:
			if req.Settle > 0 && !res.Degraded {
				if err = sleep(ctx, req.Settle); err != nil {
					state = stateRelease
					break
				}
			}
			res.HTML, err = s.HTML(ctx)
			if err == nil && len(req.Frames) > 0 {
				res.Frames = make(map[string]*string, len(req.Frames))
				for _, id := range req.Frames {
					var text *string
					if text, err = s.FrameText(ctx, id); err != nil {
						break
					}
					res.Frames[id] = text
				}
			}
			state = stateRelease

		case stateRelease:
			// a cancelled ctx must not keep the page alive
			if rerr := s.Release(context.WithoutCancel(ctx)); rerr != nil && err == nil {
				err = rerr
			}
			state = stateDone
		}
	}

	if err != nil {
		return RenderResult{}, err
	}
	return res, nil
}
