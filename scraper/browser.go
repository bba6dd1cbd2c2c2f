package scraper

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"car-scout/utils"
)

// launchGrace is added on top of the page waits to bound browser start-up
// and teardown.
const launchGrace = 15 * time.Second

// PageRequest describes one rendered page fetch. An empty WaitSelector skips
// the element wait.
type PageRequest struct {
	URL          string
	WaitSelector string
	Timeouts     Timeouts
}

// Page is a rendered document and the URL it ended up on.
type Page struct {
	URL  string
	HTML string
}

// PageLoader renders a page in a browser it owns for the duration of the call.
type PageLoader interface {
	Load(ctx context.Context, req PageRequest) (Page, error)
}

// ChromeLoader launches a fresh headless Chrome for every Load.
type ChromeLoader struct {
	Headless      bool
	UserAgent     string
	ScreenshotDir string
	Logger        *zap.Logger
}

func (l *ChromeLoader) Load(ctx context.Context, req PageRequest) (Page, error) {
	budget := req.Timeouts.Load + req.Timeouts.Element + req.Timeouts.Settle + launchGrace
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, utils.ChromeOpts(l.Headless, l.UserAgent)...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	// The first Run starts the browser; it must not carry the shorter page
	// deadlines or Chrome dies with them.
	if err := chromedp.Run(tabCtx); err != nil {
		return Page{}, eris.Wrap(err, "start chrome")
	}

	loadCtx, loadCancel := context.WithTimeout(tabCtx, req.Timeouts.Load)
	defer loadCancel()
	if err := chromedp.Run(loadCtx, navigateAndWaitIdle(req.URL)); err != nil {
		l.screenshot(tabCtx, req.URL, "load")
		return Page{}, eris.Wrapf(err, "navigate %s", req.URL)
	}

	if err := utils.Wait(tabCtx, req.Timeouts.Settle); err != nil {
		return Page{}, eris.Wrap(err, "settle")
	}

	if req.WaitSelector != "" {
		waitCtx, waitCancel := context.WithTimeout(tabCtx, req.Timeouts.Element)
		defer waitCancel()
		if err := chromedp.Run(waitCtx, chromedp.WaitReady(req.WaitSelector, chromedp.ByQuery)); err != nil {
			l.screenshot(tabCtx, req.URL, "selector")
			return Page{}, eris.Wrapf(err, "wait for %q", req.WaitSelector)
		}
	}

	var html, location string
	if err := chromedp.Run(tabCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return Page{}, eris.Wrap(err, "read document")
	}
	if location == "" {
		location = req.URL
	}
	return Page{URL: location, HTML: html}, nil
}

// navigateAndWaitIdle navigates and then blocks until Chrome reports the
// networkIdle lifecycle event for the document that navigation loaded.
func navigateAndWaitIdle(target string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		idle := newIdleGate()

		listenCtx, stop := context.WithCancel(ctx)
		defer stop()
		chromedp.ListenTarget(listenCtx, func(ev interface{}) {
			if e, ok := ev.(*cdppage.EventLifecycleEvent); ok {
				idle.observe(e.FrameID, e.LoaderID, e.Name)
			}
		})

		if err := cdppage.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}
		frameID, loaderID, errText, _, err := cdppage.Navigate(target).Do(ctx)
		if err != nil {
			return err
		}
		if errText != "" {
			return eris.Errorf("navigation failed: %s", errText)
		}
		return idle.wait(ctx, frameID, loaderID)
	}
}

// idleGate records networkIdle events per loader. Events may arrive before
// Navigate returns the loader they belong to.
type idleGate struct {
	mu     sync.Mutex
	idle   map[cdp.LoaderID]cdp.FrameID
	notify chan struct{}
}

func newIdleGate() *idleGate {
	return &idleGate{
		idle:   make(map[cdp.LoaderID]cdp.FrameID),
		notify: make(chan struct{}, 1),
	}
}

func (g *idleGate) observe(frameID cdp.FrameID, loaderID cdp.LoaderID, name string) {
	if name != "networkIdle" {
		return
	}
	g.mu.Lock()
	g.idle[loaderID] = frameID
	g.mu.Unlock()
	select {
	case g.notify <- struct{}{}:
	default:
	}
}

func (g *idleGate) reached(frameID cdp.FrameID, loaderID cdp.LoaderID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.idle[loaderID]
	return ok && f == frameID
}

func (g *idleGate) wait(ctx context.Context, frameID cdp.FrameID, loaderID cdp.LoaderID) error {
	for !g.reached(frameID, loaderID) {
		select {
		case <-g.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (l *ChromeLoader) screenshot(tabCtx context.Context, pageURL, stage string) {
	if l.ScreenshotDir == "" {
		return
	}
	ctx, cancel := context.WithTimeout(tabCtx, 5*time.Second)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		l.logger().Debug("failure screenshot skipped", zap.Error(err))
		return
	}
	path, err := writeScreenshot(l.ScreenshotDir, pageURL, stage, "jpg", buf)
	if err != nil {
		l.logger().Warn("could not save screenshot", zap.Error(err))
		return
	}
	l.logger().Info("saved failure screenshot", zap.String("path", path))
}

func (l *ChromeLoader) logger() *zap.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return utils.L()
}

// screenshotPath names a failure capture after the page host and the stage that failed.
func screenshotPath(dir, pageURL, stage, ext string, now time.Time) string {
	host := "page"
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = strings.ReplaceAll(u.Host, ":", "_")
	}
	name := fmt.Sprintf("%s_%s_%s.%s", host, stage, now.Format("20060102T150405.000"), ext)
	return filepath.Join(dir, name)
}

func writeScreenshot(dir, pageURL, stage, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "create %s", dir)
	}
	path := screenshotPath(dir, pageURL, stage, ext, time.Now())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "write %s", path)
	}
	return path, nil
}
