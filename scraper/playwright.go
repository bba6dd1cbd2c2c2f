package scraper

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"car-scout/utils"
)

// PlaywrightLoader drives Chromium through a playwright driver started once at
// boot. Each Load launches and closes its own browser.
type PlaywrightLoader struct {
	pw            *playwright.Playwright
	headless      bool
	userAgent     string
	screenshotDir string
	logger        *zap.Logger
}

func NewPlaywrightLoader(headless bool, userAgent, screenshotDir string, logger *zap.Logger) (*PlaywrightLoader, error) {
	if logger == nil {
		logger = utils.L()
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, eris.Wrap(err, "start playwright driver")
	}
	return &PlaywrightLoader{
		pw:            pw,
		headless:      headless,
		userAgent:     userAgent,
		screenshotDir: screenshotDir,
		logger:        logger,
	}, nil
}

func (l *PlaywrightLoader) Close() error {
	return l.pw.Stop()
}

func (l *PlaywrightLoader) Load(ctx context.Context, req PageRequest) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	browser, err := l.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.headless),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu"},
	})
	if err != nil {
		return Page{}, eris.Wrap(err, "launch chromium")
	}
	defer browser.Close()

	opts := playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
	}
	if l.userAgent != "" {
		opts.UserAgent = playwright.String(l.userAgent)
	}
	page, err := browser.NewPage(opts)
	if err != nil {
		return Page{}, eris.Wrap(err, "open page")
	}
	defer page.Close()

	if _, err := page.Goto(req.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(millis(req.Timeouts.Load)),
	}); err != nil {
		l.screenshot(page, req.URL, "load")
		return Page{}, eris.Wrapf(err, "navigate %s", req.URL)
	}

	if err := utils.Wait(ctx, req.Timeouts.Settle); err != nil {
		return Page{}, eris.Wrap(err, "settle")
	}

	if req.WaitSelector != "" {
		if _, err := page.WaitForSelector(req.WaitSelector, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(millis(req.Timeouts.Element)),
		}); err != nil {
			l.screenshot(page, req.URL, "selector")
			return Page{}, eris.Wrapf(err, "wait for %q", req.WaitSelector)
		}
	}

	html, err := page.Content()
	if err != nil {
		return Page{}, eris.Wrap(err, "read document")
	}
	return Page{URL: page.URL(), HTML: html}, nil
}

func (l *PlaywrightLoader) screenshot(page playwright.Page, pageURL, stage string) {
	if l.screenshotDir == "" {
		return
	}
	buf, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Timeout:  playwright.Float(5000),
	})
	if err != nil {
		l.logger.Debug("failure screenshot skipped", zap.Error(err))
		return
	}
	path, err := writeScreenshot(l.screenshotDir, pageURL, stage, "png", buf)
	if err != nil {
		l.logger.Warn("could not save screenshot", zap.Error(err))
		return
	}
	l.logger.Info("saved failure screenshot", zap.String("path", path))
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
