package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-scout/models"
)

func TestSiteURL(t *testing.T) {
	site := Site{SearchURL: "https://example.com/results?maxprice={maxPrice}&zip={zip}&radius=50"}
	got := site.URL(models.Criteria{PriceCeiling: 25000, LocationCode: "10001"})
	assert.Equal(t, "https://example.com/results?maxprice=25000&zip=10001&radius=50", got)

	got = site.URL(models.Criteria{PriceCeiling: 1, LocationCode: "a b&c"})
	assert.Equal(t, "https://example.com/results?maxprice=1&zip=a+b%26c&radius=50", got)
}

func TestScreenshotPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 5, 0, time.UTC)
	got := screenshotPath("/tmp/shots", "https://www.cargurus.com:443/Cars?zip=1", "selector", "png", now)
	assert.Equal(t, filepath.Join("/tmp/shots", "www.cargurus.com_443_selector_20260301T123005.000.png"), got)

	got = screenshotPath("shots", "::not a url", "load", "jpg", now)
	assert.Equal(t, filepath.Join("shots", "page_load_20260301T123005.000.jpg"), got)
}

func TestWriteScreenshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path, err := writeScreenshot(dir, "https://www.autotempest.com/results", "load", "png", []byte("png"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestMillis(t *testing.T) {
	assert.Equal(t, float64(30000), millis(30*time.Second))
}

func TestIdleGateIgnoresOtherLoaders(t *testing.T) {
	g := newIdleGate()
	g.observe("main", "blank-loader", "networkIdle")
	g.observe("main", "results-loader", "load")
	g.observe("child", "results-loader", "networkIdle")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.wait(ctx, "main", "results-loader"), context.DeadlineExceeded)
}

func TestIdleGateReleasesOnMatchingLoader(t *testing.T) {
	g := newIdleGate()
	g.observe("main", "early", "networkIdle")
	assert.NoError(t, g.wait(context.Background(), "main", "early"))

	done := make(chan error, 1)
	go func() { done <- g.wait(context.Background(), "main", "late") }()
	time.Sleep(10 * time.Millisecond)
	g.observe("main", "late", "networkIdle")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("gate did not open")
	}
}
