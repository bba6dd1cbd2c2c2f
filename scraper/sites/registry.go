// Package sites holds the marketplaces car-scout knows how to read and builds
// the configured extractors for them.
package sites

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"car-scout/config"
	"car-scout/scraper"
)

var known = map[string]scraper.Site{
	CarGurusID:    CarGurus,
	AutoTempestID: AutoTempest,
}

// Lookup returns the site registered under id.
func Lookup(id string) (scraper.Site, bool) {
	s, ok := known[id]
	return s, ok
}

// Build returns one extractor per configured source, in configuration order.
// text may be nil when no source uses the assisted strategy.
func Build(cfg *config.Config, loader scraper.PageLoader, text scraper.TextExtractor, logger *zap.Logger) ([]scraper.Extractor, error) {
	timeouts := scraper.Timeouts{
		Load:    cfg.Browser.LoadTimeout,
		Element: cfg.Browser.ElementTimeout,
		Settle:  cfg.Browser.Settle,
	}

	seen := make(map[string]bool)
	extractors := make([]scraper.Extractor, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		site, ok := Lookup(sc.ID)
		if !ok {
			return nil, eris.Errorf("unknown source %q", sc.ID)
		}
		if seen[sc.ID] {
			return nil, eris.Errorf("source %q configured twice", sc.ID)
		}
		seen[sc.ID] = true

		var strategy scraper.Strategy
		switch sc.Strategy {
		case config.StrategyStructural:
			strategy = &scraper.Structural{Loader: loader, Timeouts: timeouts, Max: cfg.MaxListings}
		case config.StrategyAssisted:
			if text == nil {
				return nil, eris.Errorf("source %q: assisted strategy needs a text extractor", sc.ID)
			}
			strategy = &scraper.Assisted{
				Loader:    loader,
				Text:      text,
				Timeouts:  timeouts,
				PageChars: cfg.LLM.PageChars,
				Max:       cfg.MaxListings,
			}
		default:
			return nil, eris.Errorf("source %q: unknown strategy %q", sc.ID, sc.Strategy)
		}
		extractors = append(extractors, scraper.NewSource(site, strategy, logger))
	}
	return extractors, nil
}
