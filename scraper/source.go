// Package scraper turns marketplace search pages into listings.
//
// A Source pairs one marketplace Site with the Strategy that reads it. Sources
// never fail: load, parse and panic failures are logged and the source simply
// contributes nothing to the run.
package scraper

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"car-scout/models"
	"car-scout/utils"
)

// Extractor produces the listings one marketplace has for the criteria.
// Implementations must not return errors or panic across this boundary.
type Extractor interface {
	ID() string
	Extract(ctx context.Context, c models.Criteria) []models.Listing
}

// Strategy is one way of reading a site: selector rules or assisted text extraction.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, site Site, c models.Criteria) ([]models.Listing, error)
}

// Rules are the CSS selectors the structural strategy applies inside each
// result container.
type Rules struct {
	Container string
	Title     string
	Price     string
	Mileage   string
	// MileageMiles reads mileage from a "<number> mi" match inside the
	// mileage text; otherwise every digit in it is used.
	MileageMiles bool
	Location     string
	Link         string
	Image        string
}

// Site is a marketplace search page. SearchURL may contain {maxPrice} and {zip}.
type Site struct {
	ID        string
	SearchURL string
	Rules     Rules
}

// URL interpolates the criteria into the site's search template.
func (s Site) URL(c models.Criteria) string {
	return strings.NewReplacer(
		"{maxPrice}", strconv.Itoa(c.PriceCeiling),
		"{zip}", url.QueryEscape(c.LocationCode),
	).Replace(s.SearchURL)
}

// Timeouts bound the waits of a single page load.
type Timeouts struct {
	Load    time.Duration
	Element time.Duration
	Settle  time.Duration
}

// Source is the Extractor for one site.
type Source struct {
	Site     Site
	Strategy Strategy
	Logger   *zap.Logger
}

func NewSource(site Site, strategy Strategy, logger *zap.Logger) *Source {
	if logger == nil {
		logger = utils.L()
	}
	return &Source{Site: site, Strategy: strategy, Logger: logger}
}

func (s *Source) ID() string { return s.Site.ID }

func (s *Source) Extract(ctx context.Context, c models.Criteria) (out []models.Listing) {
	log := s.Logger.With(
		zap.String("source", s.Site.ID),
		zap.String("strategy", s.Strategy.Name()),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("source panicked", zap.Any("panic", r))
			out = nil
		}
	}()

	listings, err := s.Strategy.Extract(ctx, s.Site, c)
	if err != nil {
		log.Warn("source returned nothing",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	}

	for i := range listings {
		listings[i].Source = s.Site.ID
	}
	log.Info("source done",
		zap.Int("listings", len(listings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return listings
}

// keepValid drops listings the ranker must never see and caps the rest.
func keepValid(in []models.Listing, max int) []models.Listing {
	out := make([]models.Listing, 0, len(in))
	for _, l := range in {
		if !l.Valid() {
			continue
		}
		out = append(out, l)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
