package scraper

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"car-scout/models"
	"car-scout/utils"
)

// Aggregator runs every extractor at once and merges what they return.
type Aggregator struct {
	Extractors []Extractor
	Logger     *zap.Logger
}

func NewAggregator(extractors []Extractor, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = utils.L()
	}
	return &Aggregator{Extractors: extractors, Logger: logger}
}

// Run waits for all extractors and returns their listings concatenated in
// extractor order, together with the merged count.
func (a *Aggregator) Run(ctx context.Context, c models.Criteria) ([]models.Listing, int) {
	results := a.RunSources(ctx, c)

	n := 0
	for _, r := range results {
		n += len(r.Listings)
	}
	merged := make([]models.Listing, 0, n)
	for _, r := range results {
		merged = append(merged, r.Listings...)
	}
	return merged, len(merged)
}

// RunSources is Run without the merge: one result per extractor, in order.
func (a *Aggregator) RunSources(ctx context.Context, c models.Criteria) []models.SourceResult {
	results := make([]models.SourceResult, len(a.Extractors))

	// No WithContext: one source failing must not cancel its siblings.
	var g errgroup.Group
	for i, ex := range a.Extractors {
		g.Go(func() error {
			results[i] = a.runOne(ctx, ex, c)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		a.Logger.Debug("source merged", zap.String("source", r.Source), zap.Int("listings", len(r.Listings)))
	}
	return results
}

func (a *Aggregator) runOne(ctx context.Context, ex Extractor, c models.Criteria) (res models.SourceResult) {
	id := ex.ID()
	res.Source = id
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error("extractor panicked", zap.String("source", id), zap.Any("panic", r))
			res.Listings = nil
		}
	}()
	res.Listings = ex.Extract(ctx, c)
	return res
}
