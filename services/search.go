package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"car-scout/models"
	"car-scout/query"
	"car-scout/utils"
)

// ErrSearchFailed is the only error a search surfaces; callers must not show
// what it wraps.
var ErrSearchFailed = eris.New("search failed")

// ListingSource gathers every source's listings for the criteria.
// *scraper.Aggregator is the production implementation.
type ListingSource interface {
	Run(ctx context.Context, c models.Criteria) ([]models.Listing, int)
}

type Searcher struct {
	Sources ListingSource
	TopN    int
	Logger  *zap.Logger
}

func NewSearcher(sources ListingSource, topN int, logger *zap.Logger) *Searcher {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if logger == nil {
		logger = utils.L()
	}
	return &Searcher{Sources: sources, TopN: topN, Logger: logger}
}

// Search resolves the request, runs every source and ranks what came back.
// Total counts the merged listings before the top-N cut.
func (s *Searcher) Search(ctx context.Context, req models.SearchRequest) (resp models.SearchResponse, err error) {
	log := s.Logger.With(zap.String("search_id", uuid.NewString()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("search panicked", zap.Any("panic", r))
			resp = models.SearchResponse{}
			err = eris.Wrapf(ErrSearchFailed, "panic: %v", r)
		}
	}()

	c := query.Resolve(req.Scenario, req.MaxPrice, req.ZipCode)
	log.Info("searching",
		zap.Int("max_price", c.PriceCeiling),
		zap.String("zip", c.LocationCode),
	)

	merged, total := s.Sources.Run(ctx, c)
	results := Rank(merged, c.PriceCeiling, s.TopN)

	log.Info("search done",
		zap.Int("total", total),
		zap.Int("returned", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return models.SearchResponse{
		Results: results,
		Total:   total,
		Criteria: models.CriteriaEcho{
			MaxPrice: c.PriceCeiling,
			ZipCode:  c.LocationCode,
		},
	}, nil
}
