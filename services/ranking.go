package services

import (
	"math"
	"sort"

	"car-scout/models"
)

// DefaultTopN is how many ranked listings a search returns.
const DefaultTopN = 5

const (
	baseScore   = 100.0
	budgetScale = 30.0
)

// Score rates one listing against the buyer's price ceiling. Listings over the
// ceiling are pulled down, not excluded; the result is never negative.
func Score(l models.Listing, ceiling int) float64 {
	if ceiling <= 0 {
		ceiling = 1
	}
	score := baseScore
	ratio := float64(l.Price) / float64(ceiling)
	score += (1 - ratio) * budgetScale

	switch {
	case l.Mileage < 30000:
		score += 20
	case l.Mileage < 60000:
		score += 10
	}
	return math.Max(0, score)
}

// Rank returns scored copies of listings, best first, keeping input order for
// equal scores, cut to limit. A limit of zero or less keeps everything.
func Rank(listings []models.Listing, ceiling, limit int) []models.Listing {
	ranked := make([]models.Listing, len(listings))
	for i, l := range listings {
		ranked[i] = l.WithScore(Score(l, ceiling))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Score > *ranked[j].Score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
