package models

// Listing is one vehicle offer normalised from a marketplace page.
// Mileage 0 means unknown. Score stays nil until the listing is ranked.
type Listing struct {
	Title    string   `json:"title"`
	Price    int      `json:"price"`
	Mileage  int      `json:"mileage"`
	Location string   `json:"location"`
	URL      string   `json:"url"`
	Image    string   `json:"image,omitempty"`
	Source   string   `json:"source"`
	Score    *float64 `json:"score,omitempty"`
}

// Valid reports whether the listing may reach the ranker.
func (l Listing) Valid() bool {
	return l.Price > 0
}

// WithScore returns a copy of l carrying score.
func (l Listing) WithScore(score float64) Listing {
	l.Score = &score
	return l
}

// Criteria is the resolved search a request drives every source with.
type Criteria struct {
	PriceCeiling int
	LocationCode string
}

type SearchRequest struct {
	Scenario string  `json:"scenario"`
	MaxPrice *int    `json:"maxPrice,omitempty"`
	ZipCode  *string `json:"zipCode,omitempty"`
}

type CriteriaEcho struct {
	MaxPrice int    `json:"maxPrice"`
	ZipCode  string `json:"zipCode"`
}

type SearchResponse struct {
	Results  []Listing    `json:"results"`
	Total    int          `json:"total"`
	Criteria CriteriaEcho `json:"criteria"`
}

// SourceResult is what one extractor contributed to a run.
type SourceResult struct {
	Source   string
	Listings []Listing
}
