package services

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"car-scout/models"
)

type recordingSource struct {
	listings []models.Listing
	got      models.Criteria
	calls    int
}

func (r *recordingSource) Run(_ context.Context, c models.Criteria) ([]models.Listing, int) {
	r.calls++
	r.got = c
	return r.listings, len(r.listings)
}

type panickingSource struct{}

func (panickingSource) Run(context.Context, models.Criteria) ([]models.Listing, int) {
	panic("browser exploded")
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestSearchResolvesRanksAndEchoes(t *testing.T) {
	listings := make([]models.Listing, 0, 7)
	for i := 0; i < 7; i++ {
		listings = append(listings, models.Listing{Title: "car", Price: 10000 + 1000*i, Mileage: 20000, Source: "CarGurus"})
	}
	src := &recordingSource{listings: listings}
	s := NewSearcher(src, 0, zap.NewNop())

	resp, err := s.Search(context.Background(), models.SearchRequest{Scenario: "Family SUV under $25,000 near 94105"})
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, models.Criteria{PriceCeiling: 25000, LocationCode: "94105"}, src.got)
	assert.Equal(t, models.CriteriaEcho{MaxPrice: 25000, ZipCode: "94105"}, resp.Criteria)
	assert.Equal(t, 7, resp.Total)
	require.Len(t, resp.Results, DefaultTopN)
	assert.Equal(t, 10000, resp.Results[0].Price)
	for _, l := range resp.Results {
		assert.NotNil(t, l.Score)
	}
}

func TestSearchOverridesWin(t *testing.T) {
	src := &recordingSource{}
	s := NewSearcher(src, 3, zap.NewNop())

	resp, err := s.Search(context.Background(), models.SearchRequest{
		Scenario: "under $25,000 near 94105",
		MaxPrice: intPtr(18000),
		ZipCode:  strPtr("60601"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.Criteria{PriceCeiling: 18000, LocationCode: "60601"}, src.got)
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestSearchRecoversPanic(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewSearcher(panickingSource{}, 5, zap.New(core))

	resp, err := s.Search(context.Background(), models.SearchRequest{Scenario: "anything"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrSearchFailed))
	assert.Empty(t, resp.Results)

	entries := logs.FilterMessage("search panicked").All()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ContextMap()["search_id"])
}
