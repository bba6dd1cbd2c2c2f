package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-scout/models"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name    string
		listing models.Listing
		ceiling int
		want    float64
	}{
		{"under budget low miles", models.Listing{Price: 20000, Mileage: 10000}, 30000, 130},
		{"at budget mid miles", models.Listing{Price: 30000, Mileage: 45000}, 30000, 110},
		{"high miles", models.Listing{Price: 15000, Mileage: 90000}, 30000, 115},
		{"mileage boundary", models.Listing{Price: 30000, Mileage: 30000}, 30000, 110},
		{"far over budget clamps", models.Listing{Price: 500000, Mileage: 100000}, 30000, 0},
		{"zero ceiling", models.Listing{Price: 1, Mileage: 100000}, 0, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Score(tc.listing, tc.ceiling), 1e-9)
		})
	}
}

func TestRankOrdersAndCuts(t *testing.T) {
	in := []models.Listing{
		{Title: "a", Price: 29000, Mileage: 90000},
		{Title: "b", Price: 10000, Mileage: 5000},
		{Title: "c", Price: 20000, Mileage: 40000},
		{Title: "d", Price: 25000, Mileage: 70000},
		{Title: "e", Price: 12000, Mileage: 50000},
		{Title: "f", Price: 28000, Mileage: 100000},
		{Title: "g", Price: 31000, Mileage: 110000},
	}

	got := Rank(in, 30000, DefaultTopN)
	require.Len(t, got, DefaultTopN)

	titles := make([]string, len(got))
	for i, l := range got {
		require.NotNil(t, l.Score)
		titles[i] = l.Title
		if i > 0 {
			assert.GreaterOrEqual(t, *got[i-1].Score, *l.Score)
		}
	}
	assert.Equal(t, []string{"b", "e", "c", "d", "f"}, titles)

	for _, l := range in {
		assert.Nil(t, l.Score, "input must not be mutated")
	}
}

func TestRankTiesKeepMergeOrder(t *testing.T) {
	in := []models.Listing{
		{Title: "first", Price: 20000, Mileage: 10000, Source: "CarGurus"},
		{Title: "second", Price: 20000, Mileage: 10000, Source: "AutoTempest"},
		{Title: "third", Price: 20000, Mileage: 10000, Source: "CarGurus"},
	}
	got := Rank(in, 30000, DefaultTopN)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
	assert.Equal(t, "third", got[2].Title)
}

func TestRankIsIdempotent(t *testing.T) {
	in := []models.Listing{
		{Title: "x", Price: 18000, Mileage: 65000},
		{Title: "y", Price: 26000, Mileage: 12000},
		{Title: "z", Price: 9000, Mileage: 130000},
	}
	once := Rank(in, 25000, DefaultTopN)
	twice := Rank(once, 25000, DefaultTopN)
	assert.Equal(t, once, twice)
}

func TestRankEdges(t *testing.T) {
	assert.Empty(t, Rank(nil, 30000, DefaultTopN))
	assert.NotNil(t, Rank(nil, 30000, DefaultTopN))

	in := make([]models.Listing, 8)
	for i := range in {
		in[i] = models.Listing{Title: "car", Price: 1000 * (i + 1)}
	}
	assert.Len(t, Rank(in, 30000, 0), 8)
	assert.Len(t, Rank(in[:3], 30000, DefaultTopN), 3)
}
