package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-scout/models"
)

func TestCSVWriterWritesRankedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	listings := []models.Listing{
		models.Listing{Title: "2019 Honda CR-V, EX", Price: 21000, Mileage: 40000, Location: "Newark, NJ", URL: "https://a/1", Source: "CarGurus"}.WithScore(119),
		{Title: "2018 Toyota RAV4", Price: 18000, Source: "AutoTempest", Image: "https://a/2.jpg"},
	}

	w := NewCSVWriter(path)
	require.NoError(t, w.Write(listings))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"1", "CarGurus", "2019 Honda CR-V, EX", "21000", "40000", "Newark, NJ", "119.00", "https://a/1", ""}, rows[1])
	assert.Equal(t, []string{"2", "AutoTempest", "2018 Toyota RAV4", "18000", "0", "", "", "", "https://a/2.jpg"}, rows[2])
}

func TestCSVWriterSkipsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, NewCSVWriter(path).Write(nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
