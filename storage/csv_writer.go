package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"car-scout/models"
	"car-scout/utils"
)

var csvHeader = []string{"rank", "source", "title", "price", "mileage", "location", "score", "url", "image"}

// CSVWriter exports a ranked result set to a CSV file.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write saves listings in the order given, one row each, under a header row.
// Creates the output directory if it does not exist.
func (w *CSVWriter) Write(listings []models.Listing) error {
	if len(listings) == 0 {
		utils.Warn("No listings to write")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return eris.Wrap(err, "could not create output dir")
	}

	file, err := os.Create(w.path)
	if err != nil {
		return eris.Wrapf(err, "could not create %s", w.path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return eris.Wrap(err, "csv header")
	}
	for i, l := range listings {
		if err := writer.Write(row(i+1, l)); err != nil {
			return eris.Wrapf(err, "csv row %d", i+1)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return eris.Wrap(err, "csv write error")
	}

	utils.Success("Saved %d listings → %s", len(listings), w.path)
	return nil
}

func row(rank int, l models.Listing) []string {
	score := ""
	if l.Score != nil {
		score = strconv.FormatFloat(*l.Score, 'f', 2, 64)
	}
	return []string{
		strconv.Itoa(rank),
		l.Source,
		l.Title,
		strconv.Itoa(l.Price),
		strconv.Itoa(l.Mileage),
		l.Location,
		score,
		l.URL,
		l.Image,
	}
}
