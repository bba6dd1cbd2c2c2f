package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"car-scout/models"
	"car-scout/utils"
)

type Report struct {
	Total        int
	Returned     int
	MaxPrice     int
	ZipCode      string
	AveragePrice float64
	MinPrice     int
	HighestPrice int
	BySource     map[string]int
	Top          []models.Listing
}

// GenerateReport summarises one search response for the terminal.
func GenerateReport(resp models.SearchResponse) Report {
	report := Report{
		Total:    resp.Total,
		Returned: len(resp.Results),
		MaxPrice: resp.Criteria.MaxPrice,
		ZipCode:  resp.Criteria.ZipCode,
		BySource: make(map[string]int),
		Top:      resp.Results,
	}
	if len(resp.Results) == 0 {
		return report
	}

	var sum int
	minPrice := math.MaxInt
	for _, l := range resp.Results {
		report.BySource[l.Source]++
		sum += l.Price
		if l.Price < minPrice {
			minPrice = l.Price
		}
		if l.Price > report.HighestPrice {
			report.HighestPrice = l.Price
		}
	}
	report.MinPrice = minPrice
	report.AveragePrice = float64(sum) / float64(len(resp.Results))
	return report
}

func PrintReport(w io.Writer, report Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌───────────────────────────────┬──────────────────────────────┐")
	fmt.Fprintln(w, "│                     Search Summary                           │")
	fmt.Fprintln(w, "├───────────────────────────────┼──────────────────────────────┤")
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Budget", report.MaxPrice)
	fmt.Fprintf(w, "│ %-29s │ %-28s │\n", "Near", report.ZipCode)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Listings Found", report.Total)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Listings Shown", report.Returned)
	fmt.Fprintf(w, "│ %-29s │ %-28.0f │\n", "Average Price (shown)", report.AveragePrice)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Lowest Price (shown)", report.MinPrice)
	fmt.Fprintf(w, "│ %-29s │ %-28d │\n", "Highest Price (shown)", report.HighestPrice)
	fmt.Fprintln(w, "└───────────────────────────────┴──────────────────────────────┘")

	if len(report.BySource) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "┌──────────────────────────────────────────────┬───────────────┐")
		fmt.Fprintln(w, "│ Shown per Source                             │ Count         │")
		fmt.Fprintln(w, "├──────────────────────────────────────────────┼───────────────┤")
		for _, src := range sortedKeys(report.BySource) {
			fmt.Fprintf(w, "│ %-44s │ %-13d │\n", src, report.BySource[src])
		}
		fmt.Fprintln(w, "└──────────────────────────────────────────────┴───────────────┘")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "┌─────┬──────────────────────────────────────────────┬──────────┬──────────┬──────────┐")
	fmt.Fprintln(w, "│ #   │ Top Listings                                 │ Price    │ Miles    │ Score    │")
	fmt.Fprintln(w, "├─────┼──────────────────────────────────────────────┼──────────┼──────────┼──────────┤")
	for i, l := range report.Top {
		score := 0.0
		if l.Score != nil {
			score = *l.Score
		}
		fmt.Fprintf(w, "│ %-3d │ %-44s │ %-8d │ %-8d │ %-8.1f │\n",
			i+1, fit(l.Title, 44), l.Price, l.Mileage, score)
	}
	fmt.Fprintln(w, "└─────┴──────────────────────────────────────────────┴──────────┴──────────┴──────────┘")
	for i, l := range report.Top {
		if l.URL != "" {
			fmt.Fprintf(w, "  #%d %s (%s)\n", i+1, l.URL, l.Source)
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fit shortens s to width runes, collapsing whitespace first.
func fit(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= width {
		return s
	}
	return utils.Truncate(s, width-3)
}
