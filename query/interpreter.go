// Package query turns a free-text buying scenario into concrete search criteria.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"car-scout/models"
)

const (
	DefaultPriceCeiling = 30000
	DefaultLocationCode = "10001"
)

var (
	priceToken = regexp.MustCompile(`\$?(\d[\d,]*)`)
	zipToken   = regexp.MustCompile(`\b(\d{5})\b`)
)

// Resolve derives criteria from scenario. Explicit overrides win, then the
// first matching token in the text, then the defaults. It never fails.
func Resolve(scenario string, maxPrice *int, zipCode *string) models.Criteria {
	c := models.Criteria{
		PriceCeiling: DefaultPriceCeiling,
		LocationCode: DefaultLocationCode,
	}

	if maxPrice != nil && *maxPrice > 0 {
		c.PriceCeiling = *maxPrice
	} else if p, ok := ExtractPrice(scenario); ok {
		c.PriceCeiling = p
	}

	if zipCode != nil && strings.TrimSpace(*zipCode) != "" {
		c.LocationCode = strings.TrimSpace(*zipCode)
	} else if z, ok := ExtractZip(scenario); ok {
		c.LocationCode = z
	}
	return c
}

// ExtractPrice returns the first currency-like number in s. Only the first
// token is considered; a zero or unparseable one means no price.
func ExtractPrice(s string) (int, bool) {
	m := priceToken.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ExtractZip returns the first standalone five digit token in s.
func ExtractZip(s string) (string, bool) {
	m := zipToken.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
