package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"car-scout/models"
)

// MaxListings is how many result elements, or assisted records, a source reads.
const MaxListings = 10

var (
	nonDigit  = regexp.MustCompile(`[^0-9]`)
	milesText = regexp.MustCompile(`([\d,]+)\s*mi`)
	spaces    = regexp.MustCompile(`\s+`)
)

// Structural reads listings straight out of the rendered result elements.
type Structural struct {
	Loader   PageLoader
	Timeouts Timeouts
	Max      int
}

func (s *Structural) Name() string { return "structural" }

func (s *Structural) Extract(ctx context.Context, site Site, c models.Criteria) ([]models.Listing, error) {
	page, err := s.Loader.Load(ctx, PageRequest{
		URL:          site.URL(c),
		WaitSelector: site.Rules.Container,
		Timeouts:     s.Timeouts,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "load %s results", site.ID)
	}

	max := s.Max
	if max <= 0 {
		max = MaxListings
	}
	listings, err := ParseListings(page.HTML, page.URL, site.Rules, max)
	if err != nil {
		return nil, err
	}
	for i := range listings {
		listings[i].Source = site.ID
	}
	return keepValid(listings, 0), nil
}

// ParseListings applies rules to the first max result containers in html.
// Fields that do not resolve stay empty or zero; filtering is the caller's job.
func ParseListings(html, pageURL string, rules Rules, max int) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse results html")
	}
	base, _ := url.Parse(pageURL)

	var listings []models.Listing
	doc.Find(rules.Container).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= max {
			return false
		}
		listings = append(listings, parseCard(card, rules, base))
		return true
	})
	return listings, nil
}

func parseCard(card *goquery.Selection, rules Rules, base *url.URL) models.Listing {
	mileageText := text(card, rules.Mileage)
	mileage := digits(mileageText)
	if rules.MileageMiles {
		mileage = 0
		if m := milesText.FindStringSubmatch(mileageText); m != nil {
			mileage = atoi(strings.ReplaceAll(m[1], ",", ""))
		}
	}

	return models.Listing{
		Title:    strings.TrimSpace(text(card, rules.Title)),
		Price:    digits(text(card, rules.Price)),
		Mileage:  mileage,
		Location: collapse(text(card, rules.Location)),
		URL:      absolute(base, attr(card, or(rules.Link, "a"), "href")),
		Image:    absolute(base, attr(card, or(rules.Image, "img"), "src")),
	}
}

func text(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return card.Find(selector).First().Text()
}

func attr(card *goquery.Selection, selector, name string) string {
	v, _ := card.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

// digits keeps only the digits of s. Anything unparseable is 0.
func digits(s string) int {
	return atoi(nonDigit.ReplaceAllString(s, ""))
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func collapse(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

func absolute(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil || u.IsAbs() {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
