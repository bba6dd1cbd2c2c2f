package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"car-scout/models"
)

// DefaultPageChars caps how much rendered page text is sent for extraction.
const DefaultPageChars = 50000

var (
	ErrNoText      = eris.New("extraction reply has no text")
	ErrNoJSONArray = eris.New("extraction reply has no JSON array")
	ErrBadJSON     = eris.New("extraction reply JSON is malformed")
)

var jsonArray = regexp.MustCompile(`(?s)\[.*\]`)

// TextExtractor answers one free-form prompt with text.
type TextExtractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}

const assistedPrompt = `The HTML below is a page of used car search results.
List the first %d car listings you can find in it.

Answer with ONLY a JSON array and no other text. Each element must be an object with:
  "title"    year, make and model as shown
  "price"    asking price as a number, no currency symbol
  "mileage"  odometer reading as a number, 0 if not shown
  "location" dealer or seller location
  "url"      absolute link to the listing, "" if not shown
  "image"    absolute image URL, "" if not shown

HTML:
%s`

// Assisted sends the rendered page to a TextExtractor and parses its JSON reply.
type Assisted struct {
	Loader    PageLoader
	Text      TextExtractor
	Timeouts  Timeouts
	PageChars int
	Max       int
}

func (a *Assisted) Name() string { return "assisted" }

func (a *Assisted) Extract(ctx context.Context, site Site, c models.Criteria) ([]models.Listing, error) {
	page, err := a.Loader.Load(ctx, PageRequest{
		URL:      site.URL(c),
		Timeouts: a.Timeouts,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "load %s page", site.ID)
	}

	max := a.Max
	if max <= 0 {
		max = MaxListings
	}
	reply, err := a.Text.Extract(ctx, BuildPrompt(page.HTML, a.pageChars(), max))
	if err != nil {
		return nil, eris.Wrapf(err, "extract %s listings", site.ID)
	}
	return ParseReply(reply, site.ID, max)
}

func (a *Assisted) pageChars() int {
	if a.PageChars > 0 {
		return a.PageChars
	}
	return DefaultPageChars
}

// BuildPrompt embeds at most limit characters of html in the extraction instruction.
func BuildPrompt(html string, limit, max int) string {
	if r := []rune(html); len(r) > limit {
		html = string(r[:limit])
	}
	return fmt.Sprintf(assistedPrompt, max, html)
}

// ParseReply decodes the first "[" to last "]" span of reply into listings
// stamped with source. Elements that are not listing objects are skipped.
func ParseReply(reply, source string, max int) ([]models.Listing, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, ErrNoText
	}
	raw := jsonArray.FindString(reply)
	if raw == "" {
		return nil, ErrNoJSONArray
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, eris.Wrap(ErrBadJSON, err.Error())
	}

	listings := make([]models.Listing, 0, len(elems))
	for _, e := range elems {
		var item replyItem
		if !bytes.HasPrefix(bytes.TrimSpace(e), []byte("{")) {
			continue
		}
		if err := json.Unmarshal(e, &item); err != nil {
			continue
		}
		listings = append(listings, models.Listing{
			Title:    strings.TrimSpace(string(item.Title)),
			Price:    int(item.Price),
			Mileage:  int(item.Mileage),
			Location: strings.TrimSpace(string(item.Location)),
			URL:      strings.TrimSpace(string(item.URL)),
			Image:    strings.TrimSpace(string(item.Image)),
			Source:   source,
		})
	}
	return keepValid(listings, max), nil
}

type replyItem struct {
	Title    looseString `json:"title"`
	Price    looseInt    `json:"price"`
	Mileage  looseInt    `json:"mileage"`
	Location looseString `json:"location"`
	URL      looseString `json:"url"`
	Image    looseString `json:"image"`
}

// looseString keeps JSON strings and reads any other value as "".
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		v = ""
	}
	*s = looseString(v)
	return nil
}

// looseInt accepts 25000, 25000.5, "25000" or "$25,000". Anything else is 0.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	*n = 0
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 1e12 {
		return nil
	}
	*n = looseInt(f)
	return nil
}
