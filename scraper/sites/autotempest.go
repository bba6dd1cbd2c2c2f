package sites

import "car-scout/scraper"

const AutoTempestID = "AutoTempest"

// AutoTempest aggregates other marketplaces. Mileage and location share one
// details blob, so mileage comes from its "<n> mi" fragment.
var AutoTempest = scraper.Site{
	ID:        AutoTempestID,
	SearchURL: "https://www.autotempest.com/results?maxprice={maxPrice}&zip={zip}&radius=50",
	Rules: scraper.Rules{
		Container:    `.result-item, .listing`,
		Title:        `.title, h3`,
		Price:        `.price`,
		Mileage:      `.details`,
		MileageMiles: true,
		Location:     `.details`,
		Link:         `a`,
		Image:        `img`,
	},
}
