package sites

import "car-scout/scraper"

const CarGurusID = "CarGurus"

// CarGurus lists dealer inventory within 50 miles of the zip code.
var CarGurus = scraper.Site{
	ID:        CarGurusID,
	SearchURL: "https://www.cargurus.com/Cars/inventorylisting/viewDetailsFilterViewInventoryListing.action?zip={zip}&maxPrice={maxPrice}&distance=50",
	Rules: scraper.Rules{
		Container: `[data-cg-ft="car-listing"]`,
		Title:     `h4`,
		Price:     `[data-testid="price"]`,
		Mileage:   `[data-testid="mileage"]`,
		Location:  `[data-testid="dealer-location"]`,
		Link:      `a`,
		Image:     `img`,
	},
}
