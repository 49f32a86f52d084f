package analysis

import (
	"aptmarket/server/internal/models"
	"time"
)

// AllCities is the selector value meaning "no city filter"
const AllCities = "All"

// FilterByCity returns the listings located in city. The AllCities sentinel
// (or an empty selector) returns the input unchanged.
func FilterByCity(listings []models.Listing, city string) []models.Listing {
	if city == "" || city == AllCities {
		return listings
	}

	filtered := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.City == city {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// FilterRawByCity is FilterByCity for the raw view
func FilterRawByCity(listings []models.RawListing, city string) []models.RawListing {
	if city == "" || city == AllCities {
		return listings
	}

	filtered := make([]models.RawListing, 0, len(listings))
	for _, l := range listings {
		if l.City == city {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// FilterByDate keeps the listings of a single snapshot. A zero date keeps everything.
func FilterByDate(listings []models.Listing, date time.Time) []models.Listing {
	if date.IsZero() {
		return listings
	}

	key := models.DateKey(date)
	filtered := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if models.DateKey(l.Date) == key {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

// FilterByCities keeps listings whose city is one of cities
func FilterByCities(listings []models.Listing, cities []string) []models.Listing {
	allowed := make(map[string]bool, len(cities))
	for _, c := range cities {
		allowed[c] = true
	}

	filtered := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if allowed[l.City] {
			filtered = append(filtered, l)
		}
	}
	return filtered
}
