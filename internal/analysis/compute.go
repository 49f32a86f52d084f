package analysis

import (
	"aptmarket/server/internal/models"
	"time"
)

// Filters are the selections a dashboard page renders for
type Filters struct {
	City string    `json:"city"`
	Date time.Time `json:"date,omitempty"`
	// Cities restricts the city box plot, typically the configured city list
	Cities []string `json:"-"`
	// PriceSentinel marks raw listings whose price is "on request"
	PriceSentinel string `json:"-"`
}

// Distribution holds a histogram per market over a shared range
type Distribution struct {
	Field string                                  `json:"field"`
	Bins  map[models.Market][]models.HistogramBin `json:"bins"`
}

// AggregateTables is everything the dashboards chart for one set of filters
type AggregateTables struct {
	Listings          []models.Listing   `json:"-"`
	MedianByDate      []models.DatePrice `json:"median_by_date"`
	MedianByCity      []models.CityPrice `json:"median_by_city"`
	NewAptShare       []models.ShareRow  `json:"new_apt_share"`
	PricelessAptShare []models.ShareRow  `json:"priceless_apt_share"`
	AreaCurveByDate   []models.AreaBin   `json:"area_curve_by_date"`
	AreaCurveByMarket []models.AreaBin   `json:"area_curve_by_market"`
	BoxByCity         []models.BoxStats  `json:"box_by_city"`
	BoxByDate         []models.BoxStats  `json:"box_by_date"`
	PriceDistribution Distribution       `json:"price_distribution"`
	AreaDistribution  Distribution       `json:"area_distribution"`
}

// Compute runs the filter, aggregation and binning stages. It is pure: the
// same inputs always produce the same tables, and empty inputs produce empty
// tables.
func Compute(listings []models.Listing, raw []models.RawListing, f Filters) AggregateTables {
	selected := FilterByDate(FilterByCity(listings, f.City), f.Date)
	selectedRaw := FilterRawByCity(raw, f.City)
	if !f.Date.IsZero() {
		selectedRaw = filterRawByDate(selectedRaw, f.Date)
	}

	cityScope := selected
	if len(f.Cities) > 0 {
		cityScope = FilterByCities(selected, f.Cities)
	}
	byCity := MedianPriceByCity(cityScope)
	cityOrder := make([]string, len(byCity))
	for i, c := range byCity {
		cityOrder[i] = c.City
	}

	byDate := MedianPriceByDate(selected)
	dateOrder := make([]string, len(byDate))
	for i, d := range byDate {
		dateOrder[i] = d.Date
	}

	return AggregateTables{
		Listings:          selected,
		MedianByDate:      byDate,
		MedianByCity:      byCity,
		NewAptShare:       MarketShareByDate(selected),
		PricelessAptShare: PricedShareByDate(selectedRaw, f.PriceSentinel),
		AreaCurveByDate:   AreaCurveByDate(selected),
		AreaCurveByMarket: AreaCurveByMarket(selected),
		BoxByCity: BoxStatsBy(cityScope, func(l models.Listing) string {
			return l.City
		}, cityOrder),
		BoxByDate: BoxStatsBy(selected, func(l models.Listing) string {
			return models.DateKey(l.Date)
		}, dateOrder),
		PriceDistribution: distribution("price_of_sqm", selected, func(l models.Listing) float64 {
			return l.PriceOfSqm
		}),
		AreaDistribution: distribution("area", selected, func(l models.Listing) float64 {
			return l.Area
		}),
	}
}

func distribution(field string, listings []models.Listing, value func(models.Listing) float64) Distribution {
	d := Distribution{Field: field, Bins: make(map[models.Market][]models.HistogramBin)}

	all := make([]float64, len(listings))
	perMarket := make(map[models.Market][]float64)
	for i, l := range listings {
		v := value(l)
		all[i] = v
		perMarket[l.Market] = append(perMarket[l.Market], v)
	}

	lo, hi, ok := Range(all)
	if !ok {
		return d
	}
	for m, values := range perMarket {
		d.Bins[m] = Histogram(values, lo, hi, HistogramBinCount)
	}
	return d
}

func filterRawByDate(listings []models.RawListing, date time.Time) []models.RawListing {
	key := models.DateKey(date)
	filtered := make([]models.RawListing, 0, len(listings))
	for _, l := range listings {
		if models.DateKey(l.Date) == key {
			filtered = append(filtered, l)
		}
	}
	return filtered
}
