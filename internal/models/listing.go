package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownMarket = errors.New("unknown market value")

// Market is the canonical market segment of a listing
type Market string

const (
	MarketPrimary     Market = "primary_market"
	MarketAftermarket Market = "aftermarket"
)

// Markets lists the canonical segments in display order
var Markets = []Market{MarketAftermarket, MarketPrimary}

// ParseMarket normalizes a stored market value. Older snapshots use the
// Polish labels, which map onto the canonical enum.
func ParseMarket(raw string) (Market, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "primary_market", "pierwotny":
		return MarketPrimary, nil
	case "aftermarket", "wtorny", "wtórny":
		return MarketAftermarket, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMarket, raw)
	}
}

// Listing is one row of the detail view (apt_details)
type Listing struct {
	ID         int64     `json:"id"`
	Date       time.Time `json:"date"`
	City       string    `json:"city"`
	Market     Market    `json:"market"`
	Area       float64   `json:"area"`
	PriceOfSqm float64   `json:"price_of_sqm"`
	Longitude  float64   `json:"localization_x"`
	Latitude   float64   `json:"localization_y"`
}

// RawListing is one row of the raw view (apt_details_raw). Price is kept as
// text because the source stores a literal marker for "price on request".
type RawListing struct {
	ID     int64     `json:"id"`
	Date   time.Time `json:"date"`
	City   string    `json:"city"`
	Market Market    `json:"market"`
	Area   float64   `json:"area"`
	Price  string    `json:"price"`
}

// Priced reports whether the listing carries an actual price
func (r RawListing) Priced(sentinel string) bool {
	return strings.TrimSpace(r.Price) != sentinel
}

// DateKey formats a snapshot date the way the dashboards label it
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
