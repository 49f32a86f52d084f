package geometry

import (
	"aptmarket/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	countryZoom = 5
	cityZoom    = 10
)

// Poland, used when a snapshot has no located listings
var defaultCenter = orb.Point{19.1451, 51.9194}

// MapView frames the geo-scatter chart
type MapView struct {
	Center orb.Point `json:"center"`
	Zoom   int       `json:"zoom"`
	Bound  orb.Bound `json:"bound"`
}

// ListingFeatures converts located listings into GeoJSON points carrying the
// price of sq m. Listings without coordinates are skipped.
func ListingFeatures(listings []models.Listing) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range listings {
		if !located(l) {
			continue
		}

		feature := geojson.NewFeature(orb.Point{l.Longitude, l.Latitude})
		feature.ID = l.ID
		feature.Properties = geojson.Properties{
			"city":         l.City,
			"market":       string(l.Market),
			"area":         l.Area,
			"price_of_sqm": l.PriceOfSqm,
		}
		fc.Append(feature)
	}
	return fc
}

// Frame centers the map on the located listings. A single selected city gets
// a closer zoom than the whole country.
func Frame(listings []models.Listing, singleCity bool) MapView {
	zoom := countryZoom
	if singleCity {
		zoom = cityZoom
	}

	var points orb.MultiPoint
	for _, l := range listings {
		if located(l) {
			points = append(points, orb.Point{l.Longitude, l.Latitude})
		}
	}
	if len(points) == 0 {
		return MapView{
			Center: defaultCenter,
			Zoom:   zoom,
			Bound:  defaultCenter.Bound(),
		}
	}

	bound := points.Bound()
	return MapView{
		Center: bound.Center(),
		Zoom:   zoom,
		Bound:  bound,
	}
}

func located(l models.Listing) bool {
	return l.Longitude != 0 || l.Latitude != 0
}
