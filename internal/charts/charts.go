package charts

import (
	"aptmarket/server/internal/analysis"
	"aptmarket/server/internal/geometry"
	"aptmarket/server/internal/models"

	"github.com/paulmach/orb/geojson"
)

// Kind tags the chart type the front end renders
type Kind string

const (
	KindHistogram  Kind = "histogram"
	KindLine       Kind = "line"
	KindBox        Kind = "box"
	KindGeoScatter Kind = "geo-scatter"
)

// MarketColors maps each market to its series color
var MarketColors = map[string]string{
	string(models.MarketAftermarket): "#17BECF",
	string(models.MarketPrimary):     "#BCBD22",
}

// Point is one x/y pair of a line series
type Point struct {
	X interface{} `json:"x"`
	Y float64     `json:"y"`
}

// Series is one colored trace of a chart
type Series struct {
	Name   string                `json:"name"`
	Color  string                `json:"color,omitempty"`
	Points []Point               `json:"points,omitempty"`
	Bins   []models.HistogramBin `json:"bins,omitempty"`
	Boxes  []models.BoxStats     `json:"boxes,omitempty"`
}

// GeoLayer is the payload of a geo-scatter chart
type GeoLayer struct {
	View       geometry.MapView           `json:"view"`
	ColorScale string                     `json:"color_scale"`
	ColorField string                     `json:"color_field"`
	Features   *geojson.FeatureCollection `json:"features"`
}

// Chart is a render-ready chart description
type Chart struct {
	Kind          Kind              `json:"kind"`
	Title         string            `json:"title"`
	X             string            `json:"x,omitempty"`
	Y             string            `json:"y,omitempty"`
	LogX          bool              `json:"log_x"`
	Colors        map[string]string `json:"colors,omitempty"`
	CategoryOrder []string          `json:"category_order,omitempty"`
	Height        int               `json:"height,omitempty"`
	Series        []Series          `json:"series"`
	Geo           *GeoLayer         `json:"geo,omitempty"`
}

// Distribution draws grouped histogram bars, one series per market
func Distribution(title string, d analysis.Distribution) Chart {
	chart := Chart{
		Kind:   KindHistogram,
		Title:  title,
		X:      d.Field,
		Y:      "count",
		Colors: MarketColors,
		Series: []Series{},
	}
	for _, m := range models.Markets {
		bins, ok := d.Bins[m]
		if !ok {
			continue
		}
		chart.Series = append(chart.Series, Series{
			Name:  string(m),
			Color: MarketColors[string(m)],
			Bins:  bins,
		})
	}
	return chart
}

// MedianPriceLine draws the median price of sq m over time
func MedianPriceLine(rows []models.DatePrice) Chart {
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, Point{X: r.Date, Y: r.PriceOfSqm})
	}
	return Chart{
		Kind:   KindLine,
		Title:  "Median price of sq m",
		X:      "date",
		Y:      "price_of_sqm",
		Series: []Series{{Name: "price_of_sqm", Points: points}},
	}
}

// ShareLine draws a share over time
func ShareLine(title, name string, rows []models.ShareRow) Chart {
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		points = append(points, Point{X: r.Date, Y: r.Share})
	}
	return Chart{
		Kind:   KindLine,
		Title:  title,
		X:      "date",
		Y:      name,
		Series: []Series{{Name: name, Points: points}},
	}
}

// AreaCurveByMarket draws median price against area, one line per market
func AreaCurveByMarket(bins []models.AreaBin) Chart {
	chart := Chart{
		Kind:   KindLine,
		Title:  "Median of price of sq m in relation to area",
		X:      "area",
		Y:      "price_of_sqm",
		Colors: MarketColors,
		Series: []Series{},
	}
	for _, m := range models.Markets {
		var points []Point
		for _, b := range bins {
			if b.Market == m {
				points = append(points, Point{X: b.Area, Y: b.PriceOfSqm})
			}
		}
		if len(points) == 0 {
			continue
		}
		chart.Series = append(chart.Series, Series{
			Name:   string(m),
			Color:  MarketColors[string(m)],
			Points: points,
		})
	}
	return chart
}

// AreaCurveByDate draws median price against area, one line per snapshot.
// Older snapshots are lighter, newer ones darker.
func AreaCurveByDate(bins []models.AreaBin) Chart {
	var dates []string
	byDate := make(map[string][]Point)
	for _, b := range bins {
		if _, ok := byDate[b.Date]; !ok {
			dates = append(dates, b.Date)
		}
		byDate[b.Date] = append(byDate[b.Date], Point{X: b.Area, Y: b.PriceOfSqm})
	}

	palette := analysis.GeneratePalette(len(dates))
	chart := Chart{
		Kind:   KindLine,
		Title:  "Median of price of sq m in relation to area",
		X:      "area",
		Y:      "price_of_sqm",
		Colors: make(map[string]string, len(dates)),
		Series: make([]Series, 0, len(dates)),
	}
	for i, date := range dates {
		chart.Colors[date] = palette[i]
		chart.Series = append(chart.Series, Series{
			Name:   date,
			Color:  palette[i],
			Points: byDate[date],
		})
	}
	return chart
}

// Box draws price of sq m boxes per category, split by market
func Box(title, category string, stats []models.BoxStats, order []string) Chart {
	chart := Chart{
		Kind:          KindBox,
		Title:         title,
		X:             category,
		Y:             "price_of_sqm",
		Colors:        MarketColors,
		CategoryOrder: order,
		Height:        600,
		Series:        []Series{},
	}
	for _, m := range models.Markets {
		var boxes []models.BoxStats
		for _, s := range stats {
			if s.Market == m {
				boxes = append(boxes, s)
			}
		}
		if len(boxes) == 0 {
			continue
		}
		chart.Series = append(chart.Series, Series{
			Name:  string(m),
			Color: MarketColors[string(m)],
			Boxes: boxes,
		})
	}
	return chart
}

// PriceMap scatters listings on a map colored by price of sq m
func PriceMap(listings []models.Listing, singleCity bool) Chart {
	return Chart{
		Kind:   KindGeoScatter,
		Title:  "Prices of sq m",
		Height: 600,
		Series: []Series{},
		Geo: &GeoLayer{
			View:       geometry.Frame(listings, singleCity),
			ColorScale: "Jet",
			ColorField: "price_of_sqm",
			Features:   geometry.ListingFeatures(listings),
		},
	}
}
