package charts

import (
	"aptmarket/server/internal/analysis"
	"aptmarket/server/internal/models"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistribution(t *testing.T) {
	d := analysis.Distribution{
		Field: "area",
		Bins: map[models.Market][]models.HistogramBin{
			models.MarketPrimary: {{Lower: 0, Upper: 10, Count: 3}},
		},
	}

	chart := Distribution("Area distribution", d)
	assert.Equal(t, KindHistogram, chart.Kind)
	assert.Equal(t, "area", chart.X)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, "primary_market", chart.Series[0].Name)
	assert.Equal(t, "#BCBD22", chart.Series[0].Color)
}

func TestAreaCurveByDate(t *testing.T) {
	bins := []models.AreaBin{
		{Date: "2024-03-01", Area: 30, PriceOfSqm: 100},
		{Date: "2024-03-01", Area: 60, PriceOfSqm: 90},
		{Date: "2024-04-01", Area: 40, PriceOfSqm: 110},
	}

	chart := AreaCurveByDate(bins)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "2024-03-01", chart.Series[0].Name)
	assert.Len(t, chart.Series[0].Points, 2)
	assert.NotEqual(t, chart.Series[0].Color, chart.Series[1].Color)

	older, err := analysis.Lightness(chart.Series[0].Color)
	require.NoError(t, err)
	newer, err := analysis.Lightness(chart.Series[1].Color)
	require.NoError(t, err)
	assert.Greater(t, older, newer, "newer snapshots are drawn darker")
}

func TestAreaCurveByMarket(t *testing.T) {
	bins := []models.AreaBin{
		{Market: models.MarketPrimary, Area: 30, PriceOfSqm: 100},
		{Market: models.MarketAftermarket, Area: 40, PriceOfSqm: 80},
		{Market: models.MarketAftermarket, Area: 70, PriceOfSqm: 70},
	}

	chart := AreaCurveByMarket(bins)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, "aftermarket", chart.Series[0].Name)
	assert.Len(t, chart.Series[0].Points, 2)
	assert.Equal(t, "primary_market", chart.Series[1].Name)
}

func TestBox(t *testing.T) {
	stats := []models.BoxStats{
		{Category: "Warszawa", Market: models.MarketPrimary, Median: 15000},
		{Category: "Warszawa", Market: models.MarketAftermarket, Median: 14000},
		{Category: "Kraków", Market: models.MarketAftermarket, Median: 13000},
	}

	chart := Box("Prices of sq m in main cities", "city", stats, []string{"Warszawa", "Kraków"})
	assert.Equal(t, KindBox, chart.Kind)
	assert.Equal(t, []string{"Warszawa", "Kraków"}, chart.CategoryOrder)
	require.Len(t, chart.Series, 2)
	assert.Len(t, chart.Series[0].Boxes, 2)
	assert.Len(t, chart.Series[1].Boxes, 1)
}

func TestLinesFromEmptyTables(t *testing.T) {
	charts := []Chart{
		MedianPriceLine(nil),
		ShareLine("New apartments share", "new_apt_share", nil),
		AreaCurveByDate(nil),
		AreaCurveByMarket(nil),
		Box("Prices of sq m", "date", nil, nil),
		Distribution("Price of sq m distribution", analysis.Distribution{Field: "price_of_sqm"}),
		PriceMap(nil, false),
	}

	for _, c := range charts {
		data, err := json.Marshal(c)
		require.NoError(t, err, c.Title)
		assert.NotContains(t, string(data), "NaN")
	}
}

func TestPriceMap(t *testing.T) {
	listings := []models.Listing{
		{ID: 1, City: "Gdańsk", PriceOfSqm: 12000, Longitude: 18.64, Latitude: 54.35},
	}

	chart := PriceMap(listings, true)
	assert.Equal(t, KindGeoScatter, chart.Kind)
	require.NotNil(t, chart.Geo)
	assert.Equal(t, 10, chart.Geo.View.Zoom)
	assert.Equal(t, "Jet", chart.Geo.ColorScale)
	assert.Len(t, chart.Geo.Features.Features, 1)
}
