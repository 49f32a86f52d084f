package analysis

import (
	"aptmarket/server/internal/models"
	"sort"
)

// MedianPriceByDate computes the median price of sq m per snapshot, ascending by date
func MedianPriceByDate(listings []models.Listing) []models.DatePrice {
	groups := make(map[string][]float64)
	for _, l := range listings {
		key := models.DateKey(l.Date)
		groups[key] = append(groups[key], l.PriceOfSqm)
	}

	rows := make([]models.DatePrice, 0, len(groups))
	for _, date := range sortedKeys(groups) {
		median, _ := Median(groups[date])
		rows = append(rows, models.DatePrice{
			Date:       date,
			PriceOfSqm: median,
			Count:      len(groups[date]),
		})
	}
	return rows
}

// MedianPriceByCity computes the median price of sq m per city, most expensive
// first. Ties are broken by city name so the order is stable.
func MedianPriceByCity(listings []models.Listing) []models.CityPrice {
	groups := make(map[string][]float64)
	for _, l := range listings {
		groups[l.City] = append(groups[l.City], l.PriceOfSqm)
	}

	rows := make([]models.CityPrice, 0, len(groups))
	for city, prices := range groups {
		median, _ := Median(prices)
		rows = append(rows, models.CityPrice{City: city, PriceOfSqm: median, Count: len(prices)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PriceOfSqm != rows[j].PriceOfSqm {
			return rows[i].PriceOfSqm > rows[j].PriceOfSqm
		}
		return rows[i].City < rows[j].City
	})
	return rows
}

// MarketShareByDate computes new_apt_share = primary / (primary + aftermarket)
// per date. Dates missing either market are left out.
func MarketShareByDate(listings []models.Listing) []models.ShareRow {
	counts := make(map[string]*pairCount)
	for _, l := range listings {
		c := countFor(counts, models.DateKey(l.Date))
		if l.Market == models.MarketPrimary {
			c.hit++
		} else {
			c.miss++
		}
	}
	return shares(counts)
}

// PricedShareByDate computes priceless_apt_share = unpriced / (priced + unpriced)
// per date, where unpriced listings carry the sentinel price. Dates missing
// either category are left out.
func PricedShareByDate(listings []models.RawListing, sentinel string) []models.ShareRow {
	counts := make(map[string]*pairCount)
	for _, l := range listings {
		c := countFor(counts, models.DateKey(l.Date))
		if l.Priced(sentinel) {
			c.miss++
		} else {
			c.hit++
		}
	}
	return shares(counts)
}

// BoxStatsBy summarizes price of sq m per (category, market). Categories follow
// order; categories absent from order are appended alphabetically.
func BoxStatsBy(listings []models.Listing, category func(models.Listing) string, order []string) []models.BoxStats {
	type key struct {
		category string
		market   models.Market
	}
	groups := make(map[key][]float64)
	seen := make(map[string]bool)
	for _, l := range listings {
		c := category(l)
		seen[c] = true
		k := key{category: c, market: l.Market}
		groups[k] = append(groups[k], l.PriceOfSqm)
	}

	categories := make([]string, 0, len(seen))
	listed := make(map[string]bool, len(order))
	for _, c := range order {
		if seen[c] && !listed[c] {
			categories = append(categories, c)
			listed[c] = true
		}
	}
	var rest []string
	for c := range seen {
		if !listed[c] {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	categories = append(categories, rest...)

	var stats []models.BoxStats
	for _, c := range categories {
		for _, m := range models.Markets {
			values, ok := groups[key{category: c, market: m}]
			if !ok {
				continue
			}
			box := summarize(values)
			box.Category = c
			box.Market = m
			stats = append(stats, box)
		}
	}
	return stats
}

func summarize(values []float64) models.BoxStats {
	sorted := sortedCopy(values)
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1

	lowLimit := q1 - 1.5*iqr
	highLimit := q3 + 1.5*iqr
	lower, upper := sorted[0], sorted[len(sorted)-1]
	for _, v := range sorted {
		if v >= lowLimit {
			lower = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= highLimit {
			upper = sorted[i]
			break
		}
	}

	return models.BoxStats{
		Min:        sorted[0],
		Q1:         q1,
		Median:     Quantile(sorted, 0.5),
		Q3:         q3,
		Max:        sorted[len(sorted)-1],
		LowerFence: lower,
		UpperFence: upper,
		Count:      len(sorted),
	}
}

type pairCount struct {
	hit, miss int
}

func countFor(counts map[string]*pairCount, key string) *pairCount {
	c, ok := counts[key]
	if !ok {
		c = &pairCount{}
		counts[key] = c
	}
	return c
}

func shares(counts map[string]*pairCount) []models.ShareRow {
	rows := make([]models.ShareRow, 0, len(counts))
	for _, date := range sortedKeys(counts) {
		c := counts[date]
		if c.hit == 0 || c.miss == 0 {
			continue
		}
		total := c.hit + c.miss
		rows = append(rows, models.ShareRow{
			Date:        date,
			Share:       float64(c.hit) / float64(total),
			Numerator:   c.hit,
			Denominator: total,
		})
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
