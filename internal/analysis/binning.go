package analysis

import (
	"aptmarket/server/internal/models"
	"sort"
)

// AreaBinCount is the number of equal-width area intervals per snapshot
const AreaBinCount = 14

// HistogramBinCount is the bucket count of the price and area distributions
const HistogramBinCount = 50

// BinByArea splits the observed area range of listings into n equal-width
// intervals and reports, per non-empty interval, the median area and median
// price of sq m. Intervals are right-closed, the first one also holds the
// minimum. When every listing has the same area a single row is returned.
func BinByArea(listings []models.Listing, n int) []models.AreaBin {
	members, edges := partitionByArea(listings, n)

	var bins []models.AreaBin
	for i, m := range members {
		if len(m) == 0 {
			continue
		}
		bins = append(bins, areaBin(i, edges[i], edges[i+1], m))
	}
	return bins
}

// AreaCurveByDate bins every snapshot on its own area range. Bins are not
// shared between dates.
func AreaCurveByDate(listings []models.Listing) []models.AreaBin {
	byDate := make(map[string][]models.Listing)
	for _, l := range listings {
		key := models.DateKey(l.Date)
		byDate[key] = append(byDate[key], l)
	}

	var curve []models.AreaBin
	for _, date := range sortedKeys(byDate) {
		for _, b := range BinByArea(byDate[date], AreaBinCount) {
			b.Date = date
			curve = append(curve, b)
		}
	}
	return curve
}

// AreaCurveByMarket bins a snapshot on its whole area range and splits every
// interval by market, so both market curves share the same edges.
func AreaCurveByMarket(listings []models.Listing) []models.AreaBin {
	members, edges := partitionByArea(listings, AreaBinCount)

	var curve []models.AreaBin
	for _, m := range models.Markets {
		for i, inBin := range members {
			var segment []models.Listing
			for _, l := range inBin {
				if l.Market == m {
					segment = append(segment, l)
				}
			}
			if len(segment) == 0 {
				continue
			}
			b := areaBin(i, edges[i], edges[i+1], segment)
			b.Market = m
			curve = append(curve, b)
		}
	}
	return curve
}

// Histogram counts values into n equal-width buckets over [lo, hi]. Only the
// range is shared by callers that want grouped bars, so lo and hi are explicit.
func Histogram(values []float64, lo, hi float64, n int) []models.HistogramBin {
	if n < 1 || hi < lo {
		return nil
	}
	if lo == hi {
		return []models.HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	edges := equalWidthEdges(lo, hi, n)
	bins := make([]models.HistogramBin, n)
	for i := range bins {
		bins[i] = models.HistogramBin{Lower: edges[i], Upper: edges[i+1]}
	}
	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		bins[binIndex(edges, v)].Count++
	}
	return bins
}

// Range returns the minimum and maximum of values; ok is false when empty
func Range(values []float64) (lo, hi float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}

// partitionByArea assigns listings to n equal-width intervals over their area
// range. Identical areas collapse into a single interval.
func partitionByArea(listings []models.Listing, n int) ([][]models.Listing, []float64) {
	if len(listings) == 0 || n < 1 {
		return nil, nil
	}

	lo, hi := listings[0].Area, listings[0].Area
	for _, l := range listings[1:] {
		if l.Area < lo {
			lo = l.Area
		}
		if l.Area > hi {
			hi = l.Area
		}
	}

	if lo == hi {
		return [][]models.Listing{listings}, []float64{lo, hi}
	}

	edges := equalWidthEdges(lo, hi, n)
	members := make([][]models.Listing, n)
	for _, l := range listings {
		i := binIndex(edges, l.Area)
		members[i] = append(members[i], l)
	}
	return members, edges
}

func equalWidthEdges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n+1)
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	return edges
}

// binIndex locates v in (edges[i], edges[i+1]], folding the minimum into bin 0
func binIndex(edges []float64, v float64) int {
	i := sort.SearchFloat64s(edges, v)
	if i > 0 {
		i--
	}
	if last := len(edges) - 2; i > last {
		i = last
	}
	return i
}

func areaBin(index int, lower, upper float64, members []models.Listing) models.AreaBin {
	areas := make([]float64, len(members))
	prices := make([]float64, len(members))
	for i, l := range members {
		areas[i] = l.Area
		prices[i] = l.PriceOfSqm
	}
	area, _ := Median(areas)
	price, _ := Median(prices)
	return models.AreaBin{
		Index:      index,
		Lower:      lower,
		Upper:      upper,
		Area:       area,
		PriceOfSqm: price,
		Count:      len(members),
	}
}
