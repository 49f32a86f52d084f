package models

// DatePrice is the median price of sq m for one snapshot date
type DatePrice struct {
	Date       string  `json:"date"`
	PriceOfSqm float64 `json:"price_of_sqm"`
	Count      int     `json:"count"`
}

// CityPrice is the median price of sq m for one city
type CityPrice struct {
	City       string  `json:"city"`
	PriceOfSqm float64 `json:"price_of_sqm"`
	Count      int     `json:"count"`
}

// ShareRow is a two-category share for one date. Numerator and Denominator
// are kept so the ratio can be audited.
type ShareRow struct {
	Date        string  `json:"date"`
	Share       float64 `json:"share"`
	Numerator   int     `json:"numerator"`
	Denominator int     `json:"denominator"`
}

// AreaBin is one non-empty area interval with its representative values.
// Area is the median area of the listings that fell into (Lower, Upper].
type AreaBin struct {
	Date       string  `json:"date,omitempty"`
	Market     Market  `json:"market,omitempty"`
	Index      int     `json:"bin"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Area       float64 `json:"area"`
	PriceOfSqm float64 `json:"price_of_sqm"`
	Count      int     `json:"count"`
}

// HistogramBin is one equal-width bucket of a distribution
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// BoxStats summarizes a group for a box plot
type BoxStats struct {
	Category   string  `json:"category"`
	Market     Market  `json:"market"`
	Min        float64 `json:"min"`
	Q1         float64 `json:"q1"`
	Median     float64 `json:"median"`
	Q3         float64 `json:"q3"`
	Max        float64 `json:"max"`
	LowerFence float64 `json:"lower_fence"`
	UpperFence float64 `json:"upper_fence"`
	Count      int     `json:"count"`
}
