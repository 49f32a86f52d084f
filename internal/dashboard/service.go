package dashboard

import (
	"aptmarket/server/internal/analysis"
	"aptmarket/server/internal/charts"
	"aptmarket/server/internal/database"
	"aptmarket/server/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrDateRequired = errors.New("a snapshot date is required")

// Store executes the listing queries a page needs
type Store interface {
	Dates(ctx context.Context) ([]time.Time, error)
	DetailListings(ctx context.Context, q database.ListingQuery) ([]models.Listing, error)
	RawListings(ctx context.Context, q database.ListingQuery) ([]models.RawListing, error)
}

type Service struct {
	store    Store
	cities   []string
	sentinel string
	logger   *logrus.Logger
}

// MonthlyPage is the single-snapshot dashboard
type MonthlyPage struct {
	Filters           analysis.Filters   `json:"filters"`
	Listings          int                `json:"listings"`
	PriceDistribution charts.Chart       `json:"price_distribution"`
	AreaDistribution  charts.Chart       `json:"area_distribution"`
	AreaCurve         charts.Chart       `json:"area_curve"`
	CityBox           charts.Chart       `json:"city_box"`
	Map               charts.Chart       `json:"map"`
	NewAptShare       *models.ShareRow   `json:"new_apt_share"`
	PricelessAptShare *models.ShareRow   `json:"priceless_apt_share"`
	MedianByCity      []models.CityPrice `json:"median_by_city"`
}

// TrendsPage is the across-snapshots dashboard
type TrendsPage struct {
	Filters           analysis.Filters `json:"filters"`
	Listings          int              `json:"listings"`
	MedianPrice       charts.Chart     `json:"median_price"`
	AreaCurve         charts.Chart     `json:"area_curve"`
	DateBox           charts.Chart     `json:"date_box"`
	NewAptShare       charts.Chart     `json:"new_apt_share"`
	PricelessAptShare charts.Chart     `json:"priceless_apt_share"`
}

func NewService(store Store, cities []string, sentinel string, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		store:    store,
		cities:   cities,
		sentinel: sentinel,
		logger:   logger,
	}
}

// Dates lists the snapshot dates, newest first
func (s *Service) Dates(ctx context.Context) ([]string, error) {
	dates, err := s.store.Dates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}

	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = models.DateKey(d)
	}
	return keys, nil
}

// Cities returns the configured city list without the "All" option
func (s *Service) Cities() []string {
	return s.cities
}

func (s *Service) Monthly(ctx context.Context, f analysis.Filters) (*MonthlyPage, error) {
	if f.Date.IsZero() {
		return nil, ErrDateRequired
	}

	tables, err := s.compute(ctx, f)
	if err != nil {
		return nil, err
	}

	page := &MonthlyPage{
		Filters:           f,
		Listings:          len(tables.Listings),
		PriceDistribution: charts.Distribution("Price of sq m distribution", tables.PriceDistribution),
		AreaDistribution:  charts.Distribution("Area distribution", tables.AreaDistribution),
		AreaCurve:         charts.AreaCurveByMarket(tables.AreaCurveByMarket),
		CityBox:           charts.Box("Prices of sq m in main cities", "city", tables.BoxByCity, cityOrder(tables.MedianByCity)),
		Map:               charts.PriceMap(tables.Listings, f.City != "" && f.City != analysis.AllCities),
		NewAptShare:       single(tables.NewAptShare),
		PricelessAptShare: single(tables.PricelessAptShare),
		MedianByCity:      tables.MedianByCity,
	}
	return page, nil
}

// Trends ignores the date filter and charts every snapshot
func (s *Service) Trends(ctx context.Context, f analysis.Filters) (*TrendsPage, error) {
	f.Date = time.Time{}

	tables, err := s.compute(ctx, f)
	if err != nil {
		return nil, err
	}

	dateOrder := make([]string, len(tables.MedianByDate))
	for i, d := range tables.MedianByDate {
		dateOrder[i] = d.Date
	}

	return &TrendsPage{
		Filters:           f,
		Listings:          len(tables.Listings),
		MedianPrice:       charts.MedianPriceLine(tables.MedianByDate),
		AreaCurve:         charts.AreaCurveByDate(tables.AreaCurveByDate),
		DateBox:           charts.Box("Prices of sq m over time", "date", tables.BoxByDate, dateOrder),
		NewAptShare:       charts.ShareLine("Share of new apartments", "new_apt_share", tables.NewAptShare),
		PricelessAptShare: charts.ShareLine("Share of apartments without a price", "priceless_apt_share", tables.PricelessAptShare),
	}, nil
}

func (s *Service) Map(ctx context.Context, f analysis.Filters) (*charts.Chart, error) {
	if f.Date.IsZero() {
		return nil, ErrDateRequired
	}

	listings, err := s.store.DetailListings(ctx, database.ListingQuery{Date: f.Date})
	if err != nil {
		return nil, fmt.Errorf("failed to load listings for %s: %w", models.DateKey(f.Date), err)
	}

	selected := analysis.FilterByCity(listings, f.City)
	chart := charts.PriceMap(selected, f.City != "" && f.City != analysis.AllCities)
	return &chart, nil
}

func (s *Service) compute(ctx context.Context, f analysis.Filters) (analysis.AggregateTables, error) {
	q := database.ListingQuery{Date: f.Date}

	listings, err := s.store.DetailListings(ctx, q)
	if err != nil {
		return analysis.AggregateTables{}, fmt.Errorf("failed to load listings: %w", err)
	}
	raw, err := s.store.RawListings(ctx, q)
	if err != nil {
		return analysis.AggregateTables{}, fmt.Errorf("failed to load raw listings: %w", err)
	}

	f.Cities = s.cities
	f.PriceSentinel = s.sentinel
	tables := analysis.Compute(listings, raw, f)

	s.logger.WithFields(logrus.Fields{
		"city":     f.City,
		"date":     dateField(f.Date),
		"listings": len(tables.Listings),
		"raw":      len(raw),
	}).Debug("Computed aggregate tables")

	return tables, nil
}

func cityOrder(rows []models.CityPrice) []string {
	order := make([]string, len(rows))
	for i, r := range rows {
		order[i] = r.City
	}
	return order
}

// single picks the one share row of a single-snapshot page, if any
func single(rows []models.ShareRow) *models.ShareRow {
	if len(rows) == 0 {
		return nil
	}
	row := rows[0]
	return &row
}

func dateField(t time.Time) string {
	if t.IsZero() {
		return "all"
	}
	return models.DateKey(t)
}
