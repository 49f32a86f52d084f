package database

import (
	"aptmarket/server/internal/models"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrSchemaMismatch = errors.New("query result does not match the expected schema")

var (
	detailColumns = []string{"id", "date", "city", "localization_x", "localization_y", "market", "area", "price_of_sqm"}
	rawColumns    = []string{"id", "date", "city", "market", "area", "price"}
)

// Options tune how queries are executed
type Options struct {
	QueryTimeout time.Duration
	RetryDelay   time.Duration
}

type Database struct {
	db      *gorm.DB
	logger  *logrus.Logger
	options Options
}

// ListingQuery narrows a listing query to one snapshot. A zero Date selects
// every snapshot.
type ListingQuery struct {
	Date time.Time
}

func NewDatabase(dbPath string, options Options, log *logrus.Logger) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newDatabase(db, options, log), nil
}

func newDatabase(db *gorm.DB, options Options, log *logrus.Logger) *Database {
	if log == nil {
		log = logrus.New()
	}
	if options.QueryTimeout <= 0 {
		options.QueryTimeout = 10 * time.Second
	}
	return &Database{db: db, logger: log, options: options}
}

// Dates returns the distinct snapshot dates, newest first. Dates come from the
// raw view, which holds every scraped listing including unpriced ones.
func (d *Database) Dates(ctx context.Context) ([]time.Time, error) {
	var dates []time.Time
	err := d.withRetry(ctx, "dates", func(ctx context.Context) error {
		rows, err := d.db.WithContext(ctx).Raw(`SELECT DISTINCT date FROM apt_details_raw`).Rows()
		if err != nil {
			return queryError(err)
		}
		defer rows.Close()

		dates = dates[:0]
		seen := make(map[string]bool)
		for rows.Next() {
			var raw sql.NullString
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			if !raw.Valid {
				continue
			}
			t, err := parseDate(raw.String)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
			}
			if key := models.DateKey(t); !seen[key] {
				seen[key] = true
				dates = append(dates, t)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates, nil
}

// DetailListings reads the detail view (apt_details)
func (d *Database) DetailListings(ctx context.Context, q ListingQuery) ([]models.Listing, error) {
	query, args := listingSQL("apt_details", detailColumns, q)

	var listings []models.Listing
	err := d.withRetry(ctx, "detail listings", func(ctx context.Context) error {
		rows, err := d.db.WithContext(ctx).Raw(query, args...).Rows()
		if err != nil {
			return queryError(err)
		}
		defer rows.Close()

		if err := checkColumns(rows, detailColumns); err != nil {
			return err
		}

		listings = listings[:0]
		for rows.Next() {
			var (
				l          models.Listing
				date       string
				city       sql.NullString
				market     string
				lon, lat   sql.NullFloat64
				area, psqm sql.NullFloat64
			)
			if err := rows.Scan(&l.ID, &date, &city, &lon, &lat, &market, &area, &psqm); err != nil {
				return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
			}
			if l.Date, err = parseDate(date); err != nil {
				return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
			}
			if l.Market, err = models.ParseMarket(market); err != nil {
				return fmt.Errorf("%w: listing %d: %v", ErrSchemaMismatch, l.ID, err)
			}
			l.City = city.String
			l.Longitude = lon.Float64
			l.Latitude = lat.Float64
			l.Area = area.Float64
			l.PriceOfSqm = psqm.Float64
			listings = append(listings, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// RawListings reads the raw view (apt_details_raw)
func (d *Database) RawListings(ctx context.Context, q ListingQuery) ([]models.RawListing, error) {
	query, args := listingSQL("apt_details_raw", rawColumns, q)

	var listings []models.RawListing
	err := d.withRetry(ctx, "raw listings", func(ctx context.Context) error {
		rows, err := d.db.WithContext(ctx).Raw(query, args...).Rows()
		if err != nil {
			return queryError(err)
		}
		defer rows.Close()

		if err := checkColumns(rows, rawColumns); err != nil {
			return err
		}

		listings = listings[:0]
		for rows.Next() {
			var (
				l      models.RawListing
				date   string
				city   sql.NullString
				market string
				area   sql.NullFloat64
				price  sql.NullString
			)
			if err := rows.Scan(&l.ID, &date, &city, &market, &area, &price); err != nil {
				return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
			}
			if l.Date, err = parseDate(date); err != nil {
				return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
			}
			if l.Market, err = models.ParseMarket(market); err != nil {
				return fmt.Errorf("%w: listing %d: %v", ErrSchemaMismatch, l.ID, err)
			}
			l.City = city.String
			l.Area = area.Float64
			l.Price = price.String
			listings = append(listings, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// withRetry runs fn under the query timeout and retries it once when the
// failure looks transient. Cancellation of the caller's context is final.
func (d *Database) withRetry(ctx context.Context, name string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			d.logger.WithError(err).WithField("query", name).Warn("Retrying query after transient failure")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.options.RetryDelay):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, d.options.QueryTimeout)
		err = fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !isTransient(err) {
			break
		}
	}

	d.logger.WithError(err).WithField("query", name).Error("Query failed")
	return fmt.Errorf("query %s: %w", name, err)
}

func isTransient(err error) bool {
	if errors.Is(err, ErrSchemaMismatch) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// queryError flags a missing table or column as a schema mismatch
func queryError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrError {
		msg := sqliteErr.Error()
		if strings.Contains(msg, "no such column") || strings.Contains(msg, "no such table") {
			return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
	}
	return err
}

func listingSQL(table string, columns []string, q ListingQuery) (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	var args []interface{}
	if !q.Date.IsZero() {
		query += " WHERE substr(date, 1, 10) = ?"
		args = append(args, models.DateKey(q.Date))
	}
	return query + " ORDER BY id", args
}

func checkColumns(rows *sql.Rows, expected []string) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	if len(columns) != len(expected) {
		return fmt.Errorf("%w: got columns %v, want %v", ErrSchemaMismatch, columns, expected)
	}
	for i, c := range columns {
		if !strings.EqualFold(c, expected[i]) {
			return fmt.Errorf("%w: got columns %v, want %v", ErrSchemaMismatch, columns, expected)
		}
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999999-07:00",
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			if t.IsZero() {
				return time.Time{}, errors.New("missing snapshot date")
			}
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
