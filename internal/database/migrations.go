package database

import (
	"aptmarket/server/internal/models"
	"fmt"
	"time"
)

// detailRow mirrors the apt_details table written by the upstream ingestion job
type detailRow struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	Date          time.Time `gorm:"column:date;index"`
	City          string    `gorm:"column:city;index"`
	LocalizationX float64   `gorm:"column:localization_x"`
	LocalizationY float64   `gorm:"column:localization_y"`
	Market        string    `gorm:"column:market"`
	Area          float64   `gorm:"column:area"`
	PriceOfSqm    float64   `gorm:"column:price_of_sqm"`
}

func (detailRow) TableName() string { return "apt_details" }

// rawRow mirrors apt_details_raw, where price is stored as text
type rawRow struct {
	ID     int64     `gorm:"column:id;primaryKey"`
	Date   time.Time `gorm:"column:date;index"`
	City   string    `gorm:"column:city;index"`
	Market string    `gorm:"column:market"`
	Area   float64   `gorm:"column:area"`
	Price  string    `gorm:"column:price"`
}

func (rawRow) TableName() string { return "apt_details_raw" }

// Migrate creates the snapshot tables when they do not exist yet
func (d *Database) Migrate() error {
	if err := d.db.AutoMigrate(&detailRow{}, &rawRow{}); err != nil {
		return fmt.Errorf("failed to migrate snapshot tables: %w", err)
	}
	return nil
}

// InsertListings stores a batch of detail listings in one transaction
func (d *Database) InsertListings(listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	rows := make([]detailRow, len(listings))
	for i, l := range listings {
		rows[i] = detailRow{
			ID:            l.ID,
			Date:          l.Date,
			City:          l.City,
			LocalizationX: l.Longitude,
			LocalizationY: l.Latitude,
			Market:        string(l.Market),
			Area:          l.Area,
			PriceOfSqm:    l.PriceOfSqm,
		}
	}
	if err := d.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert listings: %w", err)
	}
	return nil
}

// InsertRawListings stores a batch of raw listings in one transaction
func (d *Database) InsertRawListings(listings []models.RawListing) error {
	if len(listings) == 0 {
		return nil
	}
	rows := make([]rawRow, len(listings))
	for i, l := range listings {
		rows[i] = rawRow{
			ID:     l.ID,
			Date:   l.Date,
			City:   l.City,
			Market: string(l.Market),
			Area:   l.Area,
			Price:  l.Price,
		}
	}
	if err := d.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert raw listings: %w", err)
	}
	return nil
}
