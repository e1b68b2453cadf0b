package store

import "time"

// SavedAddress is a user-saved location. The geocoder hands coordinates over
// in (lon, lat) order; they are stored as separate columns, matching the
// original saved_addrs schema.
type SavedAddress struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Label     string    `gorm:"not null" json:"label"`
	Lon       float64   `gorm:"not null" json:"lon"`
	Lat       float64   `gorm:"not null" json:"lat"`
	CreatedAt time.Time `json:"created_at"`
}

func (SavedAddress) TableName() string {
	return "saved_addrs"
}

// SentAlert records that a (location, obstruction) pair has already been
// alerted, so subsequent sweeps over the same data stay silent.
type SentAlert struct {
	ID         uint      `gorm:"primaryKey"`
	LocationID uint      `gorm:"uniqueIndex:idx_location_permit,priority:1;not null"`
	PermitID   string    `gorm:"uniqueIndex:idx_location_permit,priority:2;not null"`
	SentAt     time.Time `gorm:"not null"`
}

func (SentAlert) TableName() string {
	return "sent_alerts"
}
