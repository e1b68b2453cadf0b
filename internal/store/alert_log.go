package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertLog is the persisted set of (location, permit) pairs that have
// already produced a notification. The sweep core itself is stateless and
// would re-alert every run; this log is what makes alerts once-per-pair.
type AlertLog struct {
	db *gorm.DB
}

// NewAlertLog creates an alert log over the given database.
func NewAlertLog(db *gorm.DB) *AlertLog {
	return &AlertLog{db: db}
}

// Seen reports whether the pair has already been alerted.
func (l *AlertLog) Seen(ctx context.Context, locationID uint, permitID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&SentAlert{}).
		Where("location_id = ? AND permit_id = ?", locationID, permitID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query alert log: %w", err)
	}
	return count > 0, nil
}

// Mark records the pair as alerted. Marking an already-marked pair is a
// no-op, so a crash between notify and mark can at worst repeat one alert.
func (l *AlertLog) Mark(ctx context.Context, locationID uint, permitID string) error {
	entry := SentAlert{LocationID: locationID, PermitID: permitID, SentAt: time.Now()}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to record sent alert: %w", err)
	}
	return nil
}
