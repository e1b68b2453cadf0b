package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrAddressNotFound is returned for operations on a missing address id.
var ErrAddressNotFound = errors.New("saved address not found")

// AddressRepository persists user-saved locations. The sweep only consumes
// List; the mutating operations serve the HTTP surface.
type AddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository creates a repository over the given database.
func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// List returns all saved addresses, newest first.
func (r *AddressRepository) List(ctx context.Context) ([]SavedAddress, error) {
	var addresses []SavedAddress
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list saved addresses: %w", err)
	}
	return addresses, nil
}

// Create stores a new labeled location and returns its id. Coordinates
// arrive in the geocoder's (lon, lat) order.
func (r *AddressRepository) Create(ctx context.Context, label string, lon, lat float64) (uint, error) {
	address := SavedAddress{Label: label, Lon: lon, Lat: lat}
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return 0, fmt.Errorf("failed to save address: %w", err)
	}
	return address.ID, nil
}

// UpdateLabel renames a saved address. Only the label is mutable.
func (r *AddressRepository) UpdateLabel(ctx context.Context, id uint, label string) error {
	result := r.db.WithContext(ctx).Model(&SavedAddress{}).Where("id = ?", id).Update("label", label)
	if result.Error != nil {
		return fmt.Errorf("failed to update address %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// Delete removes a saved address.
func (r *AddressRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&SavedAddress{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete address %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}
