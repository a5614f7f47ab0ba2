package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PropertyFeature holds asset-specific attributes for a deal, e.g.
// {"clear_height_min": 32, "loading_docks": 24} for industrial.
type PropertyFeature struct {
	ID         uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	PropertyID uuid.UUID         `json:"property_id" gorm:"type:uuid;not null;uniqueIndex"`
	AssetType  string            `json:"asset_type" gorm:"size:50;not null"` // industrial, multifamily, office, retail
	Features   datatypes.JSONMap `json:"features" gorm:"not null"`

	YearBuilt     *int `json:"year_built"`
	YearRenovated *int `json:"year_renovated"`
	ParkingSpaces *int `json:"parking_spaces"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *PropertyFeature) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.Features == nil {
		f.Features = datatypes.JSONMap{}
	}
	return nil
}
