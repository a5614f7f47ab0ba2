package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DealMatch links a lead to a deal with a similarity score in [0,1].
type DealMatch struct {
	ID              uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey"`
	InvestorID      uuid.UUID                   `json:"investor_id" gorm:"type:uuid;not null;index"`
	PropertyID      uuid.UUID                   `json:"property_id" gorm:"type:uuid;not null;index"`
	SimilarityScore float64                     `json:"similarity_score" gorm:"type:numeric(5,4);not null;default:0"`
	MatchReasons    datatypes.JSONSlice[string] `json:"match_reasons"`
	Status          MatchStatus                 `json:"status" gorm:"size:50;not null;default:'pending'"`
	Notes           *string                     `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time                   `json:"created_at"`

	// Read through the relation so the deal name is never stale.
	Property *Property `json:"-" gorm:"foreignKey:PropertyID"`
}

func (m *DealMatch) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = MatchStatusPending
	}
	if m.MatchReasons == nil {
		m.MatchReasons = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (m *DealMatch) BeforeSave(tx *gorm.DB) error {
	m.SimilarityScore = RoundScore(m.SimilarityScore)
	return nil
}

// DealName is the matched deal's current name, empty if not loaded.
func (m *DealMatch) DealName() string {
	if m.Property == nil {
		return ""
	}
	return m.Property.Name
}

// RoundScore keeps four decimal places, the precision of the column.
func RoundScore(v float64) float64 {
	return math.Round(v*10000) / 10000
}
