package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property is a deal memo available for matching against leads.
type Property struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name     string    `json:"name" gorm:"size:255;not null"`
	DealType string    `json:"deal_type" gorm:"size:50;not null;index"`
	Summary  *string   `json:"summary" gorm:"type:text"`
	Thesis   *string   `json:"thesis" gorm:"type:text"`

	// Investment terms
	MinimumInvestment    *int64                      `json:"minimum_investment"`
	TargetReturn         *string                     `json:"target_return" gorm:"size:50"`
	RiskFactors          datatypes.JSONSlice[string] `json:"risk_factors"`
	IdealInvestorProfile *string                     `json:"ideal_investor_profile" gorm:"type:text"`
	Structure            *string                     `json:"structure" gorm:"size:50"`
	Timeline             *string                     `json:"timeline" gorm:"size:50"`

	Status DealStatus `json:"status" gorm:"size:20;not null;default:'active';index"`

	// Location
	Address *string `json:"address" gorm:"size:500"`
	City    *string `json:"city" gorm:"size:100"`
	State   *string `json:"state" gorm:"size:50"`
	ZipCode *string `json:"zip_code" gorm:"size:20"`

	// Financials
	PurchasePrice       *int64 `json:"purchase_price"`
	SquareFeet          *int64 `json:"square_feet"`
	TotalEquityRequired *int64 `json:"total_equity_required"`

	// Blob store reference of the latest memo document
	DocumentKey      *string `json:"document_key" gorm:"column:document_s3_key;size:500"`
	DocumentFilename *string `json:"document_filename" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Features  *PropertyFeature   `json:"features,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Documents []PropertyDocument `json:"documents,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Matches   []DealMatch        `json:"-" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

// PropertyDocument is an uploaded file belonging to a deal.
type PropertyDocument struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PropertyID       uuid.UUID `json:"property_id" gorm:"type:uuid;not null;index"`
	StorageKey       string    `json:"storage_key" gorm:"column:s3_key;size:500;not null"`
	Filename         string    `json:"filename" gorm:"size:255;not null"`
	ContentType      *string   `json:"content_type" gorm:"size:100"`
	FileSize         *int64    `json:"file_size"`
	ExtractionStatus string    `json:"extraction_status" gorm:"size:50;not null;default:'pending';index"`
	ExtractedText    *string   `json:"extracted_text" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = DealStatusActive
	}
	if p.RiskFactors == nil {
		p.RiskFactors = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (d *PropertyDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.ExtractionStatus == "" {
		d.ExtractionStatus = ExtractionPending
	}
	return nil
}
