package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvestorProfile is a lead moving through the pipeline.
type InvestorProfile struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name  *string   `json:"name" gorm:"size:255"`
	Phone string    `json:"phone" gorm:"size:20;not null;uniqueIndex"`

	// Investment profile (chatbot or phone agent)
	Timeline              *string                     `json:"timeline" gorm:"size:50"`
	CapitalAvailable      *int64                      `json:"capital_available"`
	InvestmentPreferences datatypes.JSONSlice[string] `json:"investment_preferences"`
	InvestmentThesis      *string                     `json:"investment_thesis" gorm:"type:text"`
	RiskTolerance         *string                     `json:"risk_tolerance" gorm:"size:50"`

	Stage     PipelineStage `json:"stage" gorm:"size:50;not null;default:'new_lead';index"`
	LeadScore int           `json:"lead_score" gorm:"not null;default:0"`
	Source    string        `json:"source" gorm:"size:50;not null;default:'web'"`

	// Qualification (all set together by intake)
	InvestorType        *string `json:"investor_type" gorm:"size:100"`
	Capacity            *string `json:"capacity" gorm:"size:100"`
	Fit                 *string `json:"fit" gorm:"size:100"`
	Process             *string `json:"process" gorm:"size:100"`
	Timing              *string `json:"timing" gorm:"size:100"`
	QualificationBucket *string `json:"qualification_bucket" gorm:"size:50"`
	QualificationScore  *int    `json:"qualification_score"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Calls        []CallSession  `json:"calls,omitempty" gorm:"foreignKey:InvestorID;constraint:OnDelete:CASCADE"`
	Matches      []DealMatch    `json:"matches,omitempty" gorm:"foreignKey:InvestorID;constraint:OnDelete:CASCADE"`
	Notes        []LeadNote     `json:"notes,omitempty" gorm:"foreignKey:InvestorID;constraint:OnDelete:CASCADE"`
	StageHistory []StageHistory `json:"stage_history,omitempty" gorm:"foreignKey:InvestorID;constraint:OnDelete:CASCADE"`
	Consents     []Consent      `json:"-" gorm:"foreignKey:InvestorID;constraint:OnDelete:CASCADE"`
}

func (i *InvestorProfile) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Stage == "" {
		i.Stage = StageNewLead
	}
	if i.Source == "" {
		i.Source = "web"
	}
	if i.InvestmentPreferences == nil {
		i.InvestmentPreferences = datatypes.JSONSlice[string]{}
	}
	return nil
}

// HasQualification reports whether the qualification block is complete
// enough to be shown: both investor type and bucket must be set.
func (i *InvestorProfile) HasQualification() bool {
	return i.InvestorType != nil && *i.InvestorType != "" &&
		i.QualificationBucket != nil && *i.QualificationBucket != ""
}
