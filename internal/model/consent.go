package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Consent is the TCPA contact permission captured at submission.
type Consent struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	InvestorID  uuid.UUID `json:"investor_id" gorm:"type:uuid;not null;index"`
	ConsentText string    `json:"consent_text" gorm:"type:text;not null"`
	IPAddress   *string   `json:"ip_address" gorm:"size:45"`
	UserAgent   *string   `json:"user_agent" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeadNote is an admin comment on a lead.
type LeadNote struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	InvestorID uuid.UUID `json:"investor_id" gorm:"type:uuid;not null;index"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	CreatedBy  string    `json:"created_by" gorm:"size:100;not null;default:'admin'"`
	CreatedAt  time.Time `json:"created_at"`
}

// StageHistory rows are append-only. FromStage is nil only for the
// creation entry.
type StageHistory struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	InvestorID uuid.UUID      `json:"investor_id" gorm:"type:uuid;not null;index"`
	FromStage  *PipelineStage `json:"from_stage" gorm:"size:50"`
	ToStage    PipelineStage  `json:"to_stage" gorm:"size:50;not null"`
	ChangedBy  string         `json:"changed_by" gorm:"size:100;not null;default:'system'"`
	Notes      *string        `json:"notes" gorm:"type:text"`
	ChangedAt  time.Time      `json:"changed_at" gorm:"autoCreateTime;index"`
}

func (c *Consent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (n *LeadNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedBy == "" {
		n.CreatedBy = "admin"
	}
	return nil
}

func (h *StageHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.ChangedBy == "" {
		h.ChangedBy = "system"
	}
	return nil
}
