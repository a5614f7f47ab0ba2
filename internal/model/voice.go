package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CallSession is a voice call placed to a lead. Dispatch is not wired yet;
// rows exist so lead payloads keep their calls list.
type CallSession struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	InvestorID           uuid.UUID  `json:"investor_id" gorm:"type:uuid;not null;index"`
	Status               string     `json:"status" gorm:"size:50;not null;default:'initiated'"` // initiated, ringing, answered, completed, failed
	Duration             *int       `json:"duration"`
	Transcript           *string    `json:"transcript" gorm:"type:text"`
	RecordingURL         *string    `json:"recording_url" gorm:"size:500"`
	RoomName             *string    `json:"room_name" gorm:"size:255"`
	LivekitParticipantID *string    `json:"livekit_participant_id" gorm:"size:255"`
	InitiatedAt          time.Time  `json:"initiated_at" gorm:"autoCreateTime"`
	CompletedAt          *time.Time `json:"completed_at"`

	Transcripts []CallTranscript `json:"-" gorm:"foreignKey:CallSessionID;constraint:OnDelete:CASCADE"`
}

// CallTranscript is one speaker segment of a call.
type CallTranscript struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CallSessionID uuid.UUID `json:"call_session_id" gorm:"type:uuid;not null;index"`
	Speaker       string    `json:"speaker" gorm:"size:50;not null"` // agent or investor
	Content       string    `json:"content" gorm:"type:text;not null"`
	StartTime     *int      `json:"start_time"` // ms from start
	EndTime       *int      `json:"end_time"`
	Confidence    *float64  `json:"confidence"`
	CreatedAt     time.Time `json:"created_at"`
}

func (c *CallSession) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = "initiated"
	}
	return nil
}

func (t *CallTranscript) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
