package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"blackkeyx_backend/internal/model"
	"blackkeyx_backend/internal/repository"
)

const (
	ConsentText        = "TCPA consent granted via web chatbot"
	InitialStageNote   = "Lead submitted via chatbot"
	MinPhoneLength     = 10
	MaxPhoneLength     = 20
	maxQualificationPt = 100
)

// Qualification is the chatbot's classification of the investor.
type Qualification struct {
	InvestorType string `json:"investorType"`
	Capacity     string `json:"capacity"`
	Fit          string `json:"fit"`
	Process      string `json:"process"`
	Timing       string `json:"timing"`
	Score        int    `json:"score"`
	Bucket       string `json:"bucket"`
}

// LeadSubmission is the chatbot payload.
type LeadSubmission struct {
	PhoneNumber           string         `json:"phoneNumber"`
	Consent               bool           `json:"consent"`
	Timestamp             string         `json:"timestamp"`
	Qualification         *Qualification `json:"qualification"`
	InvestmentTimeline    *string        `json:"investmentTimeline"`
	CapitalAvailable      *string        `json:"capitalAvailable"`
	InvestmentPreferences []string       `json:"investmentPreferences"`
}

// Validate rejects submissions that must never reach the store.
func (s LeadSubmission) Validate() error {
	if !s.Consent {
		return invalid("Consent is required for lead submission")
	}
	phone := strings.TrimSpace(s.PhoneNumber)
	if len(phone) < MinPhoneLength {
		return invalid(fmt.Sprintf("phoneNumber must be at least %d characters", MinPhoneLength))
	}
	if len(phone) > MaxPhoneLength {
		return invalid(fmt.Sprintf("phoneNumber must be at most %d characters", MaxPhoneLength))
	}
	if q := s.Qualification; q != nil && (q.Score < 0 || q.Score > maxQualificationPt) {
		return invalid("qualification.score must be between 0 and 100")
	}
	return nil
}

// capital prefers the qualification bracket over the loose capitalAvailable
// field.
func (s LeadSubmission) capital() *int64 {
	if s.Qualification != nil {
		return ParseCapital(s.Qualification.Capacity)
	}
	if s.CapitalAvailable != nil {
		return ParseCapital(*s.CapitalAvailable)
	}
	return nil
}

func (s LeadSubmission) toLead() *model.InvestorProfile {
	prefs := datatypes.JSONSlice[string]{}
	if s.InvestmentPreferences != nil {
		prefs = datatypes.JSONSlice[string](s.InvestmentPreferences)
	}

	lead := &model.InvestorProfile{
		Phone:                 strings.TrimSpace(s.PhoneNumber),
		Timeline:              s.InvestmentTimeline,
		CapitalAvailable:      s.capital(),
		InvestmentPreferences: prefs,
		Stage:                 model.StageNewLead,
		Source:                "web",
	}

	if q := s.Qualification; q != nil {
		score := q.Score
		lead.InvestorType = &q.InvestorType
		lead.Capacity = &q.Capacity
		lead.Fit = &q.Fit
		lead.Process = &q.Process
		lead.Timing = &q.Timing
		lead.QualificationBucket = &q.Bucket
		lead.QualificationScore = &score
		lead.LeadScore = score
	}
	return lead
}

// LeadNotifier is told about newly created leads. Failures are logged only.
type LeadNotifier interface {
	NotifyNewLead(ctx context.Context, lead *model.InvestorProfile) error
}

type LeadIntakeService struct {
	db       *gorm.DB
	leads    *repository.InvestorRepository
	notifier LeadNotifier
}

func NewLeadIntakeService(db *gorm.DB, notifier LeadNotifier) *LeadIntakeService {
	return &LeadIntakeService{
		db:       db,
		leads:    repository.NewInvestorRepository(db),
		notifier: notifier,
	}
}

// ProcessLead creates the lead with its consent and creation history row in
// one transaction. A phone number that already has a lead returns that lead
// untouched with created=false, including when a concurrent submission wins
// the insert.
func (s *LeadIntakeService) ProcessLead(ctx context.Context, sub LeadSubmission, ip, userAgent *string) (*model.InvestorProfile, bool, error) {
	phone := strings.TrimSpace(sub.PhoneNumber)

	existing, err := s.leads.GetByPhone(ctx, phone)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup lead by phone: %w", err)
	}

	lead := sub.toLead()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewInvestorRepository(tx)

		if err := repo.Create(ctx, lead); err != nil {
			return fmt.Errorf("create lead: %w", err)
		}
		if _, err := repo.AddConsent(ctx, lead.ID, ConsentText, ip, userAgent); err != nil {
			return err
		}
		if _, err := repo.RecordInitialStage(ctx, lead.ID, model.StageNewLead, InitialStageNote); err != nil {
			return fmt.Errorf("record initial stage: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, lookupErr := s.leads.GetByPhone(ctx, phone)
			if lookupErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	slog.Info("Lead created",
		slog.String("lead_id", lead.ID.String()),
		slog.Int("lead_score", lead.LeadScore))

	if s.notifier != nil {
		go s.notify(lead)
	}
	return lead, true, nil
}

func (s *LeadIntakeService) notify(lead *model.InvestorProfile) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.notifier.NotifyNewLead(ctx, lead); err != nil {
		slog.Warn("New lead notification failed",
			slog.String("lead_id", lead.ID.String()),
			slog.String("error", err.Error()))
	}
}
