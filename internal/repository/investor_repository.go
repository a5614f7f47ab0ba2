package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blackkeyx_backend/internal/model"
)

// ErrNotFound is returned when the addressed record does not exist.
var ErrNotFound = errors.New("record not found")

// InvestorRepository reads and writes leads and the rows they own.
type InvestorRepository struct {
	db *gorm.DB
}

func NewInvestorRepository(db *gorm.DB) *InvestorRepository {
	return &InvestorRepository{db: db}
}

func (r *InvestorRepository) Get(ctx context.Context, id uuid.UUID) (*model.InvestorProfile, error) {
	var lead model.InvestorProfile
	if err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

// GetWithRelations loads a lead with calls, matches (and their deal),
// notes and stage history, newest first.
func (r *InvestorRepository) GetWithRelations(ctx context.Context, id uuid.UUID) (*model.InvestorProfile, error) {
	var lead model.InvestorProfile
	err := r.db.WithContext(ctx).
		Preload("Calls", func(db *gorm.DB) *gorm.DB {
			return db.Order("initiated_at DESC")
		}).
		Preload("Matches", func(db *gorm.DB) *gorm.DB {
			return db.Order("similarity_score DESC")
		}).
		Preload("Matches.Property").
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("StageHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at DESC")
		}).
		First(&lead, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

// GetByPhone returns ErrNotFound when no lead uses the phone number.
func (r *InvestorRepository) GetByPhone(ctx context.Context, phone string) (*model.InvestorProfile, error) {
	var lead model.InvestorProfile
	err := r.db.WithContext(ctx).Where("phone = ?", phone).Order("created_at ASC").First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (r *InvestorRepository) GetByStage(ctx context.Context, stage model.PipelineStage) ([]model.InvestorProfile, error) {
	var leads []model.InvestorProfile
	err := r.db.WithContext(ctx).
		Where("stage = ?", stage).
		Order("lead_score DESC").
		Find(&leads).Error
	return leads, err
}

func (r *InvestorRepository) Create(ctx context.Context, lead *model.InvestorProfile) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

// Delete removes the lead; calls, matches, notes, history and consents go
// with it through the cascade.
func (r *InvestorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.InvestorProfile{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InvestorRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.InvestorProfile{}).Count(&total).Error
	return total, err
}

// CountSince counts leads created at or after since.
func (r *InvestorRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.InvestorProfile{}).Where("created_at >= ?", since.UTC()).Count(&total).Error
	return total, err
}

// Recent returns the newest leads, newest first.
func (r *InvestorRepository) Recent(ctx context.Context, limit int) ([]model.InvestorProfile, error) {
	var leads []model.InvestorProfile
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&leads).Error
	return leads, err
}

// GetStatsByStage counts leads per stage. Stages without leads are absent.
func (r *InvestorRepository) GetStatsByStage(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Stage string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.InvestorProfile{}).
		Select("stage, COUNT(id) AS count").
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.Stage] = row.Count
	}
	return stats, nil
}

// GetAverageScore returns 0 when there are no leads.
func (r *InvestorRepository) GetAverageScore(ctx context.Context) (float64, error) {
	var avg float64
	row := r.db.WithContext(ctx).
		Model(&model.InvestorProfile{}).
		Select("COALESCE(AVG(lead_score), 0)").
		Row()
	if err := row.Scan(&avg); err != nil {
		return 0, err
	}
	return avg, nil
}

// SearchLeads applies the filter, counts the matches, then sorts and pages.
func (r *InvestorRepository) SearchLeads(ctx context.Context, filter LeadFilter, sort LeadSort, page Page) ([]model.InvestorProfile, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.InvestorProfile{})
	for _, cond := range filter.Conditions() {
		query = query.Where(cond.Query, cond.Args...)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	var leads []model.InvestorProfile
	err := query.
		Order(sort.OrderClause()).
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&leads).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search leads: %w", err)
	}
	return leads, total, nil
}

// UpdateStage moves the lead to newStage and appends the matching history
// row in one transaction. The stage value is not validated here.
func (r *InvestorRepository) UpdateStage(ctx context.Context, id uuid.UUID, newStage model.PipelineStage, changedBy string, notes *string) (*model.InvestorProfile, error) {
	var lead model.InvestorProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&lead, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		oldStage := lead.Stage
		if err := tx.Model(&lead).Update("stage", newStage).Error; err != nil {
			return fmt.Errorf("update stage: %w", err)
		}
		lead.Stage = newStage

		change := model.StageHistory{
			InvestorID: id,
			FromStage:  &oldStage,
			ToStage:    newStage,
			ChangedBy:  changedBy,
			Notes:      notes,
		}
		if err := tx.Create(&change).Error; err != nil {
			return fmt.Errorf("record stage history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// RecordInitialStage writes the creation history row (no from stage).
func (r *InvestorRepository) RecordInitialStage(ctx context.Context, id uuid.UUID, stage model.PipelineStage, notes string) (*model.StageHistory, error) {
	change := model.StageHistory{
		InvestorID: id,
		ToStage:    stage,
		ChangedBy:  "system",
		Notes:      &notes,
	}
	if err := r.db.WithContext(ctx).Create(&change).Error; err != nil {
		return nil, err
	}
	return &change, nil
}

func (r *InvestorRepository) GetStageHistory(ctx context.Context, id uuid.UUID) ([]model.StageHistory, error) {
	var history []model.StageHistory
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", id).
		Order("changed_at ASC").
		Find(&history).Error
	return history, err
}

func (r *InvestorRepository) AddNote(ctx context.Context, id uuid.UUID, content, createdBy string) (*model.LeadNote, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	note := model.LeadNote{
		InvestorID: id,
		Content:    content,
		CreatedBy:  createdBy,
	}
	if err := r.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// AddConsent does not pre-check the lead; a missing lead fails on the
// foreign key.
func (r *InvestorRepository) AddConsent(ctx context.Context, id uuid.UUID, consentText string, ip, userAgent *string) (*model.Consent, error) {
	consent := model.Consent{
		InvestorID:  id,
		ConsentText: consentText,
		IPAddress:   ip,
		UserAgent:   userAgent,
	}
	if err := r.db.WithContext(ctx).Create(&consent).Error; err != nil {
		return nil, fmt.Errorf("add consent: %w", err)
	}
	return &consent, nil
}

func (r *InvestorRepository) CountConsents(ctx context.Context, id uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Consent{}).Where("investor_id = ?", id).Count(&total).Error
	return total, err
}

// AddMatch links a lead to a deal; ErrNotFound if either is missing.
func (r *InvestorRepository) AddMatch(ctx context.Context, match *model.DealMatch) error {
	if _, err := r.Get(ctx, match.InvestorID); err != nil {
		return err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Property{}).Where("id = ?", match.PropertyID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	if err := r.db.WithContext(ctx).Create(match).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Property").First(match, "id = ?", match.ID).Error
}

func (r *InvestorRepository) UpdateMatchStatus(ctx context.Context, matchID uuid.UUID, status model.MatchStatus) (*model.DealMatch, error) {
	var match model.DealMatch
	if err := r.db.WithContext(ctx).Preload("Property").First(&match, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&match).Update("status", status).Error; err != nil {
		return nil, err
	}
	match.Status = status
	return &match, nil
}
