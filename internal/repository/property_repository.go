package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"blackkeyx_backend/internal/model"
)

// PropertyRepository reads and writes deals with their features and
// documents.
type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var property model.Property
	if err := r.db.WithContext(ctx).First(&property, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &property, nil
}

func (r *PropertyRepository) GetWithFeatures(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	var property model.Property
	err := r.db.WithContext(ctx).
		Preload("Features").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&property, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &property, nil
}

func (r *PropertyRepository) GetByStatus(ctx context.Context, status model.DealStatus, page Page) ([]model.Property, error) {
	var deals []model.Property
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&deals).Error
	return deals, err
}

func (r *PropertyRepository) CountByStatus(ctx context.Context, status model.DealStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Property{}).Where("status = ?", status).Count(&total).Error
	return total, err
}

// GetActiveDeals returns one page of active deals with the total active count.
func (r *PropertyRepository) GetActiveDeals(ctx context.Context, page Page) ([]model.Property, int64, error) {
	total, err := r.CountByStatus(ctx, model.DealStatusActive)
	if err != nil {
		return nil, 0, fmt.Errorf("count active deals: %w", err)
	}

	deals, err := r.GetByStatus(ctx, model.DealStatusActive, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list active deals: %w", err)
	}
	return deals, total, nil
}

func (r *PropertyRepository) SearchDeals(ctx context.Context, filter DealFilter, page Page) ([]model.Property, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Property{})
	for _, cond := range filter.Conditions() {
		query = query.Where(cond.Query, cond.Args...)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count deals: %w", err)
	}

	var deals []model.Property
	err := query.
		Order("created_at DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&deals).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search deals: %w", err)
	}
	return deals, total, nil
}

// CreateWithFeatures inserts the deal and, when given, its feature row in
// one transaction.
func (r *PropertyRepository) CreateWithFeatures(ctx context.Context, property *model.Property, features *model.PropertyFeature) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Features", "Documents", "Matches").Create(property).Error; err != nil {
			return fmt.Errorf("create property: %w", err)
		}

		if features != nil {
			features.PropertyID = property.ID
			if err := tx.Create(features).Error; err != nil {
				return fmt.Errorf("create property features: %w", err)
			}
			property.Features = features
		}
		return nil
	})
}

func (r *PropertyRepository) Save(ctx context.Context, property *model.Property) error {
	return r.db.WithContext(ctx).Omit("Features", "Documents", "Matches").Save(property).Error
}

// SaveWithFeatures persists the deal and, when given, inserts or replaces
// its feature row in one transaction.
func (r *PropertyRepository) SaveWithFeatures(ctx context.Context, property *model.Property, features *model.PropertyFeature) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Features", "Documents", "Matches").Save(property).Error; err != nil {
			return fmt.Errorf("save property: %w", err)
		}
		if features == nil {
			return nil
		}

		var existing model.PropertyFeature
		err := tx.Where("property_id = ?", property.ID).First(&existing).Error
		switch {
		case err == nil:
			features.ID = existing.ID
			features.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		features.PropertyID = property.ID
		if features.Features == nil {
			features.Features = datatypes.JSONMap{}
		}
		if err := tx.Save(features).Error; err != nil {
			return fmt.Errorf("save property features: %w", err)
		}
		property.Features = features
		return nil
	})
}

func (r *PropertyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DealStatus) (*model.Property, error) {
	property, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	property.Status = status
	if err := r.Save(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// Delete removes the deal and returns the storage keys of its documents so
// the caller can clean up blobs.
func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PropertyDocument{}).
			Where("property_id = ?", id).
			Pluck("s3_key", &keys).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Property{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// AddDocument stores the document row and points the deal at it.
func (r *PropertyRepository) AddDocument(ctx context.Context, doc *model.PropertyDocument) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Property{}).Where("id = ?", doc.PropertyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		return tx.Model(&model.Property{}).
			Where("id = ?", doc.PropertyID).
			Updates(map[string]interface{}{
				"document_s3_key":   doc.StorageKey,
				"document_filename": doc.Filename,
			}).Error
	})
}

func (r *PropertyRepository) ListPendingDocuments(ctx context.Context, limit int) ([]model.PropertyDocument, error) {
	var docs []model.PropertyDocument
	err := r.db.WithContext(ctx).
		Where("extraction_status = ?", model.ExtractionPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

func (r *PropertyRepository) UpdateDocumentExtraction(ctx context.Context, id uuid.UUID, status string, text *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.PropertyDocument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"extraction_status": status,
			"extracted_text":    text,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
