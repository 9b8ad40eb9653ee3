package repository

import (
	"context"
	"fmt"

	"charts_demo/internal/models"

	"gorm.io/gorm"
)

// ChoiceRepository persists and retrieves swipe choice records.
type ChoiceRepository interface {
	Insert(ctx context.Context, record *models.ChoiceRecord) error
	FindBySessionID(ctx context.Context, sessionID string) ([]models.ChoiceRecord, error)
}

type gormChoiceRepository struct {
	db *gorm.DB
}

// NewGormChoiceRepository creates a ChoiceRepository backed by gorm.
func NewGormChoiceRepository(db *gorm.DB) ChoiceRepository {
	return &gormChoiceRepository{db: db}
}

func (r *gormChoiceRepository) Insert(ctx context.Context, record *models.ChoiceRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert choice record: %w", err)
	}
	return nil
}

func (r *gormChoiceRepository) FindBySessionID(ctx context.Context, sessionID string) ([]models.ChoiceRecord, error) {
	var records []models.ChoiceRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query choice records for session %s: %w", sessionID, err)
	}
	return records, nil
}
