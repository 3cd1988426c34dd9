package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Gopikaa27/Rag-Agent/internal/model"
)

type TurnRepository struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

// CreateBatch writes the turns in one insert, so a user/assistant pair
// lands whole or not at all.
func (r *TurnRepository) CreateBatch(turns []model.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	if err := r.db.Create(&turns).Error; err != nil {
		return fmt.Errorf("create turn batch failed: %w", err)
	}
	return nil
}

// ListRecent returns the newest limit turns in chronological order.
func (r *TurnRepository) ListRecent(sessionID uint, limit int) ([]model.Turn, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var turns []model.Turn
	if err := r.db.Where("session_id = ?", sessionID).Order("id DESC").Limit(limit).Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list recent turns failed: %w", err)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (r *TurnRepository) DeleteBySessionID(sessionID uint) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&model.Turn{}).Error; err != nil {
		return fmt.Errorf("delete turns by session failed: %w", err)
	}
	return nil
}
