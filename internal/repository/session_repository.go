package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
	"github.com/Gopikaa27/Rag-Agent/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.ChatSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create chat session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListByUserID(userID uint) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	if err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list chat sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) GetByIDAndUserID(sessionID, userID uint) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat session failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) NameExists(userID uint, name string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.ChatSession{}).Where("user_id = ? AND name = ?", userID, name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count chat sessions by name failed: %w", err)
	}
	return count > 0, nil
}

func (r *SessionRepository) Rename(sessionID, userID uint, name string) error {
	res := r.db.Model(&model.ChatSession{}).Where("id = ? AND user_id = ?", sessionID, userID).Update("name", name)
	if res.Error != nil {
		return fmt.Errorf("rename chat session failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: chat session %d", apperr.ErrNotFound, sessionID)
	}
	return nil
}

// Touch bumps updated_at so the session sorts first in the recency list.
func (r *SessionRepository) Touch(sessionID uint) error {
	if err := r.db.Model(&model.ChatSession{}).Where("id = ?", sessionID).Update("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("touch chat session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByIDAndUserID(sessionID, userID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", sessionID, userID).Delete(&model.ChatSession{})
	if res.Error != nil {
		return fmt.Errorf("delete chat session failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: chat session %d", apperr.ErrNotFound, sessionID)
	}
	return nil
}
