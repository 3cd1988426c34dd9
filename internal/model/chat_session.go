package model

import "time"

// ChatSession groups an append-only sequence of turns for one owner.
// UpdatedAt bumps on every appended turn so sessions list most-recent first.
type ChatSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
