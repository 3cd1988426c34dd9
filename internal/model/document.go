package model

import "time"

// Document is one successfully ingested upload. It is deleted only as a
// unit together with all of its chunks.
//
// EmbeddingModel records which model produced the chunk vectors. Chunks in
// one index must all come from the same model version; this column exists
// for operators, nothing enforces it at query time.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Filename       string    `gorm:"size:256;not null" json:"filename"`
	ChunkCount     int       `gorm:"not null" json:"chunk_count"`
	EmbeddingModel string    `gorm:"size:128" json:"embedding_model"`
	CreatedAt      time.Time `json:"created_at"`
}
