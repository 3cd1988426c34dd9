package model

import (
	"encoding/json"
	"time"
)

// Chunk is one embedded segment of a document, immutable once created.
// The owner is set at ingestion and never changes. (document_id,
// sequence_index) is unique so the original order can be reassembled.
//
// Embedding is stored as a JSON array of float32 for portability across
// MySQL versions without a vector column type.
type Chunk struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ChunkID       string    `gorm:"size:36;not null;uniqueIndex" json:"chunk_id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	DocumentID    uint      `gorm:"not null;index:idx_doc_seq,unique" json:"document_id"`
	SequenceIndex int       `gorm:"not null;index:idx_doc_seq,unique" json:"sequence_index"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	Embedding     string    `gorm:"type:mediumtext" json:"-"`
	Metadata      string    `gorm:"type:text" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding; nil on parse error.
func (c *Chunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores vec as JSON.
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}

// MetadataMap returns the parsed metadata; nil when absent.
func (c *Chunk) MetadataMap() map[string]string {
	if c.Metadata == "" {
		return nil
	}
	var m map[string]string
	_ = json.Unmarshal([]byte(c.Metadata), &m)
	return m
}

// SetMetadata stores m as JSON.
func (c *Chunk) SetMetadata(m map[string]string) {
	if len(m) == 0 {
		c.Metadata = ""
		return
	}
	b, _ := json.Marshal(m)
	c.Metadata = string(b)
}
