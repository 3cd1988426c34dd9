package vectorstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
	"github.com/Gopikaa27/Rag-Agent/internal/model"
)

// MySQLStore keeps chunk rows in MySQL and scores them in process.
// Brute-force cosine over one owner's rows is fine at the document counts a
// single user accumulates; the auto-increment primary key doubles as the
// insertion-order tie break.
type MySQLStore struct {
	db   *gorm.DB
	maxK int
}

func NewMySQLStore(db *gorm.DB, maxK int) *MySQLStore {
	if maxK <= 0 {
		maxK = DefaultMaxK
	}
	return &MySQLStore{db: db, maxK: maxK}
}

func (s *MySQLStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(records); err != nil {
		return err
	}

	rows := make([]model.Chunk, len(records))
	for i, rec := range records {
		rows[i] = model.Chunk{
			ChunkID:       rec.ChunkID,
			UserID:        rec.OwnerID,
			DocumentID:    rec.DocumentID,
			SequenceIndex: rec.SequenceIndex,
			Text:          rec.Text,
		}
		rows[i].SetEmbedding(rec.Vector)
		rows[i].SetMetadata(rec.Metadata)
	}

	// Single transaction: the batch lands whole or not at all.
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("%w: insert chunk batch failed: %v", apperr.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *MySQLStore) Query(ctx context.Context, vector []float32, ownerID uint, topK int, filter Filter) ([]Result, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("%w: missing owner", apperr.ErrInvalidArgument)
	}
	if err := checkTopK(topK, s.maxK); err != nil {
		return nil, err
	}

	// The owner predicate is part of the row scan, not a post-filter on
	// ranked results. Ascending id preserves insertion order for ties.
	var rows []model.Chunk
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load chunks failed: %v", apperr.ErrStorageUnavailable, err)
	}

	var candidates []model.Chunk
	for _, row := range rows {
		if !matchesFilter(row.MetadataMap(), filter) {
			continue
		}
		candidates = append(candidates, row)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scores := make([]float32, len(candidates))
	for i := range candidates {
		scores[i] = cosineSimilarity(vector, candidates[i].EmbeddingVector())
	}

	results := make([]Result, 0, topK)
	for _, i := range rankTopK(scores, topK) {
		results = append(results, Result{
			ChunkID:    candidates[i].ChunkID,
			Text:       candidates[i].Text,
			Metadata:   candidates[i].MetadataMap(),
			Similarity: scores[i],
		})
	}
	return results, nil
}

func (s *MySQLStore) Delete(ctx context.Context, ownerID, documentID uint) error {
	if ownerID == 0 {
		return fmt.Errorf("%w: missing owner", apperr.ErrInvalidArgument)
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ?", ownerID, documentID).
		Delete(&model.Chunk{})
	if res.Error != nil {
		return fmt.Errorf("%w: delete chunks failed: %v", apperr.ErrStorageUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: document %d for owner %d", apperr.ErrNotFound, documentID, ownerID)
	}
	return nil
}
