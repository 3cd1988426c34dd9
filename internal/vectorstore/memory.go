package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
)

// MemoryStore is a brute-force in-process index. It backs tests and small
// single-node deployments; records live in insertion order, which is also
// the tie-break order for ranking.
type MemoryStore struct {
	mu      sync.RWMutex
	maxK    int
	records []Record
}

func NewMemoryStore(maxK int) *MemoryStore {
	if maxK <= 0 {
		maxK = DefaultMaxK
	}
	return &MemoryStore{maxK: maxK}
}

func (s *MemoryStore) Upsert(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(records); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, vector []float32, ownerID uint, topK int, filter Filter) ([]Result, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("%w: missing owner", apperr.ErrInvalidArgument)
	}
	if err := checkTopK(topK, s.maxK); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Owner and metadata filtering happen before any scoring.
	var candidates []Record
	for _, rec := range s.records {
		if rec.OwnerID != ownerID {
			continue
		}
		if !matchesFilter(rec.Metadata, filter) {
			continue
		}
		candidates = append(candidates, rec)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scores := make([]float32, len(candidates))
	for i := range candidates {
		scores[i] = cosineSimilarity(vector, candidates[i].Vector)
	}

	results := make([]Result, 0, topK)
	for _, i := range rankTopK(scores, topK) {
		results = append(results, Result{
			ChunkID:    candidates[i].ChunkID,
			Text:       candidates[i].Text,
			Metadata:   candidates[i].Metadata,
			Similarity: scores[i],
		})
	}
	return results, nil
}

func (s *MemoryStore) Delete(_ context.Context, ownerID, documentID uint) error {
	if ownerID == 0 {
		return fmt.Errorf("%w: missing owner", apperr.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if rec.OwnerID == ownerID && rec.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	if removed == 0 {
		return fmt.Errorf("%w: document %d for owner %d", apperr.ErrNotFound, documentID, ownerID)
	}
	return nil
}
