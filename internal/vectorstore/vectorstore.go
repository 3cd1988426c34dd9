// Package vectorstore stores owner-tagged embedding records and answers
// nearest-neighbor queries. Every query is filtered by owner before
// ranking; a caller can never have its top-k displaced, or populated, by
// another owner's chunks.
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
)

// DefaultMaxK is the top_k ceiling used when configuration does not set one.
const DefaultMaxK = 20

// Record is one embedded chunk as stored in the index.
type Record struct {
	ChunkID       string
	OwnerID       uint
	DocumentID    uint
	SequenceIndex int
	Text          string
	Vector        []float32
	Metadata      map[string]string
}

// Result is one ranked retrieval hit. Similarity is cosine similarity in
// [-1, 1]; results are ordered by descending similarity.
type Result struct {
	ChunkID    string            `json:"chunk_id"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float32           `json:"similarity"`
}

// Filter is an optional set of metadata equality predicates, applied in
// addition to the mandatory owner filter.
type Filter map[string]string

// Store is the vector index contract.
type Store interface {
	// Upsert persists records. Invalid records are reported per item via
	// *BatchError before anything is written; backend failures wrap
	// apperr.ErrStorageUnavailable.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to topK results for ownerID, filtered before
	// ranking. Ties within floating-point tolerance rank the
	// earlier-inserted record first.
	Query(ctx context.Context, vector []float32, ownerID uint, topK int, filter Filter) ([]Result, error)

	// Delete removes all records of one document for that owner only.
	// apperr.ErrNotFound when the owner has no such document.
	Delete(ctx context.Context, ownerID, documentID uint) error
}

// ItemError reports one invalid record inside a batch.
type ItemError struct {
	Index int
	Err   error
}

// BatchError aggregates per-item upsert failures so partial problems are
// never silently dropped.
type BatchError struct {
	Items []ItemError
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, fmt.Sprintf("record %d: %v", item.Index, item.Err))
	}
	return "upsert batch failed: " + strings.Join(parts, "; ")
}

func (e *BatchError) Unwrap() error { return apperr.ErrInvalidArgument }

// validateRecords checks each record and collects problems per item.
func validateRecords(records []Record) error {
	var batchErr BatchError
	for i, rec := range records {
		switch {
		case rec.OwnerID == 0:
			batchErr.Items = append(batchErr.Items, ItemError{i, fmt.Errorf("missing owner")})
		case rec.ChunkID == "":
			batchErr.Items = append(batchErr.Items, ItemError{i, fmt.Errorf("missing chunk id")})
		case len(rec.Vector) == 0:
			batchErr.Items = append(batchErr.Items, ItemError{i, fmt.Errorf("empty vector")})
		}
	}
	if len(batchErr.Items) > 0 {
		return &batchErr
	}
	return nil
}

// checkTopK enforces topK in [1, maxK].
func checkTopK(topK, maxK int) error {
	if maxK <= 0 {
		maxK = DefaultMaxK
	}
	if topK < 1 || topK > maxK {
		return fmt.Errorf("%w: top_k must be in [1, %d], got %d", apperr.ErrInvalidArgument, maxK, topK)
	}
	return nil
}

// cosineSimilarity computes dot(a,b)/(|a||b|); 0 when either norm is zero
// or dimensions differ.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// rankTopK orders candidate indices by descending score. The sort is
// stable over insertion order, so exact ties keep the earlier-inserted
// record first.
func rankTopK(scores []float32, topK int) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if topK < len(idx) {
		idx = idx[:topK]
	}
	return idx
}

// matchesFilter reports whether metadata satisfies every equality predicate.
func matchesFilter(metadata map[string]string, filter Filter) bool {
	for k, want := range filter {
		if metadata[k] != want {
			return false
		}
	}
	return true
}
