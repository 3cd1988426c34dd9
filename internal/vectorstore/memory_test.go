package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
)

const (
	alice = uint(1)
	bob   = uint(2)
)

func rec(owner, doc uint, seq int, vec []float32) Record {
	return Record{
		ChunkID:       fmt.Sprintf("chunk-%d-%d-%d", owner, doc, seq),
		OwnerID:       owner,
		DocumentID:    doc,
		SequenceIndex: seq,
		Text:          fmt.Sprintf("chunk %d of doc %d", seq, doc),
		Vector:        vec,
	}
}

func TestQueryNeverCrossesOwners(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	// Bob's chunk is an exact match for the query vector; Alice's are not.
	require.NoError(t, store.Upsert(ctx, []Record{
		rec(alice, 1, 0, []float32{0.2, 0.9, 0.1}),
		rec(alice, 1, 1, []float32{0.1, 0.1, 0.9}),
		rec(bob, 2, 0, []float32{1, 0, 0}),
	}))

	results, err := store.Query(ctx, []float32{1, 0, 0}, alice, 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotContains(t, r.ChunkID, "chunk-2-", "bob's chunk leaked into alice's results")
	}
}

func TestQueryEmptyForOwnerWithoutChunks(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.Upsert(ctx, []Record{rec(alice, 1, 0, []float32{1, 0})}))

	results, err := store.Query(ctx, []float32{1, 0}, bob, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryRanksByDescendingSimilarity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.Upsert(ctx, []Record{
		rec(alice, 1, 0, []float32{0.5, 0.5}),
		rec(alice, 1, 1, []float32{1, 0}),
		rec(alice, 1, 2, []float32{0, 1}),
	}))

	results, err := store.Query(ctx, []float32{1, 0}, alice, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "chunk-1-1-1", results[0].ChunkID)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Similarity, results[i-1].Similarity)
	}
}

func TestQueryTieBreaksByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	// Identical vectors score identically; the earlier-inserted chunk
	// must rank first.
	require.NoError(t, store.Upsert(ctx, []Record{
		rec(alice, 1, 0, []float32{1, 0}),
		rec(alice, 1, 1, []float32{1, 0}),
		rec(alice, 1, 2, []float32{1, 0}),
	}))

	results, err := store.Query(ctx, []float32{1, 0}, alice, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "chunk-1-1-0", results[0].ChunkID)
	assert.Equal(t, "chunk-1-1-1", results[1].ChunkID)
	assert.Equal(t, "chunk-1-1-2", results[2].ChunkID)
}

func TestQueryTopKBounds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)
	require.NoError(t, store.Upsert(ctx, []Record{rec(alice, 1, 0, []float32{1})}))

	for _, k := range []int{0, -1, 11} {
		_, err := store.Query(ctx, []float32{1}, alice, k, nil)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument, "top_k=%d", k)
	}

	results, err := store.Query(ctx, []float32{1}, alice, 10, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestQueryMissingOwner(t *testing.T) {
	store := NewMemoryStore(0)
	_, err := store.Query(context.Background(), []float32{1}, 0, 1, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestQueryMetadataFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	tagged := rec(alice, 1, 0, []float32{1, 0})
	tagged.Metadata = map[string]string{"source": "a.pdf"}
	other := rec(alice, 1, 1, []float32{1, 0})
	other.Metadata = map[string]string{"source": "b.pdf"}
	require.NoError(t, store.Upsert(ctx, []Record{tagged, other}))

	results, err := store.Query(ctx, []float32{1, 0}, alice, 5, Filter{"source": "a.pdf"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.pdf", results[0].Metadata["source"])
}

func TestUpsertReportsInvalidRecordsPerItem(t *testing.T) {
	store := NewMemoryStore(0)

	bad := []Record{
		rec(alice, 1, 0, []float32{1}),
		{ChunkID: "no-owner", Vector: []float32{1}},
		{ChunkID: "no-vector", OwnerID: alice},
	}
	err := store.Upsert(context.Background(), bad)
	require.Error(t, err)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Items, 2)
	assert.Equal(t, 1, batchErr.Items[0].Index)
	assert.Equal(t, 2, batchErr.Items[1].Index)

	// Nothing was written, including the valid record.
	results, queryErr := store.Query(context.Background(), []float32{1}, alice, 1, nil)
	require.NoError(t, queryErr)
	assert.Empty(t, results)
}

func TestDeleteRemovesOnlyThatDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.Upsert(ctx, []Record{
		rec(alice, 1, 0, []float32{1, 0}),
		rec(alice, 2, 0, []float32{1, 0}),
		rec(bob, 3, 0, []float32{1, 0}),
	}))

	require.NoError(t, store.Delete(ctx, alice, 1))

	aliceResults, err := store.Query(ctx, []float32{1, 0}, alice, 5, nil)
	require.NoError(t, err)
	require.Len(t, aliceResults, 1)
	assert.Equal(t, "chunk-1-2-0", aliceResults[0].ChunkID)

	bobResults, err := store.Query(ctx, []float32{1, 0}, bob, 5, nil)
	require.NoError(t, err)
	assert.Len(t, bobResults, 1)
}

func TestDeleteMissingDocumentIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	require.NoError(t, store.Upsert(ctx, []Record{rec(alice, 1, 0, []float32{1})}))

	// Bob cannot delete alice's document.
	assert.ErrorIs(t, store.Delete(ctx, bob, 1), apperr.ErrNotFound)

	// Second delete of the same document reports NotFound again.
	require.NoError(t, store.Delete(ctx, alice, 1))
	assert.ErrorIs(t, store.Delete(ctx, alice, 1), apperr.ErrNotFound)
}

func TestCosineSimilarityRange(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Zero(t, cosineSimilarity(nil, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
