package rag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gopikaa27/Rag-Agent/internal/vectorstore"
)

func seededStore(t *testing.T) vectorstore.Store {
	t.Helper()
	store := vectorstore.NewMemoryStore(20)
	records := []vectorstore.Record{
		{ChunkID: "a-0", OwnerID: 1, DocumentID: 1, SequenceIndex: 0, Text: "alice chunk zero", Vector: []float32{1, 0, 0}},
		{ChunkID: "a-1", OwnerID: 1, DocumentID: 1, SequenceIndex: 1, Text: "alice chunk one", Vector: []float32{0.9, 0.1, 0}},
		{ChunkID: "a-2", OwnerID: 1, DocumentID: 1, SequenceIndex: 2, Text: "alice chunk two", Vector: []float32{0, 1, 0}},
	}
	require.NoError(t, store.Upsert(context.Background(), records))
	return store
}

func TestRetrieveOwnerScoped(t *testing.T) {
	store := seededStore(t)
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	reformulator := NewReformulator(&fakeLLM{reply: "standalone question"}, 10, zap.NewNop())
	retriever := NewRetriever(reformulator, embedder, store)

	results, err := retriever.Retrieve(context.Background(), 1, nil, "query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alice chunk zero", results[0].Text)
	assert.Equal(t, "alice chunk one", results[1].Text)

	empty, err := retriever.Retrieve(context.Background(), 2, nil, "query", 2)
	require.NoError(t, err)
	assert.Empty(t, empty, "owner without chunks gets no results")
}

func TestRetrieveEmbedsReformulatedQuery(t *testing.T) {
	store := seededStore(t)
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	reformulator := NewReformulator(&fakeLLM{reply: "what is in chapter two of the handbook?"}, 10, zap.NewNop())
	retriever := NewRetriever(reformulator, embedder, store)
	history := turns("tell me about the handbook", "the handbook has three chapters")

	_, err := retriever.Retrieve(context.Background(), 1, history, "and chapter two?", 3)
	require.NoError(t, err)
	require.Len(t, embedder.texts, 1)
	assert.Equal(t, "what is in chapter two of the handbook?", embedder.texts[0])
}

func TestRetrieveSurvivesReformulationFailure(t *testing.T) {
	store := seededStore(t)
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	reformulator := NewReformulator(&fakeLLM{err: errModelDown}, 10, zap.NewNop())
	retriever := NewRetriever(reformulator, embedder, store)
	history := turns("hello", "hi")

	results, err := retriever.Retrieve(context.Background(), 1, history, "raw question", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, embedder.texts, 1)
	assert.Equal(t, "raw question", embedder.texts[0])
}

func TestRetrieveEmbeddingErrorPropagates(t *testing.T) {
	store := seededStore(t)
	embedder := &fakeEmbedder{err: fmt.Errorf("embedding backend unreachable")}
	reformulator := NewReformulator(&fakeLLM{reply: "q"}, 10, zap.NewNop())
	retriever := NewRetriever(reformulator, embedder, store)

	_, err := retriever.Retrieve(context.Background(), 1, nil, "query", 1)
	assert.Error(t, err)
}

func TestRetrieveInvalidTopK(t *testing.T) {
	store := seededStore(t)
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	reformulator := NewReformulator(&fakeLLM{reply: "q"}, 10, zap.NewNop())
	retriever := NewRetriever(reformulator, embedder, store)

	_, err := retriever.Retrieve(context.Background(), 1, nil, "query", 0)
	assert.Error(t, err)
}
