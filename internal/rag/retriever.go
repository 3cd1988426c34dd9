package rag

import (
	"context"
	"fmt"

	"github.com/Gopikaa27/Rag-Agent/internal/model"
	"github.com/Gopikaa27/Rag-Agent/internal/vectorstore"
)

// Retriever orchestrates reformulation, query embedding, and the
// owner-filtered index lookup.
type Retriever struct {
	reformulator *Reformulator
	embedder     Embedder
	store        vectorstore.Store
}

func NewRetriever(reformulator *Reformulator, embedder Embedder, store vectorstore.Store) *Retriever {
	return &Retriever{
		reformulator: reformulator,
		embedder:     embedder,
		store:        store,
	}
}

// Retrieve returns the owner's topK most similar chunks for the question,
// reformulated against history. An owner with no ingested chunks gets an
// empty result, not an error: "no context" is an answerable state.
func (r *Retriever) Retrieve(ctx context.Context, ownerID uint, history []model.Turn, question string, topK int) ([]vectorstore.Result, error) {
	query := r.reformulator.Reformulate(ctx, history, question)

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	results, err := r.store.Query(ctx, vector, ownerID, topK, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	return results, nil
}
