// Package rag wires the retrieval-augmented answering pipeline:
// history-aware query reformulation, owner-isolated similarity search, and
// context-grounded answer synthesis. Components receive history and
// configuration as explicit arguments; nothing reads ambient session state.
package rag

import (
	"context"

	"github.com/Gopikaa27/Rag-Agent/internal/ai"
	"github.com/Gopikaa27/Rag-Agent/internal/model"
)

// LLM is the language model surface the pipeline depends on.
type LLM interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// Embedder maps text to a fixed-dimensionality vector. Deterministic for a
// given model version.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// recentTurns returns the last window turns, oldest first. The bounded
// window keeps prompt cost flat and avoids drift from stale context.
func recentTurns(history []model.Turn, window int) []model.Turn {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}
