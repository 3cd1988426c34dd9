package rag

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Gopikaa27/Rag-Agent/internal/ai"
	"github.com/Gopikaa27/Rag-Agent/internal/model"
)

const reformulateInstruction = "Given the conversation so far, rewrite the " +
	"user's latest question as a single self-contained question that can be " +
	"understood without the conversation. Resolve pronouns and references " +
	"to earlier turns. Reply with the rewritten question only, no " +
	"explanation and no quotes."

// Reformulator rewrites context-dependent follow-up questions into
// standalone queries before retrieval. Embedding a raw follow-up like
// "what about section 3?" frequently misses the relevant chunks.
type Reformulator struct {
	llm    LLM
	window int
	log    *zap.Logger
}

func NewReformulator(llm LLM, window int, log *zap.Logger) *Reformulator {
	if window <= 0 {
		window = 10
	}
	return &Reformulator{llm: llm, window: window, log: log}
}

// Reformulate returns a self-contained query for retrieval. With no history
// the question is already standalone and comes back unchanged. When the
// model call fails the raw question is returned instead: retrieval quality
// drops but the query does not.
func (r *Reformulator) Reformulate(ctx context.Context, history []model.Turn, question string) string {
	question = strings.TrimSpace(question)
	if len(history) == 0 {
		return question
	}

	messages := make([]ai.ChatMessage, 0, r.window+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: reformulateInstruction})
	for _, turn := range recentTurns(history, r.window) {
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: model.RoleUser, Content: question})

	rewritten, err := r.llm.Complete(ctx, messages)
	if err != nil {
		r.log.Warn("reformulation failed, using raw question", zap.Error(err))
		return question
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question
	}
	return rewritten
}
