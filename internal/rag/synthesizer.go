package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gopikaa27/Rag-Agent/internal/ai"
	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
	"github.com/Gopikaa27/Rag-Agent/internal/model"
	"github.com/Gopikaa27/Rag-Agent/internal/vectorstore"
)

const synthesizeInstruction = "You are an assistant answering questions " +
	"about the user's documents. Answer using only the context passages " +
	"below. If the context does not contain enough information to answer, " +
	"say so plainly instead of guessing. Do not make up facts."

const noContextNotice = "(no matching passages were found in the user's documents)"

// Synthesizer assembles the grounded prompt and calls the language model.
// There is no fallback on failure: without the model there is no answer.
type Synthesizer struct {
	llm           LLM
	contextBudget int
	historyWindow int
}

// NewSynthesizer bounds the passage block at contextBudget runes and the
// conversational window at historyWindow turns.
func NewSynthesizer(llm LLM, contextBudget, historyWindow int) *Synthesizer {
	if contextBudget <= 0 {
		contextBudget = 6000
	}
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Synthesizer{
		llm:           llm,
		contextBudget: contextBudget,
		historyWindow: historyWindow,
	}
}

// Synthesize answers the question from the retrieved passages and recent
// history. Model failure wraps apperr.ErrGenerationFailed.
func (s *Synthesizer) Synthesize(ctx context.Context, history []model.Turn, question string, retrieved []vectorstore.Result) (string, error) {
	contextBlock := s.assembleContext(retrieved)

	messages := make([]ai.ChatMessage, 0, s.historyWindow+2)
	messages = append(messages, ai.ChatMessage{
		Role:    "system",
		Content: synthesizeInstruction + "\n\nContext:\n" + contextBlock,
	})
	for _, turn := range recentTurns(history, s.historyWindow) {
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: model.RoleUser, Content: strings.TrimSpace(question)})

	answer, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrGenerationFailed, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: model returned an empty answer", apperr.ErrGenerationFailed)
	}
	return answer, nil
}

const passageSeparator = "\n---\n"

// assembleContext concatenates passages in ranked order until the budget
// is spent, separators included. Lower-ranked passages are dropped first;
// the best non-empty passage is always included, truncated to the budget
// if it alone exceeds it.
func (s *Synthesizer) assembleContext(retrieved []vectorstore.Result) string {
	if len(retrieved) == 0 {
		return noContextNotice
	}

	var b strings.Builder
	used := 0
	wrote := false
	for _, res := range retrieved {
		passage := strings.TrimSpace(res.Text)
		if passage == "" {
			continue
		}
		cost := len([]rune(passage))
		sepCost := 0
		if wrote {
			sepCost = len(passageSeparator)
		}
		if used+sepCost+cost > s.contextBudget {
			if !wrote {
				b.WriteString(string([]rune(passage)[:s.contextBudget]))
				wrote = true
			}
			break
		}
		if wrote {
			b.WriteString(passageSeparator)
		}
		b.WriteString(passage)
		used += sepCost + cost
		wrote = true
	}
	if !wrote {
		return noContextNotice
	}
	return b.String()
}
