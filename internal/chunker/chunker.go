// Package chunker splits extracted text into overlapping segments sized for
// embedding. Splitting is deterministic: identical input and configuration
// always yield identical candidates, which keeps re-ingestion idempotent.
package chunker

import (
	"fmt"
	"strings"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
)

// Candidate is one segment produced by Split, before embedding.
type Candidate struct {
	Text          string
	SequenceIndex int
}

// Split cuts text into segments of at most size runes, repeating the last
// overlap runes of each segment at the start of the next one. Cuts prefer a
// paragraph break, then a sentence end, then any whitespace inside the
// window; when the window contains no boundary at all the text is cut hard
// at size so segments never grow unbounded.
//
// Empty or all-whitespace input yields no candidates and no error.
func Split(text string, size, overlap int) ([]Candidate, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", apperr.ErrInvalidConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d",
			apperr.ErrInvalidConfiguration, overlap, size)
	}

	runes := []rune(text)
	if len(strings.TrimSpace(text)) == 0 {
		return nil, nil
	}

	var out []Candidate
	seq := 0
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}

		segment := strings.TrimSpace(string(runes[start:end]))
		if segment != "" {
			out = append(out, Candidate{Text: segment, SequenceIndex: seq})
			seq++
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			// overlap would stall the scan; always make progress
			next = start + 1
		}
		start = next
	}
	return out, nil
}

// cutPoint picks the split position in (start, limit]. Only boundaries past
// the first quarter of the window count, so boundary-chasing cannot produce
// degenerate slivers.
func cutPoint(runes []rune, start, limit int) int {
	floor := start + (limit-start)/4

	if p := lastParagraphBreak(runes, floor, limit); p > 0 {
		return p
	}
	if p := lastSentenceEnd(runes, floor, limit); p > 0 {
		return p
	}
	if p := lastWhitespace(runes, floor, limit); p > 0 {
		return p
	}
	return limit
}

// lastParagraphBreak returns the position just past the last "\n\n" in
// [floor, limit), or 0 when none exists.
func lastParagraphBreak(runes []rune, floor, limit int) int {
	for i := limit - 1; i > floor; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return 0
}

// lastSentenceEnd returns the position just past the last terminal
// punctuation followed by whitespace in [floor, limit), or 0.
func lastSentenceEnd(runes []rune, floor, limit int) int {
	for i := limit - 1; i > floor; i-- {
		if !isSpace(runes[i]) {
			continue
		}
		switch runes[i-1] {
		case '.', '!', '?':
			return i
		}
	}
	return 0
}

// lastWhitespace returns the position of the last whitespace rune in
// [floor, limit), or 0. Cutting there avoids mid-word splits.
func lastWhitespace(runes []rune, floor, limit int) int {
	for i := limit - 1; i > floor; i-- {
		if isSpace(runes[i]) {
			return i
		}
	}
	return 0
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
