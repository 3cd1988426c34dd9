// Package extract turns uploaded files into plain text plus basic metadata.
// Formats are dispatched on the filename extension; anything else fails with
// apperr.ErrUnsupportedFormat before a single byte is parsed.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
)

// Result is extracted plain text with source metadata. Metadata always
// carries "source" (the base filename); PDFs add "pages".
type Result struct {
	Text     string
	Metadata map[string]string
}

// FromUpload extracts text from an uploaded file based on its extension.
// Supported: .pdf, .txt, .md.
func FromUpload(r io.Reader, filename string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return fromPDF(r, filename)
	case ".txt", ".md":
		return fromPlain(r, filename)
	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnsupportedFormat, ext)
	}
}

func fromPlain(r io.Reader, filename string) (*Result, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	return &Result{
		Text:     string(b),
		Metadata: map[string]string{"source": filepath.Base(filename)},
	}, nil
}

func fromPDF(r io.Reader, filename string) (*Result, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty file", apperr.ErrCorruptFile)
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCorruptFile, err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCorruptFile, err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrCorruptFile, err)
	}

	return &Result{
		Text: string(out),
		Metadata: map[string]string{
			"source": filepath.Base(filename),
			"pages":  strconv.Itoa(pdfReader.NumPage()),
		},
	}, nil
}
