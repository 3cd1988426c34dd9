package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
	"github.com/Gopikaa27/Rag-Agent/internal/chunker"
	"github.com/Gopikaa27/Rag-Agent/internal/extract"
	"github.com/Gopikaa27/Rag-Agent/internal/model"
	"github.com/Gopikaa27/Rag-Agent/internal/vectorstore"
)

// Embedding providers commonly cap the number of inputs per request.
const embeddingBatchSize = 10

var (
	ErrDocumentNotFound = fmt.Errorf("%w: document not found", apperr.ErrNotFound)
	ErrDocumentEmpty    = fmt.Errorf("%w: document has no extractable text", apperr.ErrInvalidArgument)
)

type DocumentStore interface {
	Create(doc *model.Document) error
	ListByUserID(userID uint) ([]model.Document, error)
	GetByIDAndUserID(id, userID uint) (*model.Document, error)
	DeleteByIDAndUserID(id, userID uint) error
	DeleteByID(id uint) error
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbeddingModel() string
}

type DocumentService struct {
	docs         DocumentStore
	embedder     BatchEmbedder
	store        vectorstore.Store
	chunkSize    int
	chunkOverlap int
	log          *zap.Logger
}

func NewDocumentService(docs DocumentStore, embedder BatchEmbedder, store vectorstore.Store, chunkSize, chunkOverlap int, log *zap.Logger) *DocumentService {
	return &DocumentService{
		docs:         docs,
		embedder:     embedder,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		log:          log,
	}
}

type IngestInput struct {
	UserID   uint
	Filename string
	File     io.Reader
}

type IngestResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

// Ingest extracts text from the upload, chunks it, embeds every chunk and
// writes document row plus vectors. The vector write is all-or-nothing; if
// it fails the document row is rolled back so no half-indexed document
// remains visible.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.UserID == 0 || input.File == nil {
		return nil, ErrInvalidInput
	}
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		return nil, ErrInvalidInput
	}

	extracted, err := extract.FromUpload(input.File, filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, ErrDocumentEmpty
	}

	candidates, err := chunker.Split(extracted.Text, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrDocumentEmpty
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	embeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch", apperr.ErrServiceUnavailable)
	}

	doc := &model.Document{
		UserID:         input.UserID,
		Filename:       filename,
		ChunkCount:     len(candidates),
		EmbeddingModel: s.embedder.EmbeddingModel(),
	}
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}

	records := make([]vectorstore.Record, len(candidates))
	for i, c := range candidates {
		meta := map[string]string{
			"filename": filename,
			"seq":      strconv.Itoa(c.SequenceIndex),
		}
		for k, v := range extracted.Metadata {
			meta[k] = v
		}
		records[i] = vectorstore.Record{
			ChunkID:       uuid.NewString(),
			OwnerID:       input.UserID,
			DocumentID:    doc.ID,
			SequenceIndex: c.SequenceIndex,
			Text:          c.Text,
			Vector:        embeddings[i],
			Metadata:      meta,
		}
	}

	if err := s.store.Upsert(ctx, records); err != nil {
		if delErr := s.docs.DeleteByID(doc.ID); delErr != nil {
			s.log.Error("rollback document after failed upsert",
				zap.Uint("document_id", doc.ID), zap.Error(delErr))
		}
		return nil, err
	}

	s.log.Info("document ingested",
		zap.Uint("user_id", input.UserID),
		zap.Uint("document_id", doc.ID),
		zap.Int("chunks", len(records)))

	return &IngestResult{Document: *doc, ChunkCount: len(records)}, nil
}

func (s *DocumentService) ListDocuments(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByUserID(userID)
}

// DeleteDocument removes the document row and its vectors. A store that
// has no vectors for the document is tolerated: the row is authoritative.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, documentID uint) error {
	if userID == 0 || documentID == 0 {
		return ErrInvalidInput
	}

	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.store.Delete(ctx, userID, documentID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return s.docs.DeleteByIDAndUserID(documentID, userID)
}
