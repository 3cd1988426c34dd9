package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
	"github.com/Gopikaa27/Rag-Agent/internal/model"
	"github.com/Gopikaa27/Rag-Agent/internal/vectorstore"
)

type fakeDocumentStore struct {
	docs    map[uint]*model.Document
	nextID  uint
	deleted []uint
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: make(map[uint]*model.Document), nextID: 1}
}

func (f *fakeDocumentStore) Create(doc *model.Document) error {
	doc.ID = f.nextID
	f.nextID++
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocumentStore) ListByUserID(userID uint) ([]model.Document, error) {
	var out []model.Document
	for _, d := range f.docs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocumentStore) GetByIDAndUserID(id, userID uint) (*model.Document, error) {
	d, ok := f.docs[id]
	if !ok || d.UserID != userID {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDocumentStore) DeleteByIDAndUserID(id, userID uint) error {
	d, ok := f.docs[id]
	if !ok || d.UserID != userID {
		return errors.New("not found")
	}
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocumentStore) DeleteByID(id uint) error {
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeBatchEmbedder struct {
	dims int
	err  error
}

func (f *fakeBatchEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, f.dims)
		vec[0] = float32(len(texts[i]))
		out[i] = vec
	}
	return out, nil
}

func (f *fakeBatchEmbedder) EmbeddingModel() string { return "test-embedding-model" }

type failingStore struct {
	vectorstore.Store
}

func (failingStore) Upsert(context.Context, []vectorstore.Record) error {
	return apperr.ErrStorageUnavailable
}

func newDocFixture(store vectorstore.Store) (*fakeDocumentStore, *DocumentService) {
	docs := newFakeDocumentStore()
	svc := NewDocumentService(docs, &fakeBatchEmbedder{dims: 3}, store, 100, 20, zap.NewNop())
	return docs, svc
}

func TestIngestTextDocument(t *testing.T) {
	store := vectorstore.NewMemoryStore(20)
	docs, svc := newDocFixture(store)
	body := strings.Repeat("some sentence about gophers. ", 20)

	result, err := svc.Ingest(context.Background(), IngestInput{
		UserID:   1,
		Filename: "notes.txt",
		File:     strings.NewReader(body),
	})
	require.NoError(t, err)
	assert.NotZero(t, result.Document.ID)
	assert.Greater(t, result.ChunkCount, 1)
	assert.Equal(t, result.ChunkCount, result.Document.ChunkCount)
	assert.Equal(t, "test-embedding-model", result.Document.EmbeddingModel)

	stored, ok := docs.docs[result.Document.ID]
	require.True(t, ok)
	assert.Equal(t, "notes.txt", stored.Filename)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	store := vectorstore.NewMemoryStore(20)
	_, svc := newDocFixture(store)

	_, err := svc.Ingest(context.Background(), IngestInput{
		UserID:   1,
		Filename: "resume.docx",
		File:     strings.NewReader("irrelevant"),
	})
	assert.ErrorIs(t, err, apperr.ErrUnsupportedFormat)
}

func TestIngestEmptyDocument(t *testing.T) {
	store := vectorstore.NewMemoryStore(20)
	_, svc := newDocFixture(store)

	_, err := svc.Ingest(context.Background(), IngestInput{
		UserID:   1,
		Filename: "blank.txt",
		File:     strings.NewReader("   \n\t  "),
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestIngestRollsBackDocumentOnUpsertFailure(t *testing.T) {
	docs, svc := newDocFixture(failingStore{})

	_, err := svc.Ingest(context.Background(), IngestInput{
		UserID:   1,
		Filename: "notes.txt",
		File:     strings.NewReader("enough text to produce at least one chunk"),
	})
	require.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	assert.Empty(t, docs.docs, "document row must not survive a failed vector write")
	assert.Len(t, docs.deleted, 1)
}

func TestIngestEmbeddingFailure(t *testing.T) {
	docs := newFakeDocumentStore()
	svc := NewDocumentService(docs, &fakeBatchEmbedder{err: apperr.ErrRateLimited}, vectorstore.NewMemoryStore(20), 100, 20, zap.NewNop())

	_, err := svc.Ingest(context.Background(), IngestInput{
		UserID:   1,
		Filename: "notes.txt",
		File:     strings.NewReader("enough text to produce at least one chunk"),
	})
	require.ErrorIs(t, err, apperr.ErrRateLimited)
	assert.Empty(t, docs.docs, "no document row before embeddings exist")
}

func TestDeleteDocument(t *testing.T) {
	store := vectorstore.NewMemoryStore(20)
	docs, svc := newDocFixture(store)

	result, err := svc.Ingest(context.Background(), IngestInput{
		UserID:   1,
		Filename: "notes.txt",
		File:     strings.NewReader("enough text to produce at least one chunk"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDocument(context.Background(), 1, result.Document.ID))
	assert.Empty(t, docs.docs)

	hits, err := store.Query(context.Background(), []float32{1, 0, 0}, 1, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits, "vectors must be gone after document delete")
}

func TestDeleteDocumentNotFound(t *testing.T) {
	store := vectorstore.NewMemoryStore(20)
	_, svc := newDocFixture(store)

	err := svc.DeleteDocument(context.Background(), 1, 404)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteDocumentForeignOwner(t *testing.T) {
	store := vectorstore.NewMemoryStore(20)
	_, svc := newDocFixture(store)

	result, err := svc.Ingest(context.Background(), IngestInput{
		UserID:   1,
		Filename: "notes.txt",
		File:     strings.NewReader("enough text to produce at least one chunk"),
	})
	require.NoError(t, err)

	err = svc.DeleteDocument(context.Background(), 2, result.Document.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
