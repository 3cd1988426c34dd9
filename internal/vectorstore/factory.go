package vectorstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
	"github.com/Gopikaa27/Rag-Agent/internal/config"
)

// New builds the configured backend. "mysql" reuses the primary database,
// "qdrant" talks to a dedicated vector engine, "memory" is for tests and
// throwaway setups.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.Logger) (Store, error) {
	maxK := cfg.RAG.MaxTopK

	switch cfg.VectorStore.Backend {
	case "mysql", "":
		log.Info("vector store backend: mysql")
		return NewMySQLStore(db, maxK), nil
	case "qdrant":
		log.Info("vector store backend: qdrant",
			zap.String("host", cfg.VectorStore.Qdrant.Host),
			zap.String("collection", cfg.VectorStore.Qdrant.Collection))
		return NewQdrantStore(ctx, QdrantOptions{
			Host:       cfg.VectorStore.Qdrant.Host,
			Port:       cfg.VectorStore.Qdrant.Port,
			Collection: cfg.VectorStore.Qdrant.Collection,
			VectorSize: cfg.VectorStore.Qdrant.VectorSize,
			UseTLS:     cfg.VectorStore.Qdrant.UseTLS,
			MaxK:       maxK,
		})
	case "memory":
		log.Warn("vector store backend: memory, data is not persisted")
		return NewMemoryStore(maxK), nil
	default:
		return nil, fmt.Errorf("%w: unknown vector store backend %q", apperr.ErrInvalidConfiguration, cfg.VectorStore.Backend)
	}
}
