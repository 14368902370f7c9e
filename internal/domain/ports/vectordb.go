package ports

import (
	"context"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// VectorDB defines the interface for vector database operations over
// documents.
type VectorDB interface {
	// EnsureCollection creates the document collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// SaveDocument stores a document with its embedding and the denormalized
	// metadata of its owning source.
	SaveDocument(ctx context.Context, doc entities.Document, source entities.Source) error

	// SaveDocumentBatch stores multiple documents owned by the same source.
	SaveDocumentBatch(ctx context.Context, docs []entities.Document, source entities.Source) error

	// SearchVerified performs a similarity search restricted to documents
	// whose source status is VERIFIED, ordered by descending similarity.
	SearchVerified(ctx context.Context, embedding []float32, limit int) ([]entities.Candidate, error)

	// UpdateSourceStatus rewrites the denormalized source status on every
	// document owned by the source, so a status change is visible to
	// retrieval without re-ingesting.
	UpdateSourceStatus(ctx context.Context, sourceID string, status entities.SourceStatus) error

	// DeleteBySource removes all documents owned by a source.
	DeleteBySource(ctx context.Context, sourceID string) error

	// Close releases the underlying connection.
	Close() error
}
