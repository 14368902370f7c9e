package mocks

import (
	"context"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// VectorDB is a mock implementation of ports.VectorDB.
type VectorDB struct {
	Candidates []entities.Candidate
	Err        error

	// Call tracking
	EnsureCollectionCallCount int
	SaveDocumentCallCount     int
	SavedDocuments            []entities.Document
	SavedSources              []entities.Source
	SearchVerifiedCallCount   int
	LastSearchLimit           int
	DeleteBySourceCallCount   int
	StatusUpdates             map[string]entities.SourceStatus
}

// EnsureCollection creates the collection if it doesn't exist.
func (m *VectorDB) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	m.EnsureCollectionCallCount++
	return m.Err
}

// SaveDocument stores a single document.
func (m *VectorDB) SaveDocument(ctx context.Context, doc entities.Document, source entities.Source) error {
	return m.SaveDocumentBatch(ctx, []entities.Document{doc}, source)
}

// SaveDocumentBatch stores multiple documents.
func (m *VectorDB) SaveDocumentBatch(ctx context.Context, docs []entities.Document, source entities.Source) error {
	m.SaveDocumentCallCount++
	if m.Err != nil {
		return m.Err
	}
	m.SavedDocuments = append(m.SavedDocuments, docs...)
	m.SavedSources = append(m.SavedSources, source)
	return nil
}

// SearchVerified returns the configured candidates, truncated to limit.
func (m *VectorDB) SearchVerified(ctx context.Context, embedding []float32, limit int) ([]entities.Candidate, error) {
	m.SearchVerifiedCallCount++
	m.LastSearchLimit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	if limit < len(m.Candidates) {
		return m.Candidates[:limit], nil
	}
	return m.Candidates, nil
}

// UpdateSourceStatus records the status rewrite for the source's documents.
func (m *VectorDB) UpdateSourceStatus(ctx context.Context, sourceID string, status entities.SourceStatus) error {
	if m.Err != nil {
		return m.Err
	}
	if m.StatusUpdates == nil {
		m.StatusUpdates = make(map[string]entities.SourceStatus)
	}
	m.StatusUpdates[sourceID] = status
	return nil
}

// DeleteBySource removes all documents owned by a source.
func (m *VectorDB) DeleteBySource(ctx context.Context, sourceID string) error {
	m.DeleteBySourceCallCount++
	return m.Err
}

// Close releases the underlying connection.
func (m *VectorDB) Close() error {
	return nil
}
