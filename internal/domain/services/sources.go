package services

import (
	"context"
	"fmt"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
)

// SourceService handles manual source status transitions. Ingestion verifies
// sources as a side effect; everything after that (contesting, demoting,
// re-verifying) goes through here so both stores stay in agreement.
type SourceService struct {
	db       ports.RelationalDB
	vectorDB ports.VectorDB
}

// NewSourceService creates a new source service.
func NewSourceService(db ports.RelationalDB, vectorDB ports.VectorDB) *SourceService {
	return &SourceService{
		db:       db,
		vectorDB: vectorDB,
	}
}

// SetStatus transitions a source and rewrites the denormalized status on its
// already-ingested documents. A demoted source's documents drop out of
// verified retrieval immediately; the documents themselves are kept.
func (s *SourceService) SetStatus(ctx context.Context, sourceID string, status entities.SourceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid source status: %s", status)
	}

	if _, err := s.db.FindSourceByID(ctx, sourceID); err != nil {
		return fmt.Errorf("loading source: %w", err)
	}

	if err := s.db.UpdateSourceStatus(ctx, sourceID, status); err != nil {
		return fmt.Errorf("updating source status: %w", err)
	}

	if err := s.vectorDB.UpdateSourceStatus(ctx, sourceID, status); err != nil {
		return fmt.Errorf("updating document payloads: %w", err)
	}

	_ = s.db.LogAction(ctx, "source.status", sourceID, map[string]any{
		"status": string(status),
	})

	return nil
}
