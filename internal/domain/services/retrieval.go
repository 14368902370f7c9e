package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
)

// DefaultRetrievalLimit is the default number of candidates to retrieve.
const DefaultRetrievalLimit = 10

// RetrievalService ranks documents of VERIFIED sources by similarity to a
// query.
type RetrievalService struct {
	embedder ports.Embedder
	vectorDB ports.VectorDB
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(embedder ports.Embedder, vectorDB ports.VectorDB) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		vectorDB: vectorDB,
	}
}

// Retrieve embeds the query and returns the top candidates sorted by
// descending similarity; ties break on source credibility, then document
// recency. An empty result is not an error: no verified evidence exists for
// the query. Embedding or store failures surface as a RetrievalError, which
// the job layer treats as retryable.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, limit int) ([]entities.Candidate, error) {
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &faults.RetrievalError{Err: fmt.Errorf("generating query embedding: %w", err)}
	}

	candidates, err := s.vectorDB.SearchVerified(ctx, embedding, limit)
	if err != nil {
		return nil, &faults.RetrievalError{Err: fmt.Errorf("searching documents: %w", err)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].SimilarityScore != candidates[j].SimilarityScore {
			return candidates[i].SimilarityScore > candidates[j].SimilarityScore
		}
		if candidates[i].Credibility != candidates[j].Credibility {
			return candidates[i].Credibility > candidates[j].Credibility
		}
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	return candidates, nil
}
