package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/mocks"
)

func answerRequest() AnswerRequest {
	return AnswerRequest{
		QuestionID:  "q1",
		Question:    "When did the Beirut port open?",
		Language:    entities.LanguageEnglish,
		Persona:     entities.PersonaNeutral,
		RequesterID: "u1",
	}
}

func verifiedCandidate(sourceID string, credibility int) entities.Candidate {
	return entities.Candidate{
		Document:        entities.Document{SourceID: sourceID, Content: "The port opened in 1895 after five years of construction."},
		SourceTitle:     "Port Authority Records",
		AuthorityLevel:  entities.AuthorityOfficial,
		Status:          entities.SourceVerified,
		Credibility:     credibility,
		Year:            2015,
		SimilarityScore: 0.9,
	}
}

func TestAnswerService_Generate(t *testing.T) {
	generator := &mocks.Generator{Summary: "The port opened in 1895 [1]."}
	retrieval := NewRetrievalService(
		&mocks.Embedder{EmbeddingResult: []float32{0.1}},
		&mocks.VectorDB{Candidates: []entities.Candidate{verifiedCandidate("s1", 95)}},
	)
	svc := NewAnswerService(retrieval, generator, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.nowFunc = func() time.Time { return now }

	answer, err := svc.Generate(context.Background(), answerRequest())
	require.NoError(t, err)
	require.NotNil(t, answer)

	assert.NotEmpty(t, answer.ID)
	assert.Equal(t, "q1", answer.QuestionID)
	assert.Equal(t, "The port opened in 1895 [1].", answer.Summary)
	assert.Equal(t, entities.PersonaNeutral, answer.Persona)
	assert.Equal(t, now, answer.CreatedAt)

	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "s1", answer.Citations[0].SourceID)

	// Single official recent source: 95 + 20 + 10 clamps at 100.
	assert.Equal(t, 100, answer.Confidence)
	assert.Zero(t, answer.Controversy)

	assert.Equal(t, 1, generator.GenerateCallCount)
	assert.Contains(t, generator.LastSystemPrompt, "Neutral Mode")
	assert.Contains(t, generator.LastUserPrompt, "When did the Beirut port open?")
}

func TestAnswerService_Generate_NoEvidence(t *testing.T) {
	generator := &mocks.Generator{Summary: "should never be used"}
	retrieval := NewRetrievalService(&mocks.Embedder{EmbeddingResult: []float32{0.1}}, &mocks.VectorDB{})
	svc := NewAnswerService(retrieval, generator, nil)

	answer, err := svc.Generate(context.Background(), answerRequest())
	require.NoError(t, err)
	require.NotNil(t, answer)

	assert.Equal(t, NoEvidenceSummary, answer.Summary)
	assert.Empty(t, answer.Citations)
	assert.NotNil(t, answer.Citations)
	assert.Zero(t, answer.Confidence)
	assert.Zero(t, answer.Controversy)
	assert.Zero(t, generator.GenerateCallCount, "no-evidence path must not invoke the generator")
}

func TestAnswerService_Generate_RetrievalFailure(t *testing.T) {
	retrieval := NewRetrievalService(&mocks.Embedder{Err: errors.New("rate limited")}, &mocks.VectorDB{})
	svc := NewAnswerService(retrieval, &mocks.Generator{}, nil)

	_, err := svc.Generate(context.Background(), answerRequest())
	require.Error(t, err)

	var retrievalErr *faults.RetrievalError
	assert.ErrorAs(t, err, &retrievalErr)
}

func TestAnswerService_Generate_GenerationFailure(t *testing.T) {
	retrieval := NewRetrievalService(
		&mocks.Embedder{EmbeddingResult: []float32{0.1}},
		&mocks.VectorDB{Candidates: []entities.Candidate{verifiedCandidate("s1", 80)}},
	)
	svc := NewAnswerService(retrieval, &mocks.Generator{Err: errors.New("model overloaded")}, nil)

	answer, err := svc.Generate(context.Background(), answerRequest())
	require.Error(t, err)
	assert.Nil(t, answer, "no partial answer on generation failure")

	var genErr *faults.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestAnswerService_Generate_EmptyCompletion(t *testing.T) {
	retrieval := NewRetrievalService(
		&mocks.Embedder{EmbeddingResult: []float32{0.1}},
		&mocks.VectorDB{Candidates: []entities.Candidate{verifiedCandidate("s1", 80)}},
	)
	svc := NewAnswerService(retrieval, &mocks.Generator{Summary: "   \n"}, nil)

	_, err := svc.Generate(context.Background(), answerRequest())
	require.Error(t, err)

	var genErr *faults.GenerationError
	assert.ErrorAs(t, err, &genErr)
}

func TestUncitedCount(t *testing.T) {
	assert.Equal(t, 0, uncitedCount("Cites [1] and [2].", 2))
	assert.Equal(t, 1, uncitedCount("Cites only [1].", 2))
	assert.Equal(t, 2, uncitedCount("Cites nothing.", 2))
	// Out-of-range markers do not count as coverage.
	assert.Equal(t, 2, uncitedCount("Cites [7].", 2))
	// Duplicates cover a position once.
	assert.Equal(t, 1, uncitedCount("Cites [1] twice [1].", 2))
}
