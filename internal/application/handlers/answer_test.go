package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/mocks"
	"github.com/bobibcgroup/qadim/internal/domain/services"
	"github.com/bobibcgroup/qadim/internal/queue"
)

func answerJob(t *testing.T, id string, payload queue.AnswerPayload) *entities.Job {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &entities.Job{
		ID:          id,
		Queue:       queue.QueueAnswerGeneration,
		Payload:     data,
		MaxAttempts: 3,
		Status:      entities.JobActive,
	}
}

func newAnswerHandler(generator *mocks.Generator, vectorDB *mocks.VectorDB, db *mocks.RelationalDB) *AnswerHandler {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}
	retrieval := services.NewRetrievalService(embedder, vectorDB)
	answers := services.NewAnswerService(retrieval, generator, nil)
	return NewAnswerHandler(answers, db, nil, nil)
}

func TestAnswerHandler_Handle(t *testing.T) {
	db := &mocks.RelationalDB{}
	vectorDB := &mocks.VectorDB{
		Candidates: []entities.Candidate{
			{
				Document:       entities.Document{ID: "d1", SourceID: "s1", Content: "The treaty was signed in 1920."},
				SourceTitle:    "State Archive",
				AuthorityLevel: entities.AuthorityOfficial,
				Status:         entities.SourceVerified,
				Credibility:    90,
				Year:           2010,
			},
		},
	}
	generator := &mocks.Generator{Summary: "The treaty was signed in 1920 [1]."}
	handler := newAnswerHandler(generator, vectorDB, db)

	job := answerJob(t, "job-1", queue.AnswerPayload{
		QuestionID:   "q-1",
		QuestionText: "When was the treaty signed?",
		Language:     entities.LanguageEnglish,
		Persona:      entities.PersonaNeutral,
	})

	err := handler.Handle(context.Background(), job)
	require.NoError(t, err)

	require.Len(t, db.Answers, 1)
	saved := db.Answers[0]
	assert.Equal(t, "job-1", saved.JobID)
	assert.Equal(t, "q-1", saved.QuestionID)
	assert.Len(t, saved.Citations, 1)
	assert.Equal(t, "s1", saved.Citations[0].SourceID)
}

func TestAnswerHandler_Handle_ChainsNotification(t *testing.T) {
	db := &mocks.RelationalDB{}
	store := &mocks.JobStore{}
	notify := queue.New(store, nil)

	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.1}}
	vectorDB := &mocks.VectorDB{
		Candidates: []entities.Candidate{
			{
				Document:       entities.Document{ID: "d1", SourceID: "s1", Content: "evidence"},
				AuthorityLevel: entities.AuthorityPress,
				Status:         entities.SourceVerified,
				Credibility:    70,
			},
		},
	}
	retrieval := services.NewRetrievalService(embedder, vectorDB)
	answers := services.NewAnswerService(retrieval, &mocks.Generator{Summary: "Answer [1]."}, nil)
	handler := NewAnswerHandler(answers, db, notify, nil)

	job := answerJob(t, "job-1", queue.AnswerPayload{
		QuestionID:   "q-1",
		QuestionText: "What happened?",
		Language:     entities.LanguageEnglish,
		Persona:      entities.PersonaNeutral,
		NotifyEmail:  "user@example.org",
	})

	require.NoError(t, handler.Handle(context.Background(), job))

	chained, err := store.ListJobs(context.Background(), queue.QueueNotification, "", 10)
	require.NoError(t, err)
	require.Len(t, chained, 1)

	var payload queue.NotifyPayload
	require.NoError(t, json.Unmarshal(chained[0].Payload, &payload))
	assert.Equal(t, "user@example.org", payload.To)
	assert.Equal(t, TemplateAnswerReady, payload.TemplateID)
}

func TestAnswerHandler_Handle_MalformedPayloadIsFatal(t *testing.T) {
	db := &mocks.RelationalDB{}
	handler := newAnswerHandler(&mocks.Generator{}, &mocks.VectorDB{}, db)

	job := &entities.Job{ID: "job-1", Payload: []byte("{not json")}
	err := handler.Handle(context.Background(), job)

	require.Error(t, err)
	assert.True(t, faults.IsFatal(err))
	assert.Empty(t, db.Answers)
}

func TestAnswerHandler_Handle_Idempotent(t *testing.T) {
	db := &mocks.RelationalDB{}
	generator := &mocks.Generator{Summary: "Answer text [1]."}
	vectorDB := &mocks.VectorDB{
		Candidates: []entities.Candidate{
			{
				Document:       entities.Document{ID: "d1", SourceID: "s1", Content: "evidence"},
				AuthorityLevel: entities.AuthorityPress,
				Status:         entities.SourceVerified,
				Credibility:    70,
			},
		},
	}
	handler := newAnswerHandler(generator, vectorDB, db)

	job := answerJob(t, "job-1", queue.AnswerPayload{
		QuestionID:   "q-1",
		QuestionText: "What happened?",
		Language:     entities.LanguageEnglish,
		Persona:      entities.PersonaNeutral,
	})

	require.NoError(t, handler.Handle(context.Background(), job))
	require.NoError(t, handler.Handle(context.Background(), job))

	// The second run short-circuits: one answer, one generation.
	assert.Len(t, db.Answers, 1)
	assert.Equal(t, 1, generator.GenerateCallCount)
}

func TestAnswerHandler_Handle_GenerationFailureIsRetryable(t *testing.T) {
	db := &mocks.RelationalDB{}
	generator := &mocks.Generator{Err: errors.New("rate limited")}
	vectorDB := &mocks.VectorDB{
		Candidates: []entities.Candidate{
			{
				Document:       entities.Document{ID: "d1", SourceID: "s1", Content: "evidence"},
				AuthorityLevel: entities.AuthorityPress,
				Status:         entities.SourceVerified,
				Credibility:    70,
			},
		},
	}
	handler := newAnswerHandler(generator, vectorDB, db)

	job := answerJob(t, "job-1", queue.AnswerPayload{
		QuestionID:   "q-1",
		QuestionText: "What happened?",
		Language:     entities.LanguageEnglish,
		Persona:      entities.PersonaNeutral,
	})

	err := handler.Handle(context.Background(), job)
	require.Error(t, err)

	var genErr *faults.GenerationError
	assert.ErrorAs(t, err, &genErr)
	assert.False(t, faults.IsFatal(err))
	assert.Empty(t, db.Answers)
}

func TestAnswerHandler_Handle_StoreFailure(t *testing.T) {
	db := &mocks.RelationalDB{SaveAnswerErr: errors.New("disk full")}
	generator := &mocks.Generator{Summary: "Answer [1]."}
	vectorDB := &mocks.VectorDB{
		Candidates: []entities.Candidate{
			{
				Document:       entities.Document{ID: "d1", SourceID: "s1", Content: "evidence"},
				AuthorityLevel: entities.AuthorityPress,
				Status:         entities.SourceVerified,
				Credibility:    70,
			},
		},
	}
	handler := newAnswerHandler(generator, vectorDB, db)

	job := answerJob(t, "job-1", queue.AnswerPayload{
		QuestionID:   "q-1",
		QuestionText: "What happened?",
		Language:     entities.LanguageEnglish,
		Persona:      entities.PersonaNeutral,
	})

	err := handler.Handle(context.Background(), job)
	require.Error(t, err)

	var storeErr *faults.StoreWriteError
	assert.ErrorAs(t, err, &storeErr)
	assert.False(t, faults.IsFatal(err))
}

func TestAnswerHandler_Handle_NoEvidence(t *testing.T) {
	db := &mocks.RelationalDB{}
	generator := &mocks.Generator{Summary: "should not be called"}
	handler := newAnswerHandler(generator, &mocks.VectorDB{}, db)

	job := answerJob(t, "job-1", queue.AnswerPayload{
		QuestionID:   "q-1",
		QuestionText: "Unknown topic?",
		Language:     entities.LanguageEnglish,
		Persona:      entities.PersonaNeutral,
	})

	require.NoError(t, handler.Handle(context.Background(), job))

	require.Len(t, db.Answers, 1)
	assert.Equal(t, services.NoEvidenceSummary, db.Answers[0].Summary)
	assert.Empty(t, db.Answers[0].Citations)
	assert.Zero(t, db.Answers[0].Confidence)
	assert.Zero(t, db.Answers[0].Controversy)
	assert.Zero(t, generator.GenerateCallCount)
}
