package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
)

// NoEvidenceSummary is the fixed summary returned when retrieval finds no
// verified documents. This path is a successful outcome, not a failure.
const NoEvidenceSummary = "I couldn't find relevant information to answer your question. Please try rephrasing or check back later as we continue to expand our knowledge base."

// AnswerRequest describes one answer-generation invocation.
type AnswerRequest struct {
	QuestionID  string
	Question    string
	Language    entities.Language
	Persona     entities.Persona
	RequesterID string
}

// AnswerService orchestrates retrieval, narrative generation, citation
// extraction and scoring into a complete answer. It performs no persistence;
// the job handler owns store writes so the pure pipeline stays testable
// without I/O.
type AnswerService struct {
	retrieval *RetrievalService
	generator ports.Generator
	logger    *zap.Logger

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewAnswerService creates a new answer service.
func NewAnswerService(retrieval *RetrievalService, generator ports.Generator, logger *zap.Logger) *AnswerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerService{
		retrieval: retrieval,
		generator: generator,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// Generate runs the answer pipeline: retrieve, short-circuit when no evidence
// exists, compose the prompt, generate, extract citations, score. Generation
// failures surface as a GenerationError and abort the invocation; no partial
// answer is returned.
func (s *AnswerService) Generate(ctx context.Context, req AnswerRequest) (*entities.Answer, error) {
	candidates, err := s.retrieval.Retrieve(ctx, req.Question, DefaultRetrievalLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieving candidates: %w", err)
	}

	if len(candidates) == 0 {
		s.logger.Info("no verified evidence for question",
			zap.String("question_id", req.QuestionID))
		return s.newAnswer(req, NoEvidenceSummary, []entities.Citation{}, 0, 0), nil
	}

	systemPrompt := BuildSystemPrompt(req.Persona, req.Language)
	userPrompt := BuildUserPrompt(req.Question, candidates)

	summary, err := s.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, &faults.GenerationError{Err: err}
	}
	if strings.TrimSpace(summary) == "" {
		return nil, &faults.GenerationError{Err: fmt.Errorf("empty completion for question %s", req.QuestionID)}
	}

	citations := ExtractCitations(summary, candidates)
	if uncited := uncitedCount(summary, len(candidates)); uncited > 0 {
		// Quality signal: relevant evidence the narrative never referenced.
		s.logger.Info("candidates left uncited",
			zap.String("question_id", req.QuestionID),
			zap.Int("uncited", uncited),
			zap.Int("candidates", len(candidates)))
	}

	confidence := ScoreConfidence(candidates, s.nowFunc())
	controversy := ScoreControversy(candidates)

	return s.newAnswer(req, summary, citations, confidence, controversy), nil
}

func (s *AnswerService) newAnswer(req AnswerRequest, summary string, citations []entities.Citation, confidence, controversy int) *entities.Answer {
	return &entities.Answer{
		ID:          uuid.New().String(),
		QuestionID:  req.QuestionID,
		Summary:     summary,
		Citations:   citations,
		Confidence:  confidence,
		Controversy: controversy,
		Persona:     req.Persona,
		CreatedAt:   s.nowFunc(),
	}
}

// uncitedCount counts candidate positions never referenced by a marker.
func uncitedCount(summary string, candidates int) int {
	cited := make(map[int]bool)
	for _, pos := range CitedPositions(summary) {
		if pos >= 1 && pos <= candidates {
			cited[pos] = true
		}
	}
	return candidates - len(cited)
}
