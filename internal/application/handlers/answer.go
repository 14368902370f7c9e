// Package handlers contains the job handlers that connect the queue to the
// domain services.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
	"github.com/bobibcgroup/qadim/internal/domain/services"
	"github.com/bobibcgroup/qadim/internal/queue"
)

// AnswerHandler processes answer-generation jobs: it runs the answer pipeline
// and persists the result keyed by job ID.
type AnswerHandler struct {
	answers *services.AnswerService
	db      ports.RelationalDB
	notify  *queue.Queue // nil disables chained notifications
	logger  *zap.Logger
}

// NewAnswerHandler creates a new answer handler. notify may be nil to disable
// answer-ready notifications.
func NewAnswerHandler(answers *services.AnswerService, db ports.RelationalDB, notify *queue.Queue, logger *zap.Logger) *AnswerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerHandler{
		answers: answers,
		db:      db,
		notify:  notify,
		logger:  logger,
	}
}

// Handle runs one answer-generation job. A malformed payload is fatal; an
// already-persisted answer for this job ID short-circuits to success so
// retries after a crash between save and completion do not regenerate.
func (h *AnswerHandler) Handle(ctx context.Context, job *entities.Job) error {
	var payload queue.AnswerPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return faults.Fatal(fmt.Errorf("unmarshaling answer payload: %w", err))
	}

	existing, err := h.db.FindAnswerByJobID(ctx, job.ID)
	if err != nil {
		return &faults.StoreWriteError{Err: err}
	}
	if existing != nil {
		h.logger.Info("answer already persisted for job",
			zap.String("job_id", job.ID),
			zap.String("answer_id", existing.ID))
		return nil
	}

	answer, err := h.answers.Generate(ctx, services.AnswerRequest{
		QuestionID:  payload.QuestionID,
		Question:    payload.QuestionText,
		Language:    payload.Language,
		Persona:     payload.Persona,
		RequesterID: payload.RequesterID,
	})
	if err != nil {
		return err
	}

	answer.JobID = job.ID
	if err := h.db.SaveAnswer(ctx, answer); err != nil {
		return &faults.StoreWriteError{Err: err}
	}

	if h.notify != nil && payload.NotifyEmail != "" {
		// The answer is already durable; a failed chain is logged, not
		// retried, so the job cannot regenerate over it.
		_, err := h.notify.EnqueueNotification(ctx, queue.NotifyPayload{
			To:         payload.NotifyEmail,
			Subject:    "Your answer is ready",
			TemplateID: TemplateAnswerReady,
			TemplateData: map[string]string{
				"question":   payload.QuestionText,
				"confidence": fmt.Sprintf("%d", answer.Confidence),
			},
		})
		if err != nil {
			h.logger.Warn("chaining answer-ready notification",
				zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	h.logger.Info("answer generated",
		zap.String("job_id", job.ID),
		zap.String("question_id", payload.QuestionID),
		zap.Int("confidence", answer.Confidence),
		zap.Int("controversy", answer.Controversy),
		zap.Int("citations", len(answer.Citations)))
	return nil
}
