package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
)

// maxNoteLength bounds community note text.
const maxNoteLength = 2000

// ModerationService manages community notes attached to answers.
type ModerationService struct {
	db ports.RelationalDB

	nowFunc func() time.Time
}

// NewModerationService creates a new moderation service.
func NewModerationService(db ports.RelationalDB) *ModerationService {
	return &ModerationService{
		db:      db,
		nowFunc: time.Now,
	}
}

// CreateNote files a new community note against an answer. Notes always start
// PENDING and become visible only once approved.
func (s *ModerationService) CreateNote(ctx context.Context, userID, answerID, note string, citations []entities.Citation) (*entities.CommunityNote, error) {
	if note == "" {
		return nil, fmt.Errorf("note text is required")
	}
	if len([]rune(note)) > maxNoteLength {
		return nil, fmt.Errorf("note exceeds %d characters", maxNoteLength)
	}

	n := &entities.CommunityNote{
		ID:             uuid.New().String(),
		UserID:         userID,
		TargetAnswerID: answerID,
		Note:           note,
		Citations:      citations,
		Status:         entities.NotePending,
		CreatedAt:      s.nowFunc(),
	}
	if err := s.db.CreateNote(ctx, n); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return n, nil
}

// NotesForAnswer lists notes attached to an answer. When onlyApproved is set,
// pending and rejected notes are hidden, which is what unauthenticated
// readers see.
func (s *ModerationService) NotesForAnswer(ctx context.Context, answerID string, onlyApproved bool) ([]entities.CommunityNote, error) {
	status := entities.CommunityStatus("")
	if onlyApproved {
		status = entities.NoteApproved
	}
	notes, err := s.db.ListNotesForAnswer(ctx, answerID, status)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	return notes, nil
}

// PendingNotes lists notes awaiting moderation, newest first.
func (s *ModerationService) PendingNotes(ctx context.Context, limit int) ([]entities.CommunityNote, error) {
	notes, err := s.db.ListPendingNotes(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending notes: %w", err)
	}
	return notes, nil
}

// Moderate transitions a note's status. Only moderators and admins may do
// this; anyone else gets ErrUnauthorizedModeration, which is fatal and never
// retried when it surfaces inside a job.
func (s *ModerationService) Moderate(ctx context.Context, actorID string, actorRole entities.UserRole, noteID string, status entities.CommunityStatus) error {
	if !actorRole.CanModerate() {
		return fmt.Errorf("moderating note %s: %w", noteID, faults.ErrUnauthorizedModeration)
	}
	if !status.Valid() {
		return fmt.Errorf("invalid note status: %s", status)
	}

	if err := s.db.UpdateNoteStatus(ctx, noteID, status); err != nil {
		return fmt.Errorf("updating note status: %w", err)
	}

	// Moderation decisions are audited; a failed audit write does not undo
	// the transition.
	_ = s.db.LogAction(ctx, "note.moderated", noteID, map[string]any{
		"actor":  actorID,
		"status": string(status),
	})
	return nil
}
