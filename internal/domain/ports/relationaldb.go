package ports

import (
	"context"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// RelationalDB defines the interface for relational store operations:
// questions, sources, document records, answers and community notes. It
// complements VectorDB, which owns similarity search.
type RelationalDB interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Question operations

	// CreateQuestion stores a new question.
	CreateQuestion(ctx context.Context, q *entities.Question) error

	// FindQuestionByID finds a question by its ID.
	FindQuestionByID(ctx context.Context, id string) (*entities.Question, error)

	// ListQuestions lists questions newest first with pagination.
	ListQuestions(ctx context.Context, limit, offset int) ([]entities.Question, error)

	// Source operations

	// SaveSource saves or updates a source.
	SaveSource(ctx context.Context, s *entities.Source) error

	// FindSourceByID finds a source by its ID.
	FindSourceByID(ctx context.Context, id string) (*entities.Source, error)

	// ListSources lists sources, optionally filtered by status. An empty
	// status lists all.
	ListSources(ctx context.Context, status entities.SourceStatus, limit, offset int) ([]entities.Source, error)

	// UpdateSourceStatus transitions a source's verification status.
	UpdateSourceStatus(ctx context.Context, id string, status entities.SourceStatus) error

	// Document records

	// SaveDocumentRecord stores document metadata (content lives in the
	// vector store and, optionally, the blob store).
	SaveDocumentRecord(ctx context.Context, doc *entities.Document) error

	// CountDocumentsBySource returns the number of documents for a source.
	CountDocumentsBySource(ctx context.Context, sourceID string) (int, error)

	// Answer operations

	// SaveAnswer stores an answer. Persistence is idempotent keyed by job
	// ID: saving twice for the same job keeps the first answer and reports
	// no error.
	SaveAnswer(ctx context.Context, a *entities.Answer) error

	// FindAnswerByJobID finds the answer persisted for a job, or nil.
	FindAnswerByJobID(ctx context.Context, jobID string) (*entities.Answer, error)

	// ListAnswersForQuestion lists a question's answers newest first.
	ListAnswersForQuestion(ctx context.Context, questionID string) ([]entities.Answer, error)

	// Community note operations

	// CreateNote stores a new community note in PENDING status.
	CreateNote(ctx context.Context, n *entities.CommunityNote) error

	// FindNoteByID finds a community note by its ID.
	FindNoteByID(ctx context.Context, id string) (*entities.CommunityNote, error)

	// ListNotesForAnswer lists notes attached to an answer, optionally
	// filtered by status.
	ListNotesForAnswer(ctx context.Context, answerID string, status entities.CommunityStatus) ([]entities.CommunityNote, error)

	// ListPendingNotes lists notes awaiting moderation, newest first.
	ListPendingNotes(ctx context.Context, limit int) ([]entities.CommunityNote, error)

	// UpdateNoteStatus transitions a note's moderation status.
	UpdateNoteStatus(ctx context.Context, id string, status entities.CommunityStatus) error

	// Audit log

	// LogAction logs an action to the audit log.
	LogAction(ctx context.Context, action, subjectID string, details map[string]any) error

	// FindAuditLog finds audit entries for a subject.
	FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error)
}
