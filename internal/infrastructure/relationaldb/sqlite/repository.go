// Package sqlite provides SQLite implementations of the RelationalDB and
// JobStore interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
)

// Repository implements ports.RelationalDB and ports.JobStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Submitted questions (immutable after creation)
	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		language TEXT NOT NULL,
		requester_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_questions_created ON questions(created_at);

	-- Evidence sources
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		publisher TEXT,
		url TEXT,
		authority_level TEXT NOT NULL,
		status TEXT NOT NULL,
		credibility INTEGER NOT NULL,
		year INTEGER,
		language TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sources_status ON sources(status);

	-- Document records (content and vectors live in the vector store)
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES sources(id),
		title TEXT NOT NULL,
		language TEXT NOT NULL,
		published_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source_id);

	-- Generated answers; job_id is unique so a retried job cannot
	-- duplicate its answer
	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL,
		job_id TEXT UNIQUE,
		summary TEXT NOT NULL,
		citations TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		controversy INTEGER NOT NULL,
		persona TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id);

	-- Community notes on answers
	CREATE TABLE IF NOT EXISTS community_notes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		target_answer_id TEXT NOT NULL,
		note TEXT NOT NULL,
		citations TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notes_answer ON community_notes(target_answer_id);
	CREATE INDEX IF NOT EXISTS idx_notes_status ON community_notes(status);

	-- Durable job queue; claim-order times are unix nanoseconds so
	-- comparisons stay exact
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		queue TEXT NOT NULL,
		payload BLOB NOT NULL,
		priority INTEGER NOT NULL,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL,
		status TEXT NOT NULL,
		last_error TEXT,
		enqueued_at INTEGER NOT NULL,
		run_at INTEGER NOT NULL,
		started_at INTEGER,
		finished_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_claim ON jobs(queue, status, run_at, priority, enqueued_at);

	-- Audit log (moderation decisions, exhausted jobs)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		subject_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_subject ON audit_log(subject_id);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// CreateQuestion stores a new question.
func (r *Repository) CreateQuestion(ctx context.Context, q *entities.Question) error {
	query := `
		INSERT INTO questions (id, text, language, requester_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, q.ID, q.Text, string(q.Language), q.RequesterID, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating question: %w", err)
	}
	return nil
}

// FindQuestionByID finds a question by its ID.
func (r *Repository) FindQuestionByID(ctx context.Context, id string) (*entities.Question, error) {
	query := `
		SELECT id, text, language, requester_id, created_at
		FROM questions
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var q entities.Question
	err := row.Scan(&q.ID, &q.Text, &q.Language, &q.RequesterID, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("question not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning question: %w", err)
	}
	return &q, nil
}

// ListQuestions lists questions newest first with pagination.
func (r *Repository) ListQuestions(ctx context.Context, limit, offset int) ([]entities.Question, error) {
	query := `
		SELECT id, text, language, requester_id, created_at
		FROM questions
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()

	var questions []entities.Question
	for rows.Next() {
		var q entities.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Language, &q.RequesterID, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SaveSource saves or updates a source.
func (r *Repository) SaveSource(ctx context.Context, s *entities.Source) error {
	query := `
		INSERT INTO sources (id, title, publisher, url, authority_level, status, credibility, year, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			publisher = excluded.publisher,
			url = excluded.url,
			authority_level = excluded.authority_level,
			status = excluded.status,
			credibility = excluded.credibility,
			year = excluded.year,
			language = excluded.language
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Title, s.Publisher, s.URL,
		string(s.AuthorityLevel), string(s.Status), s.Credibility, s.Year, string(s.Language),
	)
	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// FindSourceByID finds a source by its ID.
func (r *Repository) FindSourceByID(ctx context.Context, id string) (*entities.Source, error) {
	query := `
		SELECT id, title, COALESCE(publisher, ''), COALESCE(url, ''), authority_level, status, credibility, COALESCE(year, 0), language
		FROM sources
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var s entities.Source
	err := row.Scan(&s.ID, &s.Title, &s.Publisher, &s.URL, &s.AuthorityLevel, &s.Status, &s.Credibility, &s.Year, &s.Language)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	return &s, nil
}

// ListSources lists sources, optionally filtered by status.
func (r *Repository) ListSources(ctx context.Context, status entities.SourceStatus, limit, offset int) ([]entities.Source, error) {
	query := `
		SELECT id, title, COALESCE(publisher, ''), COALESCE(url, ''), authority_level, status, credibility, COALESCE(year, 0), language
		FROM sources
	`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY title LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var sources []entities.Source
	for rows.Next() {
		var s entities.Source
		if err := rows.Scan(&s.ID, &s.Title, &s.Publisher, &s.URL, &s.AuthorityLevel, &s.Status, &s.Credibility, &s.Year, &s.Language); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceStatus transitions a source's verification status.
func (r *Repository) UpdateSourceStatus(ctx context.Context, id string, status entities.SourceStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sources SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating source status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating source status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("source not found: %s", id)
	}
	return nil
}

// SaveDocumentRecord stores document metadata, upserting by ID so retried
// ingestions do not duplicate rows.
func (r *Repository) SaveDocumentRecord(ctx context.Context, doc *entities.Document) error {
	query := `
		INSERT INTO documents (id, source_id, title, language, published_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			language = excluded.language,
			published_at = excluded.published_at
	`
	var publishedAt any
	if !doc.PublishedAt.IsZero() {
		publishedAt = doc.PublishedAt
	}
	_, err := r.db.ExecContext(ctx, query, doc.ID, doc.SourceID, doc.Title, string(doc.Language), publishedAt)
	if err != nil {
		return fmt.Errorf("saving document record: %w", err)
	}
	return nil
}

// CountDocumentsBySource returns the number of documents for a source.
func (r *Repository) CountDocumentsBySource(ctx context.Context, sourceID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE source_id = ?`, sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// SaveAnswer stores an answer. The insert is idempotent keyed by job ID: a
// second save for the same job is a no-op, so a crashed worker re-running a
// completed handler cannot duplicate the answer.
func (r *Repository) SaveAnswer(ctx context.Context, a *entities.Answer) error {
	citations, err := json.Marshal(a.Citations)
	if err != nil {
		return fmt.Errorf("marshaling citations: %w", err)
	}

	var jobID sql.NullString
	if a.JobID != "" {
		jobID = sql.NullString{String: a.JobID, Valid: true}
	}

	query := `
		INSERT INTO answers (id, question_id, job_id, summary, citations, confidence, controversy, persona, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.QuestionID, jobID, a.Summary, string(citations),
		a.Confidence, a.Controversy, string(a.Persona), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving answer: %w", err)
	}
	return nil
}

// FindAnswerByJobID finds the answer persisted for a job, or nil.
func (r *Repository) FindAnswerByJobID(ctx context.Context, jobID string) (*entities.Answer, error) {
	query := `
		SELECT id, question_id, COALESCE(job_id, ''), summary, citations, confidence, controversy, persona, created_at
		FROM answers
		WHERE job_id = ?
	`
	row := r.db.QueryRowContext(ctx, query, jobID)

	a, err := scanAnswer(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAnswersForQuestion lists a question's answers newest first.
func (r *Repository) ListAnswersForQuestion(ctx context.Context, questionID string) ([]entities.Answer, error) {
	query := `
		SELECT id, question_id, COALESCE(job_id, ''), summary, citations, confidence, controversy, persona, created_at
		FROM answers
		WHERE question_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer rows.Close()

	var answers []entities.Answer
	for rows.Next() {
		a, err := scanAnswer(rows.Scan)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *a)
	}
	return answers, rows.Err()
}

func scanAnswer(scan func(dest ...any) error) (*entities.Answer, error) {
	var a entities.Answer
	var citations string
	err := scan(&a.ID, &a.QuestionID, &a.JobID, &a.Summary, &citations,
		&a.Confidence, &a.Controversy, &a.Persona, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning answer: %w", err)
	}
	if err := json.Unmarshal([]byte(citations), &a.Citations); err != nil {
		return nil, fmt.Errorf("unmarshaling citations: %w", err)
	}
	return &a, nil
}

// CreateNote stores a new community note.
func (r *Repository) CreateNote(ctx context.Context, n *entities.CommunityNote) error {
	citations, err := json.Marshal(n.Citations)
	if err != nil {
		return fmt.Errorf("marshaling citations: %w", err)
	}

	query := `
		INSERT INTO community_notes (id, user_id, target_answer_id, note, citations, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.TargetAnswerID, n.Note, string(citations), string(n.Status), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating note: %w", err)
	}
	return nil
}

// FindNoteByID finds a community note by its ID.
func (r *Repository) FindNoteByID(ctx context.Context, id string) (*entities.CommunityNote, error) {
	query := `
		SELECT id, user_id, target_answer_id, note, citations, status, created_at
		FROM community_notes
		WHERE id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id)

	n, err := scanNote(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("note not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotesForAnswer lists notes attached to an answer, optionally filtered
// by status.
func (r *Repository) ListNotesForAnswer(ctx context.Context, answerID string, status entities.CommunityStatus) ([]entities.CommunityNote, error) {
	query := `
		SELECT id, user_id, target_answer_id, note, citations, status, created_at
		FROM community_notes
		WHERE target_answer_id = ?
	`
	args := []any{answerID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id DESC"

	return r.queryNotes(ctx, query, args...)
}

// ListPendingNotes lists notes awaiting moderation, newest first.
func (r *Repository) ListPendingNotes(ctx context.Context, limit int) ([]entities.CommunityNote, error) {
	query := `
		SELECT id, user_id, target_answer_id, note, citations, status, created_at
		FROM community_notes
		WHERE status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	return r.queryNotes(ctx, query, string(entities.NotePending), limit)
}

// UpdateNoteStatus transitions a note's moderation status.
func (r *Repository) UpdateNoteStatus(ctx context.Context, id string, status entities.CommunityStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE community_notes SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating note status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating note status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("note not found: %s", id)
	}
	return nil
}

func (r *Repository) queryNotes(ctx context.Context, query string, args ...any) ([]entities.CommunityNote, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []entities.CommunityNote
	for rows.Next() {
		n, err := scanNote(rows.Scan)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func scanNote(scan func(dest ...any) error) (*entities.CommunityNote, error) {
	var n entities.CommunityNote
	var citations string
	err := scan(&n.ID, &n.UserID, &n.TargetAnswerID, &n.Note, &citations, &n.Status, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning note: %w", err)
	}
	if err := json.Unmarshal([]byte(citations), &n.Citations); err != nil {
		return nil, fmt.Errorf("unmarshaling citations: %w", err)
	}
	return &n, nil
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action, subjectID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var subject sql.NullString
	if subjectID != "" {
		subject = sql.NullString{String: subjectID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO audit_log (action, subject_id, details) VALUES (?, ?, ?)`,
		action, subject, detailsJSON)
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit entries for a subject.
func (r *Repository) FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, COALESCE(subject_id, ''), details, created_at
		FROM audit_log
		WHERE subject_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var details sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.SubjectID, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entry.CreatedAt = createdAt
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
