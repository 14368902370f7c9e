package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// RelationalDB is an in-memory mock implementation of ports.RelationalDB.
type RelationalDB struct {
	Err error

	// SaveAnswerErr overrides Err for answer writes, for simulating a
	// persistence failure after successful generation.
	SaveAnswerErr error

	mu        sync.Mutex
	Questions map[string]entities.Question
	Sources   map[string]entities.Source
	Documents map[string]entities.Document
	Answers   []entities.Answer
	Notes     map[string]entities.CommunityNote
	Audit     []entities.AuditEntry

	// Call tracking
	SaveAnswerCallCount int
}

func (m *RelationalDB) init() {
	if m.Questions == nil {
		m.Questions = make(map[string]entities.Question)
	}
	if m.Sources == nil {
		m.Sources = make(map[string]entities.Source)
	}
	if m.Documents == nil {
		m.Documents = make(map[string]entities.Document)
	}
	if m.Notes == nil {
		m.Notes = make(map[string]entities.CommunityNote)
	}
}

// EnsureSchema is a no-op for the in-memory mock.
func (m *RelationalDB) EnsureSchema(ctx context.Context) error { return m.Err }

// Close is a no-op for the in-memory mock.
func (m *RelationalDB) Close() error { return nil }

// CreateQuestion stores a new question.
func (m *RelationalDB) CreateQuestion(ctx context.Context, q *entities.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.init()
	m.Questions[q.ID] = *q
	return nil
}

// FindQuestionByID finds a question by its ID.
func (m *RelationalDB) FindQuestionByID(ctx context.Context, id string) (*entities.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	q, ok := m.Questions[id]
	if !ok {
		return nil, fmt.Errorf("question not found: %s", id)
	}
	return &q, nil
}

// ListQuestions lists questions newest first.
func (m *RelationalDB) ListQuestions(ctx context.Context, limit, offset int) ([]entities.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	questions := make([]entities.Question, 0, len(m.Questions))
	for _, q := range m.Questions {
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].CreatedAt.After(questions[j].CreatedAt)
	})
	if offset >= len(questions) {
		return nil, nil
	}
	questions = questions[offset:]
	if limit > 0 && limit < len(questions) {
		questions = questions[:limit]
	}
	return questions, nil
}

// SaveSource saves or updates a source.
func (m *RelationalDB) SaveSource(ctx context.Context, s *entities.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.init()
	m.Sources[s.ID] = *s
	return nil
}

// FindSourceByID finds a source by its ID.
func (m *RelationalDB) FindSourceByID(ctx context.Context, id string) (*entities.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Sources[id]
	if !ok {
		return nil, fmt.Errorf("source not found: %s", id)
	}
	return &s, nil
}

// ListSources lists sources, optionally filtered by status.
func (m *RelationalDB) ListSources(ctx context.Context, status entities.SourceStatus, limit, offset int) ([]entities.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var sources []entities.Source
	for _, s := range m.Sources {
		if status == "" || s.Status == status {
			sources = append(sources, s)
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	if offset >= len(sources) {
		return nil, nil
	}
	sources = sources[offset:]
	if limit > 0 && limit < len(sources) {
		sources = sources[:limit]
	}
	return sources, nil
}

// UpdateSourceStatus transitions a source's verification status.
func (m *RelationalDB) UpdateSourceStatus(ctx context.Context, id string, status entities.SourceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s, ok := m.Sources[id]
	if !ok {
		return fmt.Errorf("source not found: %s", id)
	}
	s.Status = status
	m.Sources[id] = s
	return nil
}

// SaveDocumentRecord stores document metadata.
func (m *RelationalDB) SaveDocumentRecord(ctx context.Context, doc *entities.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.init()
	m.Documents[doc.ID] = *doc
	return nil
}

// CountDocumentsBySource returns the number of documents for a source.
func (m *RelationalDB) CountDocumentsBySource(ctx context.Context, sourceID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, d := range m.Documents {
		if d.SourceID == sourceID {
			count++
		}
	}
	return count, nil
}

// SaveAnswer stores an answer, idempotent by job ID.
func (m *RelationalDB) SaveAnswer(ctx context.Context, a *entities.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveAnswerCallCount++
	if m.SaveAnswerErr != nil {
		return m.SaveAnswerErr
	}
	if m.Err != nil {
		return m.Err
	}
	if a.JobID != "" {
		for _, existing := range m.Answers {
			if existing.JobID == a.JobID {
				return nil
			}
		}
	}
	m.Answers = append(m.Answers, *a)
	return nil
}

// FindAnswerByJobID finds the answer persisted for a job, or nil.
func (m *RelationalDB) FindAnswerByJobID(ctx context.Context, jobID string) (*entities.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Answers {
		if m.Answers[i].JobID == jobID {
			a := m.Answers[i]
			return &a, nil
		}
	}
	return nil, nil
}

// ListAnswersForQuestion lists a question's answers newest first.
func (m *RelationalDB) ListAnswersForQuestion(ctx context.Context, questionID string) ([]entities.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var answers []entities.Answer
	for _, a := range m.Answers {
		if a.QuestionID == questionID {
			answers = append(answers, a)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].CreatedAt.After(answers[j].CreatedAt)
	})
	return answers, nil
}

// CreateNote stores a new community note.
func (m *RelationalDB) CreateNote(ctx context.Context, n *entities.CommunityNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.init()
	m.Notes[n.ID] = *n
	return nil
}

// FindNoteByID finds a community note by its ID.
func (m *RelationalDB) FindNoteByID(ctx context.Context, id string) (*entities.CommunityNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	n, ok := m.Notes[id]
	if !ok {
		return nil, fmt.Errorf("note not found: %s", id)
	}
	return &n, nil
}

// ListNotesForAnswer lists notes attached to an answer.
func (m *RelationalDB) ListNotesForAnswer(ctx context.Context, answerID string, status entities.CommunityStatus) ([]entities.CommunityNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var notes []entities.CommunityNote
	for _, n := range m.Notes {
		if n.TargetAnswerID != answerID {
			continue
		}
		if status != "" && n.Status != status {
			continue
		}
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
	return notes, nil
}

// ListPendingNotes lists notes awaiting moderation.
func (m *RelationalDB) ListPendingNotes(ctx context.Context, limit int) ([]entities.CommunityNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var notes []entities.CommunityNote
	for _, n := range m.Notes {
		if n.Status == entities.NotePending {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	if limit > 0 && limit < len(notes) {
		notes = notes[:limit]
	}
	return notes, nil
}

// UpdateNoteStatus transitions a note's moderation status.
func (m *RelationalDB) UpdateNoteStatus(ctx context.Context, id string, status entities.CommunityStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	n, ok := m.Notes[id]
	if !ok {
		return fmt.Errorf("note not found: %s", id)
	}
	n.Status = status
	m.Notes[id] = n
	return nil
}

// LogAction logs an action to the audit log.
func (m *RelationalDB) LogAction(ctx context.Context, action, subjectID string, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Action:    action,
		SubjectID: subjectID,
		Details:   details,
	})
	return nil
}

// FindAuditLog finds audit entries for a subject.
func (m *RelationalDB) FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var entries []entities.AuditEntry
	for _, e := range m.Audit {
		if e.SubjectID == subjectID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
