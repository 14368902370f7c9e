package entities

import "time"

// Citation is a reference from an answer back to a piece of evidence. Source
// fields are denormalized at generation time so later source edits never
// retroactively alter a rendered answer.
type Citation struct {
	SourceID       string         `json:"source_id"`
	Snippet        string         `json:"snippet"`
	AuthorityLevel AuthorityLevel `json:"authority_level"`
	Status         SourceStatus   `json:"status"`
	Score          float64        `json:"score"`
}

// Answer is a generated narrative answer to a question. It is created once
// per successful generation and immutable thereafter; a question may
// accumulate multiple answers (re-generation, persona variants).
type Answer struct {
	ID          string     `json:"id"`
	QuestionID  string     `json:"question_id"`
	JobID       string     `json:"job_id,omitempty"`
	Summary     string     `json:"summary"`
	Citations   []Citation `json:"citations"`
	Confidence  int        `json:"confidence"`
	Controversy int        `json:"controversy"`
	Persona     Persona    `json:"persona"`
	CreatedAt   time.Time  `json:"created_at"`
}
