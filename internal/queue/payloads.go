package queue

import "github.com/bobibcgroup/qadim/internal/domain/entities"

// AnswerPayload is the job payload for the answer-generation queue. When
// NotifyEmail is set, a notification job is chained once the answer is
// persisted.
type AnswerPayload struct {
	QuestionID   string            `json:"question_id"`
	QuestionText string            `json:"question_text"`
	Language     entities.Language `json:"language"`
	Persona      entities.Persona  `json:"persona"`
	RequesterID  string            `json:"requester_id"`
	NotifyEmail  string            `json:"notify_email,omitempty"`
}

// IngestMetadata describes the document being ingested.
type IngestMetadata struct {
	Title       string            `json:"title"`
	Author      string            `json:"author,omitempty"`
	PublishedAt string            `json:"published_at,omitempty"`
	Language    entities.Language `json:"language"`
}

// IngestPayload is the job payload for the document-ingestion queue.
type IngestPayload struct {
	SourceID    string         `json:"source_id"`
	DocumentURL string         `json:"document_url"`
	Metadata    IngestMetadata `json:"metadata"`
}

// NotifyPayload is the job payload for the notification queue.
type NotifyPayload struct {
	To           string            `json:"to"`
	Subject      string            `json:"subject"`
	TemplateID   string            `json:"template_id"`
	TemplateData map[string]string `json:"template_data,omitempty"`
}
