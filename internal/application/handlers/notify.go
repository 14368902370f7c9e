package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/faults"
	"github.com/bobibcgroup/qadim/internal/domain/ports"
	"github.com/bobibcgroup/qadim/internal/queue"
)

// Notification template IDs.
const (
	TemplateAnswerReady    = "answer-ready"
	TemplateSourceVerified = "source-verified"
	TemplateNoteModerated  = "note-moderated"
)

var notifyTemplates = template.Must(template.New("notify").Parse(`
{{define "answer-ready"}}Your question has been answered.

Question: {{.question}}
Confidence: {{.confidence}}/100

View the full answer with citations in your history.{{end}}

{{define "source-verified"}}The source "{{.title}}" has been verified and its documents are now searchable.{{end}}

{{define "note-moderated"}}Your community note on an answer was {{.status}}.{{end}}
`))

// NotifyHandler processes notification jobs by rendering a template and
// handing the message to the mailer.
type NotifyHandler struct {
	mailer ports.Mailer
	logger *zap.Logger
}

// NewNotifyHandler creates a new notify handler.
func NewNotifyHandler(mailer ports.Mailer, logger *zap.Logger) *NotifyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyHandler{
		mailer: mailer,
		logger: logger,
	}
}

// Handle runs one notification job. Malformed payloads and unknown template
// IDs are fatal; delivery failures are retryable.
func (h *NotifyHandler) Handle(ctx context.Context, job *entities.Job) error {
	var payload queue.NotifyPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return faults.Fatal(fmt.Errorf("unmarshaling notify payload: %w", err))
	}
	if payload.To == "" {
		return faults.Fatal(fmt.Errorf("notify payload missing recipient"))
	}

	if notifyTemplates.Lookup(payload.TemplateID) == nil {
		return faults.Fatal(fmt.Errorf("unknown notification template: %s", payload.TemplateID))
	}

	data := make(map[string]string, len(payload.TemplateData))
	for k, v := range payload.TemplateData {
		data[k] = v
	}

	var body strings.Builder
	if err := notifyTemplates.ExecuteTemplate(&body, payload.TemplateID, data); err != nil {
		return faults.Fatal(fmt.Errorf("rendering template %s: %w", payload.TemplateID, err))
	}

	if err := h.mailer.Send(ctx, payload.To, payload.Subject, strings.TrimSpace(body.String())); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}

	h.logger.Info("notification sent",
		zap.String("job_id", job.ID),
		zap.String("template", payload.TemplateID))
	return nil
}
