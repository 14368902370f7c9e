package entities

import "time"

// AuditEntry represents a logged action in the system, such as a moderation
// decision or a job exhausting its attempts.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	SubjectID string         `json:"subject_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
