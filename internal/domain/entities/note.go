package entities

import "time"

// CommunityStatus is the moderation state of a community note.
type CommunityStatus string

const (
	NotePending  CommunityStatus = "PENDING"
	NoteApproved CommunityStatus = "APPROVED"
	NoteRejected CommunityStatus = "REJECTED"
)

// Valid reports whether the status is one of the supported values.
func (s CommunityStatus) Valid() bool {
	switch s {
	case NotePending, NoteApproved, NoteRejected:
		return true
	}
	return false
}

// UserRole gates moderation actions. Role assignment itself is owned by the
// data layer; only the check lives here.
type UserRole string

const (
	RoleUser      UserRole = "USER"
	RoleModerator UserRole = "MODERATOR"
	RoleAdmin     UserRole = "ADMIN"
)

// CanModerate reports whether the role may transition community note status.
func (r UserRole) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// CommunityNote is user commentary attached to an answer, visible once a
// moderator approves it.
type CommunityNote struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	TargetAnswerID string          `json:"target_answer_id"`
	Note           string          `json:"note"`
	Citations      []Citation      `json:"citations,omitempty"`
	Status         CommunityStatus `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
