package models

import "time"

// NotificationType distinguishes in-app notification records.
const (
	NotificationAssigned      = "EVIDENCE_ASSIGNED"
	NotificationStageComplete = "STAGE_COMPLETE"
	NotificationRoundComplete = "ROUND_COMPLETE"
	NotificationReviewOutcome = "REVIEW_OUTCOME"
)

// Notification is an in-app notification row.
type Notification struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	Type       string     `db:"type" json:"type"`
	EvidenceID *string    `db:"evidence_id" json:"evidence_id,omitempty"`
	SchoolID   *string    `db:"school_id" json:"school_id,omitempty"`
	Message    string     `db:"message" json:"message"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
