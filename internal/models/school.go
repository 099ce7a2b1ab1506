package models

import "time"

// ConsentStatus is the review state of a school's photo consent document.
type ConsentStatus string

const (
	ConsentPending  ConsentStatus = "pending"
	ConsentApproved ConsentStatus = "approved"
	ConsentRejected ConsentStatus = "rejected"
)

// School tracks a participating school's program state. Stage flags are
// monotonic within a round; only a round reset clears them.
type School struct {
	ID                   string         `db:"id" json:"id"`
	Name                 string         `db:"name" json:"name"`
	ContactEmail         string         `db:"contact_email" json:"contact_email"`
	CurrentRound         int            `db:"current_round" json:"current_round"`
	InspireCompleted     bool           `db:"inspire_completed" json:"inspire_completed"`
	InvestigateCompleted bool           `db:"investigate_completed" json:"investigate_completed"`
	ActCompleted         bool           `db:"act_completed" json:"act_completed"`
	ProgressPercentage   int            `db:"progress_percentage" json:"progress_percentage"`
	PhotoConsent         *ConsentStatus `db:"photo_consent_status" json:"photo_consent_status,omitempty"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// StageCompleted returns the completion flag for the given stage.
func (s School) StageCompleted(stage Stage) bool {
	switch stage {
	case StageInspire:
		return s.InspireCompleted
	case StageInvestigate:
		return s.InvestigateCompleted
	case StageAct:
		return s.ActCompleted
	}
	return false
}

// CompletedStageCount counts completed stages in the current round.
func (s School) CompletedStageCount() int {
	count := 0
	for _, stage := range RequiredStages {
		if s.StageCompleted(stage) {
			count++
		}
	}
	return count
}

// ProgressionState is the slice of School owned by the progression engine.
type ProgressionState struct {
	CurrentRound         int
	InspireCompleted     bool
	InvestigateCompleted bool
	ActCompleted         bool
	ProgressPercentage   int
}
