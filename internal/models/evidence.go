package models

import (
	"time"

	"github.com/lib/pq"
)

// Stage identifies a program phase an evidence item belongs to.
type Stage string

const (
	StageInspire     Stage = "inspire"
	StageInvestigate Stage = "investigate"
	StageAct         Stage = "act"
	// StageAboveAndBeyond marks bonus work outside the three required stages.
	StageAboveAndBeyond Stage = "above_and_beyond"
)

// RequiredStages lists the ordered stages a school must complete each round.
var RequiredStages = []Stage{StageInspire, StageInvestigate, StageAct}

// ValidStage reports whether s is a recognised stage value.
func ValidStage(s Stage) bool {
	switch s {
	case StageInspire, StageInvestigate, StageAct, StageAboveAndBeyond:
		return true
	}
	return false
}

// EvidenceStatus is the review state of an evidence item.
type EvidenceStatus string

const (
	EvidencePending  EvidenceStatus = "pending"
	EvidenceApproved EvidenceStatus = "approved"
	EvidenceRejected EvidenceStatus = "rejected"
)

// Visibility controls who may see an evidence item.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Evidence is a school's submission against a program requirement.
// Round number is fixed at submission time; status only moves
// pending -> approved or pending -> rejected.
type Evidence struct {
	ID                    string         `db:"id" json:"id"`
	Title                 string         `db:"title" json:"title"`
	Description           string         `db:"description" json:"description"`
	Stage                 Stage          `db:"stage" json:"stage"`
	Status                EvidenceStatus `db:"status" json:"status"`
	Visibility            Visibility     `db:"visibility" json:"visibility"`
	RoundNumber           int            `db:"round_number" json:"round_number"`
	SchoolID              string         `db:"school_id" json:"school_id"`
	SubmittedBy           string         `db:"submitted_by" json:"submitted_by"`
	AssignedTo            *string        `db:"assigned_to" json:"assigned_to,omitempty"`
	EvidenceRequirementID *string        `db:"evidence_requirement_id" json:"evidence_requirement_id,omitempty"`
	IsBonus               bool           `db:"is_bonus" json:"is_bonus"`
	FileURLs              pq.StringArray `db:"file_urls" json:"file_urls"`
	VideoLinks            pq.StringArray `db:"video_links" json:"video_links"`
	SubmittedAt           time.Time      `db:"submitted_at" json:"submitted_at"`
	ReviewedAt            *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy            *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNotes           string         `db:"review_notes" json:"review_notes"`
	CreatedAt             time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at" json:"updated_at"`
}

// Homeless reports whether the item counts toward no requirement and
// carries no bonus marker.
func (e Evidence) Homeless() bool {
	return e.EvidenceRequirementID == nil && !e.IsBonus
}

// EvidenceFilter captures list criteria for evidence queries.
type EvidenceFilter struct {
	SchoolID      string
	Status        *EvidenceStatus
	Visibility    *Visibility
	AssignedTo    string
	RequirementID string
	Round         *int
	DateFrom      *time.Time
	DateTo        *time.Time
	Search        string
	Homeless      bool
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}
