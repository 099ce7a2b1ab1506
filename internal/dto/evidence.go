package dto

import "time"

// SubmitEvidenceRequest defines the payload for creating evidence.
type SubmitEvidenceRequest struct {
	Title                 string   `json:"title" validate:"required,max=200"`
	Description           string   `json:"description" validate:"max=5000"`
	Stage                 string   `json:"stage" validate:"required,evidence_stage"`
	Visibility            string   `json:"visibility" validate:"omitempty,oneof=public private"`
	SchoolID              string   `json:"schoolId" validate:"required"`
	EvidenceRequirementID *string  `json:"evidenceRequirementId,omitempty"`
	IsBonus               bool     `json:"isBonus"`
	FileURLs              []string `json:"fileUrls"`
	VideoLinks            []string `json:"videoLinks"`
}

// ListEvidenceQuery captures evidence list filters from the query string.
type ListEvidenceQuery struct {
	SchoolID      string     `form:"schoolId"`
	Status        string     `form:"status"`
	Visibility    string     `form:"visibility"`
	AssignedTo    string     `form:"assignedTo"`
	RequirementID string     `form:"requirementId"`
	Round         *int       `form:"round"`
	DateFrom      *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo        *time.Time `form:"dateTo" time_format:"2006-01-02"`
	Search        string     `form:"search"`
	SortBy        string     `form:"sort"`
	SortOrder     string     `form:"order"`
	Page          int        `form:"page"`
	PageSize      int        `form:"limit"`
}

// AssignRequest sets or clears the reviewer on an evidence item.
type AssignRequest struct {
	AssignedTo *string `json:"assignedTo"`
}

// AssignRequirementRequest links evidence to a requirement.
type AssignRequirementRequest struct {
	EvidenceRequirementID string `json:"evidenceRequirementId" validate:"required"`
	AllowOverwrite        bool   `json:"allowOverwrite"`
}

// MarkBonusRequest toggles the bonus marker.
type MarkBonusRequest struct {
	IsBonus bool `json:"isBonus"`
}

// CheckDuplicateRequest asks whether live evidence already covers a requirement.
type CheckDuplicateRequest struct {
	RequirementID string `json:"requirementId" validate:"required"`
}

// DuplicateCheckResult reports whether a requirement is already covered.
type DuplicateCheckResult struct {
	HasDuplicate     bool          `json:"hasDuplicate"`
	Duplicate        *EvidenceStub `json:"duplicate,omitempty"`
	RequirementTitle string        `json:"requirementTitle,omitempty"`
}

// EvidenceStub is a compact evidence reference used in conflict payloads.
type EvidenceStub struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	RoundNumber int    `json:"roundNumber"`
}

// RequirementStub is a compact requirement reference returned when a
// requirement assignment conflicts with an existing link.
type RequirementStub struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Stage string `json:"stage"`
}
