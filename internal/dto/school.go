package dto

import "time"

// StageProgress describes requirement coverage for one stage.
type StageProgress struct {
	Stage                 string `json:"stage"`
	Completed             bool   `json:"completed"`
	RequirementCount      int    `json:"requirementCount"`
	SatisfiedRequirements int    `json:"satisfiedRequirements"`
}

// ProgressionSnapshot is the read model for a school's program state.
type ProgressionSnapshot struct {
	SchoolID           string          `json:"schoolId"`
	CurrentRound       int             `json:"currentRound"`
	ProgressPercentage int             `json:"progressPercentage"`
	Stages             []StageProgress `json:"stages"`
	GeneratedAt        time.Time       `json:"generatedAt"`
}

// CertificateLink is the signed download reference for a certificate.
type CertificateLink struct {
	CertificateID string    `json:"certificateId"`
	Round         int       `json:"round"`
	URL           string    `json:"url"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// RequirementRequest creates or updates an evidence requirement.
type RequirementRequest struct {
	Title        string            `json:"title" validate:"required,max=200"`
	Description  string            `json:"description" validate:"max=5000"`
	Stage        string            `json:"stage" validate:"required,evidence_stage"`
	OrderIndex   int               `json:"orderIndex"`
	Translations map[string]string `json:"translations"`
}
