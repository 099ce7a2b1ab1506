package dto

// ReviewRequest drives a single approve/reject transition.
type ReviewRequest struct {
	Status           string `json:"status" validate:"required,oneof=approved rejected"`
	ReviewNotes      string `json:"reviewNotes"`
	ConsentConfirmed bool   `json:"consentConfirmed"`
}

// BulkReviewRequest applies one decision across many evidence ids.
type BulkReviewRequest struct {
	EvidenceIDs      []string `json:"evidenceIds" validate:"required,min=1"`
	Status           string   `json:"status" validate:"required,oneof=approved rejected"`
	ReviewNotes      string   `json:"reviewNotes"`
	ConsentConfirmed bool     `json:"consentConfirmed"`
}

// BulkDeleteRequest removes many evidence ids with per-item isolation.
type BulkDeleteRequest struct {
	EvidenceIDs []string `json:"evidenceIds" validate:"required,min=1"`
}

// BulkFailure records one failed item in a bulk operation.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult aggregates partial success for bulk operations. Bulk calls
// never fail wholesale; this shape is always returned.
type BulkResult struct {
	Success         []string      `json:"success"`
	Failed          []BulkFailure `json:"failed"`
	EmailsProcessed int           `json:"emailsProcessed"`
}
