package service

import "github.com/greensteps/greensteps-api/internal/models"

// ConsentReason explains why consent is not fully approved.
type ConsentReason string

const (
	ConsentReasonNoDocument    ConsentReason = "no_document"
	ConsentReasonPendingReview ConsentReason = "pending_review"
	ConsentReasonRejected      ConsentReason = "rejected"
)

// ConsentDecision is the outcome of the consent gate. The gate never blocks
// permanently; when RequiresConfirmation is set the caller must obtain an
// explicit acknowledgement before approving.
type ConsentDecision struct {
	Allowed              bool
	RequiresConfirmation bool
	Reason               ConsentReason
}

// EvaluateConsent inspects a school's photo-consent status. Only a status of
// exactly "approved" passes without confirmation.
func EvaluateConsent(status *models.ConsentStatus) ConsentDecision {
	if status == nil {
		return ConsentDecision{RequiresConfirmation: true, Reason: ConsentReasonNoDocument}
	}
	switch *status {
	case models.ConsentApproved:
		return ConsentDecision{Allowed: true}
	case models.ConsentPending:
		return ConsentDecision{RequiresConfirmation: true, Reason: ConsentReasonPendingReview}
	case models.ConsentRejected:
		return ConsentDecision{RequiresConfirmation: true, Reason: ConsentReasonRejected}
	default:
		return ConsentDecision{RequiresConfirmation: true, Reason: ConsentReasonNoDocument}
	}
}
