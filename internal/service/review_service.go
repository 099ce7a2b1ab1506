package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greensteps/greensteps-api/internal/dto"
	"github.com/greensteps/greensteps-api/internal/models"
	"github.com/greensteps/greensteps-api/internal/repository"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
)

type reviewEvidenceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Evidence, error)
	UpdateReview(ctx context.Context, id string, status models.EvidenceStatus, reviewerID, notes string, reviewedAt time.Time) error
	UpdateAssignment(ctx context.Context, id string, assignedTo *string) error
	UpdateRequirement(ctx context.Context, id string, requirementID *string, stage models.Stage) error
	UpdateBonus(ctx context.Context, id string, isBonus bool) error
	Delete(ctx context.Context, id string) error
	FindDuplicate(ctx context.Context, schoolID, requirementID string, round int, excludeID string) (*models.Evidence, error)
}

type reviewUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type reviewNotifier interface {
	SendApprovalNotice(ctx context.Context, ev *models.Evidence, recipientName, recipientEmail, reviewerName string) bool
	SendRejectionNotice(ctx context.Context, ev *models.Evidence, recipientName, recipientEmail, reviewerName, notes string) bool
	NotifyAssignee(ctx context.Context, userID, evidenceID string)
}

type reviewMetrics interface {
	IncReview(decision string)
}

// ReviewService drives single and bulk approve/reject transitions together
// with reviewer assignment, the duplicate guard, and requirement/bonus
// management. Consent gating happens here, before the state transition.
type ReviewService struct {
	evidence     reviewEvidenceRepository
	requirements requirementReader
	schools      schoolReader
	users        reviewUserReader
	notifier     reviewNotifier
	progression  progressionTrigger
	audit        auditRecorder
	metrics      reviewMetrics
	files        fileRemover
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewReviewService constructs the service.
func NewReviewService(
	evidence reviewEvidenceRepository,
	requirements requirementReader,
	schools schoolReader,
	users reviewUserReader,
	notifier reviewNotifier,
	progression progressionTrigger,
	audit auditRecorder,
	metrics reviewMetrics,
	files fileRemover,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		evidence:     evidence,
		requirements: requirements,
		schools:      schools,
		users:        users,
		notifier:     notifier,
		progression:  progression,
		audit:        audit,
		metrics:      metrics,
		files:        files,
		validator:    validate,
		logger:       logger,
	}
}

// ReviewOne performs a single approve/reject transition.
func (s *ReviewService) ReviewOne(ctx context.Context, evidenceID string, req dto.ReviewRequest, actor *models.JWTClaims) (*models.Evidence, error) {
	item, _, err := s.reviewItem(ctx, evidenceID, req, actor)
	return item, err
}

// reviewItem carries the shared single-item semantics and reports how many
// emails were queued, so bulk calls can aggregate emailsProcessed.
func (s *ReviewService) reviewItem(ctx context.Context, evidenceID string, req dto.ReviewRequest, actor *models.JWTClaims) (*models.Evidence, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	status := models.EvidenceStatus(req.Status)
	notes := strings.TrimSpace(req.ReviewNotes)
	if status == models.EvidenceRejected && notes == "" {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "rejection requires review notes")
	}

	item, err := s.evidence.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}
	if item.Status != models.EvidencePending {
		return nil, 0, appErrors.Clone(appErrors.ErrAlreadyReviewed, "already reviewed")
	}

	if status == models.EvidenceApproved {
		school, err := s.schools.FindByID(ctx, item.SchoolID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
		}
		if school != nil {
			decision := EvaluateConsent(school.PhotoConsent)
			if decision.RequiresConfirmation && !req.ConsentConfirmed {
				return nil, 0, appErrors.Clone(appErrors.ErrConsentRequired,
					fmt.Sprintf("photo consent not approved (%s); confirm to approve anyway", decision.Reason))
			}
		}
	}

	reviewedAt := nowUTC()
	if err := s.evidence.UpdateReview(ctx, evidenceID, status, actor.UserID, notes, reviewedAt); err != nil {
		if errors.Is(err, repository.ErrNoPendingRow) {
			return nil, 0, appErrors.Clone(appErrors.ErrAlreadyReviewed, "already reviewed")
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update evidence status")
	}

	item.Status = status
	item.ReviewNotes = notes
	item.ReviewedBy = &actor.UserID
	item.ReviewedAt = &reviewedAt

	if s.metrics != nil {
		s.metrics.IncReview(string(status))
	}

	emails := s.notifySubmitter(ctx, item, actor.FullName, notes)

	if status == models.EvidenceApproved {
		if err := s.progression.CheckAndUpdateSchoolProgression(ctx, item.SchoolID); err != nil {
			s.logger.Warn("progression recheck after approval failed", zap.String("school_id", item.SchoolID), zap.Error(err))
		}
	}

	s.recordAudit(ctx, actor.UserID, models.AuditActionEvidenceReview, evidenceID, map[string]interface{}{
		"status": status,
		"notes":  notes,
	})

	return item, emails, nil
}

func (s *ReviewService) notifySubmitter(ctx context.Context, item *models.Evidence, reviewerName, notes string) int {
	submitter, err := s.users.FindByID(ctx, item.SubmittedBy)
	if err != nil {
		s.logger.Warn("failed to resolve submitter for notification", zap.String("evidence_id", item.ID), zap.Error(err))
		return 0
	}
	var queued bool
	if item.Status == models.EvidenceApproved {
		queued = s.notifier.SendApprovalNotice(ctx, item, submitter.FullName, submitter.Email, reviewerName)
	} else {
		queued = s.notifier.SendRejectionNotice(ctx, item, submitter.FullName, submitter.Email, reviewerName, notes)
	}
	if queued {
		return 1
	}
	return 0
}

// ReviewBulk applies ReviewOne semantics per item, isolating failures so a
// bad id never aborts the rest of the batch.
func (s *ReviewService) ReviewBulk(ctx context.Context, req dto.BulkReviewRequest, actor *models.JWTClaims) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk review payload")
	}
	result := &dto.BulkResult{Success: []string{}, Failed: []dto.BulkFailure{}}
	itemReq := dto.ReviewRequest{Status: req.Status, ReviewNotes: req.ReviewNotes, ConsentConfirmed: req.ConsentConfirmed}
	for _, id := range req.EvidenceIDs {
		_, emails, err := s.reviewItem(ctx, id, itemReq, actor)
		if err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{ID: id, Reason: appErrors.FromError(err).Message})
			continue
		}
		result.Success = append(result.Success, id)
		result.EmailsProcessed += emails
	}
	return result, nil
}

// BulkDelete removes evidence items with per-item isolation. Admin only;
// route-level RBAC enforces the role.
func (s *ReviewService) BulkDelete(ctx context.Context, req dto.BulkDeleteRequest, actor *models.JWTClaims) (*dto.BulkResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}
	result := &dto.BulkResult{Success: []string{}, Failed: []dto.BulkFailure{}}
	for _, id := range req.EvidenceIDs {
		item, err := s.evidence.FindByID(ctx, id)
		if err != nil {
			reason := "not found"
			if !errors.Is(err, sql.ErrNoRows) {
				reason = "failed to load evidence"
			}
			result.Failed = append(result.Failed, dto.BulkFailure{ID: id, Reason: reason})
			continue
		}
		if err := s.evidence.Delete(ctx, id); err != nil {
			result.Failed = append(result.Failed, dto.BulkFailure{ID: id, Reason: "failed to delete"})
			continue
		}
		for _, url := range item.FileURLs {
			if err := s.files.Delete(url); err != nil {
				s.logger.Warn("failed to delete evidence file", zap.String("evidence_id", id), zap.String("file", url), zap.Error(err))
			}
		}
		s.recordAudit(ctx, actor.UserID, models.AuditActionEvidenceDelete, id, nil)
		result.Success = append(result.Success, id)
	}
	return result, nil
}

// Assign sets or clears the reviewer on an evidence item. A non-nil
// assignee receives an in-app notification.
func (s *ReviewService) Assign(ctx context.Context, evidenceID string, assignedTo *string, actor *models.JWTClaims) (*models.Evidence, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	item, err := s.evidence.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}

	if assignedTo != nil {
		if _, err := s.users.FindByID(ctx, *assignedTo); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "assignee not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
		}
	}

	if err := s.evidence.UpdateAssignment(ctx, evidenceID, assignedTo); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign evidence")
	}
	item.AssignedTo = assignedTo

	if assignedTo != nil {
		s.notifier.NotifyAssignee(ctx, *assignedTo, evidenceID)
	}

	s.recordAudit(ctx, actor.UserID, models.AuditActionEvidenceAssign, evidenceID, map[string]interface{}{
		"assigned_to": assignedTo,
	})
	return item, nil
}

// CheckDuplicate looks for other live evidence covering the same
// requirement in the school's current round.
func (s *ReviewService) CheckDuplicate(ctx context.Context, evidenceID, requirementID string) (*dto.DuplicateCheckResult, error) {
	item, err := s.evidence.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}
	requirement, err := s.requirements.FindByID(ctx, requirementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}
	school, err := s.schools.FindByID(ctx, item.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	duplicate, err := s.evidence.FindDuplicate(ctx, item.SchoolID, requirementID, school.CurrentRound, evidenceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "duplicate check failed")
	}
	result := &dto.DuplicateCheckResult{}
	if duplicate != nil {
		result.HasDuplicate = true
		result.RequirementTitle = requirement.Title
		result.Duplicate = &dto.EvidenceStub{
			ID:          duplicate.ID,
			Title:       duplicate.Title,
			Status:      string(duplicate.Status),
			RoundNumber: duplicate.RoundNumber,
		}
	}
	return result, nil
}

// AssignRequirement links evidence to a requirement, re-staging it to the
// requirement's stage. An existing different requirement is a conflict
// unless allowOverwrite is set. Triggers a progression recheck because the
// change can retroactively satisfy a stage.
func (s *ReviewService) AssignRequirement(ctx context.Context, evidenceID string, req dto.AssignRequirementRequest, actor *models.JWTClaims) (*models.Evidence, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement assignment payload")
	}
	item, err := s.evidence.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}
	if item.IsBonus {
		return nil, appErrors.Clone(appErrors.ErrValidation, "evidence is marked bonus; unmark it before assigning a requirement")
	}

	requirement, err := s.requirements.FindByID(ctx, req.EvidenceRequirementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}

	if item.EvidenceRequirementID != nil && *item.EvidenceRequirementID != req.EvidenceRequirementID && !req.AllowOverwrite {
		stub := dto.RequirementStub{ID: *item.EvidenceRequirementID, Title: *item.EvidenceRequirementID}
		if current, err := s.requirements.FindByID(ctx, *item.EvidenceRequirementID); err == nil {
			stub.Title = current.Title
			stub.Stage = string(current.Stage)
		}
		conflict := appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("evidence is already assigned to requirement %q; set allowOverwrite to replace it", stub.Title))
		return nil, conflict.WithDetails(map[string]interface{}{"currentRequirement": stub})
	}

	if err := s.evidence.UpdateRequirement(ctx, evidenceID, &req.EvidenceRequirementID, requirement.Stage); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign requirement")
	}
	item.EvidenceRequirementID = &req.EvidenceRequirementID
	item.Stage = requirement.Stage

	if err := s.progression.CheckAndUpdateSchoolProgression(ctx, item.SchoolID); err != nil {
		s.logger.Warn("progression recheck after requirement assignment failed", zap.String("school_id", item.SchoolID), zap.Error(err))
	}

	s.recordAudit(ctx, actor.UserID, models.AuditActionRequirementAssign, evidenceID, map[string]interface{}{
		"requirement_id": req.EvidenceRequirementID,
		"stage":          requirement.Stage,
	})
	return item, nil
}

// MarkBonus toggles the bonus marker. Marking bonus while a requirement is
// assigned is invalid; the requirement must be unassigned first.
func (s *ReviewService) MarkBonus(ctx context.Context, evidenceID string, isBonus bool, actor *models.JWTClaims) (*models.Evidence, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	item, err := s.evidence.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}
	if isBonus && item.EvidenceRequirementID != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "evidence has an assigned requirement; unassign it before marking bonus")
	}

	if err := s.evidence.UpdateBonus(ctx, evidenceID, isBonus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update bonus flag")
	}
	item.IsBonus = isBonus

	if err := s.progression.CheckAndUpdateSchoolProgression(ctx, item.SchoolID); err != nil {
		s.logger.Warn("progression recheck after bonus toggle failed", zap.String("school_id", item.SchoolID), zap.Error(err))
	}

	s.recordAudit(ctx, actor.UserID, models.AuditActionBonusToggle, evidenceID, map[string]interface{}{
		"is_bonus": isBonus,
	})
	return item, nil
}

func (s *ReviewService) recordAudit(ctx context.Context, actorID, action, targetID string, details map[string]interface{}) {
	var payload []byte
	if details != nil {
		payload, _ = json.Marshal(details)
	}
	err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "evidence",
		ResourceID: &targetID,
		NewValues:  payload,
	})
	if err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
