package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greensteps/greensteps-api/internal/dto"
	"github.com/greensteps/greensteps-api/internal/models"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
)

type evidenceRepository interface {
	Create(ctx context.Context, item *models.Evidence) error
	FindByID(ctx context.Context, id string) (*models.Evidence, error)
	List(ctx context.Context, filter models.EvidenceFilter) ([]models.Evidence, int, error)
	Delete(ctx context.Context, id string) error
}

type schoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
	IsMember(ctx context.Context, userID, schoolID string) (bool, error)
}

type requirementReader interface {
	FindByID(ctx context.Context, id string) (*models.EvidenceRequirement, error)
}

type submissionNotifier interface {
	SendSubmissionConfirmation(ctx context.Context, ev *models.Evidence, recipientName, recipientEmail string) bool
}

type progressionTrigger interface {
	CheckAndUpdateSchoolProgression(ctx context.Context, schoolID string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type fileRemover interface {
	Delete(filename string) error
}

type submissionMetrics interface {
	IncSubmission()
}

// EvidenceService owns the evidence lifecycle: submission, retrieval, and
// pending-state deletion. Review transitions live in ReviewService.
type EvidenceService struct {
	repo         evidenceRepository
	schools      schoolReader
	requirements requirementReader
	notifier     submissionNotifier
	progression  progressionTrigger
	audit        auditRecorder
	files        fileRemover
	metrics      submissionMetrics
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewEvidenceService constructs the service.
func NewEvidenceService(
	repo evidenceRepository,
	schools schoolReader,
	requirements requirementReader,
	notifier submissionNotifier,
	progression progressionTrigger,
	audit auditRecorder,
	files fileRemover,
	metrics submissionMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *EvidenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EvidenceService{
		repo:         repo,
		schools:      schools,
		requirements: requirements,
		notifier:     notifier,
		progression:  progression,
		audit:        audit,
		files:        files,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
	_ = svc.validator.RegisterValidation("evidence_stage", func(fl validator.FieldLevel) bool {
		return models.ValidStage(models.Stage(fl.Field().String()))
	})
	return svc
}

// Submit creates an evidence item. Round number is tagged from the owning
// school's current round. Administrators' own submissions are auto-approved
// without a confirmation email but still trigger progression.
func (s *EvidenceService) Submit(ctx context.Context, req dto.SubmitEvidenceRequest, actor *models.JWTClaims) (*models.Evidence, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evidence payload")
	}
	if req.IsBonus && req.EvidenceRequirementID != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bonus evidence cannot reference a requirement")
	}

	school, err := s.schools.FindByID(ctx, req.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	if actor.Role != models.RoleAdmin && actor.Role != models.RolePartner {
		member, err := s.schools.IsMember(ctx, actor.UserID, req.SchoolID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
		}
		if !member {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only school members may submit evidence for this school")
		}
	}

	stage := models.Stage(req.Stage)
	if req.EvidenceRequirementID != nil {
		requirement, err := s.requirements.FindByID(ctx, *req.EvidenceRequirementID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence requirement not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
		}
		// Evidence linked to a requirement always carries that requirement's stage.
		stage = requirement.Stage
	}

	visibility := models.Visibility(req.Visibility)
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}

	item := &models.Evidence{
		Title:                 req.Title,
		Description:           req.Description,
		Stage:                 stage,
		Status:                models.EvidencePending,
		Visibility:            visibility,
		RoundNumber:           school.CurrentRound,
		SchoolID:              req.SchoolID,
		SubmittedBy:           actor.UserID,
		EvidenceRequirementID: req.EvidenceRequirementID,
		IsBonus:               req.IsBonus,
		FileURLs:              req.FileURLs,
		VideoLinks:            req.VideoLinks,
	}

	isAdmin := actor.Role == models.RoleAdmin
	if isAdmin {
		now := nowUTC()
		item.Status = models.EvidenceApproved
		item.ReviewedBy = &actor.UserID
		item.ReviewedAt = &now
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evidence")
	}

	if s.metrics != nil {
		s.metrics.IncSubmission()
	}

	s.recordAudit(ctx, actor.UserID, models.AuditActionEvidenceSubmit, item.ID, map[string]interface{}{
		"school_id": item.SchoolID,
		"stage":     item.Stage,
		"status":    item.Status,
		"round":     item.RoundNumber,
	})

	if isAdmin {
		// Admins are not emailed their own approvals, but progression still runs.
		if err := s.progression.CheckAndUpdateSchoolProgression(ctx, item.SchoolID); err != nil {
			s.logger.Warn("progression recheck after admin submission failed", zap.String("school_id", item.SchoolID), zap.Error(err))
		}
	} else {
		s.notifier.SendSubmissionConfirmation(ctx, item, actor.FullName, actor.Email)
	}

	return item, nil
}

// Get returns a single evidence item subject to visibility rules: admins see
// everything, members of the owning school see their school's items, and
// everyone else sees approved items only.
func (s *EvidenceService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Evidence, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}
	if s.canView(actor, item) {
		return item, nil
	}
	// Non-approved items are indistinguishable from absent ones for outsiders.
	return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
}

func (s *EvidenceService) canView(actor *models.JWTClaims, item *models.Evidence) bool {
	if item.Status == models.EvidenceApproved {
		return true
	}
	if actor == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.SchoolID != nil && *actor.SchoolID == item.SchoolID
}

// List returns evidence matching the filters. Non-admin callers outside the
// owning school are restricted to approved items.
func (s *EvidenceService) List(ctx context.Context, query dto.ListEvidenceQuery, actor *models.JWTClaims) ([]models.Evidence, *models.Pagination, error) {
	filter := models.EvidenceFilter{
		SchoolID:      query.SchoolID,
		AssignedTo:    query.AssignedTo,
		RequirementID: query.RequirementID,
		Round:         query.Round,
		DateFrom:      query.DateFrom,
		DateTo:        query.DateTo,
		Search:        query.Search,
		SortBy:        query.SortBy,
		SortOrder:     query.SortOrder,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	if query.Status != "" {
		status := models.EvidenceStatus(query.Status)
		filter.Status = &status
	}
	if query.Visibility != "" {
		visibility := models.Visibility(query.Visibility)
		filter.Visibility = &visibility
	}

	if !s.canListNonApproved(actor, query.SchoolID) {
		approved := models.EvidenceApproved
		filter.Status = &approved
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evidence")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListHomeless returns evidence with neither a requirement link nor the
// bonus marker, the review-queue backlog admins triage.
func (s *EvidenceService) ListHomeless(ctx context.Context, query dto.ListEvidenceQuery, actor *models.JWTClaims) ([]models.Evidence, *models.Pagination, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "admin role required")
	}
	filter := models.EvidenceFilter{
		SchoolID:  query.SchoolID,
		Round:     query.Round,
		Search:    query.Search,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Page:      query.Page,
		PageSize:  query.PageSize,
		Homeless:  true,
	}
	if query.Status != "" {
		status := models.EvidenceStatus(query.Status)
		filter.Status = &status
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evidence")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *EvidenceService) canListNonApproved(actor *models.JWTClaims, schoolID string) bool {
	if actor == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	return schoolID != "" && actor.SchoolID != nil && *actor.SchoolID == schoolID
}

// Delete removes an evidence item. Non-admin requesters must belong to the
// owning school and the item must still be pending.
func (s *EvidenceService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "evidence not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}

	if actor.Role != models.RoleAdmin {
		if item.Status != models.EvidencePending {
			return appErrors.Clone(appErrors.ErrForbidden, "only pending evidence can be deleted")
		}
		member, err := s.schools.IsMember(ctx, actor.UserID, item.SchoolID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
		}
		if !member {
			return appErrors.Clone(appErrors.ErrForbidden, "only members of the owning school can delete evidence")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete evidence")
	}

	for _, url := range item.FileURLs {
		if err := s.files.Delete(url); err != nil {
			s.logger.Warn("failed to delete evidence file", zap.String("evidence_id", id), zap.String("file", url), zap.Error(err))
		}
	}

	s.recordAudit(ctx, actor.UserID, models.AuditActionEvidenceDelete, id, map[string]interface{}{
		"school_id": item.SchoolID,
		"status":    item.Status,
	})
	return nil
}

func (s *EvidenceService) recordAudit(ctx context.Context, actorID, action, targetID string, details map[string]interface{}) {
	payload, _ := json.Marshal(details)
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
