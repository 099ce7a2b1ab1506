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

type requirementRepository interface {
	Create(ctx context.Context, req *models.EvidenceRequirement) error
	FindByID(ctx context.Context, id string) (*models.EvidenceRequirement, error)
	List(ctx context.Context) ([]models.EvidenceRequirement, error)
	ListByStage(ctx context.Context, stage models.Stage) ([]models.EvidenceRequirement, error)
	Update(ctx context.Context, req *models.EvidenceRequirement) error
	Delete(ctx context.Context, id string) error
}

type requirementEvidenceChecker interface {
	HasEvidenceForRequirement(ctx context.Context, requirementID string) (bool, error)
}

// RequirementService manages the evidence requirement catalogue. Deleting
// a requirement that evidence already links to is refused so approved
// history stays explainable.
type RequirementService struct {
	repo      requirementRepository
	evidence  requirementEvidenceChecker
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequirementService constructs the service.
func NewRequirementService(repo requirementRepository, evidence requirementEvidenceChecker, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *RequirementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("evidence_stage", func(fl validator.FieldLevel) bool {
		return models.ValidStage(models.Stage(fl.Field().String()))
	})
	return &RequirementService{repo: repo, evidence: evidence, audit: audit, validator: validate, logger: logger}
}

// List returns all requirements, optionally filtered to one stage.
func (s *RequirementService) List(ctx context.Context, stage string) ([]models.EvidenceRequirement, error) {
	if stage != "" {
		st := models.Stage(stage)
		if !models.ValidStage(st) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown stage")
		}
		items, err := s.repo.ListByStage(ctx, st)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requirements")
		}
		return items, nil
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requirements")
	}
	return items, nil
}

// Get returns one requirement by id.
func (s *RequirementService) Get(ctx context.Context, id string) (*models.EvidenceRequirement, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}
	return item, nil
}

// Create adds a requirement to the catalogue.
func (s *RequirementService) Create(ctx context.Context, req dto.RequirementRequest, actor *models.JWTClaims) (*models.EvidenceRequirement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement payload")
	}
	item := &models.EvidenceRequirement{
		Title:        req.Title,
		Description:  req.Description,
		Stage:        models.Stage(req.Stage),
		OrderIndex:   req.OrderIndex,
		Translations: models.TranslationsMap(req.Translations),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create requirement")
	}
	s.recordAudit(ctx, actor.UserID, item.ID, "create")
	return item, nil
}

// Update modifies an existing requirement.
func (s *RequirementService) Update(ctx context.Context, id string, req dto.RequirementRequest, actor *models.JWTClaims) (*models.EvidenceRequirement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement payload")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}
	item.Title = req.Title
	item.Description = req.Description
	item.Stage = models.Stage(req.Stage)
	item.OrderIndex = req.OrderIndex
	item.Translations = models.TranslationsMap(req.Translations)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update requirement")
	}
	s.recordAudit(ctx, actor.UserID, item.ID, "update")
	return item, nil
}

// Delete removes a requirement. Requirements referenced by evidence are
// protected and return a conflict.
func (s *RequirementService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "evidence requirement not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirement")
	}
	linked, err := s.evidence.HasEvidenceForRequirement(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check linked evidence")
	}
	if linked {
		return appErrors.Clone(appErrors.ErrConflict, "requirement has linked evidence; reassign or delete the evidence first")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete requirement")
	}
	s.recordAudit(ctx, actor.UserID, id, "delete")
	return nil
}

func (s *RequirementService) recordAudit(ctx context.Context, actorID, requirementID, change string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{"change": change})
	err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRequirementManage,
		Resource:   "evidence_requirement",
		ResourceID: &requirementID,
		NewValues:  payload,
	})
	if err != nil {
		s.logger.Warn("failed to record requirement audit log", zap.String("requirement_id", requirementID), zap.Error(err))
	}
}
