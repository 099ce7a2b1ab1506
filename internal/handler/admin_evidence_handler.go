package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greensteps/greensteps-api/internal/dto"
	"github.com/greensteps/greensteps-api/internal/models"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
	"github.com/greensteps/greensteps-api/pkg/response"
)

type reviewService interface {
	ReviewOne(ctx context.Context, evidenceID string, req dto.ReviewRequest, actor *models.JWTClaims) (*models.Evidence, error)
	ReviewBulk(ctx context.Context, req dto.BulkReviewRequest, actor *models.JWTClaims) (*dto.BulkResult, error)
	BulkDelete(ctx context.Context, req dto.BulkDeleteRequest, actor *models.JWTClaims) (*dto.BulkResult, error)
	Assign(ctx context.Context, evidenceID string, assignedTo *string, actor *models.JWTClaims) (*models.Evidence, error)
	AssignRequirement(ctx context.Context, evidenceID string, req dto.AssignRequirementRequest, actor *models.JWTClaims) (*models.Evidence, error)
	CheckDuplicate(ctx context.Context, evidenceID, requirementID string) (*dto.DuplicateCheckResult, error)
	MarkBonus(ctx context.Context, evidenceID string, isBonus bool, actor *models.JWTClaims) (*models.Evidence, error)
}

type homelessLister interface {
	ListHomeless(ctx context.Context, query dto.ListEvidenceQuery, actor *models.JWTClaims) ([]models.Evidence, *models.Pagination, error)
}

// AdminEvidenceHandler wires the review-queue endpoints: approve/reject,
// bulk operations, assignment and the duplicate guard.
type AdminEvidenceHandler struct {
	reviews  reviewService
	evidence homelessLister
}

// NewAdminEvidenceHandler creates a new handler.
func NewAdminEvidenceHandler(reviews reviewService, evidence homelessLister) *AdminEvidenceHandler {
	return &AdminEvidenceHandler{reviews: reviews, evidence: evidence}
}

// Review godoc
// @Summary Review evidence
// @Description Approve or reject a pending evidence item
// @Tags Admin Evidence
// @Accept json
// @Produce json
// @Param id path string true "Evidence ID"
// @Param payload body dto.ReviewRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/evidence/{id}/review [patch]
func (h *AdminEvidenceHandler) Review(c *gin.Context) {
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	item, err := h.reviews.ReviewOne(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// BulkReview godoc
// @Summary Bulk review evidence
// @Description Apply one review decision to many evidence items, isolating per-item failures
// @Tags Admin Evidence
// @Accept json
// @Produce json
// @Param payload body dto.BulkReviewRequest true "Bulk review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/evidence/bulk-review [post]
func (h *AdminEvidenceHandler) BulkReview(c *gin.Context) {
	var req dto.BulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk review payload"))
		return
	}
	result, err := h.reviews.ReviewBulk(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkDelete godoc
// @Summary Bulk delete evidence
// @Description Delete many evidence items, isolating per-item failures
// @Tags Admin Evidence
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeleteRequest true "Bulk delete payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/evidence/bulk-delete [delete]
func (h *AdminEvidenceHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk delete payload"))
		return
	}
	result, err := h.reviews.BulkDelete(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Assign godoc
// @Summary Assign reviewer
// @Description Set or clear the reviewer assigned to an evidence item
// @Tags Admin Evidence
// @Accept json
// @Produce json
// @Param id path string true "Evidence ID"
// @Param payload body dto.AssignRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/evidence/{id}/assign [patch]
func (h *AdminEvidenceHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	item, err := h.reviews.Assign(c.Request.Context(), c.Param("id"), req.AssignedTo, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// AssignRequirement godoc
// @Summary Assign requirement
// @Description Link an evidence item to an evidence requirement, re-staging it
// @Tags Admin Evidence
// @Accept json
// @Produce json
// @Param id path string true "Evidence ID"
// @Param payload body dto.AssignRequirementRequest true "Requirement assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/evidence/{id}/assign-requirement [patch]
func (h *AdminEvidenceHandler) AssignRequirement(c *gin.Context) {
	var req dto.AssignRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement assignment payload"))
		return
	}
	item, err := h.reviews.AssignRequirement(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CheckDuplicate godoc
// @Summary Check duplicate coverage
// @Description Report whether other live evidence already covers a requirement in the school's current round
// @Tags Admin Evidence
// @Accept json
// @Produce json
// @Param id path string true "Evidence ID"
// @Param payload body dto.CheckDuplicateRequest true "Duplicate check payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/evidence/{id}/check-duplicate [post]
func (h *AdminEvidenceHandler) CheckDuplicate(c *gin.Context) {
	var req dto.CheckDuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid duplicate check payload"))
		return
	}
	result, err := h.reviews.CheckDuplicate(c.Request.Context(), c.Param("id"), req.RequirementID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MarkBonus godoc
// @Summary Toggle bonus marker
// @Description Mark or unmark an evidence item as above-and-beyond bonus
// @Tags Admin Evidence
// @Accept json
// @Produce json
// @Param id path string true "Evidence ID"
// @Param payload body dto.MarkBonusRequest true "Bonus payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/evidence/{id}/mark-bonus [patch]
func (h *AdminEvidenceHandler) MarkBonus(c *gin.Context) {
	var req dto.MarkBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bonus payload"))
		return
	}
	item, err := h.reviews.MarkBonus(c.Request.Context(), c.Param("id"), req.IsBonus, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Homeless godoc
// @Summary List homeless evidence
// @Description List evidence with neither a requirement link nor the bonus marker
// @Tags Admin Evidence
// @Produce json
// @Param schoolId query string false "School filter"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/evidence/homeless [get]
func (h *AdminEvidenceHandler) Homeless(c *gin.Context) {
	var query dto.ListEvidenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid list query"))
		return
	}
	items, pagination, err := h.evidence.ListHomeless(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}
