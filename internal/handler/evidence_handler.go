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

type evidenceService interface {
	Submit(ctx context.Context, req dto.SubmitEvidenceRequest, actor *models.JWTClaims) (*models.Evidence, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Evidence, error)
	List(ctx context.Context, query dto.ListEvidenceQuery, actor *models.JWTClaims) ([]models.Evidence, *models.Pagination, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// EvidenceHandler wires the evidence submission and browsing endpoints.
type EvidenceHandler struct {
	service evidenceService
}

// NewEvidenceHandler creates a new handler.
func NewEvidenceHandler(svc evidenceService) *EvidenceHandler {
	return &EvidenceHandler{service: svc}
}

// Submit godoc
// @Summary Submit evidence
// @Description Create a new evidence item for a school
// @Tags Evidence
// @Accept json
// @Produce json
// @Param payload body dto.SubmitEvidenceRequest true "Evidence payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /evidence [post]
func (h *EvidenceHandler) Submit(c *gin.Context) {
	var req dto.SubmitEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evidence payload"))
		return
	}

	item, err := h.service.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// Get godoc
// @Summary Get evidence
// @Description Fetch a single evidence item by id
// @Tags Evidence
// @Produce json
// @Param id path string true "Evidence ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evidence/{id} [get]
func (h *EvidenceHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// List godoc
// @Summary List evidence
// @Description List evidence with filtering, search, sorting and pagination
// @Tags Evidence
// @Produce json
// @Param schoolId query string false "School filter"
// @Param status query string false "Status filter"
// @Param round query int false "Round filter"
// @Param search query string false "Title search"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /evidence [get]
func (h *EvidenceHandler) List(c *gin.Context) {
	var query dto.ListEvidenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid list query"))
		return
	}

	items, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Delete godoc
// @Summary Delete evidence
// @Description Delete an evidence item and its stored files
// @Tags Evidence
// @Produce json
// @Param id path string true "Evidence ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evidence/{id} [delete]
func (h *EvidenceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
