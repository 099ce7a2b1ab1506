package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/greensteps/greensteps-api/internal/dto"
	"github.com/greensteps/greensteps-api/internal/service"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
	"github.com/greensteps/greensteps-api/pkg/response"
)

// RequirementHandler wires the evidence requirement catalogue endpoints.
type RequirementHandler struct {
	service *service.RequirementService
}

// NewRequirementHandler creates a new handler.
func NewRequirementHandler(svc *service.RequirementService) *RequirementHandler {
	return &RequirementHandler{service: svc}
}

// List godoc
// @Summary List requirements
// @Description List evidence requirements, optionally filtered by stage
// @Tags Requirements
// @Produce json
// @Param stage query string false "Stage filter"
// @Success 200 {object} response.Envelope
// @Router /requirements [get]
func (h *RequirementHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Query("stage"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get requirement
// @Description Fetch a single evidence requirement
// @Tags Requirements
// @Produce json
// @Param id path string true "Requirement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requirements/{id} [get]
func (h *RequirementHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create requirement
// @Description Add a requirement to the catalogue
// @Tags Requirements
// @Accept json
// @Produce json
// @Param payload body dto.RequirementRequest true "Requirement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/requirements [post]
func (h *RequirementHandler) Create(c *gin.Context) {
	var req dto.RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update requirement
// @Description Modify an existing evidence requirement
// @Tags Requirements
// @Accept json
// @Produce json
// @Param id path string true "Requirement ID"
// @Param payload body dto.RequirementRequest true "Requirement payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/requirements/{id} [put]
func (h *RequirementHandler) Update(c *gin.Context) {
	var req dto.RequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete requirement
// @Description Remove a requirement; refused while evidence links to it
// @Tags Requirements
// @Produce json
// @Param id path string true "Requirement ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/requirements/{id} [delete]
func (h *RequirementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
