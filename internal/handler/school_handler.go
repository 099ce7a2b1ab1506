package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/greensteps/greensteps-api/internal/service"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
	"github.com/greensteps/greensteps-api/pkg/response"
)

// SchoolHandler wires the progression view and certificate download endpoints.
type SchoolHandler struct {
	progression  *service.ProgressionService
	certificates *service.CertificateService
}

// NewSchoolHandler creates a new handler.
func NewSchoolHandler(progression *service.ProgressionService, certificates *service.CertificateService) *SchoolHandler {
	return &SchoolHandler{progression: progression, certificates: certificates}
}

// Progression godoc
// @Summary School progression
// @Description Per-stage requirement coverage and round state for a school
// @Tags Schools
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schools/{id}/progression [get]
func (h *SchoolHandler) Progression(c *gin.Context) {
	snapshot, err := h.progression.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// CertificateLink godoc
// @Summary Certificate download link
// @Description Issue a signed, expiring download link for a round certificate
// @Tags Schools
// @Produce json
// @Param id path string true "School ID"
// @Param round query int true "Round number"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schools/{id}/certificates [get]
func (h *SchoolHandler) CertificateLink(c *gin.Context) {
	round, err := strconv.Atoi(c.Query("round"))
	if err != nil || round < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "round must be a positive integer"))
		return
	}
	link, err := h.certificates.Link(c.Request.Context(), c.Param("id"), round, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadCertificate godoc
// @Summary Download certificate
// @Description Stream a certificate PDF identified by a signed token
// @Tags Schools
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/download [get]
func (h *SchoolHandler) DownloadCertificate(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	cert, file, err := h.certificates.Resolve(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="certificate_round_`+strconv.Itoa(cert.Round)+`.pdf"`)
	c.File(file.Name())
}
