package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greensteps/greensteps-api/internal/dto"
	"github.com/greensteps/greensteps-api/internal/middleware"
	"github.com/greensteps/greensteps-api/internal/models"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
)

type reviewServiceMock struct {
	item      *models.Evidence
	bulk      *dto.BulkResult
	duplicate *dto.DuplicateCheckResult
	err       error

	lastReview  dto.ReviewRequest
	lastBulkIDs []string
}

func (m *reviewServiceMock) ReviewOne(ctx context.Context, evidenceID string, req dto.ReviewRequest, actor *models.JWTClaims) (*models.Evidence, error) {
	m.lastReview = req
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *reviewServiceMock) ReviewBulk(ctx context.Context, req dto.BulkReviewRequest, actor *models.JWTClaims) (*dto.BulkResult, error) {
	m.lastBulkIDs = req.EvidenceIDs
	if m.err != nil {
		return nil, m.err
	}
	return m.bulk, nil
}

func (m *reviewServiceMock) BulkDelete(ctx context.Context, req dto.BulkDeleteRequest, actor *models.JWTClaims) (*dto.BulkResult, error) {
	m.lastBulkIDs = req.EvidenceIDs
	if m.err != nil {
		return nil, m.err
	}
	return m.bulk, nil
}

func (m *reviewServiceMock) Assign(ctx context.Context, evidenceID string, assignedTo *string, actor *models.JWTClaims) (*models.Evidence, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *reviewServiceMock) AssignRequirement(ctx context.Context, evidenceID string, req dto.AssignRequirementRequest, actor *models.JWTClaims) (*models.Evidence, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *reviewServiceMock) CheckDuplicate(ctx context.Context, evidenceID, requirementID string) (*dto.DuplicateCheckResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.duplicate, nil
}

func (m *reviewServiceMock) MarkBonus(ctx context.Context, evidenceID string, isBonus bool, actor *models.JWTClaims) (*models.Evidence, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

type homelessListerMock struct {
	items []models.Evidence
	err   error
}

func (m *homelessListerMock) ListHomeless(ctx context.Context, query dto.ListEvidenceQuery, actor *models.JWTClaims) ([]models.Evidence, *models.Pagination, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.items, &models.Pagination{Page: 1, PageSize: 50, TotalCount: len(m.items)}, nil
}

func postJSON(t *testing.T, c *gin.Context, target string, payload interface{}) {
	t.Helper()
	sendJSON(t, c, http.MethodPost, target, payload)
}

func sendJSON(t *testing.T, c *gin.Context, method, target string, payload interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
}

func adminContext(w *httptest.ResponseRecorder) (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, r := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, FullName: "Admin One"})
	return c, r
}

func TestAdminEvidenceHandlerReview(t *testing.T) {
	mock := &reviewServiceMock{item: &models.Evidence{ID: "ev-1", Status: models.EvidenceApproved}}
	h := NewAdminEvidenceHandler(mock, &homelessListerMock{})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	sendJSON(t, c, http.MethodPatch, "/admin/evidence/ev-1/review", dto.ReviewRequest{Status: "approved"})
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}

	h.Review(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", mock.lastReview.Status)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)
}

func TestAdminEvidenceHandlerReviewConflict(t *testing.T) {
	mock := &reviewServiceMock{err: appErrors.ErrAlreadyReviewed}
	h := NewAdminEvidenceHandler(mock, &homelessListerMock{})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	sendJSON(t, c, http.MethodPatch, "/admin/evidence/ev-1/review", dto.ReviewRequest{Status: "approved"})
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}

	h.Review(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminEvidenceHandlerReviewConsentRequired(t *testing.T) {
	mock := &reviewServiceMock{err: appErrors.ErrConsentRequired}
	h := NewAdminEvidenceHandler(mock, &homelessListerMock{})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	sendJSON(t, c, http.MethodPatch, "/admin/evidence/ev-1/review", dto.ReviewRequest{Status: "approved"})
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}

	h.Review(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrConsentRequired.Code)
}

func TestAdminEvidenceHandlerReviewInvalidBody(t *testing.T) {
	h := NewAdminEvidenceHandler(&reviewServiceMock{}, &homelessListerMock{})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/admin/evidence/ev-1/review", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Review(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminEvidenceHandlerBulkReview(t *testing.T) {
	mock := &reviewServiceMock{bulk: &dto.BulkResult{
		Success:         []string{"ev-1"},
		Failed:          []dto.BulkFailure{{ID: "ev-2", Reason: "evidence has already been reviewed"}},
		EmailsProcessed: 1,
	}}
	h := NewAdminEvidenceHandler(mock, &homelessListerMock{})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	postJSON(t, c, "/admin/evidence/bulk-review", dto.BulkReviewRequest{EvidenceIDs: []string{"ev-1", "ev-2"}, Status: "approved"})

	h.BulkReview(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ev-1", "ev-2"}, mock.lastBulkIDs)
	assert.Contains(t, w.Body.String(), `"emailsProcessed":1`)
	assert.Contains(t, w.Body.String(), "already been reviewed")
}

func TestAdminEvidenceHandlerBulkDelete(t *testing.T) {
	mock := &reviewServiceMock{bulk: &dto.BulkResult{Success: []string{"ev-1", "ev-2"}, Failed: []dto.BulkFailure{}}}
	h := NewAdminEvidenceHandler(mock, &homelessListerMock{})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	sendJSON(t, c, http.MethodDelete, "/admin/evidence/bulk-delete", dto.BulkDeleteRequest{EvidenceIDs: []string{"ev-1", "ev-2"}})

	h.BulkDelete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"emailsProcessed":0`)
}

func TestAdminEvidenceHandlerCheckDuplicate(t *testing.T) {
	mock := &reviewServiceMock{duplicate: &dto.DuplicateCheckResult{
		HasDuplicate:     true,
		Duplicate:        &dto.EvidenceStub{ID: "ev-2", Title: "Garden photos", Status: "approved", RoundNumber: 1},
		RequirementTitle: "Plant a garden",
	}}
	h := NewAdminEvidenceHandler(mock, &homelessListerMock{})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	postJSON(t, c, "/admin/evidence/ev-1/check-duplicate", dto.CheckDuplicateRequest{RequirementID: "req-1"})
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}

	h.CheckDuplicate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hasDuplicate":true`)
	assert.Contains(t, w.Body.String(), "Plant a garden")
}

func TestAdminEvidenceHandlerHomeless(t *testing.T) {
	lister := &homelessListerMock{items: []models.Evidence{{ID: "ev-9", Title: "Unsorted photos"}}}
	h := NewAdminEvidenceHandler(&reviewServiceMock{}, lister)
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/admin/evidence/homeless", nil)
	c.Request = req

	h.Homeless(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ev-9")
	assert.Contains(t, w.Body.String(), `"pagination"`)
}
