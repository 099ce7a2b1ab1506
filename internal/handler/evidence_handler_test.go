package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greensteps/greensteps-api/internal/dto"
	"github.com/greensteps/greensteps-api/internal/models"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
)

type evidenceServiceMock struct {
	item  *models.Evidence
	items []models.Evidence
	err   error

	lastSubmit dto.SubmitEvidenceRequest
	lastQuery  dto.ListEvidenceQuery
	deletedID  string
}

func (m *evidenceServiceMock) Submit(ctx context.Context, req dto.SubmitEvidenceRequest, actor *models.JWTClaims) (*models.Evidence, error) {
	m.lastSubmit = req
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *evidenceServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Evidence, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *evidenceServiceMock) List(ctx context.Context, query dto.ListEvidenceQuery, actor *models.JWTClaims) ([]models.Evidence, *models.Pagination, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.items, &models.Pagination{Page: 1, PageSize: 50, TotalCount: len(m.items)}, nil
}

func (m *evidenceServiceMock) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	m.deletedID = id
	return m.err
}

func TestEvidenceHandlerSubmit(t *testing.T) {
	mock := &evidenceServiceMock{item: &models.Evidence{ID: "ev-1", Status: models.EvidencePending}}
	h := NewEvidenceHandler(mock)
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	postJSON(t, c, "/evidence", dto.SubmitEvidenceRequest{
		Title:    "Garden photos",
		Stage:    "act",
		SchoolID: "sch-1",
	})

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Garden photos", mock.lastSubmit.Title)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestEvidenceHandlerSubmitInvalidBody(t *testing.T) {
	h := NewEvidenceHandler(&evidenceServiceMock{})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/evidence", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvidenceHandlerGetNotFound(t *testing.T) {
	h := NewEvidenceHandler(&evidenceServiceMock{err: appErrors.ErrNotFound})
	w := httptest.NewRecorder()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/evidence/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestEvidenceHandlerListBindsQuery(t *testing.T) {
	mock := &evidenceServiceMock{items: []models.Evidence{{ID: "ev-1", Title: "Garden photos"}}}
	h := NewEvidenceHandler(mock)
	w := httptest.NewRecorder()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/evidence?schoolId=sch-1&status=approved&search=garden", nil)
	c.Request = req

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sch-1", mock.lastQuery.SchoolID)
	assert.Equal(t, "approved", mock.lastQuery.Status)
	assert.Equal(t, "garden", mock.lastQuery.Search)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestEvidenceHandlerDelete(t *testing.T) {
	mock := &evidenceServiceMock{}
	h := NewEvidenceHandler(mock)
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/evidence/ev-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}

	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "ev-1", mock.deletedID)
}

func TestEvidenceHandlerDeleteForbidden(t *testing.T) {
	h := NewEvidenceHandler(&evidenceServiceMock{err: appErrors.ErrForbidden})
	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/evidence/ev-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ev-1"}}

	h.Delete(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
