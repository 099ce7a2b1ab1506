package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greensteps/greensteps-api/internal/models"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
	"github.com/greensteps/greensteps-api/pkg/storage"
)

type stubCertificateReader struct {
	certs map[string]*models.Certificate
}

func (s *stubCertificateReader) FindBySchoolRound(ctx context.Context, schoolID string, round int) (*models.Certificate, error) {
	for _, cert := range s.certs {
		if cert.SchoolID == schoolID && cert.Round == round {
			return cert, nil
		}
	}
	return nil, nil
}

func (s *stubCertificateReader) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	if cert, ok := s.certs[id]; ok {
		return cert, nil
	}
	return nil, sql.ErrNoRows
}

func newCertificateFixture(t *testing.T) (*CertificateService, *stubCertificateReader, *storage.LocalStorage) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	certs := &stubCertificateReader{certs: map[string]*models.Certificate{
		"cert-1": {ID: "cert-1", SchoolID: "sch-1", Round: 1, FilePath: "certificate_sch-1_round_1.pdf", GeneratedAt: time.Now()},
	}}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewCertificateService(certs, files, signer, nil)
	return svc, certs, files
}

func memberOf(schoolID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleMember, SchoolID: &schoolID}
}

func TestCertificateLinkAndResolve(t *testing.T) {
	svc, _, files := newCertificateFixture(t)
	_, err := files.Save("certificate_sch-1_round_1.pdf", []byte("%PDF-1.4 test"))
	require.NoError(t, err)

	link, err := svc.Link(context.Background(), "sch-1", 1, memberOf("sch-1"))
	require.NoError(t, err)
	assert.Equal(t, "cert-1", link.CertificateID)
	assert.Contains(t, link.URL, "/api/v1/certificates/download?token=")
	assert.True(t, link.ExpiresAt.After(time.Now()))

	token := link.URL[len("/api/v1/certificates/download?token="):]
	cert, file, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "cert-1", cert.ID)
}

func TestCertificateLinkOtherSchoolForbidden(t *testing.T) {
	svc, _, _ := newCertificateFixture(t)

	_, err := svc.Link(context.Background(), "sch-1", 1, memberOf("sch-2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Admins are not bound to a school.
	_, err = svc.Link(context.Background(), "sch-1", 1, adminClaims())
	require.NoError(t, err)
}

func TestCertificateLinkMissingRound(t *testing.T) {
	svc, _, _ := newCertificateFixture(t)

	_, err := svc.Link(context.Background(), "sch-1", 9, memberOf("sch-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCertificateResolveBadToken(t *testing.T) {
	svc, _, _ := newCertificateFixture(t)

	_, _, err := svc.Resolve(context.Background(), "tampered")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestCertificateResolveMissingFile(t *testing.T) {
	svc, _, _ := newCertificateFixture(t)

	link, err := svc.Link(context.Background(), "sch-1", 1, memberOf("sch-1"))
	require.NoError(t, err)
	token := link.URL[len("/api/v1/certificates/download?token="):]

	_, _, err = svc.Resolve(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
