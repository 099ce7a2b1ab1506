package service

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/greensteps/greensteps-api/internal/dto"
	"github.com/greensteps/greensteps-api/internal/models"
	appErrors "github.com/greensteps/greensteps-api/pkg/errors"
	"github.com/greensteps/greensteps-api/pkg/storage"
)

type certificateReader interface {
	FindBySchoolRound(ctx context.Context, schoolID string, round int) (*models.Certificate, error)
	FindByID(ctx context.Context, id string) (*models.Certificate, error)
}

type certificateOpener interface {
	Open(filename string) (*os.File, error)
}

// CertificateService issues short-lived signed download links for round
// certificates and resolves those links back to the stored PDF. Tokens are
// self-contained so downloads need no session.
type CertificateService struct {
	certificates certificateReader
	files        certificateOpener
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
}

// NewCertificateService constructs the service.
func NewCertificateService(
	certificates certificateReader,
	files certificateOpener,
	signer *storage.SignedURLSigner,
	logger *zap.Logger,
) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		certificates: certificates,
		files:        files,
		signer:       signer,
		logger:       logger,
	}
}

// Link returns a signed download link for a school's round certificate.
// Members may only fetch links for their own school.
func (s *CertificateService) Link(ctx context.Context, schoolID string, round int, actor *models.JWTClaims) (*dto.CertificateLink, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleMember {
		if actor.SchoolID == nil || *actor.SchoolID != schoolID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "certificate belongs to another school")
		}
	}

	cert, err := s.certificates.FindBySchoolRound(ctx, schoolID, round)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if cert == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no certificate for this round")
	}

	token, expiresAt, err := s.signer.Generate(cert.ID, cert.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.CertificateLink{
		CertificateID: cert.ID,
		Round:         cert.Round,
		URL:           "/api/v1/certificates/download?token=" + token,
		ExpiresAt:     expiresAt,
	}, nil
}

// Resolve validates a download token and opens the certificate file. The
// caller owns closing the returned file.
func (s *CertificateService) Resolve(ctx context.Context, token string) (*models.Certificate, *os.File, error) {
	certID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	cert, err := s.certificates.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if cert.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match certificate")
	}
	file, err := s.files.Open(cert.FilePath)
	if err != nil {
		s.logger.Error("certificate file missing", zap.String("certificate_id", cert.ID), zap.Error(err))
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "certificate file unavailable")
	}
	return cert, file, nil
}
