package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/greensteps/greensteps-api/internal/models"
)

// CertificateRepository manages round-completion certificate records.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs a new repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// FindBySchoolRound returns the certificate for a school's round, or nil.
func (r *CertificateRepository) FindBySchoolRound(ctx context.Context, schoolID string, round int) (*models.Certificate, error) {
	var cert models.Certificate
	query := `SELECT id, school_id, round, file_path, generated_at FROM certificates WHERE school_id = $1 AND round = $2`
	if err := r.db.GetContext(ctx, &cert, query, schoolID, round); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &cert, nil
}

// FindByID returns a certificate by id. Returns sql.ErrNoRows when absent.
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*models.Certificate, error) {
	var cert models.Certificate
	query := `SELECT id, school_id, round, file_path, generated_at FROM certificates WHERE id = $1`
	if err := r.db.GetContext(ctx, &cert, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &cert, nil
}

// Create inserts a certificate record. The (school_id, round) unique
// constraint is the idempotency backstop for racing progression runs.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.GeneratedAt.IsZero() {
		cert.GeneratedAt = time.Now().UTC()
	}
	query := `INSERT INTO certificates (id, school_id, round, file_path, generated_at)
VALUES (:id, :school_id, :round, :file_path, :generated_at)
ON CONFLICT (school_id, round) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}
