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

// RequirementRepository manages persistence for evidence requirements.
type RequirementRepository struct {
	db *sqlx.DB
}

// NewRequirementRepository constructs a new repository.
func NewRequirementRepository(db *sqlx.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

// Create inserts a new requirement.
func (r *RequirementRepository) Create(ctx context.Context, req *models.EvidenceRequirement) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	query := `INSERT INTO evidence_requirements (id, title, description, stage, order_index, translations, created_at, updated_at)
VALUES (:id, :title, :description, :stage, :order_index, :translations, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create requirement: %w", err)
	}
	return nil
}

// FindByID fetches a requirement. Returns sql.ErrNoRows when absent.
func (r *RequirementRepository) FindByID(ctx context.Context, id string) (*models.EvidenceRequirement, error) {
	var req models.EvidenceRequirement
	query := `SELECT id, title, description, stage, order_index, translations, created_at, updated_at
FROM evidence_requirements WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find requirement: %w", err)
	}
	return &req, nil
}

// List returns all requirements ordered by stage and ordering index.
func (r *RequirementRepository) List(ctx context.Context) ([]models.EvidenceRequirement, error) {
	query := `SELECT id, title, description, stage, order_index, translations, created_at, updated_at
FROM evidence_requirements ORDER BY stage, order_index, created_at`
	var reqs []models.EvidenceRequirement
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return reqs, nil
}

// ListByStage returns the required (non-bonus) requirements for a stage.
func (r *RequirementRepository) ListByStage(ctx context.Context, stage models.Stage) ([]models.EvidenceRequirement, error) {
	query := `SELECT id, title, description, stage, order_index, translations, created_at, updated_at
FROM evidence_requirements WHERE stage = $1 ORDER BY order_index, created_at`
	var reqs []models.EvidenceRequirement
	if err := r.db.SelectContext(ctx, &reqs, query, string(stage)); err != nil {
		return nil, fmt.Errorf("list stage requirements: %w", err)
	}
	return reqs, nil
}

// Update modifies an existing requirement.
func (r *RequirementRepository) Update(ctx context.Context, req *models.EvidenceRequirement) error {
	req.UpdatedAt = time.Now().UTC()
	query := `UPDATE evidence_requirements SET title = :title, description = :description, stage = :stage,
order_index = :order_index, translations = :translations, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	return nil
}

// Delete removes a requirement.
func (r *RequirementRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM evidence_requirements WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	return nil
}
