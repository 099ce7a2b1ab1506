package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/greensteps/greensteps-api/internal/models"
)

// SchoolRepository manages persistence for school records.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a new repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// FindByID fetches a school. Returns sql.ErrNoRows when absent.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	var school models.School
	query := `SELECT id, name, contact_email, current_round, inspire_completed, investigate_completed,
act_completed, progress_percentage, photo_consent_status, created_at, updated_at
FROM schools WHERE id = $1`
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// UpdateProgression writes the recomputed stage/round state. Last writer
// wins; callers always recompute from stored evidence first.
func (r *SchoolRepository) UpdateProgression(ctx context.Context, id string, state models.ProgressionState) error {
	query := `UPDATE schools SET current_round = $1, inspire_completed = $2, investigate_completed = $3,
act_completed = $4, progress_percentage = $5, updated_at = $6 WHERE id = $7`
	if _, err := r.db.ExecContext(ctx, query,
		state.CurrentRound,
		state.InspireCompleted,
		state.InvestigateCompleted,
		state.ActCompleted,
		state.ProgressPercentage,
		time.Now().UTC(),
		id,
	); err != nil {
		return fmt.Errorf("update school progression: %w", err)
	}
	return nil
}

// IsMember reports whether the user belongs to the school.
func (r *SchoolRepository) IsMember(ctx context.Context, userID, schoolID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE id = $1 AND school_id = $2 AND active = TRUE`
	if err := r.db.GetContext(ctx, &count, query, userID, schoolID); err != nil {
		return false, fmt.Errorf("check school membership: %w", err)
	}
	return count > 0, nil
}
