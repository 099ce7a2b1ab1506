package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/greensteps/greensteps-api/internal/models"
)

const evidenceColumns = `id, title, description, stage, status, visibility, round_number, school_id, submitted_by,
assigned_to, evidence_requirement_id, is_bonus, file_urls, video_links, submitted_at, reviewed_at, reviewed_by,
review_notes, created_at, updated_at`

// ErrNoPendingRow signals that a conditional state transition matched no
// pending evidence row (already reviewed or gone).
var ErrNoPendingRow = errors.New("no pending evidence row matched")

// EvidenceRepository manages persistence for evidence items.
type EvidenceRepository struct {
	db *sqlx.DB
}

// NewEvidenceRepository constructs a new repository.
func NewEvidenceRepository(db *sqlx.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Create inserts a new evidence item.
func (r *EvidenceRepository) Create(ctx context.Context, item *models.Evidence) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.SubmittedAt.IsZero() {
		item.SubmittedAt = now
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	query := `INSERT INTO evidence (id, title, description, stage, status, visibility, round_number, school_id,
submitted_by, assigned_to, evidence_requirement_id, is_bonus, file_urls, video_links, submitted_at, reviewed_at,
reviewed_by, review_notes, created_at, updated_at)
VALUES (:id, :title, :description, :stage, :status, :visibility, :round_number, :school_id, :submitted_by,
:assigned_to, :evidence_requirement_id, :is_bonus, :file_urls, :video_links, :submitted_at, :reviewed_at,
:reviewed_by, :review_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create evidence: %w", err)
	}
	return nil
}

// FindByID fetches a single evidence item. Returns sql.ErrNoRows when absent.
func (r *EvidenceRepository) FindByID(ctx context.Context, id string) (*models.Evidence, error) {
	var item models.Evidence
	query := fmt.Sprintf("SELECT %s FROM evidence WHERE id = $1", evidenceColumns)
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find evidence: %w", err)
	}
	return &item, nil
}

// List returns evidence per provided filter together with a total count.
func (r *EvidenceRepository) List(ctx context.Context, filter models.EvidenceFilter) ([]models.Evidence, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.SchoolID != "" {
		where = append(where, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.Visibility != nil {
		where = append(where, fmt.Sprintf("visibility = $%d", len(args)+1))
		args = append(args, string(*filter.Visibility))
	}
	if filter.AssignedTo != "" {
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.RequirementID != "" {
		where = append(where, fmt.Sprintf("evidence_requirement_id = $%d", len(args)+1))
		args = append(args, filter.RequirementID)
	}
	if filter.Round != nil {
		where = append(where, fmt.Sprintf("round_number = $%d", len(args)+1))
		args = append(args, *filter.Round)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("submitted_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("submitted_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Homeless {
		where = append(where, "evidence_requirement_id IS NULL AND is_bonus = FALSE")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	orderBy := "submitted_at"
	switch filter.SortBy {
	case "title", "status", "stage", "reviewed_at", "submitted_at":
		orderBy = filter.SortBy
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM evidence WHERE %s ORDER BY %s %s, created_at DESC LIMIT %d OFFSET %d`,
		evidenceColumns, whereClause, orderBy, direction, size, offset)
	var items []models.Evidence
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list evidence: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM evidence WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count evidence: %w", err)
	}
	return items, total, nil
}

// UpdateReview performs the pending -> approved/rejected transition. The
// status guard lives in the query so racing reviewers cannot double-review;
// ErrNoPendingRow is returned when no pending row matched.
func (r *EvidenceRepository) UpdateReview(ctx context.Context, id string, status models.EvidenceStatus, reviewerID, notes string, reviewedAt time.Time) error {
	query := `UPDATE evidence SET status = $1, reviewed_by = $2, review_notes = $3, reviewed_at = $4, updated_at = $4
WHERE id = $5 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, string(status), reviewerID, notes, reviewedAt, id)
	if err != nil {
		return fmt.Errorf("review evidence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("review evidence: %w", err)
	}
	if affected == 0 {
		return ErrNoPendingRow
	}
	return nil
}

// UpdateAssignment sets or clears the assigned reviewer.
func (r *EvidenceRepository) UpdateAssignment(ctx context.Context, id string, assignedTo *string) error {
	query := `UPDATE evidence SET assigned_to = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, assignedTo, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("assign evidence: %w", err)
	}
	return nil
}

// UpdateRequirement links evidence to a requirement and restages it to the
// requirement's stage. A nil requirementID unlinks.
func (r *EvidenceRepository) UpdateRequirement(ctx context.Context, id string, requirementID *string, stage models.Stage) error {
	query := `UPDATE evidence SET evidence_requirement_id = $1, stage = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, requirementID, string(stage), time.Now().UTC(), id); err != nil {
		return fmt.Errorf("assign requirement: %w", err)
	}
	return nil
}

// UpdateBonus toggles the bonus marker.
func (r *EvidenceRepository) UpdateBonus(ctx context.Context, id string, isBonus bool) error {
	query := `UPDATE evidence SET is_bonus = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, isBonus, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark bonus: %w", err)
	}
	return nil
}

// Delete removes an evidence item.
func (r *EvidenceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM evidence WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}
	return nil
}

// FindDuplicate returns the first other live (pending or approved) evidence
// item for the same school, requirement, and round. Nil when none exists.
func (r *EvidenceRepository) FindDuplicate(ctx context.Context, schoolID, requirementID string, round int, excludeID string) (*models.Evidence, error) {
	query := fmt.Sprintf(`SELECT %s FROM evidence
WHERE school_id = $1 AND evidence_requirement_id = $2 AND round_number = $3
  AND status IN ('pending', 'approved') AND id <> $4
ORDER BY submitted_at ASC LIMIT 1`, evidenceColumns)
	var item models.Evidence
	if err := r.db.GetContext(ctx, &item, query, schoolID, requirementID, round, excludeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find duplicate evidence: %w", err)
	}
	return &item, nil
}

// ApprovedRequirementIDs returns the distinct requirement ids satisfied by
// approved evidence for the school in the given round.
func (r *EvidenceRepository) ApprovedRequirementIDs(ctx context.Context, schoolID string, round int) ([]string, error) {
	query := `SELECT DISTINCT evidence_requirement_id FROM evidence
WHERE school_id = $1 AND round_number = $2 AND status = 'approved'
  AND evidence_requirement_id IS NOT NULL AND is_bonus = FALSE`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, schoolID, round); err != nil {
		return nil, fmt.Errorf("approved requirement ids: %w", err)
	}
	return ids, nil
}

// HasEvidenceForRequirement reports whether any evidence references the requirement.
func (r *EvidenceRepository) HasEvidenceForRequirement(ctx context.Context, requirementID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM evidence WHERE evidence_requirement_id = $1", requirementID); err != nil {
		return false, fmt.Errorf("count requirement evidence: %w", err)
	}
	return count > 0, nil
}
