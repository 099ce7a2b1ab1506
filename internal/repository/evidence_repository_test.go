package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greensteps/greensteps-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func evidenceRowColumns() []string {
	return []string{"id", "title", "description", "stage", "status", "visibility", "round_number", "school_id",
		"submitted_by", "assigned_to", "evidence_requirement_id", "is_bonus", "file_urls", "video_links",
		"submitted_at", "reviewed_at", "reviewed_by", "review_notes", "created_at", "updated_at"}
}

func addEvidenceRow(rows *sqlmock.Rows, id, status string, now time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "Garden photos", "We planted a herb garden", string(models.StageAct), status,
		string(models.VisibilityPrivate), 1, "sch-1", "user-1", nil, "req-1", false, "{}", "{}",
		now, nil, nil, "", now, now)
}

func TestEvidenceCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	mock.ExpectExec("INSERT INTO evidence").WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.Evidence{
		Title:       "Garden photos",
		Description: "We planted a herb garden",
		Stage:       models.StageAct,
		Status:      models.EvidencePending,
		Visibility:  models.VisibilityPrivate,
		RoundNumber: 1,
		SchoolID:    "sch-1",
		SubmittedBy: "user-1",
	}
	err := repo.Create(context.Background(), item)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.SubmittedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvidenceFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	now := time.Now()
	rows := addEvidenceRow(sqlmock.NewRows(evidenceRowColumns()), "ev-1", string(models.EvidencePending), now)
	mock.ExpectQuery(`SELECT (.+) FROM evidence WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(rows)

	item, err := repo.FindByID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", item.ID)
	assert.Equal(t, models.EvidencePending, item.Status)
	require.NotNil(t, item.EvidenceRequirementID)
	assert.Equal(t, "req-1", *item.EvidenceRequirementID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvidenceFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM evidence WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvidenceListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	now := time.Now()
	listRows := addEvidenceRow(sqlmock.NewRows(evidenceRowColumns()), "ev-1", string(models.EvidenceApproved), now)
	mock.ExpectQuery(regexp.QuoteMeta("school_id = $1 AND status = $2 AND (title ILIKE $3 OR description ILIKE $3) ORDER BY submitted_at DESC, created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("sch-1", string(models.EvidenceApproved), "%garden%").
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM evidence WHERE 1=1 AND school_id = $1 AND status = $2")).
		WithArgs("sch-1", string(models.EvidenceApproved), "%garden%").
		WillReturnRows(countRows)

	status := models.EvidenceApproved
	items, total, err := repo.List(context.Background(), models.EvidenceFilter{
		SchoolID: "sch-1",
		Status:   &status,
		Search:   "garden",
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvidenceListHomeless(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("1=1 AND evidence_requirement_id IS NULL AND is_bonus = FALSE")).
		WillReturnRows(sqlmock.NewRows(evidenceRowColumns()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM evidence WHERE 1=1 AND evidence_requirement_id IS NULL AND is_bonus = FALSE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.List(context.Background(), models.EvidenceFilter{Homeless: true})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvidenceListSortWhitelist(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	// Unknown sort columns fall back to submitted_at.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY submitted_at ASC, created_at DESC LIMIT 50 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(evidenceRowColumns()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM evidence")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.EvidenceFilter{
		SortBy:    "id; DROP TABLE evidence",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReviewTransitionsPendingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	reviewedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE evidence SET status = $1, reviewed_by = $2, review_notes = $3, reviewed_at = $4, updated_at = $4\nWHERE id = $5 AND status = 'pending'")).
		WithArgs(string(models.EvidenceApproved), "admin-1", "", reviewedAt, "ev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateReview(context.Background(), "ev-1", models.EvidenceApproved, "admin-1", "", reviewedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReviewNoPendingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	reviewedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("AND status = 'pending'")).
		WithArgs(string(models.EvidenceRejected), "admin-1", "blurry photos", reviewedAt, "ev-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateReview(context.Background(), "ev-1", models.EvidenceRejected, "admin-1", "blurry photos", reviewedAt)
	assert.ErrorIs(t, err, ErrNoPendingRow)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDuplicateScopedToRound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	now := time.Now()
	rows := addEvidenceRow(sqlmock.NewRows(evidenceRowColumns()), "ev-2", string(models.EvidenceApproved), now)
	mock.ExpectQuery(regexp.QuoteMeta("school_id = $1 AND evidence_requirement_id = $2 AND round_number = $3")).
		WithArgs("sch-1", "req-1", 2, "ev-1").
		WillReturnRows(rows)

	dup, err := repo.FindDuplicate(context.Background(), "sch-1", "req-1", 2, "ev-1")
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, "ev-2", dup.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDuplicateNone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("status IN ('pending', 'approved') AND id <> $4")).
		WithArgs("sch-1", "req-1", 1, "ev-1").
		WillReturnError(sql.ErrNoRows)

	dup, err := repo.FindDuplicate(context.Background(), "sch-1", "req-1", 1, "ev-1")
	require.NoError(t, err)
	assert.Nil(t, dup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovedRequirementIDsExcludesBonus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	rows := sqlmock.NewRows([]string{"evidence_requirement_id"}).AddRow("req-1").AddRow("req-2")
	mock.ExpectQuery(regexp.QuoteMeta("status = 'approved'\n  AND evidence_requirement_id IS NOT NULL AND is_bonus = FALSE")).
		WithArgs("sch-1", 1).
		WillReturnRows(rows)

	ids, err := repo.ApprovedRequirementIDs(context.Background(), "sch-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1", "req-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasEvidenceForRequirement(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvidenceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM evidence WHERE evidence_requirement_id = $1")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	linked, err := repo.HasEvidenceForRequirement(context.Background(), "req-1")
	require.NoError(t, err)
	assert.True(t, linked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
