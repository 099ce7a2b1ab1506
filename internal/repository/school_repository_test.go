package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greensteps/greensteps-api/internal/models"
)

func TestSchoolFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "contact_email", "current_round", "inspire_completed",
		"investigate_completed", "act_completed", "progress_percentage", "photo_consent_status", "created_at", "updated_at"}).
		AddRow("sch-1", "Hillside Primary", "office@hillside.example", 2, true, false, false, 44,
			string(models.ConsentApproved), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schools WHERE id = $1")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	school, err := repo.FindByID(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, "Hillside Primary", school.Name)
	assert.Equal(t, 2, school.CurrentRound)
	assert.True(t, school.InspireCompleted)
	require.NotNil(t, school.PhotoConsent)
	assert.Equal(t, models.ConsentApproved, *school.PhotoConsent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schools WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolUpdateProgression(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schools SET current_round = $1, inspire_completed = $2, investigate_completed = $3,\nact_completed = $4, progress_percentage = $5, updated_at = $6 WHERE id = $7")).
		WithArgs(2, false, false, false, 50, sqlmock.AnyArg(), "sch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProgression(context.Background(), "sch-1", models.ProgressionState{
		CurrentRound:       2,
		ProgressPercentage: 50,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolIsMember(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE id = $1 AND school_id = $2 AND active = TRUE")).
		WithArgs("user-1", "sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	member, err := repo.IsMember(context.Background(), "user-1", "sch-1")
	require.NoError(t, err)
	assert.True(t, member)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolIsMemberNot(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WithArgs("user-9", "sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	member, err := repo.IsMember(context.Background(), "user-9", "sch-1")
	require.NoError(t, err)
	assert.False(t, member)
	assert.NoError(t, mock.ExpectationsWereMet())
}
