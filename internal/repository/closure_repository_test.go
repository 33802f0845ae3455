package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/siga-dev/siga-api/internal/models"
)

func TestClosureRepositoryFinalGrades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClosureRepository(db)

	rows := sqlmock.NewRows([]string{"enrollment_id", "student_id", "course_id", "final_grade"}).
		AddRow("enr-1", "stu-1", "c-1", 15.5).
		AddRow("enr-2", "stu-2", "c-1", nil)
	mock.ExpectQuery("SELECT e.id AS enrollment_id").
		WithArgs("per-1", models.AssessmentFinal, models.SectionStatusActive, models.EnrollmentStatusActive).
		WillReturnRows(rows)

	finals, err := repo.FinalGrades(context.Background(), "per-1")
	require.NoError(t, err)
	require.Len(t, finals, 2)
	require.NotNil(t, finals[0].FinalGrade)
	require.Nil(t, finals[1].FinalGrade)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClosureRepositoryClose(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClosureRepository(db)

	period := &models.Period{ID: "per-1", Label: "2025-1", IsActive: true}
	records := []models.TranscriptRecord{
		{StudentID: "stu-1", CourseID: "c-1", PeriodLabel: "2025-1", Outcome: models.OutcomePassed},
		{StudentID: "stu-2", CourseID: "c-1", PeriodLabel: "2025-1", Outcome: models.OutcomeFailed},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transcript_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transcript_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grades WHERE enrollment_id IN")).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE section_id IN")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sections WHERE period_id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO periods")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE periods SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE periods SET is_active = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, label, is_active, created_at, updated_at FROM periods WHERE label = $1")).
		WithArgs("2025-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "is_active", "created_at", "updated_at"}).
			AddRow("per-2", "2025-2", true, time.Now(), time.Now()))
	mock.ExpectCommit()

	next, err := repo.Close(context.Background(), period, "2025-2", records)
	require.NoError(t, err)
	require.Equal(t, "2025-2", next.Label)
	require.True(t, next.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClosureRepositoryCloseRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClosureRepository(db)

	period := &models.Period{ID: "per-1", Label: "2025-1"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grades WHERE enrollment_id IN")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.Close(context.Background(), period, "2025-2", nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
