package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

func TestRegistrationRepositoryCreateAssignsTime(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations (student_id, section_id, registration_time) VALUES ($1, $2, $3)")).
		WithArgs("20230001", "S1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	registration := &models.Registration{StudentID: "20230001", SectionID: "S1"}
	require.NoError(t, repo.Create(context.Background(), registration))
	require.False(t, registration.RegistrationTime.IsZero())
	require.Equal(t, time.UTC, registration.RegistrationTime.Location())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE student_id = $1 AND section_id = $2")).
		WithArgs("20230001", "S9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "20230001", "S9")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgramPlanRepositoryCoursesFor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProgramPlanRepository(db)

	rows := sqlmock.NewRows([]string{"course_code"}).AddRow("CS201").AddRow("MA201")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_code FROM program_plans WHERE program = $1 AND level = $2 ORDER BY course_code")).
		WithArgs(models.ProgramComputer, 2).
		WillReturnRows(rows)

	codes, err := repo.CoursesFor(context.Background(), models.ProgramComputer, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"CS201", "MA201"}, codes)
	require.NoError(t, mock.ExpectationsWereMet())
}
