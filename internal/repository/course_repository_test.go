package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryListWithPrerequisites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	courseRows := sqlmock.NewRows([]string{"course_code", "name", "credits", "lecture_hours", "lab_hours"}).
		AddRow("CS101", "Intro to Programming", 3, 3, 1).
		AddRow("CS201", "Data Structures", 4, 3, 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_code, name, credits, lecture_hours, lab_hours FROM courses ORDER BY course_code")).
		WillReturnRows(courseRows)

	prereqRows := sqlmock.NewRows([]string{"course_code", "prereq_code"}).
		AddRow("CS201", "CS101")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_code, prereq_code FROM prerequisites")).
		WillReturnRows(prereqRows)

	courses, err := repo.ListWithPrerequisites(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Empty(t, courses[0].Prerequisites)
	require.Equal(t, []string{"CS101"}, courses[1].Prerequisites)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByCodeNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_code, name, credits, lecture_hours, lab_hours FROM courses WHERE course_code = $1")).
		WithArgs("CS999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByCode(context.Background(), "CS999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpsertReplacesPrerequisites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courses")).
		WithArgs("CS201", "Data Structures", 4, 3, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM prerequisites WHERE course_code = $1")).
		WithArgs("CS201").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO prerequisites (course_code, prereq_code) VALUES ($1, $2)")).
		WithArgs("CS201", "CS101").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Upsert(context.Background(), models.Course{
		Code: "CS201", Name: "Data Structures", Credits: 4, LectureHours: 3, LabHours: 2,
		Prerequisites: []string{"CS101"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE course_code = $1")).
		WithArgs("CS999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "CS999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsIntegrityViolation(t *testing.T) {
	require.True(t, IsIntegrityViolation(&pq.Error{Code: "23503"}))
	require.True(t, IsIntegrityViolation(&pq.Error{Code: "23505"}))
	require.False(t, IsIntegrityViolation(&pq.Error{Code: "42601"}))
	require.False(t, IsIntegrityViolation(sql.ErrNoRows))
	require.False(t, IsIntegrityViolation(nil))
}
