package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

// IsIntegrityViolation reports whether the error is a Postgres integrity
// constraint violation (unique, foreign key, check).
func IsIntegrityViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}
	return false
}

// CourseRepository handles persistence for courses and their prerequisite
// edge set.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListWithPrerequisites returns every course with its prerequisite codes
// attached. This is the course half of the catalog cache load.
func (r *CourseRepository) ListWithPrerequisites(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT course_code, name, credits, lecture_hours, lab_hours FROM courses ORDER BY course_code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	const prereqQuery = `SELECT course_code, prereq_code FROM prerequisites`
	rows, err := r.db.QueryxContext(ctx, prereqQuery)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	defer rows.Close()

	edges := make(map[string][]string)
	for rows.Next() {
		var courseCode, prereqCode string
		if err := rows.Scan(&courseCode, &prereqCode); err != nil {
			return nil, fmt.Errorf("scan prerequisite: %w", err)
		}
		edges[courseCode] = append(edges[courseCode], prereqCode)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prerequisites: %w", err)
	}

	for i := range courses {
		courses[i].Prerequisites = edges[courses[i].Code]
	}
	return courses, nil
}

// FindByCode returns a course with prerequisites by its code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	const query = `SELECT course_code, name, credits, lecture_hours, lab_hours FROM courses WHERE course_code = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}

	const prereqQuery = `SELECT prereq_code FROM prerequisites WHERE course_code = $1 ORDER BY prereq_code`
	if err := r.db.SelectContext(ctx, &course.Prerequisites, prereqQuery, code); err != nil {
		return nil, fmt.Errorf("load prerequisites for %s: %w", code, err)
	}
	return &course, nil
}

// Exists checks whether a course code is present.
func (r *CourseRepository) Exists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM courses WHERE course_code = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course %s: %w", code, err)
	}
	return true, nil
}

// Upsert inserts or updates the course row and replaces its prerequisite
// edge set in the same transaction (delete all, insert all).
func (r *CourseRepository) Upsert(ctx context.Context, course models.Course) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert course: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO courses (course_code, name, credits, lecture_hours, lab_hours)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (course_code) DO UPDATE SET
            name = EXCLUDED.name,
            credits = EXCLUDED.credits,
            lecture_hours = EXCLUDED.lecture_hours,
            lab_hours = EXCLUDED.lab_hours`
	if _, err := tx.ExecContext(ctx, query, course.Code, course.Name, course.Credits, course.LectureHours, course.LabHours); err != nil {
		return fmt.Errorf("upsert course %s: %w", course.Code, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM prerequisites WHERE course_code = $1`, course.Code); err != nil {
		return fmt.Errorf("clear prerequisites for %s: %w", course.Code, err)
	}
	for _, prereq := range course.Prerequisites {
		if _, err := tx.ExecContext(ctx, `INSERT INTO prerequisites (course_code, prereq_code) VALUES ($1, $2)`, course.Code, prereq); err != nil {
			return fmt.Errorf("insert prerequisite %s -> %s: %w", course.Code, prereq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert course: %w", err)
	}
	return nil
}

// Delete removes a course. Sections cascade; courses referenced as a
// prerequisite of another course are restricted by the store and surface as
// an integrity violation.
func (r *CourseRepository) Delete(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE course_code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete course %s: %w", code, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course %s: %w", code, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
