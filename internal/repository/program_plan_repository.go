package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

// ProgramPlanRepository handles persistence for curriculum entries.
type ProgramPlanRepository struct {
	db *sqlx.DB
}

// NewProgramPlanRepository creates a new repository instance.
func NewProgramPlanRepository(db *sqlx.DB) *ProgramPlanRepository {
	return &ProgramPlanRepository{db: db}
}

// Add records a curriculum entry; duplicates are ignored.
func (r *ProgramPlanRepository) Add(ctx context.Context, entry models.ProgramPlanEntry) error {
	const query = `INSERT INTO program_plans (program, level, course_code) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, entry.Program, entry.Level, entry.CourseCode); err != nil {
		return fmt.Errorf("add program plan: %w", err)
	}
	return nil
}

// Remove deletes a curriculum entry.
func (r *ProgramPlanRepository) Remove(ctx context.Context, entry models.ProgramPlanEntry) error {
	const query = `DELETE FROM program_plans WHERE program = $1 AND level = $2 AND course_code = $3`
	if _, err := r.db.ExecContext(ctx, query, entry.Program, entry.Level, entry.CourseCode); err != nil {
		return fmt.Errorf("remove program plan: %w", err)
	}
	return nil
}

// RemoveAllForCourse deletes every curriculum entry of a course.
func (r *ProgramPlanRepository) RemoveAllForCourse(ctx context.Context, courseCode string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM program_plans WHERE course_code = $1`, courseCode); err != nil {
		return fmt.Errorf("remove program plans for %s: %w", courseCode, err)
	}
	return nil
}

// ListForCourse returns every (program, level) pair carrying the course.
func (r *ProgramPlanRepository) ListForCourse(ctx context.Context, courseCode string) ([]models.ProgramPlanEntry, error) {
	const query = `SELECT program, level, course_code FROM program_plans WHERE course_code = $1 ORDER BY program, level`
	var entries []models.ProgramPlanEntry
	if err := r.db.SelectContext(ctx, &entries, query, courseCode); err != nil {
		return nil, fmt.Errorf("list program plans for %s: %w", courseCode, err)
	}
	return entries, nil
}

// CoursesFor returns the curator-defined course codes for a program and
// level, sorted ascending.
func (r *ProgramPlanRepository) CoursesFor(ctx context.Context, program models.Program, level int) ([]string, error) {
	const query = `SELECT course_code FROM program_plans WHERE program = $1 AND level = $2 ORDER BY course_code`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, program, level); err != nil {
		return nil, fmt.Errorf("list curriculum for %s level %d: %w", program, level, err)
	}
	return codes, nil
}
