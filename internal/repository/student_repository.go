package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

// StudentRepository handles persistence for students and transcripts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns the student row without transcript or schedule.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT student_id, name, email, program, level FROM students WHERE student_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns students matching the filter with pagination metadata.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Level > 0 {
		conditions = append(conditions, fmt.Sprintf("level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(student_id) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"student_id": true, "name": true, "program": true, "level": true}
	if !allowedSorts[sortBy] {
		sortBy = "student_id"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT student_id, name, email, program, level %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// Create persists a new student row.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (student_id, name, email, program, level) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, student.ID, student.Name, student.Email, student.Program, student.Level); err != nil {
		return fmt.Errorf("create student %s: %w", student.ID, err)
	}
	return nil
}

// Delete removes a student; transcripts and registrations cascade.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	return nil
}

// Transcript returns the completed course codes for a student.
func (r *StudentRepository) Transcript(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT course_code FROM transcripts WHERE student_id = $1 ORDER BY course_code`
	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, studentID); err != nil {
		return nil, fmt.Errorf("load transcript for %s: %w", studentID, err)
	}
	return codes, nil
}

// AddToTranscript records a completed course; duplicates are ignored.
func (r *StudentRepository) AddToTranscript(ctx context.Context, studentID, courseCode string) error {
	const query = `INSERT INTO transcripts (student_id, course_code) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, studentID, courseCode); err != nil {
		return fmt.Errorf("add %s to transcript of %s: %w", courseCode, studentID, err)
	}
	return nil
}
