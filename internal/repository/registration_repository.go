package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

// RegistrationRepository handles persistence for registration rows.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository creates a new repository instance.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// ListByStudent returns the student's active registrations ordered by
// registration time.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	const query = `SELECT student_id, section_id, registration_time FROM registrations WHERE student_id = $1 ORDER BY registration_time`
	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, studentID); err != nil {
		return nil, fmt.Errorf("list registrations for %s: %w", studentID, err)
	}
	return registrations, nil
}

// Create inserts a registration row, assigning the timestamp server-side
// when the caller left it zero.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.RegistrationTime.IsZero() {
		registration.RegistrationTime = time.Now().UTC()
	}
	const query = `INSERT INTO registrations (student_id, section_id, registration_time) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, registration.StudentID, registration.SectionID, registration.RegistrationTime); err != nil {
		return fmt.Errorf("create registration %s/%s: %w", registration.StudentID, registration.SectionID, err)
	}
	return nil
}

// Delete removes a registration row.
func (r *RegistrationRepository) Delete(ctx context.Context, studentID, sectionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE student_id = $1 AND section_id = $2`, studentID, sectionID)
	if err != nil {
		return fmt.Errorf("delete registration %s/%s: %w", studentID, sectionID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registration %s/%s: %w", studentID, sectionID, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
