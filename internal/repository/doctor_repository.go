package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

// DoctorRepository handles persistence for faculty and their assignments.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository creates a new repository instance.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// List returns every doctor ordered by id.
func (r *DoctorRepository) List(ctx context.Context) ([]models.Doctor, error) {
	const query = `SELECT doctor_id, name, email, preferred_courses, time_availability FROM doctors ORDER BY doctor_id`
	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// FindByID returns a doctor by id.
func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	const query = `SELECT doctor_id, name, email, preferred_courses, time_availability FROM doctors WHERE doctor_id = $1`
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// Upsert inserts or updates a doctor row. Email stays unique store-side.
func (r *DoctorRepository) Upsert(ctx context.Context, doctor models.Doctor) error {
	const query = `INSERT INTO doctors (doctor_id, name, email, preferred_courses, time_availability)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (doctor_id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            preferred_courses = EXCLUDED.preferred_courses,
            time_availability = EXCLUDED.time_availability`
	if _, err := r.db.ExecContext(ctx, query, doctor.ID, doctor.Name, doctor.Email, doctor.PreferredCourses, doctor.TimeAvailability); err != nil {
		return fmt.Errorf("upsert doctor %s: %w", doctor.ID, err)
	}
	return nil
}

// Delete removes a doctor; assignments cascade.
func (r *DoctorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE doctor_id = $1`, id); err != nil {
		return fmt.Errorf("delete doctor %s: %w", id, err)
	}
	return nil
}

// CreateAssignment binds a doctor to a course, optionally to a section.
func (r *DoctorRepository) CreateAssignment(ctx context.Context, assignment *models.DoctorAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	const query = `INSERT INTO doctor_assignments (assignment_id, doctor_id, course_code, section_id) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, assignment.ID, assignment.DoctorID, assignment.CourseCode, assignment.SectionID); err != nil {
		return fmt.Errorf("create assignment for %s: %w", assignment.DoctorID, err)
	}
	return nil
}

// DeleteAssignment removes an assignment by id.
func (r *DoctorRepository) DeleteAssignment(ctx context.Context, assignmentID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctor_assignments WHERE assignment_id = $1`, assignmentID)
	if err != nil {
		return fmt.Errorf("delete assignment %s: %w", assignmentID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete assignment %s: %w", assignmentID, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Schedule returns the doctor's assigned sections with course context,
// ordered by start time.
func (r *DoctorRepository) Schedule(ctx context.Context, doctorID string) ([]models.DoctorScheduleEntry, error) {
	const query = `SELECT da.assignment_id, s.section_id, s.course_code, c.name AS course_name, s.start_time, s.end_time, s.hall
        FROM doctor_assignments da
        JOIN sections s ON da.section_id = s.section_id
        JOIN courses c ON s.course_code = c.course_code
        WHERE da.doctor_id = $1
        ORDER BY s.start_time`
	var entries []models.DoctorScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, doctorID); err != nil {
		return nil, fmt.Errorf("load schedule for %s: %w", doctorID, err)
	}
	return entries, nil
}

// HasTimeConflict reports whether any section already assigned to the doctor
// overlaps [start, end) on the half-open interval.
func (r *DoctorRepository) HasTimeConflict(ctx context.Context, doctorID string, start, end int, excludeSectionID string) (bool, error) {
	query := `SELECT COUNT(*) FROM doctor_assignments da
        JOIN sections s ON da.section_id = s.section_id
        WHERE da.doctor_id = $1 AND s.start_time < $3 AND $2 < s.end_time`
	args := []interface{}{doctorID, start, end}
	if excludeSectionID != "" {
		query += " AND s.section_id <> $4"
		args = append(args, excludeSectionID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("check doctor conflict for %s: %w", doctorID, err)
	}
	return count > 0, nil
}
