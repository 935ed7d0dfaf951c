package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

// Counter update failures distinguished from plain store errors so the
// service layer can map them to capacity errors.
var (
	ErrSectionFull  = errors.New("section is already full")
	ErrSectionEmpty = errors.New("section enrollment cannot go below zero")
)

// sectionRow mirrors the sections table; days are stored comma-joined.
type sectionRow struct {
	ID                string `db:"section_id"`
	CourseCode        string `db:"course_code"`
	Instructor        string `db:"instructor"`
	StartTime         int    `db:"start_time"`
	EndTime           int    `db:"end_time"`
	Hall              string `db:"hall"`
	MaxCapacity       int    `db:"max_capacity"`
	CurrentEnrollment int    `db:"current_enrollment"`
	Days              string `db:"days"`
}

func (row sectionRow) toModel() models.Section {
	return models.Section{
		ID:                row.ID,
		CourseCode:        row.CourseCode,
		Instructor:        row.Instructor,
		StartTime:         row.StartTime,
		EndTime:           row.EndTime,
		Hall:              row.Hall,
		MaxCapacity:       row.MaxCapacity,
		CurrentEnrollment: row.CurrentEnrollment,
		Days:              models.ParseDays(row.Days),
	}
}

// SectionRepository handles persistence for sections including the
// enrollment counter.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new repository instance.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns every section. This is the section half of the catalog cache
// load.
func (r *SectionRepository) List(ctx context.Context) ([]models.Section, error) {
	const query = `SELECT section_id, course_code, instructor, start_time, end_time, hall, max_capacity, current_enrollment, days
        FROM sections ORDER BY section_id`
	var rows []sectionRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	sections := make([]models.Section, len(rows))
	for i, row := range rows {
		sections[i] = row.toModel()
	}
	return sections, nil
}

// FindByID returns a section by id.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT section_id, course_code, instructor, start_time, end_time, hall, max_capacity, current_enrollment, days
        FROM sections WHERE section_id = $1`
	var row sectionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	section := row.toModel()
	return &section, nil
}

// Upsert inserts or updates a section row.
func (r *SectionRepository) Upsert(ctx context.Context, section models.Section) error {
	const query = `INSERT INTO sections (section_id, course_code, instructor, start_time, end_time, hall, max_capacity, current_enrollment, days)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (section_id) DO UPDATE SET
            course_code = EXCLUDED.course_code,
            instructor = EXCLUDED.instructor,
            start_time = EXCLUDED.start_time,
            end_time = EXCLUDED.end_time,
            hall = EXCLUDED.hall,
            max_capacity = EXCLUDED.max_capacity,
            current_enrollment = EXCLUDED.current_enrollment,
            days = EXCLUDED.days`
	_, err := r.db.ExecContext(ctx, query,
		section.ID, section.CourseCode, section.Instructor, section.StartTime, section.EndTime,
		section.Hall, section.MaxCapacity, section.CurrentEnrollment, models.JoinDays(section.Days))
	if err != nil {
		return fmt.Errorf("upsert section %s: %w", section.ID, err)
	}
	return nil
}

// Delete removes a section. Registrations referencing it cascade.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE section_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete section %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete section %s: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementEnrollment takes one seat. The capacity check and the increment
// are a single conditional UPDATE so two processes cannot both claim the
// last seat.
func (r *SectionRepository) IncrementEnrollment(ctx context.Context, id string) error {
	const query = `UPDATE sections SET current_enrollment = current_enrollment + 1
        WHERE section_id = $1 AND current_enrollment < max_capacity`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment enrollment %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment enrollment %s: %w", id, err)
	}
	if affected == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
		return ErrSectionFull
	}
	return nil
}

// DecrementEnrollment releases one seat, refusing to go below zero.
func (r *SectionRepository) DecrementEnrollment(ctx context.Context, id string) error {
	const query = `UPDATE sections SET current_enrollment = current_enrollment - 1
        WHERE section_id = $1 AND current_enrollment > 0`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("decrement enrollment %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement enrollment %s: %w", id, err)
	}
	if affected == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
		return ErrSectionEmpty
	}
	return nil
}

func (r *SectionRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM sections WHERE section_id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section %s: %w", id, err)
	}
	return true, nil
}
