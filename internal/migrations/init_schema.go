package migrations

import (
	"context"

	"github.com/jmoiron/sqlx"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		course_code   TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		credits       INTEGER NOT NULL,
		lecture_hours INTEGER NOT NULL DEFAULT 0,
		lab_hours     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS prerequisites (
		course_code TEXT NOT NULL REFERENCES courses(course_code) ON DELETE CASCADE,
		prereq_code TEXT NOT NULL REFERENCES courses(course_code) ON DELETE RESTRICT,
		PRIMARY KEY (course_code, prereq_code)
	)`,
	`CREATE TABLE IF NOT EXISTS sections (
		section_id         TEXT PRIMARY KEY,
		course_code        TEXT NOT NULL REFERENCES courses(course_code) ON DELETE CASCADE,
		instructor         TEXT NOT NULL DEFAULT '',
		start_time         INTEGER NOT NULL DEFAULT 8,
		end_time           INTEGER NOT NULL,
		hall               TEXT NOT NULL DEFAULT '',
		max_capacity       INTEGER NOT NULL CHECK (max_capacity > 0),
		current_enrollment INTEGER NOT NULL DEFAULT 0 CHECK (current_enrollment >= 0),
		days               TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS program_plans (
		program     TEXT NOT NULL,
		level       INTEGER NOT NULL,
		course_code TEXT NOT NULL REFERENCES courses(course_code) ON DELETE RESTRICT,
		PRIMARY KEY (program, level, course_code)
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		student_id TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		program    TEXT NOT NULL,
		level      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transcripts (
		student_id  TEXT NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
		course_code TEXT NOT NULL,
		PRIMARY KEY (student_id, course_code)
	)`,
	`CREATE TABLE IF NOT EXISTS registrations (
		student_id        TEXT NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
		section_id        TEXT NOT NULL REFERENCES sections(section_id) ON DELETE CASCADE,
		registration_time TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (student_id, section_id)
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		doctor_id         TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		email             TEXT NOT NULL DEFAULT '',
		preferred_courses TEXT NOT NULL DEFAULT '',
		time_availability TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS doctor_assignments (
		assignment_id TEXT PRIMARY KEY,
		doctor_id     TEXT NOT NULL REFERENCES doctors(doctor_id) ON DELETE CASCADE,
		course_code   TEXT NOT NULL REFERENCES courses(course_code),
		section_id    TEXT REFERENCES sections(section_id)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id       TEXT PRIMARY KEY,
		student_id    TEXT REFERENCES students(student_id) ON DELETE CASCADE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		display_name  TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// InitSchema creates any missing tables. All statements are idempotent so
// running it against a populated database is safe.
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
