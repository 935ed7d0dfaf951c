package models

import (
	"fmt"
	"time"
)

// Student level bounds.
const (
	MinLevel = 1
	MaxLevel = 10
)

// ScheduleEntry is one active registration in a student's schedule.
type ScheduleEntry struct {
	SectionID    string    `db:"section_id" json:"section_id"`
	RegisteredAt time.Time `db:"registration_time" json:"registered_at"`
}

// Student is the working copy of a student row plus transcript and schedule.
// The store remains the system of record; this value is mutated in place
// during a single registration workflow invocation.
type Student struct {
	ID         string          `db:"student_id" json:"student_id"`
	Name       string          `db:"name" json:"name"`
	Email      string          `db:"email" json:"email"`
	Program    Program         `db:"program" json:"program"`
	Level      int             `db:"level" json:"level"`
	Transcript []string        `db:"-" json:"transcript"`
	Schedule   []ScheduleEntry `db:"-" json:"schedule"`
}

// Validate enforces the structural invariants of a student.
func (s Student) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("student id is required")
	}
	if !s.Program.Valid() {
		return fmt.Errorf("invalid program: %s", s.Program)
	}
	if s.Level < MinLevel {
		return fmt.Errorf("level must be at least %d", MinLevel)
	}
	if s.Level > MaxLevel {
		return fmt.Errorf("level must be at most %d", MaxLevel)
	}
	return nil
}

// InTranscript reports whether the course was already completed.
func (s Student) InTranscript(courseCode string) bool {
	for _, code := range s.Transcript {
		if code == courseCode {
			return true
		}
	}
	return false
}

// HasSection reports whether the section is already in the schedule.
func (s Student) HasSection(sectionID string) bool {
	for _, entry := range s.Schedule {
		if entry.SectionID == sectionID {
			return true
		}
	}
	return false
}

// StudentFilter captures supported filters for listing students.
type StudentFilter struct {
	Program   Program
	Level     int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
