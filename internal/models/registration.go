package models

import "time"

// Registration is one persisted student-to-section registration row.
type Registration struct {
	StudentID        string    `db:"student_id" json:"student_id"`
	SectionID        string    `db:"section_id" json:"section_id"`
	RegistrationTime time.Time `db:"registration_time" json:"registration_time"`
}
