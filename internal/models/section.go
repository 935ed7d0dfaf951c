package models

import (
	"fmt"
	"strings"
)

// Weekday is one of the six teaching days. Friday is not a teaching day.
type Weekday string

const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Saturday  Weekday = "Saturday"
)

// TeachingDays lists the allowed weekday vocabulary.
var TeachingDays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Saturday}

// Valid reports whether the weekday belongs to the teaching vocabulary.
func (w Weekday) Valid() bool {
	for _, d := range TeachingDays {
		if w == d {
			return true
		}
	}
	return false
}

// ParseDays splits the comma-joined store representation into weekdays.
// Unknown labels are dropped.
func ParseDays(raw string) []Weekday {
	if raw == "" {
		return nil
	}
	var days []Weekday
	for _, part := range strings.Split(raw, ",") {
		day := Weekday(strings.TrimSpace(part))
		if day.Valid() {
			days = append(days, day)
		}
	}
	return days
}

// JoinDays renders weekdays into the comma-joined store representation.
func JoinDays(days []Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

// Section is one scheduled offering of a course. Times are hours of day with
// an exclusive end.
type Section struct {
	ID                string    `db:"section_id" json:"section_id"`
	CourseCode        string    `db:"course_code" json:"course_code"`
	Instructor        string    `db:"instructor" json:"instructor"`
	StartTime         int       `db:"start_time" json:"start_time"`
	EndTime           int       `db:"end_time" json:"end_time"`
	Hall              string    `db:"hall" json:"hall"`
	MaxCapacity       int       `db:"max_capacity" json:"max_capacity"`
	CurrentEnrollment int       `db:"current_enrollment" json:"current_enrollment"`
	Days              []Weekday `db:"-" json:"days"`
}

// Validate enforces the structural invariants of a section.
func (s Section) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("section id is required")
	}
	if s.CourseCode == "" {
		return fmt.Errorf("course code is required")
	}
	if s.MaxCapacity <= 0 {
		return fmt.Errorf("max capacity must be positive")
	}
	if s.CurrentEnrollment < 0 || s.CurrentEnrollment > s.MaxCapacity {
		return fmt.Errorf("current enrollment must be between 0 and max capacity")
	}
	if s.StartTime >= s.EndTime {
		return fmt.Errorf("start time must be before end time")
	}
	for _, d := range s.Days {
		if !d.Valid() {
			return fmt.Errorf("unknown weekday %q", d)
		}
	}
	return nil
}

// IsFull reports whether the section has no open seats.
func (s Section) IsFull() bool {
	return s.CurrentEnrollment >= s.MaxCapacity
}

// Overlaps reports whether two sections collide on the half-open interval
// [start, end). Touching boundaries do not conflict.
//
// The check is day-agnostic: two sections meeting at the same hour on
// disjoint days are still reported as conflicting. That matches the behavior
// student-facing flows were built against.
// TODO: require a shared weekday before flagging a conflict.
func (s Section) Overlaps(other Section) bool {
	return s.StartTime < other.EndTime && other.StartTime < s.EndTime
}
