package models

// Doctor is a faculty member who can be assigned to courses and sections.
type Doctor struct {
	ID               string `db:"doctor_id" json:"doctor_id"`
	Name             string `db:"name" json:"name"`
	Email            string `db:"email" json:"email"`
	PreferredCourses string `db:"preferred_courses" json:"preferred_courses"`
	TimeAvailability string `db:"time_availability" json:"time_availability"`
}

// DoctorAssignment binds a doctor to a course, optionally pinned to a
// specific section.
type DoctorAssignment struct {
	ID         string  `db:"assignment_id" json:"assignment_id"`
	DoctorID   string  `db:"doctor_id" json:"doctor_id"`
	CourseCode string  `db:"course_code" json:"course_code"`
	SectionID  *string `db:"section_id" json:"section_id,omitempty"`
}

// DoctorScheduleEntry is one assigned section with course context, used for
// the faculty schedule view.
type DoctorScheduleEntry struct {
	AssignmentID string `db:"assignment_id" json:"assignment_id"`
	SectionID    string `db:"section_id" json:"section_id"`
	CourseCode   string `db:"course_code" json:"course_code"`
	CourseName   string `db:"course_name" json:"course_name"`
	StartTime    int    `db:"start_time" json:"start_time"`
	EndTime      int    `db:"end_time" json:"end_time"`
	Hall         string `db:"hall" json:"hall"`
}
