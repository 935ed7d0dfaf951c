package models

import "fmt"

// Course represents a catalog course and its prerequisite edge set.
type Course struct {
	Code          string   `db:"course_code" json:"course_code"`
	Name          string   `db:"name" json:"name"`
	Credits       int      `db:"credits" json:"credits"`
	LectureHours  int      `db:"lecture_hours" json:"lecture_hours"`
	LabHours      int      `db:"lab_hours" json:"lab_hours"`
	Prerequisites []string `db:"-" json:"prerequisites"`
}

// Validate enforces the structural invariants of a course before any store
// interaction takes place.
func (c Course) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("course code is required")
	}
	if c.Name == "" {
		return fmt.Errorf("course name is required")
	}
	if c.Credits <= 0 {
		return fmt.Errorf("credit hours must be positive")
	}
	if c.LectureHours < 0 {
		return fmt.Errorf("lecture hours cannot be negative")
	}
	if c.LabHours < 0 {
		return fmt.Errorf("lab hours cannot be negative")
	}
	return nil
}

// MissingPrerequisites returns the prerequisite codes absent from the given
// transcript. An empty result means every prerequisite is satisfied.
func (c Course) MissingPrerequisites(transcript []string) []string {
	completed := make(map[string]struct{}, len(transcript))
	for _, code := range transcript {
		completed[code] = struct{}{}
	}

	var missing []string
	for _, prereq := range c.Prerequisites {
		if _, ok := completed[prereq]; !ok {
			missing = append(missing, prereq)
		}
	}
	return missing
}

// ProgramPlanEntry binds a course to a program's curriculum at a level.
type ProgramPlanEntry struct {
	Program    Program `db:"program" json:"program"`
	Level      int     `db:"level" json:"level"`
	CourseCode string  `db:"course_code" json:"course_code"`
}
