package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseValidate(t *testing.T) {
	valid := Course{Code: "CS101", Name: "Intro to Programming", Credits: 3, LectureHours: 3, LabHours: 0}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		course Course
	}{
		{"zero credits", Course{Code: "CS101", Name: "Intro", Credits: 0, LectureHours: 3}},
		{"negative credits", Course{Code: "CS101", Name: "Intro", Credits: -1, LectureHours: 3}},
		{"negative lecture hours", Course{Code: "CS101", Name: "Intro", Credits: 3, LectureHours: -1}},
		{"negative lab hours", Course{Code: "CS101", Name: "Intro", Credits: 3, LectureHours: 3, LabHours: -2}},
		{"missing code", Course{Name: "Intro", Credits: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.course.Validate())
		})
	}
}

func TestCourseMissingPrerequisites(t *testing.T) {
	course := Course{Code: "CS301", Name: "Algorithms", Credits: 3, LectureHours: 3, Prerequisites: []string{"CS101", "CS201"}}

	assert.Nil(t, course.MissingPrerequisites([]string{"CS101", "CS201", "MA101"}))
	assert.Equal(t, []string{"CS201"}, course.MissingPrerequisites([]string{"CS101"}))
	assert.Equal(t, []string{"CS101", "CS201"}, course.MissingPrerequisites(nil))
}

func TestCanonicalProgram(t *testing.T) {
	assert.Equal(t, ProgramComm, CanonicalProgram("Communications"))
	assert.Equal(t, ProgramComm, CanonicalProgram(" communications "))
	assert.Equal(t, ProgramComputer, CanonicalProgram("Computer"))
	assert.False(t, Program("Aerospace").Valid())
	assert.Equal(t, "Communications", ProgramComm.DisplayName())
}
