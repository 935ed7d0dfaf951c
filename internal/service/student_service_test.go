package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-reg-api/internal/models"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
)

type mockStudentStore struct {
	students    map[string]models.Student
	transcripts map[string][]string
	deleted     []string
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentStore) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = map[string]models.Student{}
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentStore) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockStudentStore) Transcript(ctx context.Context, studentID string) ([]string, error) {
	return m.transcripts[studentID], nil
}

func (m *mockStudentStore) AddToTranscript(ctx context.Context, studentID, courseCode string) error {
	if m.transcripts == nil {
		m.transcripts = map[string][]string{}
	}
	m.transcripts[studentID] = append(m.transcripts[studentID], courseCode)
	return nil
}

func newStudentFixture() (*StudentService, *mockStudentStore, *mockRegistrationStore, *mockPlanStore, *mockCatalog) {
	cat := &mockCatalog{
		courses: map[string]models.Course{
			"CS101": {Code: "CS101", Name: "Intro to Programming", Credits: 3},
			"CS102": {Code: "CS102", Name: "Discrete Math", Credits: 3},
			"CS201": {Code: "CS201", Name: "Data Structures", Credits: 4},
		},
		sections: map[string]models.Section{
			"SEC1": {ID: "SEC1", CourseCode: "CS201", Instructor: "Dr. Hart", StartTime: 8, EndTime: 10, Hall: "H1",
				Days: []models.Weekday{models.Sunday, models.Tuesday}},
		},
	}
	students := &mockStudentStore{
		students: map[string]models.Student{
			"S1": {ID: "S1", Name: "Aya Nasser", Email: "aya@uni.edu", Program: models.ProgramComputer, Level: 3},
		},
		transcripts: map[string][]string{"S1": {"CS101"}},
	}
	registrations := &mockRegistrationStore{}
	plans := &mockPlanStore{}
	svc := NewStudentService(students, registrations, plans, cat, zap.NewNop())
	return svc, students, registrations, plans, cat
}

func TestStudentGetBackfillsPriorLevels(t *testing.T) {
	svc, students, _, plans, _ := newStudentFixture()
	ctx := context.Background()
	require.NoError(t, plans.Add(ctx, models.ProgramPlanEntry{Program: models.ProgramComputer, Level: 1, CourseCode: "CS101"}))
	require.NoError(t, plans.Add(ctx, models.ProgramPlanEntry{Program: models.ProgramComputer, Level: 1, CourseCode: "CS102"}))
	require.NoError(t, plans.Add(ctx, models.ProgramPlanEntry{Program: models.ProgramComputer, Level: 2, CourseCode: "CS201"}))

	student, err := svc.Get(ctx, "S1")
	require.NoError(t, err)

	// CS101 was already on the transcript; CS102 and CS201 get persisted.
	assert.ElementsMatch(t, []string{"CS101", "CS102", "CS201"}, student.Transcript)
	assert.ElementsMatch(t, []string{"CS101", "CS102", "CS201"}, students.transcripts["S1"])
}

func TestStudentGetLevelOneSkipsBackfill(t *testing.T) {
	svc, students, _, plans, _ := newStudentFixture()
	ctx := context.Background()
	students.students["S2"] = models.Student{ID: "S2", Name: "Omar Said", Email: "omar@uni.edu", Program: models.ProgramComputer, Level: 1}
	require.NoError(t, plans.Add(ctx, models.ProgramPlanEntry{Program: models.ProgramComputer, Level: 1, CourseCode: "CS101"}))

	student, err := svc.Get(ctx, "S2")
	require.NoError(t, err)
	assert.Empty(t, student.Transcript)
}

func TestStudentGetNotFound(t *testing.T) {
	svc, _, _, _, _ := newStudentFixture()

	_, err := svc.Get(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentGetLoadsSchedule(t *testing.T) {
	svc, _, registrations, _, _ := newStudentFixture()
	ctx := context.Background()
	require.NoError(t, registrations.Create(ctx, &models.Registration{StudentID: "S1", SectionID: "SEC1"}))

	student, err := svc.Get(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, student.Schedule, 1)
	assert.Equal(t, "SEC1", student.Schedule[0].SectionID)
}

func TestCompletedCreditsSkipsUnknownCodes(t *testing.T) {
	svc, _, _, _, _ := newStudentFixture()
	student := &models.Student{Transcript: []string{"CS101", "CS201", "GHOST"}}

	assert.Equal(t, 7, svc.CompletedCredits(student))
}

func TestExportScheduleCSV(t *testing.T) {
	svc, _, _, _, _ := newStudentFixture()
	student := &models.Student{ID: "S1", Schedule: []models.ScheduleEntry{{SectionID: "SEC1"}}}

	payload, contentType, err := svc.ExportSchedule(student, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.True(t, strings.HasPrefix(body, "Section,Course,Title,Instructor,Hall,Days,Time"))
	assert.Contains(t, body, "SEC1,CS201,Data Structures,Dr. Hart,H1,\"Sunday,Tuesday\",08:00-10:00")
}

func TestExportScheduleUnsupportedFormat(t *testing.T) {
	svc, _, _, _, _ := newStudentFixture()
	student := &models.Student{ID: "S1"}

	_, _, err := svc.ExportSchedule(student, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentCreateNormalizesProgram(t *testing.T) {
	svc, students, _, _, _ := newStudentFixture()
	student := &models.Student{ID: "S3", Name: "Lina Farouk", Email: "lina@uni.edu", Program: "Communications", Level: 1}

	require.NoError(t, svc.Create(context.Background(), student))
	assert.Equal(t, models.ProgramComm, students.students["S3"].Program)
}

func TestStudentCreateInvalidLevel(t *testing.T) {
	svc, _, _, _, _ := newStudentFixture()
	student := &models.Student{ID: "S3", Name: "Lina Farouk", Email: "lina@uni.edu", Program: models.ProgramComputer, Level: 11}

	err := svc.Create(context.Background(), student)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
