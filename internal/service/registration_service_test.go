package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/repository"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
)

type mockCatalog struct {
	courses   map[string]models.Course
	sections  map[string]models.Section
	refreshes int
}

func (m *mockCatalog) Refresh(ctx context.Context) error {
	m.refreshes++
	return nil
}

func (m *mockCatalog) Course(code string) (models.Course, bool) {
	c, ok := m.courses[code]
	return c, ok
}

func (m *mockCatalog) Section(id string) (models.Section, bool) {
	s, ok := m.sections[id]
	return s, ok
}

func (m *mockCatalog) Courses() []models.Course {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out
}

func (m *mockCatalog) SectionsForCourse(code string) []models.Section {
	var out []models.Section
	for _, s := range m.sections {
		if s.CourseCode == code {
			out = append(out, s)
		}
	}
	return out
}

type mockCourseStore struct {
	existing map[string]bool
	upserted []models.Course
	deleted  []string
}

func (m *mockCourseStore) Exists(ctx context.Context, code string) (bool, error) {
	return m.existing[code], nil
}

func (m *mockCourseStore) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	if !m.existing[code] {
		return nil, sql.ErrNoRows
	}
	return &models.Course{Code: code}, nil
}

func (m *mockCourseStore) Upsert(ctx context.Context, course models.Course) error {
	m.upserted = append(m.upserted, course)
	return nil
}

func (m *mockCourseStore) Delete(ctx context.Context, code string) error {
	if !m.existing[code] {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, code)
	return nil
}

type mockSectionStore struct {
	enrollment map[string]int
	capacity   map[string]int
	failIncFor string
}

func (m *mockSectionStore) Upsert(ctx context.Context, section models.Section) error { return nil }

func (m *mockSectionStore) Delete(ctx context.Context, id string) error { return nil }

func (m *mockSectionStore) IncrementEnrollment(ctx context.Context, id string) error {
	if id == m.failIncFor {
		return repository.ErrSectionFull
	}
	capacity, ok := m.capacity[id]
	if !ok {
		return sql.ErrNoRows
	}
	if m.enrollment[id] >= capacity {
		return repository.ErrSectionFull
	}
	m.enrollment[id]++
	return nil
}

func (m *mockSectionStore) DecrementEnrollment(ctx context.Context, id string) error {
	if m.enrollment[id] <= 0 {
		return repository.ErrSectionEmpty
	}
	m.enrollment[id]--
	return nil
}

type mockRegistrationStore struct {
	rows          map[string]models.Registration
	failCreateFor string
}

func regKey(studentID, sectionID string) string { return studentID + "/" + sectionID }

func (m *mockRegistrationStore) Create(ctx context.Context, registration *models.Registration) error {
	if registration.SectionID == m.failCreateFor {
		return errors.New("insert failed")
	}
	// The real repository stamps the row server-side; mirror that contract.
	if registration.RegistrationTime.IsZero() {
		registration.RegistrationTime = time.Now().UTC()
	}
	if m.rows == nil {
		m.rows = map[string]models.Registration{}
	}
	m.rows[regKey(registration.StudentID, registration.SectionID)] = *registration
	return nil
}

func (m *mockRegistrationStore) Delete(ctx context.Context, studentID, sectionID string) error {
	key := regKey(studentID, sectionID)
	if _, ok := m.rows[key]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, key)
	return nil
}

func (m *mockRegistrationStore) ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	var out []models.Registration
	for _, row := range m.rows {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	return out, nil
}

type mockPlanStore struct {
	plans      map[string][]string
	removedAll []string
}

func planKey(program models.Program, level int) string {
	return fmt.Sprintf("%s:%d", program, level)
}

func (m *mockPlanStore) Add(ctx context.Context, entry models.ProgramPlanEntry) error {
	if m.plans == nil {
		m.plans = map[string][]string{}
	}
	key := planKey(entry.Program, entry.Level)
	m.plans[key] = append(m.plans[key], entry.CourseCode)
	return nil
}

func (m *mockPlanStore) Remove(ctx context.Context, entry models.ProgramPlanEntry) error {
	key := planKey(entry.Program, entry.Level)
	var kept []string
	for _, code := range m.plans[key] {
		if code != entry.CourseCode {
			kept = append(kept, code)
		}
	}
	m.plans[key] = kept
	return nil
}

func (m *mockPlanStore) RemoveAllForCourse(ctx context.Context, courseCode string) error {
	for key, codes := range m.plans {
		var kept []string
		for _, code := range codes {
			if code != courseCode {
				kept = append(kept, code)
			}
		}
		m.plans[key] = kept
	}
	m.removedAll = append(m.removedAll, courseCode)
	return nil
}

func (m *mockPlanStore) ListForCourse(ctx context.Context, courseCode string) ([]models.ProgramPlanEntry, error) {
	return nil, nil
}

func (m *mockPlanStore) CoursesFor(ctx context.Context, program models.Program, level int) ([]string, error) {
	return m.plans[planKey(program, level)], nil
}

func newEngineFixture() (*RegistrationService, *mockCatalog, *mockSectionStore, *mockRegistrationStore, *mockCourseStore, *mockPlanStore) {
	cat := &mockCatalog{
		courses: map[string]models.Course{
			"CS101": {Code: "CS101", Name: "Intro to Programming", Credits: 3, LectureHours: 3},
			"CS201": {Code: "CS201", Name: "Data Structures", Credits: 3, LectureHours: 3, Prerequisites: []string{"CS101"}},
			"MA101": {Code: "MA101", Name: "Calculus I", Credits: 4, LectureHours: 4},
		},
		sections: map[string]models.Section{
			"SEC1": {ID: "SEC1", CourseCode: "CS101", StartTime: 8, EndTime: 9, MaxCapacity: 1},
			"SEC2": {ID: "SEC2", CourseCode: "CS201", StartTime: 10, EndTime: 12, MaxCapacity: 30},
			"SEC3": {ID: "SEC3", CourseCode: "CS201", StartTime: 8, EndTime: 10, MaxCapacity: 30},
			"SEC5": {ID: "SEC5", CourseCode: "MA101", StartTime: 8, EndTime: 10, MaxCapacity: 30},
			"SEC6": {ID: "SEC6", CourseCode: "MA101", StartTime: 10, EndTime: 12, MaxCapacity: 30},
		},
	}
	sections := &mockSectionStore{
		enrollment: map[string]int{"SEC1": 0, "SEC2": 0, "SEC3": 0, "SEC5": 0, "SEC6": 0},
		capacity:   map[string]int{"SEC1": 1, "SEC2": 30, "SEC3": 30, "SEC5": 30, "SEC6": 30},
	}
	registrations := &mockRegistrationStore{}
	courses := &mockCourseStore{existing: map[string]bool{"CS101": true, "CS201": true}}
	plans := &mockPlanStore{}
	svc := NewRegistrationService(courses, sections, registrations, plans, cat, nil, 0, zap.NewNop())
	return svc, cat, sections, registrations, courses, plans
}

func TestRegisterSuccess(t *testing.T) {
	svc, cat, sections, registrations, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Program: models.ProgramComputer, Level: 1}

	err := svc.Register(context.Background(), student, []string{"SEC1"})
	require.NoError(t, err)
	assert.Equal(t, 1, sections.enrollment["SEC1"])
	assert.Contains(t, registrations.rows, "S1/SEC1")
	require.Len(t, student.Schedule, 1)
	assert.Equal(t, "SEC1", student.Schedule[0].SectionID)
	assert.False(t, student.Schedule[0].RegisteredAt.IsZero())
	assert.Equal(t, 1, cat.refreshes)
}

func TestRegisterUnknownSection(t *testing.T) {
	svc, _, sections, registrations, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Level: 1}

	err := svc.Register(context.Background(), student, []string{"SEC1", "NOPE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, sections.enrollment["SEC1"])
	assert.Empty(t, registrations.rows)
}

func TestRegisterSectionFull(t *testing.T) {
	svc, cat, sections, registrations, _, _ := newEngineFixture()
	full := cat.sections["SEC1"]
	full.CurrentEnrollment = 1
	cat.sections["SEC1"] = full
	sections.enrollment["SEC1"] = 1
	student := &models.Student{ID: "S2", Level: 1}

	err := svc.Register(context.Background(), student, []string{"SEC1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "section SEC1 is full")
	assert.Equal(t, 1, sections.enrollment["SEC1"])
	assert.Empty(t, registrations.rows)
}

func TestRegisterMissingPrerequisite(t *testing.T) {
	svc, _, _, registrations, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Level: 1}

	err := svc.Register(context.Background(), student, []string{"SEC2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CS101")
	assert.Empty(t, registrations.rows)
}

func TestRegisterTimeConflict(t *testing.T) {
	svc, _, sections, _, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Level: 1}

	// SEC1 ends at 9, SEC5 starts at 8; half-open intervals overlap.
	err := svc.Register(context.Background(), student, []string{"SEC1", "SEC5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time conflict")
	assert.Equal(t, 0, sections.enrollment["SEC1"])
	assert.Equal(t, 0, sections.enrollment["SEC5"])
}

func TestRegisterCompletedCourse(t *testing.T) {
	svc, _, _, _, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Level: 1, Transcript: []string{"CS101"}}

	err := svc.Register(context.Background(), student, []string{"SEC1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already completed")
}

func TestRegisterDuplicateSection(t *testing.T) {
	svc, _, _, _, _, _ := newEngineFixture()
	student := &models.Student{
		ID: "S1", Level: 1,
		Schedule: []models.ScheduleEntry{{SectionID: "SEC1"}},
	}

	err := svc.Register(context.Background(), student, []string{"SEC1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered in section SEC1")
}

func TestRegisterSecondSectionOfSameCourse(t *testing.T) {
	svc, _, _, _, _, _ := newEngineFixture()
	student := &models.Student{
		ID: "S1", Level: 1, Transcript: []string{"CS101"},
		Schedule: []models.ScheduleEntry{{SectionID: "SEC2"}},
	}

	err := svc.Register(context.Background(), student, []string{"SEC3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "course CS201")
}

func TestRegisterTwoSectionsOfSameCourseInOneBatch(t *testing.T) {
	svc, _, sections, registrations, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Level: 1, Transcript: []string{"CS101"}}

	// SEC3 (8-10) and SEC2 (10-12) do not overlap, but both offer CS201.
	err := svc.Register(context.Background(), student, []string{"SEC3", "SEC2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "course CS201")
	assert.Equal(t, 0, sections.enrollment["SEC2"])
	assert.Equal(t, 0, sections.enrollment["SEC3"])
	assert.Empty(t, registrations.rows)
	assert.Empty(t, student.Schedule)
}

func TestRegisterCompensatesPartialFailure(t *testing.T) {
	svc, _, sections, registrations, _, _ := newEngineFixture()
	registrations.failCreateFor = "SEC6"
	student := &models.Student{ID: "S1", Level: 1}

	// SEC1 (8-9) and SEC6 (10-12) do not overlap; SEC1 commits first, then
	// the SEC6 row insert fails and SEC1 must be rolled back.
	err := svc.Register(context.Background(), student, []string{"SEC1", "SEC6"})
	require.Error(t, err)
	assert.Equal(t, 0, sections.enrollment["SEC1"])
	assert.Equal(t, 0, sections.enrollment["SEC6"])
	assert.Empty(t, registrations.rows)
	assert.Empty(t, student.Schedule)
}

func TestRegisterSeatRaceReturnsCapacityError(t *testing.T) {
	svc, _, sections, registrations, _, _ := newEngineFixture()
	sections.failIncFor = "SEC1"
	student := &models.Student{ID: "S1", Level: 1}

	err := svc.Register(context.Background(), student, []string{"SEC1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "section SEC1 is full")
	assert.Empty(t, registrations.rows)
}

func TestUnregisterSuccess(t *testing.T) {
	svc, cat, sections, registrations, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Level: 1}
	require.NoError(t, svc.Register(context.Background(), student, []string{"SEC1"}))
	refreshesAfterRegister := cat.refreshes

	err := svc.Unregister(context.Background(), student, "SEC1")
	require.NoError(t, err)
	assert.Equal(t, 0, sections.enrollment["SEC1"])
	assert.Empty(t, registrations.rows)
	assert.Empty(t, student.Schedule)
	assert.Equal(t, refreshesAfterRegister+1, cat.refreshes)
}

func TestUnregisterNotRegistered(t *testing.T) {
	svc, _, sections, registrations, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Level: 1}

	err := svc.Unregister(context.Background(), student, "SEC1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
	assert.Equal(t, 0, sections.enrollment["SEC1"])
	assert.Empty(t, registrations.rows)
}

func TestValidateScheduleAggregatesMessages(t *testing.T) {
	svc, _, _, _, _, _ := newEngineFixture()
	student := &models.Student{ID: "S1", Level: 1, Transcript: []string{"CS101"}}

	messages := svc.ValidateSchedule(student, []string{"CS101", "CS201", "CS999"})
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "CS101 already completed")
	assert.Contains(t, messages[1], "CS999")
}

func TestAvailableCoursesSortedAndSkipsMissing(t *testing.T) {
	svc, _, _, _, _, plans := newEngineFixture()
	ctx := context.Background()
	require.NoError(t, plans.Add(ctx, models.ProgramPlanEntry{Program: models.ProgramComputer, Level: 2, CourseCode: "CS201"}))
	require.NoError(t, plans.Add(ctx, models.ProgramPlanEntry{Program: models.ProgramComputer, Level: 2, CourseCode: "CS101"}))
	require.NoError(t, plans.Add(ctx, models.ProgramPlanEntry{Program: models.ProgramComputer, Level: 2, CourseCode: "GHOST"}))

	courses, err := svc.AvailableCourses(ctx, "Computer", 2)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "CS101", courses[0].Code)
	assert.Equal(t, "CS201", courses[1].Code)
}

func TestAvailableCoursesUnknownProgram(t *testing.T) {
	svc, _, _, _, _, _ := newEngineFixture()

	_, err := svc.AvailableCourses(context.Background(), "Astrology", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAddCourseMissingPrerequisite(t *testing.T) {
	svc, _, _, _, courses, _ := newEngineFixture()

	err := svc.AddCourse(context.Background(), models.Course{
		Code: "CS301", Name: "Algorithms", Credits: 3, Prerequisites: []string{"CS999", "CS888"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CS999")
	assert.Empty(t, courses.upserted)
}

func TestAddCourseRefreshesCatalog(t *testing.T) {
	svc, cat, _, _, courses, _ := newEngineFixture()

	err := svc.AddCourse(context.Background(), models.Course{
		Code: "CS301", Name: "Algorithms", Credits: 3, Prerequisites: []string{"CS201"},
	})
	require.NoError(t, err)
	require.Len(t, courses.upserted, 1)
	assert.Equal(t, 1, cat.refreshes)
}

func TestAddCourseInvalidEntity(t *testing.T) {
	svc, _, _, _, courses, _ := newEngineFixture()

	err := svc.AddCourse(context.Background(), models.Course{Code: "CS301", Name: "Algorithms", Credits: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, courses.upserted)
}

func TestDeleteCourseClearsCurriculumEntries(t *testing.T) {
	svc, _, _, _, courses, plans := newEngineFixture()
	require.NoError(t, svc.AddPlan(context.Background(), "CS201", "Computer", 2))

	err := svc.DeleteCourse(context.Background(), "CS201")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS201"}, courses.deleted)
	assert.Contains(t, plans.removedAll, "CS201")
	assert.Empty(t, plans.plans[planKey(models.ProgramComputer, 2)])
}

func TestDeleteCourseRequiredAsPrerequisite(t *testing.T) {
	svc, _, _, _, courses, plans := newEngineFixture()

	// CS201 still requires CS101.
	err := svc.DeleteCourse(context.Background(), "CS101")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "prerequisite of CS201")
	assert.Empty(t, courses.deleted)
	assert.Empty(t, plans.removedAll)
}

func TestAddPlanFansOutForAll(t *testing.T) {
	svc, _, _, _, _, plans := newEngineFixture()

	err := svc.AddPlan(context.Background(), "CS101", "All", 1)
	require.NoError(t, err)
	for _, program := range models.AllPrograms {
		codes, perr := plans.CoursesFor(context.Background(), program, 1)
		require.NoError(t, perr)
		assert.Contains(t, codes, "CS101")
	}
}

func TestAddPlanNormalizesCommunications(t *testing.T) {
	svc, _, _, _, _, plans := newEngineFixture()

	err := svc.AddPlan(context.Background(), "CS101", "Communications", 1)
	require.NoError(t, err)
	codes, perr := plans.CoursesFor(context.Background(), models.ProgramComm, 1)
	require.NoError(t, perr)
	assert.Contains(t, codes, "CS101")
}
