package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/repository"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
	"github.com/noah-isme/uni-reg-api/pkg/saga"
)

// Catalog is the read path for registration validation.
type Catalog interface {
	Refresh(ctx context.Context) error
	Course(code string) (models.Course, bool)
	Section(id string) (models.Section, bool)
	Courses() []models.Course
	SectionsForCourse(courseCode string) []models.Section
}

// CourseStore abstracts course persistence for the engine.
type CourseStore interface {
	Exists(ctx context.Context, code string) (bool, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Upsert(ctx context.Context, course models.Course) error
	Delete(ctx context.Context, code string) error
}

// SectionStore abstracts section persistence including the enrollment counter.
type SectionStore interface {
	Upsert(ctx context.Context, section models.Section) error
	Delete(ctx context.Context, id string) error
	IncrementEnrollment(ctx context.Context, id string) error
	DecrementEnrollment(ctx context.Context, id string) error
}

// RegistrationStore abstracts registration rows.
type RegistrationStore interface {
	Create(ctx context.Context, registration *models.Registration) error
	Delete(ctx context.Context, studentID, sectionID string) error
}

// ProgramPlanStore abstracts curriculum entries.
type ProgramPlanStore interface {
	Add(ctx context.Context, entry models.ProgramPlanEntry) error
	Remove(ctx context.Context, entry models.ProgramPlanEntry) error
	RemoveAllForCourse(ctx context.Context, courseCode string) error
	ListForCourse(ctx context.Context, courseCode string) ([]models.ProgramPlanEntry, error)
	CoursesFor(ctx context.Context, program models.Program, level int) ([]string, error)
}

const availabilityKeyPattern = "availability:*"

// RegistrationService is the registration engine: catalog mutations, the
// availability read path, schedule validation, and the register/unregister
// compensating transactions.
type RegistrationService struct {
	courses       CourseStore
	sections      SectionStore
	registrations RegistrationStore
	plans         ProgramPlanStore
	catalog       Catalog
	cache         *CacheService
	cacheTTL      time.Duration
	runner        *saga.Runner
	logger        *zap.Logger
}

// NewRegistrationService constructs the engine.
func NewRegistrationService(
	courses CourseStore,
	sections SectionStore,
	registrations RegistrationStore,
	plans ProgramPlanStore,
	cat Catalog,
	cache *CacheService,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		courses:       courses,
		sections:      sections,
		registrations: registrations,
		plans:         plans,
		catalog:       cat,
		cache:         cache,
		cacheTTL:      cacheTTL,
		runner:        saga.NewRunner(logger),
		logger:        logger,
	}
}

// AddCourse validates the course, checks every prerequisite exists in the
// store, upserts the row with its edge set and refreshes the catalog.
func (s *RegistrationService) AddCourse(ctx context.Context, course models.Course) error {
	if err := course.Validate(); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	for _, prereq := range course.Prerequisites {
		exists, err := s.courses.Exists(ctx, prereq)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check prerequisite")
		}
		if !exists {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("prerequisite course %s not found", prereq))
		}
	}
	if err := s.courses.Upsert(ctx, course); err != nil {
		if repository.IsIntegrityViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, appErrors.ErrIntegrity.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save course")
	}
	return s.afterCatalogMutation(ctx)
}

// DeleteCourse removes the course and its curriculum entries. Sections and
// their registrations cascade in the store; a course still required as a
// prerequisite of another must not be deleted, so that is rejected before
// any write happens.
func (s *RegistrationService) DeleteCourse(ctx context.Context, code string) error {
	for _, course := range s.catalog.Courses() {
		for _, prereq := range course.Prerequisites {
			if prereq == code {
				return appErrors.Clone(appErrors.ErrConflict,
					fmt.Sprintf("course %s is a prerequisite of %s", code, course.Code))
			}
		}
	}
	if err := s.plans.RemoveAllForCourse(ctx, code); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "remove curriculum entries")
	}
	if err := s.courses.Delete(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", code))
		}
		if repository.IsIntegrityViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, appErrors.ErrIntegrity.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete course")
	}
	return s.afterCatalogMutation(ctx)
}

// AddSection validates the section and that its course exists, then upserts.
func (s *RegistrationService) AddSection(ctx context.Context, section models.Section) error {
	if err := section.Validate(); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	exists, err := s.courses.Exists(ctx, section.CourseCode)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check course")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("course %s not found", section.CourseCode))
	}
	if err := s.sections.Upsert(ctx, section); err != nil {
		if repository.IsIntegrityViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, appErrors.ErrIntegrity.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save section")
	}
	return s.afterCatalogMutation(ctx)
}

// DeleteSection removes the section.
func (s *RegistrationService) DeleteSection(ctx context.Context, id string) error {
	if err := s.sections.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", id))
		}
		if repository.IsIntegrityViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, appErrors.ErrIntegrity.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete section")
	}
	return s.afterCatalogMutation(ctx)
}

// GetCourse reads a course from the catalog cache.
func (s *RegistrationService) GetCourse(code string) (models.Course, error) {
	course, ok := s.catalog.Course(code)
	if !ok {
		return models.Course{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", code))
	}
	return course, nil
}

// GetSection reads a section from the catalog cache.
func (s *RegistrationService) GetSection(id string) (models.Section, error) {
	section, ok := s.catalog.Section(id)
	if !ok {
		return models.Section{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", id))
	}
	return section, nil
}

// ListCourses returns the cached catalog sorted by code, each course paired
// with its sections.
func (s *RegistrationService) ListCourses() []models.Course {
	return s.catalog.Courses()
}

// SectionsForCourse returns the cached sections of a course.
func (s *RegistrationService) SectionsForCourse(code string) []models.Section {
	return s.catalog.SectionsForCourse(code)
}

// AddPlan records a curriculum entry. Program "All" fans out to every known
// program.
func (s *RegistrationService) AddPlan(ctx context.Context, courseCode, rawProgram string, level int) error {
	if level < models.MinLevel || level > models.MaxLevel {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("level must be between %d and %d", models.MinLevel, models.MaxLevel))
	}
	if _, ok := s.catalog.Course(courseCode); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseCode))
	}
	programs, err := resolvePrograms(rawProgram)
	if err != nil {
		return err
	}
	for _, program := range programs {
		if err := s.plans.Add(ctx, models.ProgramPlanEntry{Program: program, Level: level, CourseCode: courseCode}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save program plan")
		}
	}
	return s.invalidateAvailability(ctx)
}

// RemovePlan deletes a curriculum entry, fanning out for program "All".
func (s *RegistrationService) RemovePlan(ctx context.Context, courseCode, rawProgram string, level int) error {
	programs, err := resolvePrograms(rawProgram)
	if err != nil {
		return err
	}
	for _, program := range programs {
		if err := s.plans.Remove(ctx, models.ProgramPlanEntry{Program: program, Level: level, CourseCode: courseCode}); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "remove program plan")
		}
	}
	return s.invalidateAvailability(ctx)
}

// ListPlans returns every (program, level) pair carrying the course.
func (s *RegistrationService) ListPlans(ctx context.Context, courseCode string) ([]models.ProgramPlanEntry, error) {
	entries, err := s.plans.ListForCourse(ctx, courseCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list program plans")
	}
	return entries, nil
}

func resolvePrograms(raw string) ([]models.Program, error) {
	canonical := models.CanonicalProgram(raw)
	if canonical == models.ProgramAll {
		return models.AllPrograms, nil
	}
	if !canonical.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown program %q", raw))
	}
	return []models.Program{canonical}, nil
}

// AvailableCourses resolves the curriculum for (program, level) and maps the
// codes through the catalog. Codes missing from the catalog are skipped; the
// result is sorted ascending by code and cached in Redis under a per-pair key.
func (s *RegistrationService) AvailableCourses(ctx context.Context, rawProgram string, level int) ([]models.Course, error) {
	program := models.CanonicalProgram(rawProgram)
	if !program.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown program %q", rawProgram))
	}
	if level < models.MinLevel || level > models.MaxLevel {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("level must be between %d and %d", models.MinLevel, models.MaxLevel))
	}

	key := fmt.Sprintf("availability:%s:%d", program, level)
	var cached []models.Course
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	codes, err := s.plans.CoursesFor(ctx, program, level)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve curriculum")
	}

	courses := make([]models.Course, 0, len(codes))
	for _, code := range codes {
		course, ok := s.catalog.Course(code)
		if !ok {
			s.logger.Warn("curriculum course missing from catalog", zap.String("course_code", code))
			continue
		}
		courses = append(courses, course)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })

	if err := s.cache.Set(ctx, key, courses, s.cacheTTL); err != nil {
		s.logger.Warn("availability cache set failed", zap.String("key", key), zap.Error(err))
	}
	return courses, nil
}

// ValidateSchedule aggregates every applicable problem with registering the
// given course codes instead of failing fast. Pure read against the catalog.
func (s *RegistrationService) ValidateSchedule(student *models.Student, courseCodes []string) []string {
	var messages []string
	for _, code := range courseCodes {
		if student.InTranscript(code) {
			messages = append(messages, fmt.Sprintf("course %s already completed", code))
		}
		course, ok := s.catalog.Course(code)
		if !ok {
			messages = append(messages, fmt.Sprintf("course %s not found", code))
			continue
		}
		if missing := course.MissingPrerequisites(student.Transcript); len(missing) > 0 {
			messages = append(messages, fmt.Sprintf("course %s is missing prerequisites: %s", code, strings.Join(missing, ", ")))
		}
	}
	return messages
}

// Register enrolls the student into every requested section or none of them.
// Validation runs first with no store writes; the store mutations then run as
// a saga of per-section (increment + insert) steps compensated in reverse on
// partial failure.
func (s *RegistrationService) Register(ctx context.Context, student *models.Student, sectionIDs []string) error {
	if len(sectionIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no sections requested")
	}

	sections := make([]models.Section, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		section, ok := s.catalog.Section(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", id))
		}
		sections = append(sections, section)
	}

	for _, section := range sections {
		if student.InTranscript(section.CourseCode) {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("course %s already completed", section.CourseCode))
		}
	}

	codes := make([]string, len(sections))
	for i, section := range sections {
		codes[i] = section.CourseCode
	}
	if messages := s.ValidateSchedule(student, codes); len(messages) > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, strings.Join(messages, "; "))
	}

	for _, section := range sections {
		if section.IsFull() {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %s is full", section.ID))
		}
	}

	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			if sections[i].Overlaps(sections[j]) {
				return appErrors.Clone(appErrors.ErrConflict,
					fmt.Sprintf("time conflict between sections %s and %s", sections[i].ID, sections[j].ID))
			}
		}
	}

	// One active section per course, counting both the existing schedule and
	// the rest of the requested batch.
	batchCourses := make(map[string]string, len(sections))
	for _, section := range sections {
		if student.HasSection(section.ID) {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("already registered in section %s", section.ID))
		}
		for _, entry := range student.Schedule {
			if existing, ok := s.catalog.Section(entry.SectionID); ok && existing.CourseCode == section.CourseCode {
				return appErrors.Clone(appErrors.ErrConflict,
					fmt.Sprintf("already registered in section %s of course %s", existing.ID, section.CourseCode))
			}
		}
		if prev, ok := batchCourses[section.CourseCode]; ok {
			return appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("sections %s and %s are both offerings of course %s", prev, section.ID, section.CourseCode))
		}
		batchCourses[section.CourseCode] = section.ID
	}

	registered := make(map[string]time.Time, len(sections))
	steps := make([]saga.Step, 0, len(sections))
	for _, section := range sections {
		section := section
		steps = append(steps, saga.Step{
			Name: "register section " + section.ID,
			Do: func(ctx context.Context) error {
				if err := s.sections.IncrementEnrollment(ctx, section.ID); err != nil {
					if errors.Is(err, repository.ErrSectionFull) {
						return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %s is full", section.ID))
					}
					if errors.Is(err, sql.ErrNoRows) {
						return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", section.ID))
					}
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reserve seat")
				}
				registration := &models.Registration{StudentID: student.ID, SectionID: section.ID}
				if err := s.registrations.Create(ctx, registration); err != nil {
					// Release the seat taken above; this step's undo will not
					// run because the step never completed.
					if derr := s.sections.DecrementEnrollment(ctx, section.ID); derr != nil {
						s.logger.Error("seat release after failed insert",
							zap.String("section_id", section.ID), zap.Error(derr))
					}
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "record registration")
				}
				registered[section.ID] = registration.RegistrationTime
				return nil
			},
			Undo: func(ctx context.Context) error {
				if err := s.registrations.Delete(ctx, student.ID, section.ID); err != nil {
					return err
				}
				return s.sections.DecrementEnrollment(ctx, section.ID)
			},
		})
	}

	if err := s.runner.Run(ctx, steps); err != nil {
		return err
	}

	for _, section := range sections {
		student.Schedule = append(student.Schedule, models.ScheduleEntry{
			SectionID:    section.ID,
			RegisteredAt: registered[section.ID],
		})
	}
	return s.afterCatalogMutation(ctx)
}

// Unregister removes one section from the student's schedule, restoring the
// registration row if the counter decrement fails.
func (s *RegistrationService) Unregister(ctx context.Context, student *models.Student, sectionID string) error {
	if !student.HasSection(sectionID) {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("not registered in section %s", sectionID))
	}

	var removed models.ScheduleEntry
	for _, entry := range student.Schedule {
		if entry.SectionID == sectionID {
			removed = entry
			break
		}
	}

	if err := s.registrations.Delete(ctx, student.ID, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("registration for section %s not found", sectionID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "remove registration")
	}

	if err := s.sections.DecrementEnrollment(ctx, sectionID); err != nil {
		// Best-effort compensation: put the row back so the counter and the
		// registration set do not diverge.
		restore := &models.Registration{StudentID: student.ID, SectionID: sectionID, RegistrationTime: removed.RegisteredAt}
		if rerr := s.registrations.Create(ctx, restore); rerr != nil {
			s.logger.Error("registration restore after failed decrement",
				zap.String("student_id", student.ID),
				zap.String("section_id", sectionID),
				zap.Error(rerr))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "release seat")
	}

	schedule := student.Schedule[:0]
	for _, entry := range student.Schedule {
		if entry.SectionID != sectionID {
			schedule = append(schedule, entry)
		}
	}
	student.Schedule = schedule
	return s.afterCatalogMutation(ctx)
}

// afterCatalogMutation refreshes the catalog projection and drops cached
// availability payloads. Every successful mutation ends here.
func (s *RegistrationService) afterCatalogMutation(ctx context.Context) error {
	if err := s.catalog.Refresh(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "refresh catalog")
	}
	return s.invalidateAvailability(ctx)
}

func (s *RegistrationService) invalidateAvailability(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, availabilityKeyPattern); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
	return nil
}
