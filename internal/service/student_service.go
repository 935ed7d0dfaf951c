package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/repository"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
	"github.com/noah-isme/uni-reg-api/pkg/export"
)

// StudentStore abstracts student and transcript persistence.
type StudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Create(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	Transcript(ctx context.Context, studentID string) ([]string, error)
	AddToTranscript(ctx context.Context, studentID, courseCode string) error
}

// RegistrationReader lists a student's active registrations.
type RegistrationReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Registration, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Export formats for the schedule endpoint.
const (
	ScheduleFormatCSV = "csv"
	ScheduleFormatPDF = "pdf"
)

// StudentService materializes students (including the level backfill) and
// serves the student-facing read paths.
type StudentService struct {
	students      StudentStore
	registrations RegistrationReader
	plans         ProgramPlanStore
	catalog       Catalog
	csv           csvRenderer
	pdf           pdfRenderer
	logger        *zap.Logger
}

// NewStudentService constructs a student service.
func NewStudentService(students StudentStore, registrations RegistrationReader, plans ProgramPlanStore, cat Catalog, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:      students,
		registrations: registrations,
		plans:         plans,
		catalog:       cat,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		logger:        logger,
	}
}

// Get materializes a student with transcript and schedule. Materialization
// backfills the transcript with every prior-level curriculum course and
// persists the additions immediately; students are assumed to have completed
// all lower-level curriculum.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load student")
	}

	transcript, err := s.students.Transcript(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load transcript")
	}
	student.Transcript = transcript

	if student.Level > models.MinLevel {
		if err := s.backfillTranscript(ctx, student); err != nil {
			return nil, err
		}
	}

	registrations, err := s.registrations.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
	}
	student.Schedule = make([]models.ScheduleEntry, len(registrations))
	for i, registration := range registrations {
		student.Schedule[i] = models.ScheduleEntry{
			SectionID:    registration.SectionID,
			RegisteredAt: registration.RegistrationTime,
		}
	}
	return student, nil
}

func (s *StudentService) backfillTranscript(ctx context.Context, student *models.Student) error {
	for level := models.MinLevel; level < student.Level; level++ {
		codes, err := s.plans.CoursesFor(ctx, student.Program, level)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve curriculum")
		}
		for _, code := range codes {
			if student.InTranscript(code) {
				continue
			}
			if err := s.students.AddToTranscript(ctx, student.ID, code); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "backfill transcript")
			}
			student.Transcript = append(student.Transcript, code)
			s.logger.Debug("transcript backfilled",
				zap.String("student_id", student.ID),
				zap.String("course_code", code),
				zap.Int("level", level))
		}
	}
	return nil
}

// Create registers a new student row.
func (s *StudentService) Create(ctx context.Context, student *models.Student) error {
	student.Program = models.CanonicalProgram(string(student.Program))
	if err := student.Validate(); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.students.Create(ctx, student); err != nil {
		if repository.IsIntegrityViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
				fmt.Sprintf("student %s already exists", student.ID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create student")
	}
	return nil
}

// List returns students matching the filter with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Program != "" {
		filter.Program = models.CanonicalProgram(string(filter.Program))
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Delete removes the student; registrations and transcript rows cascade.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.students.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load student")
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete student")
	}
	return nil
}

// CompletedCredits sums the cached credit value of every transcript course.
// Codes missing from the catalog are skipped.
func (s *StudentService) CompletedCredits(student *models.Student) int {
	total := 0
	for _, code := range student.Transcript {
		course, ok := s.catalog.Course(code)
		if !ok {
			continue
		}
		total += course.Credits
	}
	return total
}

// ExportSchedule renders the student's weekly schedule as CSV or PDF and
// returns the payload with its content type.
func (s *StudentService) ExportSchedule(student *models.Student, format string) ([]byte, string, error) {
	headers := []string{"Section", "Course", "Title", "Instructor", "Hall", "Days", "Time"}
	rows := make([]map[string]string, 0, len(student.Schedule))
	for _, entry := range student.Schedule {
		section, ok := s.catalog.Section(entry.SectionID)
		if !ok {
			s.logger.Warn("scheduled section missing from catalog", zap.String("section_id", entry.SectionID))
			continue
		}
		title := ""
		if course, ok := s.catalog.Course(section.CourseCode); ok {
			title = course.Name
		}
		rows = append(rows, map[string]string{
			"Section":    section.ID,
			"Course":     section.CourseCode,
			"Title":      title,
			"Instructor": section.Instructor,
			"Hall":       section.Hall,
			"Days":       models.JoinDays(section.Days),
			"Time":       fmt.Sprintf("%02d:00-%02d:00", section.StartTime, section.EndTime),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}

	switch strings.ToLower(format) {
	case ScheduleFormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
		}
		return payload, "text/csv", nil
	case ScheduleFormatPDF:
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Schedule %s", student.ID))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}
