package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/repository"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
)

// DoctorStore abstracts faculty persistence.
type DoctorStore interface {
	List(ctx context.Context) ([]models.Doctor, error)
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
	Upsert(ctx context.Context, doctor models.Doctor) error
	Delete(ctx context.Context, id string) error
	CreateAssignment(ctx context.Context, assignment *models.DoctorAssignment) error
	DeleteAssignment(ctx context.Context, assignmentID string) error
	Schedule(ctx context.Context, doctorID string) ([]models.DoctorScheduleEntry, error)
	HasTimeConflict(ctx context.Context, doctorID string, start, end int, excludeSectionID string) (bool, error)
}

// DoctorService manages faculty and their course assignments.
type DoctorService struct {
	doctors DoctorStore
	catalog Catalog
	logger  *zap.Logger
}

// NewDoctorService constructs a doctor service.
func NewDoctorService(doctors DoctorStore, cat Catalog, logger *zap.Logger) *DoctorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DoctorService{doctors: doctors, catalog: cat, logger: logger}
}

// List returns every doctor.
func (s *DoctorService) List(ctx context.Context) ([]models.Doctor, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list doctors")
	}
	return doctors, nil
}

// Get returns a doctor by id.
func (s *DoctorService) Get(ctx context.Context, id string) (*models.Doctor, error) {
	doctor, err := s.doctors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("doctor %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load doctor")
	}
	return doctor, nil
}

// Save inserts or updates a doctor.
func (s *DoctorService) Save(ctx context.Context, doctor models.Doctor) error {
	if doctor.ID == "" || doctor.Name == "" {
		return appErrors.Clone(appErrors.ErrValidation, "doctor id and name are required")
	}
	if err := s.doctors.Upsert(ctx, doctor); err != nil {
		if repository.IsIntegrityViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, appErrors.ErrIntegrity.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save doctor")
	}
	return nil
}

// Delete removes a doctor and cascades the assignments.
func (s *DoctorService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.doctors.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete doctor")
	}
	return nil
}

// Assign binds a doctor to a course, optionally pinned to a section. A pinned
// section must not overlap in time with any section already assigned to the
// doctor.
func (s *DoctorService) Assign(ctx context.Context, doctorID, courseCode string, sectionID *string) (*models.DoctorAssignment, error) {
	if _, err := s.Get(ctx, doctorID); err != nil {
		return nil, err
	}
	if _, ok := s.catalog.Course(courseCode); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseCode))
	}

	if sectionID != nil {
		section, ok := s.catalog.Section(*sectionID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", *sectionID))
		}
		if section.CourseCode != courseCode {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("section %s does not belong to course %s", section.ID, courseCode))
		}
		conflict, err := s.doctors.HasTimeConflict(ctx, doctorID, section.StartTime, section.EndTime, section.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check assignment conflict")
		}
		if conflict {
			return nil, appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("section %s overlaps an existing assignment", section.ID))
		}
	}

	assignment := &models.DoctorAssignment{DoctorID: doctorID, CourseCode: courseCode, SectionID: sectionID}
	if err := s.doctors.CreateAssignment(ctx, assignment); err != nil {
		if repository.IsIntegrityViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrIntegrity.Code, appErrors.ErrIntegrity.Status, appErrors.ErrIntegrity.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "save assignment")
	}
	return assignment, nil
}

// Unassign removes an assignment.
func (s *DoctorService) Unassign(ctx context.Context, assignmentID string) error {
	if err := s.doctors.DeleteAssignment(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assignment %s not found", assignmentID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete assignment")
	}
	return nil
}

// Schedule lists the doctor's assigned sections ordered by start time.
func (s *DoctorService) Schedule(ctx context.Context, doctorID string) ([]models.DoctorScheduleEntry, error) {
	if _, err := s.Get(ctx, doctorID); err != nil {
		return nil, err
	}
	entries, err := s.doctors.Schedule(ctx, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load schedule")
	}
	return entries, nil
}
