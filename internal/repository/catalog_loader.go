package repository

import (
	"context"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

// CatalogLoader adapts the course and section repositories to the catalog
// cache's Loader interface.
type CatalogLoader struct {
	courses  *CourseRepository
	sections *SectionRepository
}

// NewCatalogLoader constructs a CatalogLoader.
func NewCatalogLoader(courses *CourseRepository, sections *SectionRepository) *CatalogLoader {
	return &CatalogLoader{courses: courses, sections: sections}
}

// LoadCourses returns the full course set with prerequisites.
func (l *CatalogLoader) LoadCourses(ctx context.Context) ([]models.Course, error) {
	return l.courses.ListWithPrerequisites(ctx)
}

// LoadSections returns the full section set.
func (l *CatalogLoader) LoadSections(ctx context.Context) ([]models.Section, error) {
	return l.sections.List(ctx)
}
