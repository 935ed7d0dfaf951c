// Package catalog keeps an in-memory projection of the course and section
// catalog. It is the sole read path for registration validation; every
// catalog mutation rebuilds it wholesale from the store.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/uni-reg-api/internal/models"
)

// Loader supplies the full course and section sets from the store.
type Loader interface {
	LoadCourses(ctx context.Context) ([]models.Course, error)
	LoadSections(ctx context.Context) ([]models.Section, error)
}

// Cache is the materialized catalog view. Refresh replaces both maps in one
// assignment each, so readers never observe a partially rebuilt projection;
// on a load error the previous snapshot stays in place.
type Cache struct {
	loader   Loader
	courses  map[string]models.Course
	sections map[string]models.Section
}

// New constructs an empty cache. Call Refresh before first use.
func New(loader Loader) *Cache {
	return &Cache{
		loader:   loader,
		courses:  map[string]models.Course{},
		sections: map[string]models.Section{},
	}
}

// Refresh reloads the entire catalog from the store.
func (c *Cache) Refresh(ctx context.Context) error {
	courses, err := c.loader.LoadCourses(ctx)
	if err != nil {
		return fmt.Errorf("load courses: %w", err)
	}
	sections, err := c.loader.LoadSections(ctx)
	if err != nil {
		return fmt.Errorf("load sections: %w", err)
	}

	courseMap := make(map[string]models.Course, len(courses))
	for _, course := range courses {
		courseMap[course.Code] = course
	}
	sectionMap := make(map[string]models.Section, len(sections))
	for _, section := range sections {
		sectionMap[section.ID] = section
	}

	c.courses = courseMap
	c.sections = sectionMap
	return nil
}

// Course returns the cached course for the code.
func (c *Cache) Course(code string) (models.Course, bool) {
	course, ok := c.courses[code]
	return course, ok
}

// Section returns the cached section for the id.
func (c *Cache) Section(id string) (models.Section, bool) {
	section, ok := c.sections[id]
	return section, ok
}

// Courses returns every cached course sorted by code.
func (c *Cache) Courses() []models.Course {
	out := make([]models.Course, 0, len(c.courses))
	for _, course := range c.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// SectionsForCourse returns the cached sections of a course sorted by id.
func (c *Cache) SectionsForCourse(courseCode string) []models.Section {
	var out []models.Section
	for _, section := range c.sections {
		if section.CourseCode == courseCode {
			out = append(out, section)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
