package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/service"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
	"github.com/noah-isme/uni-reg-api/pkg/response"
)

// CourseHandler exposes course catalog endpoints.
type CourseHandler struct {
	engine *service.RegistrationService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(engine *service.RegistrationService) *CourseHandler {
	return &CourseHandler{engine: engine}
}

// CreateCourseRequest is the admin payload for adding a course.
type CreateCourseRequest struct {
	Code          string   `json:"course_code" binding:"required"`
	Name          string   `json:"name" binding:"required"`
	Credits       int      `json:"credits" binding:"required"`
	LectureHours  int      `json:"lecture_hours"`
	LabHours      int      `json:"lab_hours"`
	Prerequisites []string `json:"prerequisites"`
}

// PlanRequest is the payload for curriculum entries. Program "All" fans out
// to every program.
type PlanRequest struct {
	Program string `json:"program" binding:"required"`
	Level   int    `json:"level" binding:"required"`
}

// List godoc
// @Summary List catalog courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.engine.ListCourses(), nil)
}

// Get godoc
// @Summary Get one course with its sections
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	code := c.Param("code")
	course, err := h.engine.GetCourse(code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"course":   course,
		"sections": h.engine.SectionsForCourse(code),
	}, nil)
}

// Create godoc
// @Summary Add or update a course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course := models.Course{
		Code:          req.Code,
		Name:          req.Name,
		Credits:       req.Credits,
		LectureHours:  req.LectureHours,
		LabHours:      req.LabHours,
		Prerequisites: req.Prerequisites,
	}
	if err := h.engine.AddCourse(c.Request.Context(), course); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Delete godoc
// @Summary Delete a course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 204 "No Content"
// @Router /courses/{code} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.engine.DeleteCourse(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddPlan godoc
// @Summary Add the course to a program curriculum
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param payload body PlanRequest true "Plan payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{code}/plans [post]
func (h *CourseHandler) AddPlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.engine.AddPlan(c.Request.Context(), c.Param("code"), req.Program, req.Level); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"course_code": c.Param("code"), "program": req.Program, "level": req.Level})
}

// RemovePlan godoc
// @Summary Remove the course from a program curriculum
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param payload body PlanRequest true "Plan payload"
// @Success 204 "No Content"
// @Router /courses/{code}/plans [delete]
func (h *CourseHandler) RemovePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.engine.RemovePlan(c.Request.Context(), c.Param("code"), req.Program, req.Level); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPlans godoc
// @Summary List curriculum entries carrying the course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code}/plans [get]
func (h *CourseHandler) ListPlans(c *gin.Context) {
	entries, err := h.engine.ListPlans(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
