package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/service"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
	"github.com/noah-isme/uni-reg-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students *service.StudentService
	engine   *service.RegistrationService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, engine *service.RegistrationService) *StudentHandler {
	return &StudentHandler{students: students, engine: engine}
}

// CreateStudentRequest is the admin payload for adding a student.
type CreateStudentRequest struct {
	ID      string `json:"student_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Program string `json:"program" binding:"required"`
	Level   int    `json:"level" binding:"required"`
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param program query string false "Filter by program"
// @Param level query int false "Filter by level"
// @Param search query string false "Search by id or name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Program = models.Program(c.Query("program"))
	if level, err := strconv.Atoi(c.Query("level")); err == nil {
		filter.Level = level
	}
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get one student with transcript and schedule
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Add a student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student := &models.Student{
		ID:      req.ID,
		Name:    req.Name,
		Email:   req.Email,
		Program: models.Program(req.Program),
		Level:   req.Level,
	}
	if err := h.students.Create(c.Request.Context(), student); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204 "No Content"
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Credits godoc
// @Summary Get completed credit total
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/credits [get]
func (h *StudentHandler) Credits(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"student_id":        student.ID,
		"completed_credits": h.students.CompletedCredits(student),
	}, nil)
}

// AvailableCourses godoc
// @Summary List curriculum courses open to the student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/available-courses [get]
func (h *StudentHandler) AvailableCourses(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, err := h.engine.AvailableCourses(c.Request.Context(), string(student.Program), student.Level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ExportSchedule godoc
// @Summary Export the weekly schedule as CSV or PDF
// @Tags Students
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /students/{id}/schedule/export [get]
func (h *StudentHandler) ExportSchedule(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", service.ScheduleFormatCSV)
	payload, contentType, err := h.students.ExportSchedule(student, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("schedule-%s.%s", student.ID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
