package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-reg-api/internal/service"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
	"github.com/noah-isme/uni-reg-api/pkg/response"
)

// RegistrationHandler exposes the register/unregister/validate endpoints.
type RegistrationHandler struct {
	students *service.StudentService
	engine   *service.RegistrationService
	metrics  *service.MetricsService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(students *service.StudentService, engine *service.RegistrationService, metrics *service.MetricsService) *RegistrationHandler {
	return &RegistrationHandler{students: students, engine: engine, metrics: metrics}
}

// RegisterRequest is the payload for batch registration.
type RegisterRequest struct {
	SectionIDs []string `json:"section_ids" binding:"required,min=1"`
}

// ValidateRequest is the payload for schedule validation.
type ValidateRequest struct {
	CourseCodes []string `json:"course_codes" binding:"required,min=1"`
}

// Register godoc
// @Summary Register the student into a batch of sections
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body RegisterRequest true "Section IDs"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	err = h.engine.Register(c.Request.Context(), student, req.SectionIDs)
	h.metrics.RecordRegistration("register", err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"student_id": student.ID,
		"schedule":   student.Schedule,
	})
}

// Unregister godoc
// @Summary Remove one section from the student's schedule
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param sectionId path string true "Section ID"
// @Success 204 "No Content"
// @Router /students/{id}/registrations/{sectionId} [delete]
func (h *RegistrationHandler) Unregister(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	err = h.engine.Unregister(c.Request.Context(), student, c.Param("sectionId"))
	h.metrics.RecordRegistration("unregister", err == nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Validate godoc
// @Summary Dry-run validation of a set of course codes
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body ValidateRequest true "Course codes"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/registrations/validate [post]
func (h *RegistrationHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	messages := h.engine.ValidateSchedule(student, req.CourseCodes)
	response.JSON(c, http.StatusOK, gin.H{
		"valid":    len(messages) == 0,
		"messages": messages,
	}, nil)
}
