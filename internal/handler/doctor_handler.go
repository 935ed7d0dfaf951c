package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/service"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
	"github.com/noah-isme/uni-reg-api/pkg/response"
)

// DoctorHandler exposes faculty endpoints.
type DoctorHandler struct {
	doctors *service.DoctorService
}

// NewDoctorHandler constructs DoctorHandler.
func NewDoctorHandler(doctors *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctors: doctors}
}

// SaveDoctorRequest is the admin payload for adding a doctor.
type SaveDoctorRequest struct {
	ID               string `json:"doctor_id" binding:"required"`
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email"`
	PreferredCourses string `json:"preferred_courses"`
	TimeAvailability string `json:"time_availability"`
}

// AssignRequest binds a doctor to a course, optionally to one section.
type AssignRequest struct {
	CourseCode string  `json:"course_code" binding:"required"`
	SectionID  *string `json:"section_id"`
}

// List godoc
// @Summary List doctors
// @Tags Doctors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /doctors [get]
func (h *DoctorHandler) List(c *gin.Context) {
	doctors, err := h.doctors.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doctors, nil)
}

// Save godoc
// @Summary Add or update a doctor
// @Tags Doctors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body SaveDoctorRequest true "Doctor payload"
// @Success 201 {object} response.Envelope
// @Router /doctors [post]
func (h *DoctorHandler) Save(c *gin.Context) {
	var req SaveDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	doctor := models.Doctor{
		ID:               req.ID,
		Name:             req.Name,
		Email:            req.Email,
		PreferredCourses: req.PreferredCourses,
		TimeAvailability: req.TimeAvailability,
	}
	if err := h.doctors.Save(c.Request.Context(), doctor); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doctor)
}

// Delete godoc
// @Summary Delete a doctor
// @Tags Doctors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Doctor ID"
// @Success 204 "No Content"
// @Router /doctors/{id} [delete]
func (h *DoctorHandler) Delete(c *gin.Context) {
	if err := h.doctors.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign the doctor to a course or section
// @Tags Doctors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Doctor ID"
// @Param payload body AssignRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /doctors/{id}/assignments [post]
func (h *DoctorHandler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.doctors.Assign(c.Request.Context(), c.Param("id"), req.CourseCode, req.SectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Unassign godoc
// @Summary Remove an assignment
// @Tags Doctors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Doctor ID"
// @Param aid path string true "Assignment ID"
// @Success 204 "No Content"
// @Router /doctors/{id}/assignments/{aid} [delete]
func (h *DoctorHandler) Unassign(c *gin.Context) {
	if err := h.doctors.Unassign(c.Request.Context(), c.Param("aid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Schedule godoc
// @Summary List the doctor's assigned sections
// @Tags Doctors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id}/schedule [get]
func (h *DoctorHandler) Schedule(c *gin.Context) {
	entries, err := h.doctors.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
