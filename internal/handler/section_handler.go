package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/service"
	appErrors "github.com/noah-isme/uni-reg-api/pkg/errors"
	"github.com/noah-isme/uni-reg-api/pkg/response"
)

// SectionHandler exposes section endpoints.
type SectionHandler struct {
	engine *service.RegistrationService
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(engine *service.RegistrationService) *SectionHandler {
	return &SectionHandler{engine: engine}
}

// CreateSectionRequest is the admin payload for adding a section.
type CreateSectionRequest struct {
	ID          string   `json:"section_id" binding:"required"`
	CourseCode  string   `json:"course_code" binding:"required"`
	Instructor  string   `json:"instructor"`
	StartTime   int      `json:"start_time"`
	EndTime     int      `json:"end_time" binding:"required"`
	Hall        string   `json:"hall"`
	MaxCapacity int      `json:"max_capacity" binding:"required"`
	Days        []string `json:"days"`
}

// Get godoc
// @Summary Get one section
// @Tags Sections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.engine.GetSection(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Create godoc
// @Summary Add or update a section
// @Tags Sections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	days := make([]models.Weekday, 0, len(req.Days))
	for _, raw := range req.Days {
		days = append(days, models.Weekday(raw))
	}
	section := models.Section{
		ID:          req.ID,
		CourseCode:  req.CourseCode,
		Instructor:  req.Instructor,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Hall:        req.Hall,
		MaxCapacity: req.MaxCapacity,
		Days:        days,
	}
	if err := h.engine.AddSection(c.Request.Context(), section); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Delete godoc
// @Summary Delete a section
// @Tags Sections
// @Produce json
// @Security BearerAuth
// @Param id path string true "Section ID"
// @Success 204 "No Content"
// @Router /sections/{id} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	if err := h.engine.DeleteSection(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
