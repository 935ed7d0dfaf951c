package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRegistrationHandlerRegisterInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(nil, nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/students/S1/registrations", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "S1"}}

	handler.Register(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerRegisterEmptySectionList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRegistrationHandler(nil, nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/students/S1/registrations", bytes.NewReader([]byte(`{"section_ids":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "S1"}}

	handler.Register(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCourseHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses", bytes.NewReader([]byte(`{"name":"missing code"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
