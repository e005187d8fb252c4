package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shams-academy/assessment/internal/assessment"
	"github.com/shams-academy/assessment/internal/middleware"
	"github.com/shams-academy/assessment/internal/model"
	"github.com/shams-academy/assessment/internal/response"
	"github.com/shams-academy/assessment/internal/service"
	"github.com/shams-academy/assessment/internal/validator"
)

// AdminHandler handles test authoring.
type AdminHandler struct {
	testService *service.TestService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(testService *service.TestService) *AdminHandler {
	return &AdminHandler{testService: testService}
}

// CreateTest godoc
// POST /api/v1/admin/tests
func (h *AdminHandler) CreateTest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// AddQuestion godoc
// POST /api/v1/admin/tests/:test_id/questions
func (h *AdminHandler) AddQuestion(c *gin.Context) {
	testID, ok := testIDParam(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.testService.AddQuestion(c.Request.Context(), testID, req)
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrInvalidOption):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"correct_option_index": "correct_option_index must point at one of the options",
			})
		case errors.Is(err, service.ErrTestNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// RefreshCache godoc
// POST /api/v1/admin/tests/:test_id/refresh-cache
// Reloads the test payload into Redis.
func (h *AdminHandler) RefreshCache(c *gin.Context) {
	testID, ok := testIDParam(c)
	if !ok {
		return
	}

	if err := h.testService.RefreshCache(c.Request.Context(), testID); err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "test cache refreshed successfully"})
}
