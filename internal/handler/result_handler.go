package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shams-academy/assessment/internal/middleware"
	"github.com/shams-academy/assessment/internal/model"
	"github.com/shams-academy/assessment/internal/response"
	"github.com/shams-academy/assessment/internal/service"
)

// ResultHandler serves the results view.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// Get godoc
// GET /api/v1/tests/:test_id/result
func (h *ResultHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	testID, ok := testIDParam(c)
	if !ok {
		return
	}

	result, err := h.resultService.Get(c.Request.Context(), claims.UserID, testID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ListMine godoc
// GET /api/v1/results/my
func (h *ResultHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.resultService.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.ResultRecord{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// Activities godoc
// GET /api/v1/activities/my?limit=20
func (h *ResultHandler) Activities(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	activities, err := h.resultService.Activities(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if activities == nil {
		activities = []model.Activity{}
	}

	response.Success(c, http.StatusOK, gin.H{"activities": activities})
}
