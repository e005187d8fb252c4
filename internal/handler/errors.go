package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shams-academy/assessment/internal/assessment"
	"github.com/shams-academy/assessment/internal/model"
	"github.com/shams-academy/assessment/internal/response"
	"github.com/shams-academy/assessment/internal/service"
)

// attemptErrorCode maps attempt and engine errors to an HTTP status and code.
// Unknown errors are internal.
func attemptErrorCode(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrAttemptNotFound):
		return http.StatusNotFound, response.ErrAttemptNotFound
	case errors.Is(err, service.ErrAlreadySubmitted):
		return http.StatusConflict, response.ErrAlreadySubmitted
	case errors.Is(err, assessment.ErrSessionFinished):
		return http.StatusConflict, response.ErrSessionFinished
	case errors.Is(err, assessment.ErrInvalidOption):
		return http.StatusUnprocessableEntity, response.ErrInvalidOption
	case errors.Is(err, assessment.ErrIndexOutOfRange):
		return http.StatusUnprocessableEntity, response.ErrIndexOutOfRange
	case errors.Is(err, assessment.ErrInvalidTest):
		return http.StatusUnprocessableEntity, response.ErrInvalidTest
	case errors.Is(err, assessment.ErrTestUnavailable):
		return http.StatusNotFound, response.ErrTestUnavailable
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failAttempt writes err. Rejected moves carry the unchanged state.
func failAttempt(c *gin.Context, err error, state *model.SessionState) {
	status, code := attemptErrorCode(err)
	if state != nil && status == http.StatusUnprocessableEntity {
		response.FailWithData(c, status, code, gin.H{"state": state})
		return
	}
	response.Fail(c, status, code)
}

// testIDParam parses :test_id, writing the error response on failure.
func testIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
