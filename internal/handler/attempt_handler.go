package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/middleware"
	"github.com/shams-academy/assessment/internal/model"
	"github.com/shams-academy/assessment/internal/response"
	"github.com/shams-academy/assessment/internal/service"
	"github.com/shams-academy/assessment/internal/validator"
)

// AttemptHandler exposes a learner's live attempt over REST.
type AttemptHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		log:            logger.Component(log, "attempt_handler"),
	}
}

// Start godoc
// POST /api/v1/tests/:test_id/attempt
// Starts an attempt, or returns the live one so a page reload resumes it.
func (h *AttemptHandler) Start(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}

	state, err := h.attemptService.Start(c.Request.Context(), userID, testID)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// State godoc
// GET /api/v1/tests/:test_id/attempt
func (h *AttemptHandler) State(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}

	state, err := h.attemptService.State(userID, testID)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// SelectAnswer godoc
// PUT /api/v1/tests/:test_id/attempt/answer
func (h *AttemptHandler) SelectAnswer(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}
	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.attemptService.SelectAnswer(userID, testID, *req.Option)
	h.reply(c, state, err)
}

// Next godoc
// POST /api/v1/tests/:test_id/attempt/next
func (h *AttemptHandler) Next(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}
	state, err := h.attemptService.Next(userID, testID)
	h.reply(c, state, err)
}

// Previous godoc
// POST /api/v1/tests/:test_id/attempt/previous
func (h *AttemptHandler) Previous(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}
	state, err := h.attemptService.Previous(userID, testID)
	h.reply(c, state, err)
}

// GoTo godoc
// POST /api/v1/tests/:test_id/attempt/goto
func (h *AttemptHandler) GoTo(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}
	var req model.GoToRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.attemptService.GoTo(userID, testID, *req.Index)
	h.reply(c, state, err)
}

// Preview godoc
// GET /api/v1/tests/:test_id/attempt/preview
// Scores the answers so far without finishing the attempt.
func (h *AttemptHandler) Preview(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}
	score, err := h.attemptService.Preview(userID, testID)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"preview": score})
}

// Finish godoc
// POST /api/v1/tests/:test_id/attempt/finish
// Finishing twice returns the same result.
func (h *AttemptHandler) Finish(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}
	result, err := h.attemptService.Finish(c.Request.Context(), userID, testID)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Abandon godoc
// DELETE /api/v1/tests/:test_id/attempt
func (h *AttemptHandler) Abandon(c *gin.Context) {
	userID, testID, ok := h.params(c)
	if !ok {
		return
	}
	if err := h.attemptService.Abandon(userID, testID); err != nil {
		h.fail(c, err, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

func (h *AttemptHandler) params(c *gin.Context) (int, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, uuid.Nil, false
	}
	testID, ok := testIDParam(c)
	if !ok {
		return 0, uuid.Nil, false
	}
	return claims.UserID, testID, true
}

func (h *AttemptHandler) reply(c *gin.Context, state model.SessionState, err error) {
	if err != nil {
		h.fail(c, err, &state)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

func (h *AttemptHandler) fail(c *gin.Context, err error, state *model.SessionState) {
	if status, _ := attemptErrorCode(err); status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("attempt request failed")
	}
	failAttempt(c, err, state)
}
