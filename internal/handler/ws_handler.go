package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/logger"
	"github.com/shams-academy/assessment/internal/middleware"
	"github.com/shams-academy/assessment/internal/model"
	"github.com/shams-academy/assessment/internal/response"
	"github.com/shams-academy/assessment/internal/service"
	ws "github.com/shams-academy/assessment/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live attempt: state after every action, a tick every
// second from the server timer, and the result when the attempt finishes.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            logger.Component(log, "ws_handler"),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/tests/:test_id/stream?token=
// Starts or resumes the attempt, then upgrades. Disconnecting does not stop
// the timer; reconnecting resumes the same attempt.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	testID, ok := testIDParam(c)
	if !ok {
		return
	}
	userID := claims.UserID

	state, err := h.attemptService.Start(c.Request.Context(), userID, testID)
	if err != nil {
		failAttempt(c, err, nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	client := ws.NewClient(conn)
	go client.WritePump()
	defer client.Close()

	wsLog := h.log.With().
		Int("user_id", userID).
		Str("test_id", testID.String()).
		Logger()

	var finished atomic.Bool
	unwatch, err := h.attemptService.Watch(userID, testID, func(ev service.AttemptEvent) {
		switch ev.Type {
		case service.AttemptEventTick:
			client.Send(ws.TickResponse{
				Event:            ws.EventTick,
				RemainingSeconds: ev.State.RemainingSeconds,
				Clock:            ev.State.Clock,
			})
		case service.AttemptEventFinished:
			finished.Store(true)
			client.Send(ws.FinishedResponse{Event: ws.EventFinished, State: ev.State, Result: ev.Result})
			client.Close()
		}
	})
	if err != nil {
		// Finished between Start and Watch.
		h.sendStoredResult(c, client, userID, testID)
		return
	}
	defer unwatch()

	wsLog.Info().Msg("Learner connected")
	client.Send(ws.StateResponse{Event: ws.EventState, State: state})

	for {
		var req ws.Request
		err := client.ReadRequest(&req)
		if errors.Is(err, ws.ErrMalformed) {
			client.SendError(string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload))
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch req.Action {
		case ws.ActionState:
			h.reply(client, func() (model.SessionState, error) { return h.attemptService.State(userID, testID) })
		case ws.ActionSelect:
			if req.Option == nil {
				client.SendError(string(response.ErrInvalidPayload), "option is required")
				continue
			}
			h.reply(client, func() (model.SessionState, error) {
				return h.attemptService.SelectAnswer(userID, testID, *req.Option)
			})
		case ws.ActionNext:
			h.reply(client, func() (model.SessionState, error) { return h.attemptService.Next(userID, testID) })
		case ws.ActionPrevious:
			h.reply(client, func() (model.SessionState, error) { return h.attemptService.Previous(userID, testID) })
		case ws.ActionGoTo:
			if req.Index == nil {
				client.SendError(string(response.ErrInvalidPayload), "index is required")
				continue
			}
			h.reply(client, func() (model.SessionState, error) {
				return h.attemptService.GoTo(userID, testID, *req.Index)
			})
		case ws.ActionFinish:
			rec, err := h.attemptService.Finish(c.Request.Context(), userID, testID)
			if err != nil {
				sendError(client, err, nil)
				continue
			}
			// The watcher already delivered the result when this call did the handoff.
			if !finished.Load() {
				finished.Store(true)
				client.Send(ws.FinishedResponse{Event: ws.EventFinished, Result: rec})
				client.Close()
			}
		case ws.ActionPing:
			client.Send(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(req.Action)).Msg("Unknown action")
			client.SendError(string(response.ErrUnknownWSAction), "unknown action: "+string(req.Action))
		}
	}
}

func (h *WSHandler) reply(client *ws.Client, fn func() (model.SessionState, error)) {
	state, err := fn()
	if err != nil {
		sendError(client, err, &state)
		return
	}
	client.Send(ws.StateResponse{Event: ws.EventState, State: state})
}

func (h *WSHandler) sendStoredResult(c *gin.Context, client *ws.Client, userID int, testID uuid.UUID) {
	rec, err := h.attemptService.Finish(c.Request.Context(), userID, testID)
	if err != nil {
		sendError(client, err, nil)
		return
	}
	client.Send(ws.FinishedResponse{Event: ws.EventFinished, Result: rec})
}

func sendError(client *ws.Client, err error, state *model.SessionState) {
	status, code := attemptErrorCode(err)
	ev := ws.ErrorResponse{Event: ws.EventError, Code: string(code), Error: response.GetMessage(code)}
	if state != nil && status == http.StatusUnprocessableEntity {
		ev.State = state
	}
	client.Send(ev)
}
