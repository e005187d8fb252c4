package websocket

import "github.com/shams-academy/assessment/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect   Action = "select"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionGoTo     Action = "goto"
	ActionFinish   Action = "finish"
	ActionState    Action = "state"
	ActionPing     Action = "ping"
)

// Request is one client message. Option is set for select, Index for goto.
type Request struct {
	Action Action `json:"action"`
	Option *int   `json:"option,omitempty"`
	Index  *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState    Event = "state"
	EventTick     Event = "tick"
	EventFinished Event = "finished"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// StateResponse carries the full attempt snapshot after an action.
type StateResponse struct {
	Event Event              `json:"event"`
	State model.SessionState `json:"state"`
}

// TickResponse is sent once per second while the attempt runs.
type TickResponse struct {
	Event            Event  `json:"event"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Clock            string `json:"clock"`
}

// FinishedResponse is the last event of an attempt.
type FinishedResponse struct {
	Event  Event               `json:"event"`
	State  model.SessionState  `json:"state"`
	Result *model.ResultRecord `json:"result"`
}

// ErrorResponse reports a rejected action. State is the unchanged snapshot
// when there is one.
type ErrorResponse struct {
	Event Event               `json:"event"`
	Code  string              `json:"code"`
	Error string              `json:"error"`
	State *model.SessionState `json:"state,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
