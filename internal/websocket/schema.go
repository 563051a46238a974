package websocket

import "encoding/json"

// Actions (client → server).

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// Events (server → client).

type Event string

const (
	EventError   Event = "error"
	EventMonitor Event = "monitor"
	EventPong    Event = "pong"
)

// MonitorFrame wraps a session lifecycle event for the proctoring stream.
// Payload is the raw JSON published on the exam's monitor channel.
type MonitorFrame struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
