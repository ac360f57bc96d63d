package dto

import "time"

// SessionEventMessage travels over the in-process event bus from the
// orchestrator to the websocket relay.
type SessionEventMessage struct {
	UserId     string    `json:"user_id"`
	Type       string    `json:"type"`
	SessionId  string    `json:"session_id,omitempty"`
	Outcome    Outcome   `json:"outcome,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
