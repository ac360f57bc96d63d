package dto

import "time"

// Outcome is the tri-state result attached to every extraction and chat
// response so the view layer can distinguish a degraded backend from a
// healthy one instead of silently showing fallback content.
type Outcome string

const (
	OutcomeLive     Outcome = "live"
	OutcomeFallback Outcome = "fallback"
	OutcomeError    Outcome = "error"
)

type ExtractRequest struct {
	Accuracy string `json:"accuracy" validate:"omitempty,oneof=low medium high"`
}

type ChangeAccuracyRequest struct {
	Accuracy string `json:"accuracy" validate:"required,oneof=low medium high"`
}

type UpdateTextRequest struct {
	ExtractedText string `json:"extracted_text" validate:"required"`
}

type ChatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SessionDTO struct {
	Id            string           `json:"id"`
	Title         string           `json:"title,omitempty"`
	ExtractedText string           `json:"extracted_text"`
	Keywords      []string         `json:"keywords"`
	ChatHistory   []ChatMessageDTO `json:"chat_history"`
	Accuracy      string           `json:"accuracy"`
	PublicUrl     string           `json:"public_url,omitempty"`
	ImageUrl      string           `json:"image_url,omitempty"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
}

type WorkspaceResponse struct {
	Phase    string      `json:"phase"`
	FileName string      `json:"file_name,omitempty"`
	FileSize int64       `json:"file_size,omitempty"`
	FileKind string      `json:"file_kind,omitempty"`
	Accuracy string      `json:"accuracy"`
	Session  *SessionDTO `json:"session,omitempty"`
	Outcome  Outcome     `json:"outcome,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []SessionDTO `json:"sessions"`
}
