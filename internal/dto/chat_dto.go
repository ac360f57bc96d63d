package dto

type ChatSubmitRequest struct {
	Message string `json:"message" validate:"required"`
}

type ChatSubmitResponse struct {
	Reply   ChatMessageDTO   `json:"reply"`
	History []ChatMessageDTO `json:"history"`
	Outcome Outcome          `json:"outcome"`
}
