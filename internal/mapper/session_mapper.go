package mapper

import (
	"encoding/json"
	"time"

	"notesnap-gateway/internal/constant"
	"notesnap-gateway/internal/dto"
	"notesnap-gateway/internal/entity"
	"notesnap-gateway/pkg/extraction"
)

// ToSessionDTOs maps the backend's raw session records into the shape
// the dashboard renders. The mapping is total: malformed titles fall
// back to the raw value, malformed keyword strings become an empty
// slice, and a missing page image gets the placeholder.
func ToSessionDTOs(records []extraction.SessionRecord) []dto.SessionDTO {
	sessions := make([]dto.SessionDTO, 0, len(records))
	for _, record := range records {
		sessions = append(sessions, ToSessionDTO(record))
	}
	return sessions
}

func ToSessionDTO(record extraction.SessionRecord) dto.SessionDTO {
	session := dto.SessionDTO{
		Id:            record.Id.String(),
		Title:         decodeTitle(record.SessionName),
		ExtractedText: record.Embeddings,
		Keywords:      extraction.SplitKeywords(record.SessionKeywords),
		ChatHistory:   []dto.ChatMessageDTO{},
		Accuracy:      string(entity.AccuracyMedium),
		ImageUrl:      constant.PlaceholderImageURL,
	}

	if len(record.PdfImageUrls) > 0 && record.PdfImageUrls[0] != "" {
		session.ImageUrl = record.PdfImageUrls[0]
	}

	if record.LastActivity != "" {
		if ts, err := time.Parse(time.RFC3339, record.LastActivity); err == nil {
			session.CreatedAt = &ts
		}
	}

	return session
}

// decodeTitle unwraps the backend's JSON-encoded session_name. Titles
// that are not valid JSON strings are kept as-is.
func decodeTitle(raw string) string {
	var title string
	if err := json.Unmarshal([]byte(raw), &title); err != nil {
		return raw
	}
	return title
}

// ToChatMessageDTOs converts entity chat history for responses.
func ToChatMessageDTOs(history []entity.ChatMessage) []dto.ChatMessageDTO {
	messages := make([]dto.ChatMessageDTO, 0, len(history))
	for _, msg := range history {
		messages = append(messages, dto.ChatMessageDTO{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return messages
}

// ToActiveSessionDTO converts the in-memory session for responses.
func ToActiveSessionDTO(session *entity.ExtractionSession) *dto.SessionDTO {
	if session == nil {
		return nil
	}
	mapped := &dto.SessionDTO{
		Id:            session.Id,
		Title:         session.Title,
		ExtractedText: session.ExtractedText,
		Keywords:      session.Keywords,
		ChatHistory:   ToChatMessageDTOs(session.ChatHistory),
		Accuracy:      string(session.Accuracy),
		PublicUrl:     session.PublicUrl,
	}
	if mapped.Keywords == nil {
		mapped.Keywords = []string{}
	}
	if !session.CreatedAt.IsZero() {
		createdAt := session.CreatedAt
		mapped.CreatedAt = &createdAt
	}
	return mapped
}
