package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"notesnap-gateway/internal/constant"
	"notesnap-gateway/internal/dto"
	"notesnap-gateway/internal/entity"
	"notesnap-gateway/internal/mapper"
	"notesnap-gateway/internal/pkg/logger"
	"notesnap-gateway/internal/repository/memory"
	"notesnap-gateway/pkg/chat"
	"notesnap-gateway/pkg/events"
	"notesnap-gateway/pkg/extraction"
	pktNats "notesnap-gateway/pkg/nats"
	"notesnap-gateway/pkg/storage/appwrite"
)

const (
	// MaxFileSize is the upload ceiling: 50 MiB.
	MaxFileSize = 50 * 1024 * 1024

	// extractTimeout bounds the extraction-session call; on expiry the
	// fallback path runs instead of surfacing a hard failure.
	extractTimeout = 60 * time.Second
)

var (
	ErrFileTooLarge     = errors.New("file size must be less than 50MB")
	ErrUnsupportedType  = errors.New("please select an image file (PNG, JPG, JPEG) or PDF file")
	ErrNoActiveFile     = errors.New("no active file selected")
	ErrNoActiveSession  = errors.New("no active extraction session")
	ErrInvalidAccuracy  = errors.New("accuracy must be low, medium or high")
	ErrEmptyChatMessage = errors.New("chat message must not be empty")
)

type ISessionService interface {
	SelectFile(ctx context.Context, userId, accessToken string, file *entity.SelectedFile) (*dto.WorkspaceResponse, error)
	Extract(ctx context.Context, userId, accessToken string, tier entity.AccuracyTier) (*dto.WorkspaceResponse, error)
	ChangeAccuracy(ctx context.Context, userId, accessToken string, tier entity.AccuracyTier) (*dto.WorkspaceResponse, error)
	ChatSubmit(ctx context.Context, userId, accessToken, message string) (*dto.ChatSubmitResponse, error)
	UpdateText(ctx context.Context, userId, text string) (*dto.WorkspaceResponse, error)
	Clear(ctx context.Context, userId string) error
	Workspace(ctx context.Context, userId string) (*dto.WorkspaceResponse, error)
	ListSessions(ctx context.Context, userId, accessToken string) (*dto.ListSessionsResponse, error)
}

type sessionService struct {
	workspaces *memory.WorkspaceRepository
	storage    appwrite.IStorageClient
	extractor  extraction.IExtractionClient
	chatClient chat.IChatClient
	publisher  IPublisherService
	eventBus   *pktNats.Publisher
	sysLogger  logger.ILogger

	// mu serializes workspace read-modify-write cycles. Collaborator
	// calls happen outside the lock; generation numbers decide whether
	// a response is still current when it comes back.
	mu sync.Mutex
}

func NewSessionService(
	workspaces *memory.WorkspaceRepository,
	storage appwrite.IStorageClient,
	extractor extraction.IExtractionClient,
	chatClient chat.IChatClient,
	publisher IPublisherService,
	eventBus *pktNats.Publisher,
	sysLogger logger.ILogger,
) ISessionService {
	return &sessionService{
		workspaces: workspaces,
		storage:    storage,
		extractor:  extractor,
		chatClient: chatClient,
		publisher:  publisher,
		eventBus:   eventBus,
		sysLogger:  sysLogger,
	}
}

// SelectFile validates and activates a new upload. A rejected file
// leaves the previous workspace untouched; an accepted one replaces the
// file, drops the prior session and chat history, and immediately runs
// extraction at the current tier.
func (s *sessionService) SelectFile(ctx context.Context, userId, accessToken string, file *entity.SelectedFile) (*dto.WorkspaceResponse, error) {
	if err := validateFile(file); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ws, found := s.workspaces.Get(userId)
	if !found {
		ws = &entity.Workspace{Phase: entity.PhaseIdle, Accuracy: entity.AccuracyMedium}
	}
	ws.File = file
	ws.Session = nil
	ws.Phase = entity.PhaseIdle
	tier := ws.Accuracy
	s.workspaces.Save(userId, ws)
	s.mu.Unlock()

	return s.runExtraction(ctx, userId, accessToken, tier)
}

// Extract re-runs extraction for the active file at the given tier
// (current tier when empty).
func (s *sessionService) Extract(ctx context.Context, userId, accessToken string, tier entity.AccuracyTier) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	ws, found := s.workspaces.Get(userId)
	if !found || ws.File == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveFile
	}
	if tier == "" {
		tier = ws.Accuracy
	}
	s.mu.Unlock()

	if !tier.Valid() {
		return nil, ErrInvalidAccuracy
	}

	return s.runExtraction(ctx, userId, accessToken, tier)
}

// ChangeAccuracy requires both an existing session and the active file.
// On success the extracted text and keywords are fully replaced; on
// failure the session stays exactly as it was, with outcome=error.
func (s *sessionService) ChangeAccuracy(ctx context.Context, userId, accessToken string, tier entity.AccuracyTier) (*dto.WorkspaceResponse, error) {
	if !tier.Valid() {
		return nil, ErrInvalidAccuracy
	}

	s.mu.Lock()
	ws, found := s.workspaces.Get(userId)
	if !found || ws.Session == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if ws.File == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveFile
	}
	s.mu.Unlock()

	return s.runExtraction(ctx, userId, accessToken, tier)
}

// runExtraction performs the two sequential collaborator calls: upload
// first (a public URL is a hard prerequisite), then session creation.
// A generation number taken at the start guards the final commit so a
// stale response never overwrites a newer one.
func (s *sessionService) runExtraction(ctx context.Context, userId, accessToken string, tier entity.AccuracyTier) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	ws, found := s.workspaces.Get(userId)
	if !found || ws.File == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveFile
	}
	ws.ExtractGen++
	gen := ws.ExtractGen
	ws.Phase = entity.PhaseUploading
	ws.Accuracy = tier
	file := ws.File
	s.workspaces.Save(userId, ws)
	s.mu.Unlock()

	publicUrl, err := s.storage.UploadPublic(ctx, file.Name, file.MimeType, file.Data)
	if err != nil {
		s.sysLogger.Error("Session", "File upload failed", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
		return s.commitFailure(userId, gen, file.Kind())
	}

	s.mu.Lock()
	if ws, found = s.workspaces.Get(userId); !found || ws.ExtractGen != gen {
		s.mu.Unlock()
		return s.workspaceResponse(userId, "")
	}
	ws.Phase = entity.PhaseAwaitingExtraction
	s.workspaces.Save(userId, ws)
	s.mu.Unlock()

	extractCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	result, err := s.extractor.CreateSession(extractCtx, accessToken, publicUrl, string(tier))
	if err != nil {
		s.sysLogger.Error("Session", "Extraction failed", map[string]interface{}{
			"user_id": userId, "accuracy": string(tier), "error": err.Error(),
		})
		return s.commitFailure(userId, gen, file.Kind())
	}

	return s.commitResult(userId, gen, tier, publicUrl, result)
}

func (s *sessionService) commitResult(userId string, gen uint64, tier entity.AccuracyTier, publicUrl string, result *extraction.SessionResult) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	ws, found := s.workspaces.Get(userId)
	if !found || ws.ExtractGen != gen {
		// A newer request already owns the workspace; drop this result.
		s.mu.Unlock()
		return s.workspaceResponse(userId, "")
	}

	ws.Session = &entity.ExtractionSession{
		Id:            result.Id,
		ExtractedText: result.ExtractedText,
		Keywords:      result.Keywords,
		ChatHistory:   []entity.ChatMessage{},
		Accuracy:      tier,
		PublicUrl:     publicUrl,
		CreatedAt:     time.Now(),
	}
	ws.Phase = entity.PhaseReady
	s.workspaces.Save(userId, ws)
	sessionId := ws.Session.Id
	s.mu.Unlock()

	s.publishEvent(userId, events.TypeSessionExtracted, sessionId, dto.OutcomeLive)

	return s.workspaceResponse(userId, dto.OutcomeLive)
}

// commitFailure lands the workspace back in Ready. With no prior
// session the demo corpus fills the screen (outcome=fallback); with one
// the session is left untouched (outcome=error) so an accuracy change
// that failed does not destroy good content.
func (s *sessionService) commitFailure(userId string, gen uint64, kind entity.FileKind) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	ws, found := s.workspaces.Get(userId)
	if !found || ws.ExtractGen != gen {
		s.mu.Unlock()
		return s.workspaceResponse(userId, "")
	}

	outcome := dto.OutcomeError
	if ws.Session == nil {
		outcome = dto.OutcomeFallback
		text, keywords := fallbackContent(kind)
		ws.Session = &entity.ExtractionSession{
			Id:            fmt.Sprintf("demo-%d", time.Now().UnixMilli()),
			ExtractedText: text,
			Keywords:      keywords,
			ChatHistory:   []entity.ChatMessage{},
			Accuracy:      ws.Accuracy,
			CreatedAt:     time.Now(),
		}
	}
	ws.Phase = entity.PhaseReady
	s.workspaces.Save(userId, ws)
	sessionId := ws.Session.Id
	s.mu.Unlock()

	s.publishEvent(userId, events.TypeSessionExtracted, sessionId, outcome)

	return s.workspaceResponse(userId, outcome)
}

// ChatSubmit appends the user message, asks the chat collaborator for a
// reply grounded in the extracted text, and appends either the reply or
// the deterministic fallback. History stays strictly append-only; a
// reply whose turn has been overtaken by a newer submission is dropped.
func (s *sessionService) ChatSubmit(ctx context.Context, userId, accessToken, message string) (*dto.ChatSubmitResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyChatMessage
	}

	s.mu.Lock()
	ws, found := s.workspaces.Get(userId)
	if !found || ws.Session == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}

	priorHistory := make([]chat.Message, 0, len(ws.Session.ChatHistory))
	for _, msg := range ws.Session.ChatHistory {
		priorHistory = append(priorHistory, chat.Message{Role: string(msg.Role), Content: msg.Content})
	}

	ws.Session.ChatHistory = append(ws.Session.ChatHistory, entity.ChatMessage{
		Role:    entity.ChatRoleUser,
		Content: message,
	})
	expectedLen := len(ws.Session.ChatHistory)
	ws.Phase = entity.PhaseChatPending
	s.workspaces.Save(userId, ws)

	sessionId := ws.Session.Id
	extractedText := ws.Session.ExtractedText
	docKind := "notes"
	if ws.File != nil && ws.File.Kind() == entity.FileKindPDF {
		docKind = "PDF document"
	}
	s.mu.Unlock()

	outcome := dto.OutcomeLive
	reply, err := s.chatClient.Reply(ctx, accessToken, &chat.ReplyRequest{
		Message:      message,
		ExtractionId: sessionId,
		Context:      extractedText,
		UserId:       userId,
		History:      priorHistory,
	})
	if err != nil {
		s.sysLogger.Warn("Session", "Chat collaborator failed, using fallback reply", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
		outcome = dto.OutcomeFallback
		reply = chat.FallbackReply(message, docKind)
	}

	assistantMsg := entity.ChatMessage{Role: entity.ChatRoleAssistant, Content: reply}

	s.mu.Lock()
	ws, found = s.workspaces.Get(userId)
	if !found || ws.Session == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if len(ws.Session.ChatHistory) == expectedLen {
		ws.Session.ChatHistory = append(ws.Session.ChatHistory, assistantMsg)
	}
	ws.Phase = entity.PhaseReady
	s.workspaces.Save(userId, ws)
	history := mapper.ToChatMessageDTOs(ws.Session.ChatHistory)
	s.mu.Unlock()

	s.publishEvent(userId, events.TypeChatReply, sessionId, outcome)

	return &dto.ChatSubmitResponse{
		Reply:   dto.ChatMessageDTO{Role: string(entity.ChatRoleAssistant), Content: reply},
		History: history,
		Outcome: outcome,
	}, nil
}

// UpdateText persists the user's edits to the extracted text.
func (s *sessionService) UpdateText(ctx context.Context, userId, text string) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	ws, found := s.workspaces.Get(userId)
	if !found || ws.Session == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	ws.Session.ExtractedText = text
	s.workspaces.Save(userId, ws)
	s.mu.Unlock()

	return s.workspaceResponse(userId, "")
}

// Clear releases the file, session and chat history; the workspace
// returns to Idle.
func (s *sessionService) Clear(ctx context.Context, userId string) error {
	s.mu.Lock()
	s.workspaces.Delete(userId)
	s.mu.Unlock()
	return nil
}

func (s *sessionService) Workspace(ctx context.Context, userId string) (*dto.WorkspaceResponse, error) {
	return s.workspaceResponse(userId, "")
}

// ListSessions fetches prior sessions from the backend and maps them
// through the transformation layer.
func (s *sessionService) ListSessions(ctx context.Context, userId, accessToken string) (*dto.ListSessionsResponse, error) {
	records, err := s.extractor.ListSessions(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return &dto.ListSessionsResponse{
		Sessions: mapper.ToSessionDTOs(records),
	}, nil
}

func (s *sessionService) workspaceResponse(userId string, outcome dto.Outcome) (*dto.WorkspaceResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, found := s.workspaces.Get(userId)
	if !found {
		return &dto.WorkspaceResponse{
			Phase:    string(entity.PhaseIdle),
			Accuracy: string(entity.AccuracyMedium),
		}, nil
	}

	resp := &dto.WorkspaceResponse{
		Phase:    string(ws.Phase),
		Accuracy: string(ws.Accuracy),
		Session:  mapper.ToActiveSessionDTO(ws.Session),
		Outcome:  outcome,
	}
	if ws.File != nil {
		resp.FileName = ws.File.Name
		resp.FileSize = ws.File.Size
		resp.FileKind = string(ws.File.Kind())
	}
	return resp, nil
}

func (s *sessionService) publishEvent(userId, eventType, sessionId string, outcome dto.Outcome) {
	if s.publisher != nil {
		err := s.publisher.PublishSessionEvent(dto.SessionEventMessage{
			UserId:     userId,
			Type:       eventType,
			SessionId:  sessionId,
			Outcome:    outcome,
			OccurredAt: time.Now(),
		})
		if err != nil {
			s.sysLogger.Warn("Session", "Failed to publish session event", map[string]interface{}{
				"user_id": userId, "type": eventType, "error": err.Error(),
			})
		}
	}

	if s.eventBus != nil {
		event := events.BaseEvent{
			Type: eventType,
			Data: map[string]interface{}{
				"user_id":    userId,
				"session_id": sessionId,
				"outcome":    string(outcome),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventBus.Publish(context.Background(), event); err != nil {
			s.sysLogger.Warn("Session", "Failed to publish event to bus", map[string]interface{}{
				"type": eventType, "error": err.Error(),
			})
		}
	}
}

func validateFile(file *entity.SelectedFile) error {
	if file == nil || len(file.Data) == 0 {
		return ErrNoActiveFile
	}
	if file.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	isImage := strings.HasPrefix(file.MimeType, "image/")
	isPDF := file.MimeType == "application/pdf"
	if !isImage && !isPDF {
		return ErrUnsupportedType
	}
	return nil
}

func fallbackContent(kind entity.FileKind) (string, []string) {
	if kind == entity.FileKindPDF {
		return constant.FallbackPdfText, constant.FallbackPdfKeywords
	}
	return constant.FallbackImageText, constant.FallbackImageKeywords
}
