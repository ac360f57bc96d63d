package entity

import "time"

type AccuracyTier string

const (
	AccuracyLow    AccuracyTier = "low"
	AccuracyMedium AccuracyTier = "medium"
	AccuracyHigh   AccuracyTier = "high"
)

func (t AccuracyTier) Valid() bool {
	switch t {
	case AccuracyLow, AccuracyMedium, AccuracyHigh:
		return true
	}
	return false
}

// SessionPhase tracks where the active workspace is in the extraction
// lifecycle. There is no terminal failed phase: failures land back in
// PhaseReady with fallback content.
type SessionPhase string

const (
	PhaseIdle               SessionPhase = "idle"
	PhaseUploading          SessionPhase = "uploading"
	PhaseAwaitingExtraction SessionPhase = "awaiting_extraction"
	PhaseReady              SessionPhase = "ready"
	PhaseChatPending        SessionPhase = "chat_pending"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ExtractionSession is one file -> text+keywords cycle and its chat thread.
type ExtractionSession struct {
	Id            string
	Title         string
	ExtractedText string
	Keywords      []string
	ChatHistory   []ChatMessage
	Accuracy      AccuracyTier
	PublicUrl     string
	CreatedAt     time.Time
}

// Workspace is the per-user orchestrator state: the selected file, the
// current session (if any) and the lifecycle phase. The generation
// counter guards against stale responses overwriting newer ones when
// the user fires overlapping requests (rapid accuracy changes).
type Workspace struct {
	Phase      SessionPhase
	File       *SelectedFile
	Session    *ExtractionSession
	Accuracy   AccuracyTier
	ExtractGen uint64
	UpdatedAt  time.Time
}
