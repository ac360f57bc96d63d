package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"notesnap-gateway/internal/constant"
	"notesnap-gateway/internal/dto"
	"notesnap-gateway/internal/entity"
	"notesnap-gateway/internal/repository/memory"
	"notesnap-gateway/pkg/chat"
	"notesnap-gateway/pkg/extraction"

	"github.com/stretchr/testify/assert"
)

type fakeStorage struct {
	uploads  int
	url      string
	err      error
	lastName string

	// onUpload runs once, mid-upload, to model a competing request
	// landing while this one is in flight.
	onUpload func()
}

func (f *fakeStorage) UploadPublic(ctx context.Context, fileName, mimeType string, data []byte) (string, error) {
	f.uploads++
	f.lastName = fileName
	if f.onUpload != nil {
		hook := f.onUpload
		f.onUpload = nil
		hook()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeExtractor struct {
	calls        int
	lastURL      string
	lastAccuracy string
	result       *extraction.SessionResult
	err          error
	records      []extraction.SessionRecord
	listErr      error

	// onCreate runs once, mid-extraction, after the pending result has
	// been captured, so a competing request can finish first.
	onCreate func()
}

func (f *fakeExtractor) CreateSession(ctx context.Context, accessToken, publicUrl, accuracy string) (*extraction.SessionResult, error) {
	f.calls++
	f.lastURL = publicUrl
	f.lastAccuracy = accuracy
	result := f.result
	if f.onCreate != nil {
		hook := f.onCreate
		f.onCreate = nil
		hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return result, nil
}

func (f *fakeExtractor) ListSessions(ctx context.Context, accessToken string) ([]extraction.SessionRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

type fakeChat struct {
	calls       int
	lastHistory []chat.Message
	reply       string
	err         error

	// onReply runs once, mid-reply, after the pending answer has been
	// captured, so a competing submission can finish first.
	onReply func()
}

func (f *fakeChat) Reply(ctx context.Context, accessToken string, req *chat.ReplyRequest) (string, error) {
	f.calls++
	f.lastHistory = req.History
	reply := f.reply
	if f.onReply != nil {
		hook := f.onReply
		f.onReply = nil
		hook()
	}
	if f.err != nil {
		return "", f.err
	}
	return reply, nil
}

type fakePublisher struct {
	events []dto.SessionEventMessage
}

func (f *fakePublisher) PublishSessionEvent(event dto.SessionEventMessage) error {
	f.events = append(f.events, event)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

type sessionFixture struct {
	service   ISessionService
	storage   *fakeStorage
	extractor *fakeExtractor
	chat      *fakeChat
	publisher *fakePublisher
	repo      *memory.WorkspaceRepository
}

func newSessionFixture() *sessionFixture {
	storage := &fakeStorage{url: "https://files.example.com/view/abc"}
	extractor := &fakeExtractor{
		result: &extraction.SessionResult{
			Id:            "101",
			ExtractedText: "Extracted study notes",
			Keywords:      []string{"Biology", "Cells"},
		},
	}
	chatClient := &fakeChat{reply: "Cells are the smallest unit of life."}
	publisher := &fakePublisher{}
	repo := memory.NewWorkspaceRepository()

	return &sessionFixture{
		service:   NewSessionService(repo, storage, extractor, chatClient, publisher, nil, nopLogger{}),
		storage:   storage,
		extractor: extractor,
		chat:      chatClient,
		publisher: publisher,
		repo:      repo,
	}
}

func pngFile(size int) *entity.SelectedFile {
	return &entity.SelectedFile{
		Name:     "notes.png",
		Size:     int64(size),
		MimeType: "image/png",
		Data:     make([]byte, size),
	}
}

func pdfFile() *entity.SelectedFile {
	return &entity.SelectedFile{
		Name:     "lecture.pdf",
		Size:     2048,
		MimeType: "application/pdf",
		Data:     make([]byte, 2048),
	}
}

func TestSelectFileRejectsOversizedWithoutSideEffects(t *testing.T) {
	f := newSessionFixture()

	big := pngFile(64)
	big.Size = MaxFileSize + 1

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", big)

	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, 0, f.storage.uploads, "rejected file must not reach storage")
	assert.Equal(t, 0, f.extractor.calls, "rejected file must not reach extraction")

	_, found := f.repo.Get("u1")
	assert.False(t, found, "rejected file must not create a workspace")
}

func TestSelectFileRejectsUnsupportedType(t *testing.T) {
	f := newSessionFixture()

	tests := []struct {
		name     string
		mimeType string
		wantErr  error
	}{
		{"plain text", "text/plain", ErrUnsupportedType},
		{"zip archive", "application/zip", ErrUnsupportedType},
		{"no type", "", ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := pngFile(16)
			file.MimeType = tt.mimeType

			_, err := f.service.SelectFile(context.Background(), "u1", "tok", file)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 0, f.storage.uploads)
}

func TestSelectFileRunsUploadThenExtraction(t *testing.T) {
	f := newSessionFixture()

	res, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(128))

	assert.NoError(t, err)
	assert.Equal(t, 1, f.storage.uploads)
	assert.Equal(t, 1, f.extractor.calls)
	assert.Equal(t, "https://files.example.com/view/abc", f.extractor.lastURL, "extraction must use the uploaded public URL")
	assert.Equal(t, "medium", f.extractor.lastAccuracy, "default tier is medium")

	assert.Equal(t, string(entity.PhaseReady), res.Phase)
	assert.Equal(t, dto.OutcomeLive, res.Outcome)
	assert.NotNil(t, res.Session)
	assert.Equal(t, "101", res.Session.Id)
	assert.Equal(t, "Extracted study notes", res.Session.ExtractedText)
	assert.Equal(t, []string{"Biology", "Cells"}, res.Session.Keywords)
	assert.Empty(t, res.Session.ChatHistory)
}

func TestSelectFileReplacesPriorSessionAndHistory(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(128))
	assert.NoError(t, err)
	_, err = f.service.ChatSubmit(context.Background(), "u1", "tok", "what is this?")
	assert.NoError(t, err)

	f.extractor.result = &extraction.SessionResult{Id: "102", ExtractedText: "Second document"}
	res, err := f.service.SelectFile(context.Background(), "u1", "tok", pdfFile())

	assert.NoError(t, err)
	assert.Equal(t, "102", res.Session.Id)
	assert.Empty(t, res.Session.ChatHistory, "new file starts a fresh conversation")
}

func TestExtractWithoutFile(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.Extract(context.Background(), "u1", "tok", entity.AccuracyHigh)
	assert.ErrorIs(t, err, ErrNoActiveFile)
}

func TestExtractionFailureFallsBackToDemoContent(t *testing.T) {
	tests := []struct {
		name         string
		file         *entity.SelectedFile
		wantText     string
		wantKeywords []string
	}{
		{"image falls back to image demo", pngFile(64), constant.FallbackImageText, constant.FallbackImageKeywords},
		{"pdf falls back to pdf demo", pdfFile(), constant.FallbackPdfText, constant.FallbackPdfKeywords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			f.extractor.err = errors.New("backend down")

			res, err := f.service.SelectFile(context.Background(), "u1", "tok", tt.file)

			assert.NoError(t, err)
			assert.Equal(t, dto.OutcomeFallback, res.Outcome)
			assert.Equal(t, string(entity.PhaseReady), res.Phase)
			assert.Equal(t, tt.wantText, res.Session.ExtractedText)
			assert.Equal(t, tt.wantKeywords, res.Session.Keywords)
			assert.True(t, strings.HasPrefix(res.Session.Id, "demo-"))
		})
	}
}

func TestUploadFailureAlsoFallsBack(t *testing.T) {
	f := newSessionFixture()
	f.storage.err = errors.New("storage down")

	res, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))

	assert.NoError(t, err)
	assert.Equal(t, dto.OutcomeFallback, res.Outcome)
	assert.Equal(t, 0, f.extractor.calls, "upload failure must not attempt extraction")
}

func TestChangeAccuracyReplacesContent(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	f.extractor.result = &extraction.SessionResult{
		Id:            "103",
		ExtractedText: "High accuracy text",
		Keywords:      []string{"Mitochondria"},
	}
	res, err := f.service.ChangeAccuracy(context.Background(), "u1", "tok", entity.AccuracyHigh)

	assert.NoError(t, err)
	assert.Equal(t, "high", f.extractor.lastAccuracy)
	assert.Equal(t, "high", res.Accuracy)
	assert.Equal(t, "High accuracy text", res.Session.ExtractedText)
	assert.Equal(t, []string{"Mitochondria"}, res.Session.Keywords)
}

func TestChangeAccuracyFailureKeepsSessionUntouched(t *testing.T) {
	f := newSessionFixture()

	first, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	f.extractor.err = errors.New("backend down")
	res, err := f.service.ChangeAccuracy(context.Background(), "u1", "tok", entity.AccuracyLow)

	assert.NoError(t, err)
	assert.Equal(t, dto.OutcomeError, res.Outcome)
	assert.Equal(t, first.Session.Id, res.Session.Id, "failed rerun must not destroy the prior session")
	assert.Equal(t, first.Session.ExtractedText, res.Session.ExtractedText)
}

func TestChangeAccuracyWithoutSession(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.ChangeAccuracy(context.Background(), "u1", "tok", entity.AccuracyLow)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestChatAppendsUserAndAssistantTurns(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	res, err := f.service.ChatSubmit(context.Background(), "u1", "tok", "What are cells?")

	assert.NoError(t, err)
	assert.Equal(t, dto.OutcomeLive, res.Outcome)
	assert.Len(t, res.History, 2)
	assert.Equal(t, "user", res.History[0].Role)
	assert.Equal(t, "What are cells?", res.History[0].Content)
	assert.Equal(t, "assistant", res.History[1].Role)
	assert.Equal(t, "Cells are the smallest unit of life.", res.History[1].Content)
	assert.Empty(t, f.chat.lastHistory, "first turn sends no prior history")
}

func TestChatHistoryGrowsByTwoPerTurn(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	for turn := 1; turn <= 3; turn++ {
		res, err := f.service.ChatSubmit(context.Background(), "u1", "tok", "question")
		assert.NoError(t, err)
		assert.Len(t, res.History, 2*turn)
	}

	assert.Len(t, f.chat.lastHistory, 4, "third turn carries the two prior exchanges")
}

func TestChatFallbackOnCollaboratorFailure(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pdfFile())
	assert.NoError(t, err)

	f.chat.err = errors.New("chat down")
	res, err := f.service.ChatSubmit(context.Background(), "u1", "tok", "summarize this")

	assert.NoError(t, err)
	assert.Equal(t, dto.OutcomeFallback, res.Outcome)
	assert.Contains(t, res.Reply.Content, `"summarize this"`)
	assert.Contains(t, res.Reply.Content, "PDF document")
	assert.Len(t, res.History, 2, "fallback turn still appends both messages")
}

func TestChatRequiresSessionAndMessage(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.ChatSubmit(context.Background(), "u1", "tok", "hello")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	_, err = f.service.ChatSubmit(context.Background(), "u1", "tok", "   ")
	assert.ErrorIs(t, err, ErrEmptyChatMessage)
}

func TestUpdateTextPersistsEdits(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	res, err := f.service.UpdateText(context.Background(), "u1", "my corrected notes")
	assert.NoError(t, err)
	assert.Equal(t, "my corrected notes", res.Session.ExtractedText)

	ws, err := f.service.Workspace(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, "my corrected notes", ws.Session.ExtractedText)
}

func TestClearResetsWorkspace(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	assert.NoError(t, f.service.Clear(context.Background(), "u1"))

	ws, err := f.service.Workspace(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, string(entity.PhaseIdle), ws.Phase)
	assert.Nil(t, ws.Session)
	assert.Empty(t, ws.FileName)
}

func TestWorkspacesAreIsolatedPerUser(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	ws, err := f.service.Workspace(context.Background(), "u2")
	assert.NoError(t, err)
	assert.Equal(t, string(entity.PhaseIdle), ws.Phase)
	assert.Nil(t, ws.Session)
}

func TestListSessionsMapsRecords(t *testing.T) {
	f := newSessionFixture()
	f.extractor.records = []extraction.SessionRecord{
		{
			Id:              "7",
			SessionName:     `"Chapter 3 Notes"`,
			Embeddings:      "Some text",
			SessionKeywords: "Biology  \nCells",
			LastActivity:    "2026-08-20T10:00:00Z",
		},
	}

	res, err := f.service.ListSessions(context.Background(), "u1", "tok")

	assert.NoError(t, err)
	assert.Len(t, res.Sessions, 1)
	assert.Equal(t, "Chapter 3 Notes", res.Sessions[0].Title)
	assert.Equal(t, []string{"Biology", "Cells"}, res.Sessions[0].Keywords)
}

func TestListSessionsPropagatesBackendFailure(t *testing.T) {
	f := newSessionFixture()
	f.extractor.listErr = errors.New("backend down")

	_, err := f.service.ListSessions(context.Background(), "u1", "tok")
	assert.Error(t, err)
}

func TestNewerExtractionWinsDuringUpload(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)
	callsAfterSelect := f.extractor.calls

	// While the low-tier upload is in flight, a high-tier request lands
	// and completes end to end.
	f.storage.onUpload = func() {
		f.extractor.result = &extraction.SessionResult{Id: "999", ExtractedText: "high tier text"}
		_, err := f.service.Extract(context.Background(), "u1", "tok", entity.AccuracyHigh)
		assert.NoError(t, err)
	}

	res, err := f.service.Extract(context.Background(), "u1", "tok", entity.AccuracyLow)

	assert.NoError(t, err)
	assert.Equal(t, "999", res.Session.Id, "the newer request owns the workspace")
	assert.Equal(t, "high", res.Accuracy)
	assert.Equal(t, callsAfterSelect+1, f.extractor.calls, "the overtaken run must stop before extraction")

	ws, err := f.service.Workspace(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, "999", ws.Session.Id)
}

func TestStaleExtractionResultIsDropped(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	// The low-tier run reaches the backend first but a high-tier request
	// lands and commits before its result comes back.
	f.extractor.result = &extraction.SessionResult{Id: "stale", ExtractedText: "slow answer"}
	f.extractor.onCreate = func() {
		f.extractor.result = &extraction.SessionResult{Id: "fresh", ExtractedText: "fast answer"}
		_, err := f.service.Extract(context.Background(), "u1", "tok", entity.AccuracyHigh)
		assert.NoError(t, err)
	}

	res, err := f.service.Extract(context.Background(), "u1", "tok", entity.AccuracyLow)

	assert.NoError(t, err)
	assert.Equal(t, "fresh", res.Session.Id, "the stale result must not overwrite the newer one")
	assert.Equal(t, "fast answer", res.Session.ExtractedText)

	ws, err := f.service.Workspace(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, "fresh", ws.Session.Id)
	assert.Equal(t, string(entity.PhaseReady), ws.Phase)
}

func TestOvertakenChatReplyIsDropped(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)

	// A second submission lands and completes while the first reply is
	// still pending.
	f.chat.reply = "slow answer"
	f.chat.onReply = func() {
		f.chat.reply = "fast answer"
		_, err := f.service.ChatSubmit(context.Background(), "u1", "tok", "second question")
		assert.NoError(t, err)
	}

	res, err := f.service.ChatSubmit(context.Background(), "u1", "tok", "first question")

	assert.NoError(t, err)
	assert.Len(t, res.History, 3, "both questions plus the one committed answer")
	assert.Equal(t, "first question", res.History[0].Content)
	assert.Equal(t, "second question", res.History[1].Content)
	assert.Equal(t, "fast answer", res.History[2].Content)
	for _, msg := range res.History {
		assert.NotEqual(t, "slow answer", msg.Content, "the overtaken reply must not enter the history")
	}
}

func TestSessionEventsArePublished(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.SelectFile(context.Background(), "u1", "tok", pngFile(64))
	assert.NoError(t, err)
	_, err = f.service.ChatSubmit(context.Background(), "u1", "tok", "hello")
	assert.NoError(t, err)

	assert.Len(t, f.publisher.events, 2)
	assert.Equal(t, "SESSION_EXTRACTED", f.publisher.events[0].Type)
	assert.Equal(t, "CHAT_REPLY", f.publisher.events[1].Type)
	assert.Equal(t, "u1", f.publisher.events[0].UserId)
}
