package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// IChatClient asks the chat collaborator for an assistant reply grounded
// in one session's extracted text.
type IChatClient interface {
	Reply(ctx context.Context, accessToken string, req *ReplyRequest) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ReplyRequest carries the user's question plus the full running history
// and the extracted text as grounding context.
type ReplyRequest struct {
	Message      string    `json:"message"`
	ExtractionId string    `json:"extractionId"`
	Context      string    `json:"context"`
	UserId       string    `json:"userId"`
	History      []Message `json:"history"`
}

type replyResponse struct {
	Response *string `json:"response"`
}

type Client struct {
	BaseURL string
	client  *http.Client
}

var _ IChatClient = &Client{}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Reply(ctx context.Context, accessToken string, request *ReplyRequest) (string, error) {
	payloadBytes, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp replyResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if chatResp.Response == nil {
		return "", errors.New("invalid chat response format")
	}

	return *chatResp.Response, nil
}

// FallbackReply is the deterministic canned answer used when the chat
// collaborator is unreachable. It quotes the user's question so the
// conversation still reads coherently.
func FallbackReply(question, docKind string) string {
	return fmt.Sprintf(
		"I understand you're asking about %q. Based on your %s, I can help explain the concepts. Could you be more specific about what you'd like to know?",
		question, docKind)
}
