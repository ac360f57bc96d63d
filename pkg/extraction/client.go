package extraction

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

// IExtractionClient talks to the remote inference backend that performs
// the actual OCR and keyword extraction.
type IExtractionClient interface {
	CreateSession(ctx context.Context, accessToken, publicUrl string, accuracy string) (*SessionResult, error)
	ListSessions(ctx context.Context, accessToken string) ([]SessionRecord, error)
}

// ErrContractViolation means the backend answered 2xx but the payload is
// missing fields the contract requires.
var ErrContractViolation = errors.New("extraction backend response missing required fields")

type Client struct {
	BaseURL string
	client  *http.Client
}

var _ IExtractionClient = &Client{}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// --- Request/Response structs (internal to this package) ---

type sessionSpecifications struct {
	Accuracy      string `json:"Accuracy"`
	TextHighlight string `json:"text_highlight"`
}

type createSessionRequest struct {
	PdfPublicUrl   string                `json:"pdf_public_url"`
	Specifications sessionSpecifications `json:"specifications"`
}

type createSessionResponse struct {
	Id                 json.RawMessage `json:"id"`
	SessionId          json.RawMessage `json:"session_id"`
	DocumentEmbeddings *string         `json:"document_embeddings"`
	SessionKeywords    interface{}     `json:"session_keywords"`
}

// SessionResult is the outcome of one extraction run.
type SessionResult struct {
	Id            string
	ExtractedText string
	Keywords      []string
}

// SessionRecord is one prior session as the backend stores it. The title
// is a JSON-encoded string and the keywords are a single delimited
// string; callers map them through the session mapper.
type SessionRecord struct {
	Id              json.Number `json:"id"`
	SessionName     string      `json:"session_name"`
	PdfImageUrls    []string    `json:"pdf_image_urls"`
	Embeddings      string      `json:"document_embeddings"`
	SessionKeywords string      `json:"session_keywords"`
	LastActivity    string      `json:"last_activity"`
}

// CreateSession asks the backend to extract text and keywords from the
// file at publicUrl. The accuracy tier and the text_highlight flag ride
// along in the specifications object exactly as the backend expects.
func (c *Client) CreateSession(ctx context.Context, accessToken, publicUrl string, accuracy string) (*SessionResult, error) {
	reqPayload := createSessionRequest{
		PdfPublicUrl: publicUrl,
		Specifications: sessionSpecifications{
			Accuracy:      accuracy,
			TextHighlight: "true",
		},
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.BaseURL + "/api/user-sessions/create/"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session creation failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("session creation failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var sessionResp createSessionResponse
	if err := json.Unmarshal(bodyBytes, &sessionResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if sessionResp.DocumentEmbeddings == nil || sessionResp.SessionKeywords == nil {
		return nil, ErrContractViolation
	}

	id := normalizeId(sessionResp.Id)
	if id == "" {
		id = normalizeId(sessionResp.SessionId)
	}
	if id == "" {
		id = fmt.Sprintf("%d", time.Now().UnixMilli())
	}

	return &SessionResult{
		Id:            id,
		ExtractedText: *sessionResp.DocumentEmbeddings,
		Keywords:      normalizeKeywords(sessionResp.SessionKeywords),
	}, nil
}

// ListSessions fetches the caller's prior sessions.
func (c *Client) ListSessions(ctx context.Context, accessToken string) ([]SessionRecord, error) {
	url := c.BaseURL + "/api/user-sessions/"
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list sessions failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var records []SessionRecord
	if err := json.Unmarshal(bodyBytes, &records); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return records, nil
}

// normalizeId accepts the number and string id forms the backend has
// been seen returning; anything else counts as absent.
func normalizeId(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// normalizeKeywords accepts either the array form or the single
// delimited-string form the backend has been seen returning.
func normalizeKeywords(raw interface{}) []string {
	switch v := raw.(type) {
	case []interface{}:
		keywords := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				keywords = append(keywords, s)
			}
		}
		return keywords
	case string:
		return SplitKeywords(v)
	}
	return []string{}
}
