package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateSessionSendsExactContract(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/user-sessions/create/", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 55, "document_embeddings": "Extracted text", "session_keywords": "Biology  \nCells"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.CreateSession(context.Background(), "tok123", "https://files.example.com/abc", "high")

	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "https://files.example.com/abc", gotBody["pdf_public_url"])

	specs, ok := gotBody["specifications"].(map[string]interface{})
	assert.True(t, ok, "specifications object is required")
	assert.Equal(t, "high", specs["Accuracy"])
	assert.Equal(t, "true", specs["text_highlight"], "text_highlight must be the string literal")

	assert.Equal(t, "55", result.Id)
	assert.Equal(t, "Extracted text", result.ExtractedText)
	assert.Equal(t, []string{"Biology", "Cells"}, result.Keywords)
}

func TestCreateSessionKeywordArrayForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"session_id": "abc", "document_embeddings": "text", "session_keywords": ["One", "Two"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.CreateSession(context.Background(), "tok", "https://x", "low")

	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "abc", result.Id, "session_id is the fallback id field")
	assert.Equal(t, []string{"One", "Two"}, result.Keywords)
}

func TestCreateSessionIdForms(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantId string
	}{
		{"numeric id", `{"id": 55, "document_embeddings": "t", "session_keywords": []}`, "55"},
		{"string id", `{"id": "sess-9", "document_embeddings": "t", "session_keywords": []}`, "sess-9"},
		{"numeric session_id", `{"session_id": 7, "document_embeddings": "t", "session_keywords": []}`, "7"},
		{"string session_id", `{"session_id": "abc", "document_embeddings": "t", "session_keywords": []}`, "abc"},
		{"id wins over session_id", `{"id": 1, "session_id": "other", "document_embeddings": "t", "session_keywords": []}`, "1"},
		{"null id falls back to session_id", `{"id": null, "session_id": "abc", "document_embeddings": "t", "session_keywords": []}`, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			result, err := client.CreateSession(context.Background(), "tok", "https://x", "medium")

			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tt.wantId, result.Id)
		})
	}
}

func TestCreateSessionGeneratesIdWhenBackendOmitsBoth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"document_embeddings": "t", "session_keywords": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.CreateSession(context.Background(), "tok", "https://x", "medium")

	if !assert.NoError(t, err) {
		return
	}
	assert.NotEmpty(t, result.Id)
}

func TestCreateSessionContractViolation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing embeddings", `{"id": 1, "session_keywords": "a"}`},
		{"missing keywords", `{"id": 1, "document_embeddings": "text"}`},
		{"null embeddings", `{"id": 1, "document_embeddings": null, "session_keywords": "a"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			_, err := client.CreateSession(context.Background(), "tok", "https://x", "medium")
			assert.ErrorIs(t, err, ErrContractViolation)
		})
	}
}

func TestCreateSessionNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "boom"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateSession(context.Background(), "tok", "https://x", "medium")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestListSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/user-sessions/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Write([]byte(`[
			{"id": 1, "session_name": "\"Math Notes\"", "document_embeddings": "algebra", "session_keywords": "Algebra  \nEquations", "last_activity": "2026-08-20T10:00:00Z"},
			{"id": 2, "session_name": "plain title", "document_embeddings": "", "session_keywords": "", "pdf_image_urls": ["https://img/1.png"]}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	records, err := client.ListSessions(context.Background(), "tok")

	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "1", records[0].Id.String())
	assert.Equal(t, `"Math Notes"`, records[0].SessionName)
	assert.Equal(t, []string{"https://img/1.png"}, records[1].PdfImageUrls)
}

func TestListSessionsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.ListSessions(context.Background(), "expired")
	assert.Error(t, err)
}
