package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplySendsFullContext(t *testing.T) {
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"response": "Cells are the smallest unit of life."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	reply, err := client.Reply(context.Background(), "tok", &ReplyRequest{
		Message:      "What are cells?",
		ExtractionId: "101",
		Context:      "Extracted text about biology",
		UserId:       "42",
		History:      []Message{{Role: "user", Content: "earlier question"}},
	})

	assert.NoError(t, err)
	assert.Equal(t, "Cells are the smallest unit of life.", reply)

	assert.Equal(t, "What are cells?", gotBody["message"])
	assert.Equal(t, "101", gotBody["extractionId"])
	assert.Equal(t, "Extracted text about biology", gotBody["context"])
	assert.Equal(t, "42", gotBody["userId"])

	history, ok := gotBody["history"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, history, 1)
}

func TestReplyRejectsMissingResponseField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer": "wrong shape"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Reply(context.Background(), "tok", &ReplyRequest{Message: "hi"})

	assert.EqualError(t, err, "invalid chat response format")
}

func TestReplyNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Reply(context.Background(), "tok", &ReplyRequest{Message: "hi"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestFallbackReply(t *testing.T) {
	tests := []struct {
		name     string
		question string
		docKind  string
	}{
		{"pdf", "what is osmosis?", "PDF document"},
		{"image", "explain the diagram", "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackReply(tt.question, tt.docKind)

			assert.Contains(t, got, `"`+tt.question+`"`)
			assert.Contains(t, got, tt.docKind)
			assert.Contains(t, got, "Could you be more specific")
		})
	}
}
