package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/refoapp/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *GeminiClient {
	return NewGeminiClient(config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash-exp",
		BaseURL: serverURL,
	})
}

func sseChunk(text string) string {
	return fmt.Sprintf(`data: {"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`+"\n\n", text)
}

func TestStreamChatAssemblesDeltas(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("Hello"))
		fmt.Fprint(w, sseChunk(" there"))
		fmt.Fprint(w, sseChunk("!"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var deltas []string
	err := client.StreamChat(context.Background(), []Message{
		{Role: "user", Text: "How do payouts work?"},
	}, func(text string) error {
		deltas = append(deltas, text)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", " there", "!"}, deltas)

	// The system instruction and the conversation both go out with the
	// request
	require.NotNil(t, captured.SystemInstruction)
	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "How do payouts work?", captured.Contents[0].Parts[0].Text)
}

func TestStreamChatSkipsMalformedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, ": keepalive comment\n\n")
		fmt.Fprint(w, sseChunk("ok"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var deltas []string
	err := client.StreamChat(context.Background(), nil, func(text string) error {
		deltas = append(deltas, text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, deltas)
}

func TestStreamChatStopsOnDeltaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("first"))
		fmt.Fprint(w, sseChunk("second"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	stop := errors.New("client went away")
	count := 0
	err := client.StreamChat(context.Background(), nil, func(text string) error {
		count++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}

func TestStreamChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.StreamChat(context.Background(), nil, func(text string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestStreamChatWithoutAPIKey(t *testing.T) {
	client := NewGeminiClient(config.GeminiConfig{})
	err := client.StreamChat(context.Background(), nil, func(text string) error { return nil })
	assert.ErrorIs(t, err, ErrNotConfigured)
}
