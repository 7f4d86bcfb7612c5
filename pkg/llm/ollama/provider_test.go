package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ndjsonServer(t *testing.T, lines []string, capture *ollamaChatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	}))
}

func TestChatStream(t *testing.T) {
	var captured ollamaChatRequest
	srv := ndjsonServer(t, []string{
		`{"model":"llama3","message":{"role":"assistant","content":"Hel"},"done":false}`,
		`{"model":"llama3","message":{"role":"assistant","content":"lo"},"done":false}`,
		`{"model":"llama3","message":{"role":"assistant","content":""},"done":true}`,
	}, &captured)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")

	var deltas []string
	full, err := p.ChatStream(context.Background(), []llm.Message{
		{Role: "user", Content: "hi"},
	}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", full)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	assert.True(t, captured.Stream)
	assert.Equal(t, "llama3", captured.Model)
}

func TestChatStreamStopsAtDone(t *testing.T) {
	srv := ndjsonServer(t, []string{
		`{"message":{"content":"before"},"done":true}`,
		`{"message":{"content":"after"},"done":false}`,
	}, nil)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	full, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "before", full)
}

func TestChatStreamModelOverride(t *testing.T) {
	var captured ollamaChatRequest
	srv := ndjsonServer(t, []string{`{"message":{"content":"ok"},"done":true}`}, &captured)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}},
		nil, llm.WithModel("qwen2.5"))
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", captured.Model)
}

func TestChatStreamUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	_, err := p.ChatStream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestChat(t *testing.T) {
	var captured ollamaChatRequest
	srv := ndjsonServer(t, []string{
		`{"model":"llama3","message":{"role":"assistant","content":"full answer"},"done":true}`,
	}, &captured)
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	out, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "full answer", out)
	assert.False(t, captured.Stream)
}
