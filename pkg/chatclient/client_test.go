package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiStub is a minimal in-memory rendition of the chat API surface the
// client talks to.
type apiStub struct {
	mu       sync.Mutex
	chats    map[uuid.UUID][]Message
	titles   map[uuid.UUID]string
	deltas   []string
	saveErr  bool
	saved    []Message
	requests []string
}

func newAPIStub() *apiStub {
	return &apiStub{
		chats:  make(map[uuid.UUID][]Message),
		titles: make(map[uuid.UUID]string),
		deltas: []string{"Hel", "lo"},
	}
}

func ok(w http.ResponseWriter, data any) {
	json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "ok", "data": data})
}

func fail(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

func (s *apiStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat/v1", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title          string `json:"title"`
			InitialMessage string `json:"initial_message"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		id := uuid.New()
		s.mu.Lock()
		s.titles[id] = req.Title
		if req.InitialMessage != "" {
			s.chats[id] = []Message{{Id: uuid.New(), ChatId: id, Role: "user", Content: req.InitialMessage}}
		} else {
			s.chats[id] = nil
		}
		s.mu.Unlock()
		ok(w, map[string]any{"chat_id": id})
	})

	mux.HandleFunc("GET /api/chat/v1", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out := make([]ChatSummary, 0, len(s.chats))
		for id := range s.chats {
			out = append(out, ChatSummary{Id: id, Title: s.titles[id]})
		}
		s.mu.Unlock()
		ok(w, out)
	})

	mux.HandleFunc("GET /api/chat/v1/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			fail(w, http.StatusBadRequest, "invalid chat id")
			return
		}
		s.mu.Lock()
		msgs, found := s.chats[id]
		s.mu.Unlock()
		if !found {
			fail(w, http.StatusNotFound, "chat not found")
			return
		}
		ok(w, msgs)
	})

	mux.HandleFunc("DELETE /api/chat/v1/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := uuid.Parse(r.PathValue("id"))
		s.mu.Lock()
		_, found := s.chats[id]
		delete(s.chats, id)
		s.mu.Unlock()
		if !found {
			fail(w, http.StatusNotFound, "chat not found")
			return
		}
		ok(w, nil)
	})

	mux.HandleFunc("POST /api/chat/v1/message", func(w http.ResponseWriter, r *http.Request) {
		if s.saveErr {
			fail(w, http.StatusForbidden, "not your chat")
			return
		}
		var req struct {
			ChatId  uuid.UUID `json:"chat_id"`
			Role    string    `json:"role"`
			Content string    `json:"content"`
			Model   string    `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		msg := Message{Id: uuid.New(), ChatId: req.ChatId, Role: req.Role, Content: req.Content, Model: req.Model}
		s.mu.Lock()
		s.saved = append(s.saved, msg)
		s.chats[req.ChatId] = append(s.chats[req.ChatId], msg)
		s.mu.Unlock()
		ok(w, map[string]any{"id": msg.Id})
	})

	mux.HandleFunc("POST /api/chat/v1/stream", func(w http.ResponseWriter, r *http.Request) {
		var req StreamRequest
		json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.requests = append(s.requests, fmt.Sprintf("stream chat_id=%v messages=%d", req.ChatId, len(req.Messages)))
		if req.ChatId != nil && len(req.Messages) > 0 && req.Messages[len(req.Messages)-1].Role == "user" {
			last := req.Messages[len(req.Messages)-1]
			s.chats[*req.ChatId] = append(s.chats[*req.ChatId], Message{
				Id: uuid.New(), ChatId: *req.ChatId, Role: "user", Content: last.Content,
			})
		}
		deltas := s.deltas
		s.mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range deltas {
			fmt.Fprintf(w, "data: {\"type\":\"token\",\"delta\":%q}\n\n", delta)
		}
		fmt.Fprint(w, "data: {\"type\":\"done\",\"model\":\"gemini-2.0-flash\"}\n\n")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientChatLifecycle(t *testing.T) {
	stub := newAPIStub()
	srv := stub.server(t)
	client := New(srv.URL, "test-token")
	ctx := context.Background()

	chatId, err := client.CreateChat(ctx, "lifecycle", "first question")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, chatId)

	chats, err := client.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "lifecycle", chats[0].Title)

	msgs, err := client.ChatMessages(ctx, chatId)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "first question", msgs[0].Content)

	require.NoError(t, client.SaveMessage(ctx, chatId, "assistant", "an answer", "gemini-2.0-flash"))

	require.NoError(t, client.DeleteChat(ctx, chatId))

	_, err = client.ChatMessages(ctx, chatId)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "chat not found", apiErr.Message)
}

func TestClientStream(t *testing.T) {
	stub := newAPIStub()
	stub.deltas = []string{"one ", "two ", "three"}
	srv := stub.server(t)
	client := New(srv.URL, "")

	var deltas []string
	full, model, err := client.Stream(context.Background(), StreamRequest{
		Messages: []StreamMessage{{Role: "user", Content: "count"}},
	}, func(delta string) {
		deltas = append(deltas, delta)
	})
	require.NoError(t, err)
	assert.Equal(t, "one two three", full)
	assert.Equal(t, "gemini-2.0-flash", model)
	assert.Equal(t, []string{"one ", "two ", "three"}, deltas)
}

func TestClientStreamErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"token\",\"delta\":\"partial\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"error\",\"error\":\"model stream failed\"}\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	full, _, err := client.Stream(context.Background(), StreamRequest{
		Messages: []StreamMessage{{Role: "user", Content: "hi"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model stream failed")
	assert.Equal(t, "partial", full)
}

func TestClientStreamTruncatedWithoutDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"token\",\"delta\":\"cut \"}\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	full, _, err := client.Stream(context.Background(), StreamRequest{
		Messages: []StreamMessage{{Role: "user", Content: "hi"}},
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without done")
	assert.Equal(t, "cut ", full)
}

func TestClientStreamValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusBadRequest, "validation failed: Messages failed on 'min'")
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, _, err := client.Stream(context.Background(), StreamRequest{}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		ok(w, []ChatSummary{})
	}))
	defer srv.Close()

	client := New(srv.URL, "my-token")
	_, err := client.ListChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer my-token", gotAuth)
}
