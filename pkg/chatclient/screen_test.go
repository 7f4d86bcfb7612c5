package chatclient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForSaved(t *testing.T, stub *apiStub, want int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		return len(stub.saved) >= want
	}, time.Second, 10*time.Millisecond)
}

func TestScreenLoadSeedsFullTranscript(t *testing.T) {
	stub := newAPIStub()
	srv := stub.server(t)
	client := New(srv.URL, "")

	chatId := uuid.New()
	stub.chats[chatId] = []Message{
		{Id: uuid.New(), ChatId: chatId, Role: "user", Content: "question"},
		{Id: uuid.New(), ChatId: chatId, Role: "assistant", Content: "answer"},
	}

	screen := NewScreen(client, chatId, "gemini-2.0-flash")
	require.NoError(t, screen.Load(context.Background()))

	assert.Equal(t, StateIdle, screen.State())
	msgs := screen.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "answer", msgs[1].Content)
}

func TestScreenLoadEmptyChat(t *testing.T) {
	stub := newAPIStub()
	srv := stub.server(t)
	client := New(srv.URL, "")

	chatId := uuid.New()
	stub.chats[chatId] = nil

	screen := NewScreen(client, chatId, "gemini-2.0-flash")
	require.NoError(t, screen.Load(context.Background()))

	assert.Equal(t, StateIdle, screen.State())
	assert.Empty(t, screen.Messages())
}

func TestScreenBootstrapReplay(t *testing.T) {
	stub := newAPIStub()
	stub.deltas = []string{"live ", "reply"}
	srv := stub.server(t)
	client := New(srv.URL, "")

	chatId := uuid.New()
	// Exactly one persisted user message and no assistant reply: the mount
	// replays it through the streaming path.
	stub.chats[chatId] = []Message{
		{Id: uuid.New(), ChatId: chatId, Role: "user", Content: "first question"},
	}

	screen := NewScreen(client, chatId, "gemini-2.0-flash")
	require.NoError(t, screen.Load(context.Background()))

	msgs := screen.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, "live reply", msgs[1].Content)

	// The replay omits the chat id so the server does not persist the user
	// message a second time.
	stub.mu.Lock()
	require.Len(t, stub.requests, 1)
	assert.Contains(t, stub.requests[0], "chat_id=<nil>")
	userRows := 0
	for _, m := range stub.chats[chatId] {
		if m.Role == "user" {
			userRows++
		}
	}
	stub.mu.Unlock()
	assert.Equal(t, 1, userRows)

	// The assistant reply is persisted in the background.
	waitForSaved(t, stub, 1)
	stub.mu.Lock()
	assert.Equal(t, "assistant", stub.saved[0].Role)
	assert.Equal(t, "live reply", stub.saved[0].Content)
	stub.mu.Unlock()
}

func TestScreenBootstrapRunsOncePerMount(t *testing.T) {
	stub := newAPIStub()
	srv := stub.server(t)
	client := New(srv.URL, "")

	chatId := uuid.New()
	stub.chats[chatId] = []Message{
		{Id: uuid.New(), ChatId: chatId, Role: "user", Content: "only question"},
	}

	screen := NewScreen(client, chatId, "gemini-2.0-flash")
	require.NoError(t, screen.Load(context.Background()))
	waitForSaved(t, stub, 1)

	require.NoError(t, screen.Load(context.Background()))

	stub.mu.Lock()
	streams := len(stub.requests)
	stub.mu.Unlock()
	assert.Equal(t, 1, streams)
	assert.Equal(t, StateIdle, screen.State())
}

func TestScreenSend(t *testing.T) {
	stub := newAPIStub()
	stub.deltas = []string{"the ", "answer"}
	srv := stub.server(t)
	client := New(srv.URL, "")

	chatId := uuid.New()
	stub.chats[chatId] = nil

	screen := NewScreen(client, chatId, "gemini-2.0-flash")
	require.NoError(t, screen.Load(context.Background()))

	var streamed []string
	screen.OnDelta = func(delta string) { streamed = append(streamed, delta) }

	require.NoError(t, screen.Send(context.Background(), "a question"))

	msgs := screen.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "a question", msgs[0].Content)
	assert.Equal(t, "the answer", msgs[1].Content)
	assert.Equal(t, []string{"the ", "answer"}, streamed)
	assert.Equal(t, StateIdle, screen.State())

	// Sending includes the chat id, so the server persists the user turn.
	stub.mu.Lock()
	var persistedUser bool
	for _, m := range stub.chats[chatId] {
		if m.Role == "user" && m.Content == "a question" {
			persistedUser = true
		}
	}
	stub.mu.Unlock()
	assert.True(t, persistedUser)

	waitForSaved(t, stub, 1)
}
