package chatclient

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

type ScreenState string

const (
	StateLoading   ScreenState = "loading"
	StateEmpty     ScreenState = "empty"
	StateSeeded    ScreenState = "seeded"
	StateStreaming ScreenState = "streaming"
	StateIdle      ScreenState = "idle"
)

// Screen owns the visible transcript of one chat. It reconciles persisted
// messages with live streaming: on load, a chat holding exactly one user
// message and nothing else is not seeded but replayed through the streaming
// path, so the first assistant reply appears live instead of being missing.
type Screen struct {
	client *Client
	chatId uuid.UUID
	model  string

	mu           sync.Mutex
	state        ScreenState
	messages     []Message
	bootstrapped bool

	// OnDelta, when set, observes each streamed fragment.
	OnDelta func(delta string)
}

func NewScreen(client *Client, chatId uuid.UUID, model string) *Screen {
	return &Screen{
		client: client,
		chatId: chatId,
		model:  model,
		state:  StateLoading,
	}
}

func (s *Screen) State() ScreenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Screen) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Load fetches the persisted transcript and either seeds the screen or runs
// the bootstrap replay. The replay fires at most once per Screen; re-loading
// after it has run seeds whatever is persisted.
func (s *Screen) Load(ctx context.Context) error {
	persisted, err := s.client.ChatMessages(ctx, s.chatId)
	if err != nil {
		return err
	}

	s.mu.Lock()
	needsBootstrap := !s.bootstrapped && len(persisted) == 1 && persisted[0].Role == "user"
	if needsBootstrap {
		s.bootstrapped = true
		s.messages = nil
		s.state = StateEmpty
	} else {
		s.messages = persisted
		if len(persisted) == 0 {
			s.state = StateEmpty
		} else {
			s.state = StateSeeded
		}
	}
	s.mu.Unlock()

	if needsBootstrap {
		return s.submit(ctx, persisted[0].Content, false)
	}

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	return nil
}

// Send runs one user turn: append locally, stream the reply, persist the
// assistant message.
func (s *Screen) Send(ctx context.Context, content string) error {
	return s.submit(ctx, content, true)
}

func (s *Screen) submit(ctx context.Context, content string, persistUserMessage bool) error {
	s.mu.Lock()
	s.messages = append(s.messages, Message{ChatId: s.chatId, Role: "user", Content: content})
	history := make([]StreamMessage, 0, len(s.messages))
	for _, m := range s.messages {
		history = append(history, StreamMessage{Role: m.Role, Content: m.Content})
	}
	s.state = StateStreaming
	s.mu.Unlock()

	req := StreamRequest{
		Messages:      history,
		SelectedModel: s.model,
	}
	// The server persists the trailing user message when it sees the chat
	// id; the bootstrap replay suppresses that to avoid a duplicate row.
	if persistUserMessage {
		req.ChatId = &s.chatId
	}

	full, model, err := s.client.Stream(ctx, req, func(delta string) {
		s.mu.Lock()
		s.appendDeltaLocked(delta)
		s.mu.Unlock()
		if s.OnDelta != nil {
			s.OnDelta(delta)
		}
	})

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()

	if err != nil {
		return err
	}

	// Fire-and-forget persist of the assistant turn. A failure leaves the
	// in-memory transcript ahead of the database; it is logged, not
	// surfaced.
	go func() {
		if saveErr := s.client.SaveMessage(context.Background(), s.chatId, "assistant", full, model); saveErr != nil {
			log.Printf("chatclient: failed to persist assistant message: %v", saveErr)
		}
	}()

	return nil
}

// appendDeltaLocked grows the trailing assistant message, creating it on the
// first fragment of a turn.
func (s *Screen) appendDeltaLocked(delta string) {
	if n := len(s.messages); n > 0 && s.messages[n-1].Role == "assistant" && s.state == StateStreaming {
		s.messages[n-1].Content += delta
		return
	}
	s.messages = append(s.messages, Message{ChatId: s.chatId, Role: "assistant", Content: delta})
}
