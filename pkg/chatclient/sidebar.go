package chatclient

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Sidebar mirrors the user's chat list. Deletion is two-phase: the chat is
// marked pending and hidden immediately, then removed on server ack or
// revealed again on failure.
type Sidebar struct {
	client *Client

	mu            sync.Mutex
	chats         []ChatSummary
	pendingDelete map[uuid.UUID]bool
	filter        string
}

func NewSidebar(client *Client) *Sidebar {
	return &Sidebar{
		client:        client,
		pendingDelete: make(map[uuid.UUID]bool),
	}
}

// Refresh re-fetches the chat list. Called on login and whenever a refresh
// event arrives over the events socket.
func (s *Sidebar) Refresh(ctx context.Context) error {
	chats, err := s.client.ListChats(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.chats = chats
	s.mu.Unlock()
	return nil
}

// SetFilter sets the case-insensitive substring filter over titles.
func (s *Sidebar) SetFilter(filter string) {
	s.mu.Lock()
	s.filter = strings.ToLower(filter)
	s.mu.Unlock()
}

// Chats returns the visible list: filtered, minus pending deletions.
func (s *Sidebar) Chats() []ChatSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatSummary, 0, len(s.chats))
	for _, chat := range s.chats {
		if s.pendingDelete[chat.Id] {
			continue
		}
		if s.filter != "" && !strings.Contains(strings.ToLower(chat.Title), s.filter) {
			continue
		}
		out = append(out, chat)
	}
	return out
}

// Delete removes a chat. The entry disappears from Chats immediately; if the
// server rejects the deletion the entry comes back and the error is returned.
func (s *Sidebar) Delete(ctx context.Context, chatId uuid.UUID) error {
	s.mu.Lock()
	s.pendingDelete[chatId] = true
	s.mu.Unlock()

	if err := s.client.DeleteChat(ctx, chatId); err != nil {
		s.mu.Lock()
		delete(s.pendingDelete, chatId)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	delete(s.pendingDelete, chatId)
	kept := s.chats[:0]
	for _, chat := range s.chats {
		if chat.Id != chatId {
			kept = append(kept, chat)
		}
	}
	s.chats = kept
	s.mu.Unlock()
	return nil
}
