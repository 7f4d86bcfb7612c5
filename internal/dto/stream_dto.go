package dto

import "github.com/google/uuid"

type StreamMessage struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type StreamChatRequest struct {
	Messages           []StreamMessage `json:"messages" validate:"required,min=1,dive"`
	ChatId             *uuid.UUID      `json:"chat_id,omitempty"`
	SelectedModel      string          `json:"selected_model,omitempty"`
	UseSearchGrounding bool            `json:"use_search_grounding,omitempty"`
}

// StreamEvent is one SSE frame.
// type=token carries a delta; type=done closes the turn; type=error carries
// a client-safe message.
type StreamEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`
	Model string `json:"model,omitempty"`
	Error string `json:"error,omitempty"`
}
