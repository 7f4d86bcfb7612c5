package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateShareRequest struct {
	ChatId      uuid.UUID  `json:"chat_id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description,omitempty"`
	IsPublic    *bool      `json:"is_public,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type ShareResponse struct {
	Id          uuid.UUID  `json:"id"`
	ShareToken  string     `json:"share_token"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsPublic    bool       `json:"is_public"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SharedChatResponse is the public read: share metadata plus the transcript.
type SharedChatResponse struct {
	Share    ShareResponse     `json:"share"`
	Messages []MessageResponse `json:"messages"`
}

type ImportChatRequest struct {
	ShareToken string `json:"share_token" validate:"required"`
}

type ImportChatResponse struct {
	ChatId       uuid.UUID `json:"chat_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
}
