package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateChatRequest struct {
	Title          string  `json:"title" validate:"required"`
	InitialMessage string  `json:"initial_message,omitempty"`
	PreferredModel *string `json:"preferred_model,omitempty"`
}

type CreateChatResponse struct {
	ChatId uuid.UUID `json:"chat_id"`
}

type ChatSummaryResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ChatDetailResponse struct {
	Id             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	UserId         *uuid.UUID `json:"user_id,omitempty"`
	PreferredModel *string    `json:"preferred_model,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	ChatId    uuid.UUID `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SaveMessageRequest struct {
	ChatId  uuid.UUID `json:"chat_id" validate:"required"`
	Role    string    `json:"role" validate:"required,oneof=user assistant"`
	Content string    `json:"content" validate:"required"`
	Model   string    `json:"model,omitempty"`
}

// ChatActivityMessage rides the in-process bus from the mutating services to
// the activity consumer, which bumps updated_at and fans out tab refreshes.
type ChatActivityMessage struct {
	Event  string     `json:"event"`
	ChatId uuid.UUID  `json:"chat_id"`
	UserId *uuid.UUID `json:"user_id,omitempty"`
	At     time.Time  `json:"at"`
}

type SaveMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}
