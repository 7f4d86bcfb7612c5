package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id             uuid.UUID
	Title          string
	UserId         *uuid.UUID // nil for anonymous chats
	PreferredModel *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MessageMeta carries optional provenance for assistant rows.
type MessageMeta struct {
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

type Message struct {
	Id        uuid.UUID
	ChatId    uuid.UUID
	Role      string // "user" or "assistant"; stored as free text
	Content   string
	Meta      *MessageMeta
	CreatedAt time.Time
}

type ChatShare struct {
	Id          uuid.UUID
	ChatId      uuid.UUID
	ShareToken  string
	Title       string
	Description string
	IsPublic    bool
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether the share's expiry has passed. Shares with no
// expiry never expire.
func (s *ChatShare) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}
