package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatShare struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatId      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ShareToken  string     `gorm:"type:varchar(64);uniqueIndex;not null"`
	Title       string     `gorm:"type:text;not null"`
	Description string     `gorm:"type:text"`
	IsPublic    bool       `gorm:"default:true"`
	ExpiresAt   *time.Time `gorm:"index"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (ChatShare) TableName() string {
	return "chat_shares"
}
