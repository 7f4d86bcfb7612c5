package model

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title          string     `gorm:"type:text;not null"`
	UserId         *uuid.UUID `gorm:"type:uuid;index"` // nullable; FK cascade added in migrate
	PreferredModel *string    `gorm:"type:varchar(100)"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (Chat) TableName() string {
	return "chats"
}
