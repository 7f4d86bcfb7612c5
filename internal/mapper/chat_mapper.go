package mapper

import (
	"encoding/json"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat mappers

func (m *ChatMapper) ChatToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}
	return &entity.Chat{
		Id:             c.Id,
		Title:          c.Title,
		UserId:         c.UserId,
		PreferredModel: c.PreferredModel,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (m *ChatMapper) ChatToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}
	return &model.Chat{
		Id:             c.Id,
		Title:          c.Title,
		UserId:         c.UserId,
		PreferredModel: c.PreferredModel,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// Message mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var meta *entity.MessageMeta
	if len(msg.Meta) > 0 {
		var parsed entity.MessageMeta
		if err := json.Unmarshal(msg.Meta, &parsed); err == nil {
			meta = &parsed
		}
	}

	return &entity.Message{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      msg.Role,
		Content:   msg.Content,
		Meta:      meta,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var meta datatypes.JSON
	if msg.Meta != nil {
		if raw, err := json.Marshal(msg.Meta); err == nil {
			meta = datatypes.JSON(raw)
		}
	}

	return &model.Message{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      msg.Role,
		Content:   msg.Content,
		Meta:      meta,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

// Share mappers

func (m *ChatMapper) ShareToEntity(s *model.ChatShare) *entity.ChatShare {
	if s == nil {
		return nil
	}
	return &entity.ChatShare{
		Id:          s.Id,
		ChatId:      s.ChatId,
		ShareToken:  s.ShareToken,
		Title:       s.Title,
		Description: s.Description,
		IsPublic:    s.IsPublic,
		ExpiresAt:   s.ExpiresAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (m *ChatMapper) ShareToModel(s *entity.ChatShare) *model.ChatShare {
	if s == nil {
		return nil
	}
	return &model.ChatShare{
		Id:          s.Id,
		ChatId:      s.ChatId,
		ShareToken:  s.ShareToken,
		Title:       s.Title,
		Description: s.Description,
		IsPublic:    s.IsPublic,
		ExpiresAt:   s.ExpiresAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
