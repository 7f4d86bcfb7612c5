package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/events"
	pktNats "ai-chat-be/pkg/nats"

	"github.com/google/uuid"
)

type IChatService interface {
	Create(ctx context.Context, userId *uuid.UUID, req *dto.CreateChatRequest) (*dto.CreateChatResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSummaryResponse, error)
	Show(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) (*dto.ChatDetailResponse, error)
	Messages(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) ([]*dto.MessageResponse, error)
	Delete(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) error
	SaveMessage(ctx context.Context, userId *uuid.UUID, req *dto.SaveMessageRequest) (*dto.SaveMessageResponse, error)
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
	}
}

// authorizeChat loads the chat and enforces ownership. Ownerless chats
// are open; owned chats require the caller to be the owner, with a 401
// for anonymous callers and a 403 for the wrong user.
func authorizeChat(ctx context.Context, uow unitofwork.UnitOfWork, userId *uuid.UUID, chatId uuid.UUID) (*entity.Chat, error) {
	chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: chatId})
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, serverutils.NotFound("chat not found")
	}
	if chat.UserId != nil {
		if userId == nil {
			return nil, serverutils.Unauthorized("authentication required")
		}
		if *chat.UserId != *userId {
			return nil, serverutils.Forbidden("you do not own this chat")
		}
	}
	return chat, nil
}

func publishChatActivity(ctx context.Context, pub IPublisherService, event string, chatId uuid.UUID, userId *uuid.UUID) {
	if pub == nil {
		return
	}
	payload, err := json.Marshal(dto.ChatActivityMessage{
		Event:  event,
		ChatId: chatId,
		UserId: userId,
		At:     time.Now(),
	})
	if err != nil {
		return
	}
	if err := pub.Publish(ctx, payload); err != nil {
		fmt.Printf("[WARN] Failed to publish %s activity: %v\n", event, err)
	}
}

func publishAuditEvent(ctx context.Context, pub *pktNats.Publisher, eventType string, data map[string]interface{}) {
	if pub == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := pub.Publish(ctx, evt); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", eventType, err)
	}
}

func (c *chatService) Create(ctx context.Context, userId *uuid.UUID, req *dto.CreateChatRequest) (*dto.CreateChatResponse, error) {
	if userId == nil {
		return nil, serverutils.Unauthorized("authentication required")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	now := time.Now()
	chat := &entity.Chat{
		Id:             uuid.New(),
		Title:          req.Title,
		UserId:         userId,
		PreferredModel: req.PreferredModel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		return nil, err
	}

	if req.InitialMessage != "" {
		msg := &entity.Message{
			Id:        uuid.New(),
			ChatId:    chat.Id,
			Role:      constant.ChatMessageRoleUser,
			Content:   req.InitialMessage,
			CreatedAt: now,
		}
		if err := uow.MessageRepository().Create(ctx, msg); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	publishChatActivity(ctx, c.publisherService, constant.ChatCreatedEvent, chat.Id, userId)
	publishAuditEvent(ctx, c.eventPublisher, constant.ChatCreatedEvent, map[string]interface{}{
		"chat_id": chat.Id,
		"title":   chat.Title,
	})

	return &dto.CreateChatResponse{ChatId: chat.Id}, nil
}

func (c *chatService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSummaryResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ChatSummaryResponse, 0, len(chats))
	for _, chat := range chats {
		result = append(result, &dto.ChatSummaryResponse{
			Id:        chat.Id,
			Title:     chat.Title,
			CreatedAt: chat.CreatedAt,
			UpdatedAt: chat.UpdatedAt,
		})
	}
	return result, nil
}

func (c *chatService) Show(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) (*dto.ChatDetailResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	chat, err := authorizeChat(ctx, uow, userId, chatId)
	if err != nil {
		return nil, err
	}

	return &dto.ChatDetailResponse{
		Id:             chat.Id,
		Title:          chat.Title,
		UserId:         chat.UserId,
		PreferredModel: chat.PreferredModel,
		CreatedAt:      chat.CreatedAt,
		UpdatedAt:      chat.UpdatedAt,
	}, nil
}

func (c *chatService) Messages(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if _, err := authorizeChat(ctx, uow, userId, chatId); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	return mapMessagesToResponses(messages), nil
}

func (c *chatService) Delete(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID) error {
	if userId == nil {
		return serverutils.Unauthorized("authentication required")
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	if _, err := authorizeChat(ctx, uow, userId, chatId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// Shares referencing the chat go with it via FK cascade.
	if err := uow.MessageRepository().DeleteAllByChatId(ctx, chatId); err != nil {
		return err
	}
	if err := uow.ChatRepository().Delete(ctx, chatId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	publishChatActivity(ctx, c.publisherService, constant.ChatDeletedEvent, chatId, userId)
	publishAuditEvent(ctx, c.eventPublisher, constant.ChatDeletedEvent, map[string]interface{}{
		"chat_id": chatId,
	})

	return nil
}

func (c *chatService) SaveMessage(ctx context.Context, userId *uuid.UUID, req *dto.SaveMessageRequest) (*dto.SaveMessageResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if _, err := authorizeChat(ctx, uow, userId, req.ChatId); err != nil {
		return nil, err
	}

	msg := &entity.Message{
		Id:        uuid.New(),
		ChatId:    req.ChatId,
		Role:      req.Role,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if req.Model != "" {
		msg.Meta = &entity.MessageMeta{Model: req.Model}
	}

	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, err
	}

	publishChatActivity(ctx, c.publisherService, constant.MessageSavedEvent, req.ChatId, userId)

	return &dto.SaveMessageResponse{Id: msg.Id, CreatedAt: msg.CreatedAt}, nil
}

func mapMessagesToResponses(messages []*entity.Message) []*dto.MessageResponse {
	result := make([]*dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		item := &dto.MessageResponse{
			Id:        msg.Id,
			ChatId:    msg.ChatId,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		}
		if msg.Meta != nil {
			item.Model = msg.Meta.Model
		}
		result = append(result, item)
	}
	return result
}
