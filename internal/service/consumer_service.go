package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/internal/websocket"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the chat activity topic. For every activity it
// advances the chat's updated_at (so list ordering tracks last use) and
// pushes a refresh to the owner's connected tabs.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	hub        *websocket.Hub
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	hub *websocket.Hub,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		hub:        hub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ChatActivityMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal activity message: %v", err)
		msg.Ack() // malformed payloads never become valid, drop them
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if payload.Event == constant.MessageSavedEvent {
		chat, err := uow.ChatRepository().FindOne(ctx, specification.ByID{ID: payload.ChatId})
		if err != nil {
			log.Printf("[ERROR] Failed to load chat %s: %v", payload.ChatId, err)
			msg.Nack()
			return
		}
		if chat == nil {
			// Chat deleted between save and consume. Nothing to bump.
			msg.Ack()
			return
		}

		at := payload.At
		if at.IsZero() {
			at = time.Now()
		}
		if err := uow.ChatRepository().Touch(ctx, payload.ChatId, at); err != nil {
			log.Printf("[ERROR] Failed to touch chat %s: %v", payload.ChatId, err)
			msg.Nack()
			return
		}
	}

	if cs.hub != nil && payload.UserId != nil {
		cs.hub.NotifyChatsUpdated(*payload.UserId, websocket.RefreshEvent{
			Reason: payload.Event,
			ChatId: payload.ChatId,
		})
	}

	msg.Ack()
}
