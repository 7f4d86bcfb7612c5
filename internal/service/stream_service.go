package service

import (
	"context"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/unitofwork"
	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/llm/registry"

	"github.com/google/uuid"
)

// ModelResolver maps a public model id to a provider and upstream model
// name. *registry.Registry satisfies it.
type ModelResolver interface {
	Resolve(modelID string) (provider llm.Provider, upstreamModel string, known bool)
}

type IStreamService interface {
	// Stream runs one model turn. Events go to onEvent in order: zero or
	// more token events, then exactly one done event. Validation failures
	// surface as errors before any event is emitted.
	Stream(ctx context.Context, userId *uuid.UUID, req *dto.StreamChatRequest, onEvent func(dto.StreamEvent) error) error
}

type streamService struct {
	uowFactory       unitofwork.RepositoryFactory
	resolver         ModelResolver
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewStreamService(
	uowFactory unitofwork.RepositoryFactory,
	resolver ModelResolver,
	publisherService IPublisherService,
	log logger.ILogger,
) IStreamService {
	return &streamService{
		uowFactory:       uowFactory,
		resolver:         resolver,
		publisherService: publisherService,
		logger:           log,
	}
}

func (s *streamService) Stream(ctx context.Context, userId *uuid.UUID, req *dto.StreamChatRequest, onEvent func(dto.StreamEvent) error) error {
	if len(req.Messages) == 0 {
		return serverutils.BadRequest("messages must not be empty")
	}

	modelID := req.SelectedModel
	if modelID == "" {
		modelID = constant.DefaultModel
	}

	provider, upstreamModel, known := s.resolver.Resolve(modelID)
	if !known && req.SelectedModel != "" {
		s.logger.Warn("StreamService", "Unknown model id, falling back to default", map[string]interface{}{
			"requested": req.SelectedModel,
			"fallback":  registry.DefaultModel,
		})
		modelID = registry.DefaultModel
	}

	// The chat row and the incoming user message are persisted before any
	// token leaves, so a mid-stream disconnect never loses the prompt.
	if req.ChatId != nil {
		if err := s.persistUserTurn(ctx, userId, *req.ChatId, req.Messages); err != nil {
			return err
		}
	}

	history := make([]llm.Message, 0, len(req.Messages)+1)
	history = append(history, llm.Message{Role: constant.ChatMessageRoleSystem, Content: constant.SystemPreamble})
	for _, m := range req.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	opts := []llm.Option{llm.WithModel(upstreamModel)}
	if req.UseSearchGrounding {
		opts = append(opts, llm.WithSearchGrounding(true))
	}

	_, err := provider.ChatStream(ctx, history, func(delta string) error {
		return onEvent(dto.StreamEvent{Type: "token", Delta: delta})
	}, opts...)
	if err != nil {
		s.logger.Error("StreamService", "Provider stream failed", map[string]interface{}{
			"model": modelID,
			"error": err.Error(),
		})
		return onEvent(dto.StreamEvent{Type: "error", Error: "model stream failed"})
	}

	return onEvent(dto.StreamEvent{Type: "done", Model: modelID})
}

// persistUserTurn stores the trailing user message on the chat. Histories
// ending in a non-user role (client retries of an assistant turn) are left
// alone.
func (s *streamService) persistUserTurn(ctx context.Context, userId *uuid.UUID, chatId uuid.UUID, messages []dto.StreamMessage) error {
	last := messages[len(messages)-1]
	if last.Role != constant.ChatMessageRoleUser {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := authorizeChat(ctx, uow, userId, chatId); err != nil {
		return err
	}

	msg := &entity.Message{
		Id:        uuid.New(),
		ChatId:    chatId,
		Role:      constant.ChatMessageRoleUser,
		Content:   last.Content,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return err
	}

	publishChatActivity(ctx, s.publisherService, constant.MessageSavedEvent, chatId, userId)
	return nil
}
