package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"
	pktNats "ai-chat-be/pkg/nats"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type IShareService interface {
	Create(ctx context.Context, userId *uuid.UUID, req *dto.CreateShareRequest) (*dto.ShareResponse, error)
	Read(ctx context.Context, shareToken string) (*dto.SharedChatResponse, error)
	Import(ctx context.Context, userId uuid.UUID, req *dto.ImportChatRequest) (*dto.ImportChatResponse, error)
}

type shareService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	readCache        *gocache.Cache
}

func NewShareService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
) IShareService {
	return &shareService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		readCache:        gocache.New(30*time.Second, 5*time.Minute),
	}
}

func generateShareToken() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *shareService) Create(ctx context.Context, userId *uuid.UUID, req *dto.CreateShareRequest) (*dto.ShareResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := authorizeChat(ctx, uow, userId, req.ChatId); err != nil {
		return nil, err
	}

	token, err := generateShareToken()
	if err != nil {
		return nil, err
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := time.Now()
	share := &entity.ChatShare{
		Id:          uuid.New(),
		ChatId:      req.ChatId,
		ShareToken:  token,
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    isPublic,
		ExpiresAt:   req.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uow.ChatShareRepository().Create(ctx, share); err != nil {
		return nil, err
	}

	return shareToResponse(share), nil
}

func (s *shareService) Read(ctx context.Context, shareToken string) (*dto.SharedChatResponse, error) {
	if cached, found := s.readCache.Get(shareToken); found {
		resp := cached.(*dto.SharedChatResponse)
		// Re-check expiry so a cached share cannot outlive its deadline.
		if resp.Share.ExpiresAt == nil || time.Now().Before(*resp.Share.ExpiresAt) {
			return resp, nil
		}
		s.readCache.Delete(shareToken)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	share, err := s.findActiveShare(ctx, uow, shareToken)
	if err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: share.ChatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := &dto.SharedChatResponse{
		Share:    *shareToResponse(share),
		Messages: derefMessages(mapMessagesToResponses(messages)),
	}

	s.readCache.Set(shareToken, resp, gocache.DefaultExpiration)
	return resp, nil
}

func (s *shareService) Import(ctx context.Context, userId uuid.UUID, req *dto.ImportChatRequest) (*dto.ImportChatResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	share, err := s.findActiveShare(ctx, uow, req.ShareToken)
	if err != nil {
		return nil, err
	}

	sourceMessages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByChatID{ChatID: share.ChatId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	newChat := &entity.Chat{
		Id:        uuid.New(),
		Title:     share.Title,
		UserId:    &userId,
		CreatedAt: now,
		UpdatedAt: now,
	}

	clones := make([]*entity.Message, 0, len(sourceMessages))
	for _, msg := range sourceMessages {
		clones = append(clones, &entity.Message{
			Id:        uuid.New(),
			ChatId:    newChat.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Meta:      msg.Meta,
			CreatedAt: msg.CreatedAt,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChatRepository().Create(ctx, newChat); err != nil {
		return nil, err
	}
	if len(clones) > 0 {
		if err := uow.MessageRepository().CreateBatch(ctx, clones); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	publishChatActivity(ctx, s.publisherService, constant.ChatImportedEvent, newChat.Id, &userId)
	publishAuditEvent(ctx, s.eventPublisher, constant.ChatImportedEvent, map[string]interface{}{
		"chat_id":       newChat.Id,
		"source_chat":   share.ChatId,
		"message_count": len(clones),
	})

	return &dto.ImportChatResponse{
		ChatId:       newChat.Id,
		Title:        newChat.Title,
		MessageCount: len(clones),
	}, nil
}

// findActiveShare resolves a token to a share that is public and not past
// its expiry. Every failure mode reads as 404 so tokens cannot be probed.
func (s *shareService) findActiveShare(ctx context.Context, uow unitofwork.UnitOfWork, shareToken string) (*entity.ChatShare, error) {
	share, err := uow.ChatShareRepository().FindOne(ctx, specification.ByShareToken{Token: shareToken})
	if err != nil {
		return nil, err
	}
	if share == nil || !share.IsPublic || share.Expired(time.Now()) {
		return nil, serverutils.NotFound("share not found")
	}
	return share, nil
}

func shareToResponse(share *entity.ChatShare) *dto.ShareResponse {
	return &dto.ShareResponse{
		Id:          share.Id,
		ShareToken:  share.ShareToken,
		Title:       share.Title,
		Description: share.Description,
		IsPublic:    share.IsPublic,
		ExpiresAt:   share.ExpiresAt,
		CreatedAt:   share.CreatedAt,
	}
}

func derefMessages(messages []*dto.MessageResponse) []dto.MessageResponse {
	result := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		result = append(result, *msg)
	}
	return result
}
