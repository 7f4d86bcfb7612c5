package contract

import (
	"context"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatShareRepository interface {
	Create(ctx context.Context, share *entity.ChatShare) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatShare, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
