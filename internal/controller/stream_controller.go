package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IStreamController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
}

type streamController struct {
	streamService service.IStreamService
}

func NewStreamController(streamService service.IStreamService) IStreamController {
	return &streamController{
		streamService: streamService,
	}
}

func (c *streamController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("/stream", serverutils.OptionalJwtMiddleware, c.Stream)
}

func (c *streamController) Stream(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.StreamChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	// Empty histories fail here with a 400 before any write happens.
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The writer runs after the handler returns, so it cannot borrow the
	// request context.
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		streamCtx := context.Background()

		err := c.streamService.Stream(streamCtx, userId, &req, func(event dto.StreamEvent) error {
			return writeSSE(w, event)
		})
		if err != nil {
			_ = writeSSE(w, dto.StreamEvent{Type: "error", Error: err.Error()})
		}
	}))

	return nil
}

func writeSSE(w *bufio.Writer, event dto.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
