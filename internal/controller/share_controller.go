package controller

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IShareController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Read(ctx *fiber.Ctx) error
	Import(ctx *fiber.Ctx) error
}

type shareController struct {
	shareService service.IShareService
}

func NewShareController(shareService service.IShareService) IShareController {
	return &shareController{
		shareService: shareService,
	}
}

func (c *shareController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/share/v1")
	// Reading a share is the public surface; the token is the credential.
	h.Get("", c.Read)
	h.Post("", serverutils.OptionalJwtMiddleware, c.Create)
	h.Post("/import", serverutils.JwtMiddleware, c.Import)
}

func (c *shareController) Create(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.CreateShareRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.shareService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create share", res))
}

func (c *shareController) Read(ctx *fiber.Ctx) error {
	token := ctx.Query("token")
	if token == "" {
		return serverutils.BadRequest("missing share token")
	}

	res, err := c.shareService.Read(ctx.Context(), token)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success read share", res))
}

func (c *shareController) Import(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	if userId == nil {
		return serverutils.Unauthorized("authentication required")
	}

	var req dto.ImportChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.shareService.Import(ctx.Context(), *userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success import chat", res))
}
