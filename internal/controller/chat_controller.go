package controller

import (
	"errors"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/service"
	"docchat-be/pkg/rag/engine"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	UpdateSettings(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("session", c.CreateSession)
	h.Get("session", c.GetSessions)
	h.Get("session/:id/history", c.GetHistory)
	h.Post("send", c.SendMessage)
	h.Put("settings", c.UpdateSettings)
	h.Delete("session/:id", c.DeleteSession)
}

func requestUserId(ctx *fiber.Ctx) uuid.UUID {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}

// mapChatError converts domain errors into client-facing status codes.
func mapChatError(err error) error {
	switch {
	case errors.Is(err, service.ErrChatSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCollectionNotAllowed):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrSessionBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId := requestUserId(ctx)

	// Body is optional; an empty request falls back to the primary group.
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	res, err := c.chatService.StartSession(ctx.Context(), userId, &req)
	if err != nil {
		return mapChatError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create chat session", res))
}

func (c *chatController) GetSessions(ctx *fiber.Ctx) error {
	userId := requestUserId(ctx)

	res, err := c.chatService.GetSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat sessions", res))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	userId := requestUserId(ctx)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.chatService.GetHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		return mapChatError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId := requestUserId(ctx)

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendMessage(ctx.Context(), userId, &req)
	if err != nil {
		return mapChatError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) UpdateSettings(ctx *fiber.Ctx) error {
	userId := requestUserId(ctx)

	var req dto.UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.UpdateSettings(ctx.Context(), userId, &req)
	if err != nil {
		return mapChatError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update chat settings", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId := requestUserId(ctx)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	if err := c.chatService.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		return mapChatError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete chat session", struct{}{}))
}
