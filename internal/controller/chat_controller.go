package controller

import (
	"insurance-intake-be/internal/dto"
	"insurance-intake-be/internal/pkg/serverutils"
	"insurance-intake-be/internal/service"
	ws "insurance-intake-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	DeleteThread(ctx *fiber.Ctx) error
	EscalationStatus(ctx *fiber.Ctx) error
	ResetEscalation(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	hub         *ws.Hub
}

func NewChatController(chatService service.IChatService, hub *ws.Hub) IChatController {
	return &chatController{
		chatService: chatService,
		hub:         hub,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/intake/v1")
	h.Post("chat", c.Chat)
	h.Get("thread/:id/history", c.History)
	h.Delete("thread/:id", c.DeleteThread)
	h.Get("health", c.Health)

	// Operator-only surface.
	ops := h.Group("", serverutils.JwtMiddleware)
	ops.Get("thread/:id/escalation", c.EscalationStatus)
	ops.Post("thread/:id/escalation/reset", c.ResetEscalation)

	if c.hub != nil {
		h.Get("handover/ws", serverutils.JwtMiddleware, websocket.New(c.handoverFeed))
	}
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Chat(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process chat", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	threadID := ctx.Params("id")

	res, err := c.chatService.History(threadID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch thread history", res))
}

func (c *chatController) DeleteThread(ctx *fiber.Ctx) error {
	threadID := ctx.Params("id")

	if err := c.chatService.DeleteThread(ctx.Context(), threadID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete thread", nil))
}

func (c *chatController) EscalationStatus(ctx *fiber.Ctx) error {
	threadID := ctx.Params("id")

	res, err := c.chatService.EscalationStatus(threadID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success fetch escalation status", res))
}

func (c *chatController) ResetEscalation(ctx *fiber.Ctx) error {
	threadID := ctx.Params("id")

	if err := c.chatService.ResetEscalation(threadID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reset escalation", nil))
}

func (c *chatController) Health(ctx *fiber.Ctx) error {
	res := dto.HealthResponse{
		Status:         "ok",
		ActiveSessions: c.chatService.ActiveSessions(),
	}
	return ctx.JSON(serverutils.SuccessResponse("Service healthy", res))
}

// handoverFeed upgrades an operator connection onto the hub.
func (c *chatController) handoverFeed(conn *websocket.Conn) {
	operatorID := uuid.New()
	if raw, ok := conn.Locals("operator_id").(string); ok {
		if parsed, err := uuid.Parse(raw); err == nil {
			operatorID = parsed
		}
	}
	ws.ServeWs(c.hub, conn, operatorID)
}
