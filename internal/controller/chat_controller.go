// FILE: internal/controller/chat_controller.go
package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"
	"ai-chat-be/pkg/chat/broker"
	"ai-chat-be/pkg/embedding"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	CreateConversation(ctx *fiber.Ctx) error
	GetAllConversations(ctx *fiber.Ctx) error
	GetTurnHistory(ctx *fiber.Ctx) error
	DeleteConversation(ctx *fiber.Ctx) error
	EditTurn(ctx *fiber.Ctx) error
	DeleteTurn(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1", serverutils.JwtMiddleware)
	h.Post("/stream", c.Stream)
	h.Get("/ws", c.upgradeWs, websocket.New(c.streamWs))

	h.Post("/conversations", c.CreateConversation)
	h.Get("/conversations", c.GetAllConversations)
	h.Get("/conversations/:id/turns", c.GetTurnHistory)
	h.Delete("/conversations/:id", c.DeleteConversation)
	h.Patch("/conversations/:id/turns/:turnId", c.EditTurn)
	h.Delete("/conversations/:id/turns/:turnId", c.DeleteTurn)
}

// streamErrorStatus maps pre-stream failures to their HTTP status. Backend
// unavailability is the only 502; everything else is a caller problem.
func streamErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrConversationNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrSubscriptionRequired), errors.Is(err, service.ErrInvalidApiKey):
		return fiber.StatusForbidden
	case errors.Is(err, broker.ErrInferenceUnavailable), errors.Is(err, embedding.ErrUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusBadRequest
	}
}

// Stream runs one chat turn and delivers the reply as server-sent events.
// Fragments after the first write are best-effort: a dropped client stops
// delivery but the turn still completes and persists server-side.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	var req dto.SendChatStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	conversationId, fragments, err := c.service.SendChatStream(ctx.Context(), userId, &req)
	if err != nil {
		status := streamErrorStatus(err)
		return ctx.Status(status).JSON(fiber.Map{
			"success": false,
			"code":    status,
			"message": err.Error(),
		})
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
	ctx.Set("X-Conversation-Id", conversationId.String())

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		clientGone := false
		for f := range fragments {
			if clientGone {
				// Keep draining so the backend stream runs to completion.
				continue
			}
			payload, _ := json.Marshal(f)
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				clientGone = true
				continue
			}
			if err := w.Flush(); err != nil {
				clientGone = true
			}
		}
	}))
	return nil
}

func (c *chatController) upgradeWs(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		ctx.Locals("allowed", true)
		return ctx.Next()
	}
	return fiber.ErrUpgradeRequired
}

// streamWs serves the same pipeline over a websocket. Each incoming JSON
// request produces a sequence of fragment messages ending with done=true.
func (c *chatController) streamWs(conn *websocket.Conn) {
	userIdStr, _ := conn.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		conn.WriteJSON(dto.StreamFragment{Error: "unauthorized"})
		conn.Close()
		return
	}

	for {
		var req dto.SendChatStreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		_, fragments, err := c.service.SendChatStream(context.Background(), userId, &req)
		if err != nil {
			if writeErr := conn.WriteJSON(dto.StreamFragment{Error: err.Error()}); writeErr != nil {
				return
			}
			continue
		}

		clientGone := false
		for f := range fragments {
			if clientGone {
				continue
			}
			if err := conn.WriteJSON(f); err != nil {
				clientGone = true
			}
		}
		if clientGone {
			return
		}
	}
}

func (c *chatController) CreateConversation(ctx *fiber.Ctx) error {
	var req dto.CreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.CreateConversation(ctx.Context(), userId, &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Conversation created",
		"data":    res,
	})
}

func (c *chatController) GetAllConversations(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetAllConversations(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"code":    500,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Conversations fetched successfully",
		"data":    res,
	})
}

func (c *chatController) GetTurnHistory(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": "invalid conversation id",
		})
	}

	res, err := c.service.GetTurnHistory(ctx.Context(), userId, conversationId)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"code":    404,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Turn history fetched successfully",
		"data":    res,
	})
}

func (c *chatController) EditTurn(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": "invalid conversation id",
		})
	}
	turnId, err := uuid.Parse(ctx.Params("turnId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": "invalid turn id",
		})
	}

	var req dto.EditTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.service.EditTurn(ctx.Context(), userId, conversationId, turnId, &req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Turn updated successfully",
		"data":    nil,
	})
}

func (c *chatController) DeleteTurn(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": "invalid conversation id",
		})
	}
	turnId, err := uuid.Parse(ctx.Params("turnId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": "invalid turn id",
		})
	}

	if err := c.service.DeleteTurn(ctx.Context(), userId, conversationId, turnId); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"code":    404,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Turn deleted successfully",
		"data":    nil,
	})
}

func (c *chatController) DeleteConversation(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": "invalid conversation id",
		})
	}

	if err := c.service.DeleteConversation(ctx.Context(), userId, conversationId); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"code":    404,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Conversation deleted successfully",
		"data":    nil,
	})
}
