// FILE: internal/controller/plan_controller.go
package controller

import (
	"fmt"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPlanController interface {
	RegisterRoutes(r fiber.Router)
	GetPlans(ctx *fiber.Ctx) error
	CreatePlan(ctx *fiber.Ctx) error
	Purchase(ctx *fiber.Ctx) error
	Webhook(ctx *fiber.Ctx) error
	GetMySubscriptions(ctx *fiber.Ctx) error
	GetUsage(ctx *fiber.Ctx) error
}

type planController struct {
	service service.ISubscriptionService
}

func NewPlanController(service service.ISubscriptionService) IPlanController {
	return &planController{service: service}
}

func (c *planController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/plans")
	h.Get("/", c.GetPlans)
	h.Post("/", serverutils.JwtMiddleware, c.CreatePlan)
	h.Post("/purchase", serverutils.JwtMiddleware, c.Purchase)

	p := r.Group("/payment")
	p.Post("/midtrans/notification", c.Webhook)

	s := r.Group("/subscriptions", serverutils.JwtMiddleware)
	s.Get("/", c.GetMySubscriptions)
	s.Get("/usage", c.GetUsage)
}

func (c *planController) GetPlans(ctx *fiber.Ctx) error {
	res, err := c.service.GetAllPlans(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching plans", res))
}

func (c *planController) CreatePlan(ctx *fiber.Ctx) error {
	var req dto.CreatePlanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.CreatePlan(ctx.Context(), &req)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Plan created", res))
}

func (c *planController) Purchase(ctx *fiber.Ctx) error {
	var req dto.PurchasePlanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.PurchasePlan(ctx.Context(), userId, &req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription created", res))
}

func (c *planController) Webhook(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		fmt.Printf("[WEBHOOK ERROR] Body parsing failed: %v\n", err)
		return ctx.SendStatus(fiber.StatusBadRequest)
	}

	err := c.service.HandlePaymentNotification(ctx.Context(),
		req.OrderId, req.TransactionStatus, req.StatusCode, req.GrossAmount, req.SignatureKey)
	if err != nil {
		fmt.Printf("[WEBHOOK ERROR] Handling failed for OrderId=%s: %v\n", req.OrderId, err)
		// 500 makes Midtrans retry the notification
		return ctx.SendStatus(fiber.StatusInternalServerError)
	}
	return ctx.SendStatus(fiber.StatusOK)
}

func (c *planController) GetMySubscriptions(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetMySubscriptions(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription list", res))
}

func (c *planController) GetUsage(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetUsageSummary(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Usage summary", res))
}
