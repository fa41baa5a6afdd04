// FILE: internal/controller/oauth_controller.go
package controller

import (
	"os"

	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router)
	Connect(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service service.IOAuthService
}

func NewOAuthController(service service.IOAuthService) IOAuthController {
	return &oauthController{service: service}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/oauth/google")
	// Connect requires an authenticated session: Google is linked to an
	// existing account, never used to create one.
	h.Get("/connect", serverutils.JwtMiddleware, c.Connect)
	h.Get("/callback", c.Callback)
}

func (c *oauthController) Connect(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	url, err := c.service.GetConnectURL(ctx.Context(), userId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"code":    500,
			"message": err.Error(),
		})
	}
	return ctx.Redirect(url)
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	state := ctx.Query("state")
	code := ctx.Query("code")
	if state == "" || code == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": "missing state or code",
		})
	}

	if err := c.service.HandleCallback(ctx.Context(), state, code); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		return ctx.JSON(fiber.Map{
			"success": true,
			"code":    200,
			"message": "Google account linked successfully",
			"data":    nil,
		})
	}
	return ctx.Redirect(frontendURL+"/settings?google=linked", fiber.StatusTemporaryRedirect)
}
