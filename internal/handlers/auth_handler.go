package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/middleware"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates an account from a form or JSON body.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	user, err := h.authService.Register(input)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"user":    user.ToResponse(),
	})
}

// Login takes HTTP Basic credentials and returns a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username, password, ok := httpx.BasicAuth(c)
	if !ok || username == "" || password == "" {
		return httpx.Unauthorized(c, "missing_credentials", "Username and password are required")
	}

	result, err := h.authService.Login(username, password)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(result)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(middleware.ClaimsFrom(c)); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Logged out")
}

// ChangePassword also ends the current session so the client logs in again.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	if err := h.authService.ChangePassword(userID, input); err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.authService.Logout(middleware.ClaimsFrom(c)); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Password changed, please log in again")
}
