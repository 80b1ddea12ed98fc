package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/middleware"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{userService: userService, authService: authService}
}

// GetCurrentUser gets the authenticated user's profile
func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	// ETag allows clients to re-check frequently without re-downloading.
	etag := fmt.Sprintf("W/\"u-%d-%d\"", user.ID, user.UpdatedAt.UTC().UnixNano())
	c.Set(fiber.HeaderETag, etag)
	c.Set(fiber.HeaderCacheControl, "private, max-age=0, must-revalidate")

	if inm := strings.TrimSpace(c.Get(fiber.HeaderIfNoneMatch)); inm != "" {
		inmNorm := strings.Trim(strings.TrimPrefix(inm, "W/"), "\"")
		etagNorm := strings.Trim(strings.TrimPrefix(etag, "W/"), "\"")
		if strings.Contains(inmNorm, etagNorm) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	return c.JSON(fiber.Map{
		"user": user.ToResponse(),
	})
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	user, err := h.userService.UpdateProfile(userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{
		"user": user.ToResponse(),
	})
}

func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.userService.DeleteAccount(c.UserContext(), userID); err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.authService.Logout(middleware.ClaimsFrom(c)); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Account deleted")
}

// AdminDeleteUser handles DELETE /admin/users/:user_id.
func (h *UserHandler) AdminDeleteUser(c *fiber.Ctx) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	targetID, err := httpx.ParamUint(c, "user_id")
	if err != nil {
		return httpx.FromError(c, err)
	}
	if err := h.userService.AdminDeleteUser(c.UserContext(), adminID, targetID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "User deleted")
}
