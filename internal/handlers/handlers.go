package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/middleware"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

func currentUserID(c *fiber.Ctx) (uint, error) {
	uid, err := httpx.LocalUint(c, middleware.LocalUserID)
	if err != nil {
		return 0, service.ErrInvalidToken
	}
	return uid, nil
}

func currentUsername(c *fiber.Ctx) string {
	name, _ := c.Locals(middleware.LocalUsername).(string)
	return name
}

func invalidBody(c *fiber.Ctx) error {
	return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
}

// groupAndPost reads the :group_id and :post_id route params.
func groupAndPost(c *fiber.Ctx) (uint, uint, error) {
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return 0, 0, err
	}
	postID, err := httpx.ParamUint(c, "post_id")
	if err != nil {
		return 0, 0, err
	}
	return groupID, postID, nil
}
