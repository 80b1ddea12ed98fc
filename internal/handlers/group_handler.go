package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func groupResponse(g *models.Group) models.GroupResponse {
	resp := g.ToResponse()
	resp.URL = fmt.Sprintf("/groups/%d", g.ID)
	return resp
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.GroupInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	group, err := h.groupService.CreateGroup(userID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(groupResponse(group))
}

func (h *GroupHandler) GetGroup(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return httpx.FromError(c, err)
	}

	detail, err := h.groupService.GetGroup(userID, groupID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(detail)
}

func (h *GroupHandler) EditGroup(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.GroupInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	group, err := h.groupService.EditGroup(userID, groupID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(groupResponse(group))
}

func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return httpx.FromError(c, err)
	}

	if err := h.groupService.DeleteGroup(c.UserContext(), userID, groupID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Group deleted")
}

func (h *GroupHandler) GetUserGroups(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groups, err := h.groupService.GetUserGroups(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(groups)
}

func (h *GroupHandler) SearchByName(c *fiber.Ctx) error {
	return h.search(c, service.SearchByName)
}

func (h *GroupHandler) SearchByCategory(c *fiber.Ctx) error {
	return h.search(c, service.SearchByCategory)
}

// search answers with a bare JSON array; no match is [].
func (h *GroupHandler) search(c *fiber.Ctx, field service.SearchField) error {
	page := service.Page{
		Number: c.QueryInt("pn", 1),
		Size:   c.QueryInt("ps", service.DefaultPageSize),
	}
	groups, err := h.groupService.Search(field, c.Params("q"), page)
	if err != nil {
		return httpx.FromError(c, err)
	}

	out := make([]models.GroupResponse, 0, len(groups))
	for i := range groups {
		out = append(out, groupResponse(&groups[i]))
	}
	return c.JSON(out)
}
