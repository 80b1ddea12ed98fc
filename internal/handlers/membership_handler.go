package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

type MembershipHandler struct {
	memberships *service.MembershipService
}

func NewMembershipHandler(memberships *service.MembershipService) *MembershipHandler {
	return &MembershipHandler{memberships: memberships}
}

// Join handles PUT /:group_id/join for both public and private groups.
func (h *MembershipHandler) Join(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return httpx.FromError(c, err)
	}

	outcome, err := h.memberships.Join(userID, groupID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	message := "Joined group"
	if outcome == service.RequestedToJoin {
		message = "Request to join sent"
	}
	return c.JSON(fiber.Map{
		"status":  outcome,
		"message": message,
	})
}

func (h *MembershipHandler) ListJoinRequests(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return httpx.FromError(c, err)
	}

	reqs, err := h.memberships.ListJoinRequests(userID, groupID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	out := make([]models.JoinRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, reqs[i].ToResponse())
	}
	return c.JSON(fiber.Map{"requests": out})
}

// requestParams reads :group_id and :request_id. The request id is the
// requester's user id.
func requestParams(c *fiber.Ctx) (uint, uint, error) {
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return 0, 0, err
	}
	requesterID, err := httpx.ParamUint(c, "request_id")
	if err != nil {
		return 0, 0, err
	}
	return groupID, requesterID, nil
}

func (h *MembershipHandler) AcceptRequest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, requesterID, err := requestParams(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	if err := h.memberships.AcceptRequest(userID, groupID, requesterID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Request accepted")
}

func (h *MembershipHandler) RejectRequest(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, requesterID, err := requestParams(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	if err := h.memberships.RejectRequest(userID, groupID, requesterID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Request rejected")
}

func (h *MembershipHandler) LeaveGroup(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return httpx.FromError(c, err)
	}

	if err := h.memberships.LeaveGroup(userID, groupID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Left group")
}
