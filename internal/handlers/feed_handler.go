package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

func (h *FeedHandler) Home(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	feed, err := h.feedService.HomeFeed(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"feed": feed})
}

func (h *FeedHandler) MyCalendar(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	events, err := h.feedService.MyCalendar(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"calendar": events})
}

func (h *FeedHandler) RSVP(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	count, err := h.feedService.RSVP(userID, groupID, postID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"attending": true, "count": count})
}

func (h *FeedHandler) CancelRSVP(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	count, err := h.feedService.CancelRSVP(userID, groupID, postID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"attending": false, "count": count})
}

func (h *FeedHandler) Attendees(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	list, err := h.feedService.Attendees(userID, groupID, postID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(list)
}
