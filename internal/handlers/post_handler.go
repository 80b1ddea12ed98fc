package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

type createPostRequest struct {
	GroupID     string `json:"-" form:"group_id"`
	Title       string `json:"post_title" form:"post_title"`
	Message     string `json:"post_message" form:"post_message"`
	EventButton string `json:"event_button" form:"event_button"`
	EventDate   string `json:"event_date" form:"event_date"`
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if c.Is("json") {
		// group_id may arrive as a JSON number or a string.
		var raw struct {
			GroupID json.Number `json:"group_id"`
		}
		if err := json.Unmarshal(c.Body(), &raw); err == nil {
			req.GroupID = raw.GroupID.String()
		}
	}
	groupID, err := strconv.ParseUint(strings.TrimSpace(req.GroupID), 10, 64)
	if err != nil || groupID == 0 {
		return httpx.FromError(c, apperr.Validation("missing_group", "A group must be selected"))
	}

	post, err := h.postService.CreatePost(userID, service.CreatePostInput{
		GroupID: uint(groupID),
		PostInput: service.PostInput{
			Title:       req.Title,
			Message:     req.Message,
			EventButton: req.EventButton,
			EventDate:   req.EventDate,
		},
	})
	if err != nil {
		return httpx.FromError(c, err)
	}

	resp := post.ToResponse()
	resp.CreatorUsername = currentUsername(c)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	post, err := h.postService.GetPost(userID, groupID, postID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(post)
}

func (h *PostHandler) EditPost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.PostInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	post, err := h.postService.EditPost(userID, groupID, postID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(post.ToResponse())
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}

	if err := h.postService.DeletePost(userID, groupID, postID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Post deleted")
}

func (h *PostHandler) AddComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.CommentInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	comment, err := h.postService.AddComment(userID, groupID, postID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	resp := comment.ToResponse()
	resp.Username = currentUsername(c)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *PostHandler) EditComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	commentID, err := httpx.ParamUint(c, "comment_id")
	if err != nil {
		return httpx.FromError(c, err)
	}
	var input service.CommentInput
	if err := c.BodyParser(&input); err != nil {
		return invalidBody(c)
	}

	comment, err := h.postService.EditComment(userID, groupID, postID, commentID, input)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(comment.ToResponse())
}

func (h *PostHandler) DeleteComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, postID, err := groupAndPost(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	commentID, err := httpx.ParamUint(c, "comment_id")
	if err != nil {
		return httpx.FromError(c, err)
	}

	if err := h.postService.DeleteComment(userID, groupID, postID, commentID); err != nil {
		return httpx.FromError(c, err)
	}
	return httpx.Message(c, fiber.StatusOK, "Comment deleted")
}
