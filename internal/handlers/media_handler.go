package handlers

import (
	"bufio"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/httpx"
	"github.com/noteduco342/groupmeet-backend/internal/service"
)

type MediaHandler struct {
	iconService *service.IconService
	log         *slog.Logger
}

func NewMediaHandler(iconService *service.IconService, log *slog.Logger) *MediaHandler {
	return &MediaHandler{iconService: iconService, log: log}
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, "\"")
	return v
}

// UploadGroupIcon handles PUT /groups/:group_id/settings/icon with an "icon" form file.
func (h *MediaHandler) UploadGroupIcon(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return httpx.FromError(c, err)
	}
	groupID, err := httpx.ParamUint(c, "group_id")
	if err != nil {
		return httpx.FromError(c, err)
	}

	fileHeader, err := c.FormFile("icon")
	if err != nil {
		return httpx.BadRequest(c, "missing_icon", "icon file is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_icon", "Invalid icon upload")
	}
	defer f.Close()

	group, err := h.iconService.UploadIcon(c.UserContext(), userID, groupID, f)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"group": groupResponse(group)})
}

// GetGroupIcon streams GET /media/groups/*.
func (h *MediaHandler) GetGroupIcon(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Params("*"))
	obj, st, err := h.iconService.OpenIcon(c.UserContext(), key)
	if err != nil {
		return httpx.FromError(c, err)
	}

	if st.ETag != "" {
		c.Set(fiber.HeaderETag, "\""+st.ETag+"\"")
		if inm := normalizeETag(c.Get(fiber.HeaderIfNoneMatch)); inm != "" && inm == normalizeETag(st.ETag) {
			_ = obj.Close()
			return c.SendStatus(fiber.StatusNotModified)
		}
	}
	if !st.LastModified.IsZero() {
		c.Set(fiber.HeaderLastModified, st.LastModified.UTC().Format(time.RFC1123))
	}

	// Keys are content-unique, a new upload gets a new key.
	c.Set(fiber.HeaderCacheControl, "private, max-age=31536000, immutable")
	contentType := st.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Set(fiber.HeaderContentType, contentType)
	if st.Size > 0 {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(st.Size, 10))
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			_ = obj.Close()
		}()

		n, copyErr := io.Copy(w, obj)
		if copyErr == nil {
			copyErr = w.Flush()
		}
		if copyErr != nil {
			h.log.Warn("icon stream failed", "key", key, "copied", n, "error", copyErr)
		}
	})
	return nil
}
