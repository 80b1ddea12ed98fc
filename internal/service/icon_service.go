package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/repository"
	"github.com/noteduco342/groupmeet-backend/internal/storage"
)

// ObjectStore is the part of object storage the services use.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) (storage.ObjectStat, error)
	GetObject(ctx context.Context, key string) (io.ReadCloser, storage.ObjectStat, error)
	DeleteObject(ctx context.Context, key string) error
}

var ErrStorageNotConfigured = apperr.Unavailable("storage_not_configured", "Icon storage is not configured")

type IconService struct {
	groupRepo repository.GroupRepositoryInterface
	objects   ObjectStore
	baseURL   string
	log       *slog.Logger
}

func NewIconService(groupRepo repository.GroupRepositoryInterface, objects ObjectStore, publicAPIBaseURL string, log *slog.Logger) *IconService {
	return &IconService{
		groupRepo: groupRepo,
		objects:   objects,
		baseURL:   strings.TrimRight(strings.TrimSpace(publicAPIBaseURL), "/"),
		log:       log,
	}
}

// UploadIcon processes an uploaded image and stores it as the group's JPEG icon.
func (s *IconService) UploadIcon(ctx context.Context, userID, groupID uint, file io.Reader) (*models.Group, error) {
	if s.objects == nil {
		return nil, ErrStorageNotConfigured
	}

	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, lookupErr(err, ErrGroupNotFound)
	}
	if !group.IsOwner(userID) {
		return nil, apperr.Forbidden("not_owner", "Only the owner can change the group icon")
	}

	icon, err := storage.ProcessIcon(file, storage.DefaultIconOptions())
	if err != nil {
		return nil, imageErr(err)
	}

	key := fmt.Sprintf("%s/%d/%s.jpg", storage.IconPrefix, groupID, uuid.NewString())
	if _, err := s.objects.PutObject(ctx, key, bytes.NewReader(icon.Data), icon.Size(), icon.ContentType); err != nil {
		return nil, apperr.Internal("storage_failed", err)
	}

	// Keep old key; delete only after DB update succeeds.
	oldKey := strings.TrimSpace(group.IconKey)
	group.IconKey = key
	group.IconURL = s.baseURL + "/api/media/" + key

	if err := s.groupRepo.Update(group); err != nil {
		_ = s.objects.DeleteObject(ctx, key)
		return nil, apperr.Internal("db_failed", err)
	}
	if oldKey != "" && oldKey != key {
		removeObjects(ctx, s.objects, s.log, oldKey)
	}

	s.log.Info("group icon updated", "group_id", groupID, "bytes", icon.Size())
	return group, nil
}

// OpenIcon streams a stored icon. Callers must close the reader.
func (s *IconService) OpenIcon(ctx context.Context, key string) (io.ReadCloser, storage.ObjectStat, error) {
	if s.objects == nil {
		return nil, storage.ObjectStat{}, ErrStorageNotConfigured
	}
	safe, err := storage.SafeJoinKey(storage.IconPrefix, key)
	if err != nil {
		return nil, storage.ObjectStat{}, apperr.Validation("invalid_key", "Invalid media key")
	}
	body, stat, err := s.objects.GetObject(ctx, safe)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, storage.ObjectStat{}, apperr.NotFound("media_not_found", "Media not found")
		}
		return nil, storage.ObjectStat{}, apperr.Internal("storage_failed", err)
	}
	return body, stat, nil
}

func imageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return apperr.Validation("image_too_large", "Image is too large")
	case errors.Is(err, storage.ErrUnsupported):
		return apperr.Validation("unsupported_image", "Image must be JPEG, PNG or WebP")
	default:
		return apperr.Validation("invalid_image", "Image could not be read")
	}
}

// removeObjects deletes stored objects best-effort.
func removeObjects(ctx context.Context, objects ObjectStore, log *slog.Logger, keys ...string) {
	if objects == nil {
		return
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := objects.DeleteObject(ctx, key); err != nil {
			log.Warn("object delete failed", "key", key, "error", err)
		}
	}
}
