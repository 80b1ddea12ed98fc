package service

import (
	"errors"

	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"gorm.io/gorm"
)

var (
	ErrGroupNotFound   = apperr.NotFound("group_not_found", "Group not found")
	ErrPostNotFound    = apperr.NotFound("post_not_found", "Post not found")
	ErrCommentNotFound = apperr.NotFound("comment_not_found", "Comment not found")
	ErrUserNotFound    = apperr.NotFound("user_not_found", "User not found")
	ErrRequestNotFound = apperr.NotFound("request_not_found", "Join request not found")

	ErrNotMember = apperr.Forbidden("not_member", "You are not a member of this group")
	ErrNotOwner  = apperr.Forbidden("not_owner", "Only the group owner can do this")

	ErrInvalidToken       = apperr.Auth("invalid_token", "Invalid or expired token")
	ErrInvalidCredentials = apperr.Auth("invalid_credentials", "Invalid username or password")
)

// lookupErr turns a repository lookup failure into notFound or an internal error.
func lookupErr(err error, notFound *apperr.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperr.Internal("db_failed", err)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
