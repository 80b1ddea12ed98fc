package repository

import (
	"time"

	"github.com/noteduco342/groupmeet-backend/internal/models"
)

// UserRepositoryInterface defines the contract for user repository operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	FindByEmail(email string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id uint) (*models.User, error)
	Update(user *models.User) error
	// DeleteCascade removes the user, every group they own and all rows that
	// reference either. It returns the users whose group set changed.
	DeleteCascade(userID uint) ([]uint, error)
}

// RevokedTokenRepositoryInterface defines the contract for the logout blacklist
type RevokedTokenRepositoryInterface interface {
	Create(token *models.RevokedToken) error
	IsRevoked(jti string) (bool, error)
	DeleteExpired(before time.Time) (int64, error)
}

// GroupRepositoryInterface defines the contract for group repository operations
type GroupRepositoryInterface interface {
	// Create inserts the group and the owner's membership in one transaction.
	Create(group *models.Group) error
	FindByID(id uint) (*models.Group, error)
	Update(group *models.Group) error
	// DeleteCascade removes the group with its posts, comments, attendance,
	// memberships and join requests. It returns the former member ids.
	DeleteCascade(groupID uint) ([]uint, error)
	SearchByName(query string, offset, limit int) ([]models.Group, error)
	SearchByCategory(query string, offset, limit int) ([]models.Group, error)
	ListOwnedBy(userID uint) ([]models.Group, error)
	ListJoinedBy(userID uint) ([]models.Group, error)
}

// MembershipRepositoryInterface defines the contract for memberships and join requests
type MembershipRepositoryInterface interface {
	AddMember(groupID, userID uint, role models.MemberRole) error
	RemoveMember(groupID, userID uint) (bool, error)
	IsMember(groupID, userID uint) (bool, error)
	GroupIDsForUser(userID uint) ([]uint, error)
	GetMembers(groupID uint) ([]models.User, error)

	CreateJoinRequest(req *models.JoinRequest) error
	FindPendingRequest(groupID, userID uint) (*models.JoinRequest, error)
	ListPendingRequests(groupID uint) ([]models.JoinRequest, error)
	// AcceptRequest deletes the pending request and adds the membership atomically.
	AcceptRequest(groupID, userID uint) error
	RejectRequest(groupID, userID uint) error
}

// PostRepositoryInterface defines the contract for post repository operations
type PostRepositoryInterface interface {
	Create(post *models.Post) error
	FindByID(id uint) (*models.Post, error)
	Update(post *models.Post) error
	DeleteCascade(postID uint) error
	ListByGroup(groupID uint) ([]models.Post, error)
	Feed(userID uint) ([]models.Post, error)
	Calendar(userID uint, filter CalendarFilter) ([]models.Post, error)
}

// CommentRepositoryInterface defines the contract for comment repository operations
type CommentRepositoryInterface interface {
	Create(comment *models.Comment) error
	FindByID(id uint) (*models.Comment, error)
	Update(comment *models.Comment) error
	Delete(id uint) error
	ListByPost(postID uint) ([]models.Comment, error)
}

// AttendanceRepositoryInterface defines the contract for event RSVPs
type AttendanceRepositoryInterface interface {
	Add(postID, userID uint) error
	Remove(postID, userID uint) error
	ListAttendees(postID uint) ([]models.User, error)
	Count(postID uint) (int64, error)
}
