package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/repository"
	"github.com/noteduco342/groupmeet-backend/internal/validation"
)

type UserService struct {
	userRepo    repository.UserRepositoryInterface
	groupRepo   repository.GroupRepositoryInterface
	memberships *MembershipService
	objects     ObjectStore
	log         *slog.Logger
}

func NewUserService(
	userRepo repository.UserRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	memberships *MembershipService,
	objects ObjectStore,
	log *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		groupRepo:   groupRepo,
		memberships: memberships,
		objects:     objects,
		log:         log,
	}
}

type UpdateProfileInput struct {
	FirstName string `json:"firstName" form:"firstName" validate:"omitempty,max=80"`
	LastName  string `json:"lastName" form:"lastName" validate:"omitempty,max=80"`
	Email     string `json:"email" form:"email" validate:"omitempty,email"`
}

func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound)
	}
	return user, nil
}

// UpdateProfile changes only the fields that were sent.
func (s *UserService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = validation.NormalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound)
	}

	if input.Email != "" && input.Email != user.Email {
		if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
			return nil, apperr.Validation("email_taken", "Email already in use")
		}
		user.Email = input.Email
	}
	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}

	if err := s.userRepo.Update(user); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Validation("email_taken", "Email already in use")
		}
		return nil, apperr.Internal("db_failed", err)
	}
	s.log.Info("profile updated", "user_id", userID)
	return user, nil
}

// DeleteAccount removes the caller and everything they own.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.deleteUser(ctx, userID)
}

// AdminDeleteUser lets an admin remove another account.
func (s *UserService) AdminDeleteUser(ctx context.Context, adminID, targetID uint) error {
	admin, err := s.userRepo.FindByID(adminID)
	if err != nil {
		return lookupErr(err, ErrUserNotFound)
	}
	if !admin.IsAdmin() {
		return apperr.Forbidden("admin_required", "Admin access required")
	}
	if adminID == targetID {
		return apperr.Conflict("delete_self", "Use delete_account to remove your own account")
	}
	if err := s.deleteUser(ctx, targetID); err != nil {
		return err
	}
	s.log.Info("admin deleted user", "admin_id", adminID, "user_id", targetID)
	return nil
}

func (s *UserService) deleteUser(ctx context.Context, userID uint) error {
	owned, err := s.groupRepo.ListOwnedBy(userID)
	if err != nil {
		return apperr.Internal("db_failed", err)
	}

	affected, err := s.userRepo.DeleteCascade(userID)
	if err != nil {
		return lookupErr(err, ErrUserNotFound)
	}
	keys := make([]string, 0, len(owned))
	for _, g := range owned {
		keys = append(keys, g.IconKey)
	}
	removeObjects(ctx, s.objects, s.log, keys...)
	if err := s.memberships.Invalidate(affected...); err != nil {
		return err
	}

	s.log.Info("user deleted", "user_id", userID, "groups_removed", len(owned))
	return nil
}
