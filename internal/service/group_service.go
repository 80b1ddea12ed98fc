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

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

type GroupService struct {
	groupRepo   repository.GroupRepositoryInterface
	postRepo    repository.PostRepositoryInterface
	memberships *MembershipService
	objects     ObjectStore
	log         *slog.Logger
}

func NewGroupService(
	groupRepo repository.GroupRepositoryInterface,
	postRepo repository.PostRepositoryInterface,
	memberships *MembershipService,
	objects ObjectStore,
	log *slog.Logger,
) *GroupService {
	return &GroupService{
		groupRepo:   groupRepo,
		postRepo:    postRepo,
		memberships: memberships,
		objects:     objects,
		log:         log,
	}
}

type GroupInput struct {
	Name        string `json:"groupName" form:"groupName" validate:"notblank,max=100"`
	Location    string `json:"groupLocation" form:"groupLocation" validate:"notblank,max=100"`
	Category    string `json:"groupCategory" form:"groupCategory" validate:"notblank,max=100"`
	Description string `json:"groupDescription" form:"groupDescription" validate:"notblank,max=2000"`
	Access      string `json:"groupAccess" form:"groupAccess" validate:"access"`
}

func (in *GroupInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
}

func (s *GroupService) CreateGroup(ownerID uint, input GroupInput) (*models.Group, error) {
	input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	access, _ := models.ParseAccessMode(input.Access)

	group := &models.Group{
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Location:    input.Location,
		Access:      access,
		OwnerID:     ownerID,
	}
	if err := s.groupRepo.Create(group); err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	if err := s.memberships.Invalidate(ownerID); err != nil {
		return nil, err
	}

	s.log.Info("group created", "group_id", group.ID, "owner_id", ownerID, "access", group.Access)
	return group, nil
}

// GetGroup returns the group page. Only members may view it.
func (s *GroupService) GetGroup(userID, groupID uint) (*models.GroupDetailResponse, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, lookupErr(err, ErrGroupNotFound)
	}
	member, err := s.memberships.IsMember(userID, groupID)
	if err != nil {
		return nil, err
	}
	if !member && !group.IsOwner(userID) {
		return nil, ErrNotMember
	}

	posts, err := s.postRepo.ListByGroup(groupID)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	feed := make([]models.PostResponse, 0, len(posts))
	for i := range posts {
		feed = append(feed, posts[i].ToResponse())
	}

	return &models.GroupDetailResponse{
		GroupResponse: group.ToResponse(),
		OwnerUsername: group.Owner.Username,
		IsOwner:       group.IsOwner(userID),
		Feed:          feed,
	}, nil
}

func (s *GroupService) EditGroup(userID, groupID uint, input GroupInput) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, lookupErr(err, ErrGroupNotFound)
	}
	if !group.IsOwner(userID) {
		return nil, apperr.Forbidden("not_owner", "Only the owner can edit the group")
	}

	input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	access, _ := models.ParseAccessMode(input.Access)

	group.Name = input.Name
	group.Description = input.Description
	group.Category = input.Category
	group.Location = input.Location
	group.Access = access
	if err := s.groupRepo.Update(group); err != nil {
		return nil, apperr.Internal("db_failed", err)
	}

	s.log.Info("group updated", "group_id", groupID, "owner_id", userID)
	return group, nil
}

// DeleteGroup removes the group and everything under it in one transaction.
func (s *GroupService) DeleteGroup(ctx context.Context, userID, groupID uint) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return lookupErr(err, ErrGroupNotFound)
	}
	if !group.IsOwner(userID) {
		return apperr.Forbidden("not_owner", "Only the owner can delete the group")
	}

	members, err := s.groupRepo.DeleteCascade(groupID)
	if err != nil {
		return lookupErr(err, ErrGroupNotFound)
	}
	removeObjects(ctx, s.objects, s.log, group.IconKey)
	if err := s.memberships.Invalidate(members...); err != nil {
		return err
	}

	s.log.Info("group deleted", "group_id", groupID, "owner_id", userID, "members", len(members))
	return nil
}

type SearchField string

const (
	SearchByName     SearchField = "name"
	SearchByCategory SearchField = "category"
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	p = p.normalize()
	return (p.Number - 1) * p.Size
}

// Search matches a case-insensitive substring. No match is an empty list.
func (s *GroupService) Search(field SearchField, query string, page Page) ([]models.Group, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("empty_query", "Search text is required")
	}
	page = page.normalize()

	var (
		groups []models.Group
		err    error
	)
	switch field {
	case SearchByName:
		groups, err = s.groupRepo.SearchByName(query, page.Offset(), page.Size)
	case SearchByCategory:
		groups, err = s.groupRepo.SearchByCategory(query, page.Offset(), page.Size)
	default:
		return nil, apperr.Validation("invalid_search_field", "Unknown search field")
	}
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return groups, nil
}

type UserGroups struct {
	Joined []models.GroupSummary `json:"joined_groups"`
	Owned  []models.GroupSummary `json:"owned_groups"`
}

// GetUserGroups splits the caller's groups into joined and owned.
func (s *GroupService) GetUserGroups(userID uint) (*UserGroups, error) {
	owned, err := s.groupRepo.ListOwnedBy(userID)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	joined, err := s.groupRepo.ListJoinedBy(userID)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	return &UserGroups{Joined: summaries(joined), Owned: summaries(owned)}, nil
}

func summaries(groups []models.Group) []models.GroupSummary {
	out := make([]models.GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.GroupSummary{ID: g.ID, Name: g.Name})
	}
	return out
}
