package service

import (
	"errors"
	"log/slog"

	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/cache"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/repository"
	"gorm.io/gorm"
)

// JoinOutcome tells the caller which branch Join took.
type JoinOutcome string

const (
	JoinedGroup     JoinOutcome = "joined"
	RequestedToJoin JoinOutcome = "requested"
)

type MembershipService struct {
	groupRepo  repository.GroupRepositoryInterface
	memberRepo repository.MembershipRepositoryInterface
	cache      *cache.MembershipCache
	log        *slog.Logger
}

func NewMembershipService(
	groupRepo repository.GroupRepositoryInterface,
	memberRepo repository.MembershipRepositoryInterface,
	memberCache *cache.MembershipCache,
	log *slog.Logger,
) *MembershipService {
	return &MembershipService{
		groupRepo:  groupRepo,
		memberRepo: memberRepo,
		cache:      memberCache,
		log:        log,
	}
}

// Join is the single entry point used by the client: public groups are
// joined directly, private groups get a pending request.
func (s *MembershipService) Join(userID, groupID uint) (JoinOutcome, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return "", lookupErr(err, ErrGroupNotFound)
	}
	if group.IsPrivate() {
		return RequestedToJoin, s.requestToJoin(userID, group)
	}
	return JoinedGroup, s.joinPublic(userID, group)
}

func (s *MembershipService) JoinPublicGroup(userID, groupID uint) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return lookupErr(err, ErrGroupNotFound)
	}
	return s.joinPublic(userID, group)
}

func (s *MembershipService) RequestToJoin(userID, groupID uint) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return lookupErr(err, ErrGroupNotFound)
	}
	return s.requestToJoin(userID, group)
}

func (s *MembershipService) joinPublic(userID uint, group *models.Group) error {
	if group.IsPrivate() {
		return apperr.Conflict("group_private", "This group is private, send a join request instead")
	}
	if err := s.memberRepo.AddMember(group.ID, userID, models.RoleMember); err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("already_member", "You are already a member of this group")
		}
		return apperr.Internal("db_failed", err)
	}
	if err := s.Invalidate(userID); err != nil {
		return err
	}
	s.log.Info("joined group", "user_id", userID, "group_id", group.ID)
	return nil
}

func (s *MembershipService) requestToJoin(userID uint, group *models.Group) error {
	if !group.IsPrivate() {
		return apperr.Conflict("group_public", "This group is public, join it directly")
	}
	member, err := s.memberRepo.IsMember(group.ID, userID)
	if err != nil {
		return apperr.Internal("db_failed", err)
	}
	if member {
		return apperr.Conflict("already_member", "You are already a member of this group")
	}

	req := &models.JoinRequest{GroupID: group.ID, UserID: userID, Status: models.JoinPending}
	if err := s.memberRepo.CreateJoinRequest(req); err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("request_pending", "You have already sent a join request")
		}
		return apperr.Internal("db_failed", err)
	}
	s.log.Info("join requested", "user_id", userID, "group_id", group.ID)
	return nil
}

// requireOwner loads the group and checks that userID owns it.
func (s *MembershipService) requireOwner(userID, groupID uint) (*models.Group, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, lookupErr(err, ErrGroupNotFound)
	}
	if !group.IsOwner(userID) {
		return nil, ErrNotOwner
	}
	return group, nil
}

func (s *MembershipService) ListJoinRequests(ownerID, groupID uint) ([]models.JoinRequest, error) {
	if _, err := s.requireOwner(ownerID, groupID); err != nil {
		return nil, err
	}
	reqs, err := s.memberRepo.ListPendingRequests(groupID)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	return reqs, nil
}

// AcceptRequest admits requesterID. The pending row is consumed in the same
// transaction that creates the membership.
func (s *MembershipService) AcceptRequest(ownerID, groupID, requesterID uint) error {
	if _, err := s.requireOwner(ownerID, groupID); err != nil {
		return err
	}
	if err := s.memberRepo.AcceptRequest(groupID, requesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return apperr.Internal("db_failed", err)
	}
	if err := s.Invalidate(requesterID); err != nil {
		return err
	}
	s.log.Info("join request accepted", "group_id", groupID, "user_id", requesterID, "owner_id", ownerID)
	return nil
}

func (s *MembershipService) RejectRequest(ownerID, groupID, requesterID uint) error {
	if _, err := s.requireOwner(ownerID, groupID); err != nil {
		return err
	}
	if err := s.memberRepo.RejectRequest(groupID, requesterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		return apperr.Internal("db_failed", err)
	}
	s.log.Info("join request rejected", "group_id", groupID, "user_id", requesterID, "owner_id", ownerID)
	return nil
}

func (s *MembershipService) LeaveGroup(userID, groupID uint) error {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return lookupErr(err, ErrGroupNotFound)
	}
	if group.IsOwner(userID) {
		return apperr.Conflict("owner_cannot_leave", "The owner cannot leave their own group, delete it instead")
	}
	removed, err := s.memberRepo.RemoveMember(groupID, userID)
	if err != nil {
		return apperr.Internal("db_failed", err)
	}
	if !removed {
		return apperr.NotFound("not_member", "You are not a member of this group")
	}
	if err := s.Invalidate(userID); err != nil {
		return err
	}
	s.log.Info("left group", "user_id", userID, "group_id", groupID)
	return nil
}

// GroupIDs returns the ids of every group the user belongs to, owned ones
// included. Served from the cache when possible. The generation is read
// before the database so a concurrent invalidation wins over this write.
func (s *MembershipService) GroupIDs(userID uint) ([]uint, error) {
	gen, cached := s.cache.Generation(userID)
	if cached {
		if ids, ok := s.cache.GetGroupIDs(userID); ok {
			return ids, nil
		}
	}
	ids, err := s.memberRepo.GroupIDsForUser(userID)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	if cached {
		if _, err := s.cache.SetGroupIDs(userID, ids, gen); err != nil {
			s.log.Warn("membership cache write failed", "user_id", userID, "error", err)
		}
	}
	return ids, nil
}

// IsMember answers read-path checks from the cached group list.
func (s *MembershipService) IsMember(userID, groupID uint) (bool, error) {
	ids, err := s.GroupIDs(userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == groupID {
			return true, nil
		}
	}
	return false, nil
}

// IsMemberStrict always asks the database. Used before writes.
func (s *MembershipService) IsMemberStrict(userID, groupID uint) (bool, error) {
	ok, err := s.memberRepo.IsMember(groupID, userID)
	if err != nil {
		return false, apperr.Internal("db_failed", err)
	}
	return ok, nil
}

// RequireMember is the strict check for writes that name a group directly.
// An unknown group is reported as not found rather than forbidden.
func (s *MembershipService) RequireMember(userID, groupID uint) error {
	member, err := s.IsMemberStrict(userID, groupID)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	if _, err := s.groupRepo.FindByID(groupID); err != nil {
		return lookupErr(err, ErrGroupNotFound)
	}
	return ErrNotMember
}

// Invalidate drops cached group lists for the given users. It runs after
// the database change has committed; a failure is returned so the caller
// does not report success while a stale list may still be served.
func (s *MembershipService) Invalidate(userIDs ...uint) error {
	if err := s.cache.Invalidate(userIDs...); err != nil {
		s.log.Error("membership cache invalidation failed", "user_ids", userIDs, "error", err)
		return apperr.Internal("cache_invalidation_failed", err)
	}
	return nil
}
