package repository

import (
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) AddMember(groupID, userID uint, role models.MemberRole) error {
	member := models.Membership{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
	}
	return r.db.Create(&member).Error
}

// RemoveMember reports whether a membership row existed.
func (r *MembershipRepository) RemoveMember(groupID, userID uint) (bool, error) {
	res := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.Membership{})
	return res.RowsAffected > 0, res.Error
}

func (r *MembershipRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Membership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *MembershipRepository) GroupIDsForUser(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Membership{}).
		Where("user_id = ?", userID).
		Order("group_id ASC").
		Pluck("group_id", &ids).Error
	return ids, err
}

func (r *MembershipRepository) GetMembers(groupID uint) ([]models.User, error) {
	var members []models.User
	err := r.db.Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.group_id = ?", groupID).
		Order("users.username ASC").
		Find(&members).Error
	return members, err
}

func (r *MembershipRepository) CreateJoinRequest(req *models.JoinRequest) error {
	return r.db.Create(req).Error
}

func (r *MembershipRepository) FindPendingRequest(groupID, userID uint) (*models.JoinRequest, error) {
	var req models.JoinRequest
	err := r.db.Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.JoinPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *MembershipRepository) ListPendingRequests(groupID uint) ([]models.JoinRequest, error) {
	var reqs []models.JoinRequest
	err := r.db.Preload("User").
		Where("group_id = ? AND status = ?", groupID, models.JoinPending).
		Order("created_at ASC, id ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *MembershipRepository) AcceptRequest(groupID, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := deletePending(tx, groupID, userID); err != nil {
			return err
		}
		member := models.Membership{
			GroupID: groupID,
			UserID:  userID,
			Role:    models.RoleMember,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
	})
}

func (r *MembershipRepository) RejectRequest(groupID, userID uint) error {
	return deletePending(r.db, groupID, userID)
}

// deletePending removes the pending request or returns gorm.ErrRecordNotFound
// when another decision already consumed it.
func deletePending(db *gorm.DB, groupID, userID uint) error {
	res := db.Where("group_id = ? AND user_id = ? AND status = ?", groupID, userID, models.JoinPending).
		Delete(&models.JoinRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
