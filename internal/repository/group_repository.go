package repository

import (
	"strings"

	"github.com/noteduco342/groupmeet-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(group *models.Group) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(group).Error; err != nil {
			return err
		}
		owner := models.Membership{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    models.RoleOwner,
		}
		return tx.Create(&owner).Error
	})
}

func (r *GroupRepository) FindByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.Preload("Owner").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) Update(group *models.Group) error {
	return r.db.Omit(clause.Associations).Save(group).Error
}

func (r *GroupRepository) DeleteCascade(groupID uint) ([]uint, error) {
	var members []uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		members, err = deleteGroupTx(tx, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// deleteGroupTx removes a group and everything hanging off it inside tx.
func deleteGroupTx(tx *gorm.DB, groupID uint) ([]uint, error) {
	var group models.Group
	if err := tx.First(&group, groupID).Error; err != nil {
		return nil, err
	}

	var members []uint
	if err := tx.Model(&models.Membership{}).Where("group_id = ?", groupID).Pluck("user_id", &members).Error; err != nil {
		return nil, err
	}

	posts := func() *gorm.DB {
		return tx.Model(&models.Post{}).Select("id").Where("group_id = ?", groupID)
	}
	if err := tx.Where("post_id IN (?)", posts()).Delete(&models.Comment{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("post_id IN (?)", posts()).Delete(&models.Attendance{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("group_id = ?", groupID).Delete(&models.Post{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("group_id = ?", groupID).Delete(&models.JoinRequest{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("group_id = ?", groupID).Delete(&models.Membership{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&group).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *GroupRepository) SearchByName(query string, offset, limit int) ([]models.Group, error) {
	return r.search("name", query, offset, limit)
}

func (r *GroupRepository) SearchByCategory(query string, offset, limit int) ([]models.Group, error) {
	return r.search("category", query, offset, limit)
}

func (r *GroupRepository) search(column, query string, offset, limit int) ([]models.Group, error) {
	var groups []models.Group
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	err := r.db.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern).
		Order("name ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) ListOwnedBy(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Where("owner_id = ?", userID).Order("name ASC, id ASC").Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) ListJoinedBy(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Joins("JOIN memberships ON memberships.group_id = groups.id").
		Where("memberships.user_id = ? AND groups.owner_id <> ?", userID, userID).
		Order("groups.name ASC, groups.id ASC").
		Find(&groups).Error
	return groups, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
