package repository

import (
	"time"

	"github.com/noteduco342/groupmeet-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CalendarFilter narrows the calendar query.
type CalendarFilter struct {
	// RSVPOnly keeps only events the user has said they attend.
	RSVPOnly bool
	// From drops events before this instant when set.
	From *time.Time
}

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(post *models.Post) error {
	return r.db.Omit(clause.Associations).Create(post).Error
}

func (r *PostRepository) FindByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.Joins("Author").Joins("Group").First(&post, "posts.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) Update(post *models.Post) error {
	return r.db.Omit(clause.Associations).Save(post).Error
}

func (r *PostRepository) DeleteCascade(postID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *PostRepository) ListByGroup(groupID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Joins("Author").Joins("Group").
		Where("posts.group_id = ?", groupID).
		Order("posts.created_at DESC, posts.id DESC").
		Find(&posts).Error
	return posts, err
}

// Feed returns posts from every group the user belongs to, newest first.
// Authors and groups are joined in the same statement so a concurrent
// cascade is seen either entirely or not at all.
func (r *PostRepository) Feed(userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Joins("Author").Joins("Group").
		Where("posts.group_id IN (?)", r.memberGroups(userID)).
		Order("posts.created_at DESC, posts.id DESC").
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) Calendar(userID uint, filter CalendarFilter) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.Joins("Author").Joins("Group").
		Where("posts.is_event = ? AND posts.event_at IS NOT NULL", true).
		Where("posts.group_id IN (?)", r.memberGroups(userID))
	if filter.RSVPOnly {
		q = q.Where("posts.id IN (?)", r.db.Model(&models.Attendance{}).Select("post_id").Where("user_id = ?", userID))
	}
	if filter.From != nil {
		q = q.Where("posts.event_at >= ?", *filter.From)
	}
	err := q.Order("posts.event_at ASC, posts.id ASC").Find(&posts).Error
	return posts, err
}

func (r *PostRepository) memberGroups(userID uint) *gorm.DB {
	return r.db.Model(&models.Membership{}).Select("group_id").Where("user_id = ?", userID)
}
