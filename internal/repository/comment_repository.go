package repository

import (
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(comment *models.Comment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

func (r *CommentRepository) FindByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Joins("Author").First(&comment, "comments.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) Update(comment *models.Comment) error {
	return r.db.Omit(clause.Associations).Save(comment).Error
}

func (r *CommentRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByPost returns comments oldest first.
func (r *CommentRepository) ListByPost(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Joins("Author").
		Where("comments.post_id = ?", postID).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error
	return comments, err
}
