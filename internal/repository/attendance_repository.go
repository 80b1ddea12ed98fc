package repository

import (
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Add is idempotent: a second RSVP for the same pair changes nothing.
func (r *AttendanceRepository) Add(postID, userID uint) error {
	row := models.Attendance{PostID: postID, UserID: userID}
	return r.db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (r *AttendanceRepository) Remove(postID, userID uint) error {
	return r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Attendance{}).Error
}

func (r *AttendanceRepository) ListAttendees(postID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Joins("JOIN attendances ON attendances.user_id = users.id").
		Where("attendances.post_id = ?", postID).
		Order("attendances.created_at ASC, users.id ASC").
		Find(&users).Error
	return users, err
}

func (r *AttendanceRepository) Count(postID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Attendance{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
