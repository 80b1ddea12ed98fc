package repository

import (
	"time"

	"github.com/noteduco342/groupmeet-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RevokedTokenRepository struct {
	db *gorm.DB
}

func NewRevokedTokenRepository(db *gorm.DB) *RevokedTokenRepository {
	return &RevokedTokenRepository{db: db}
}

// Create records the token id. Revoking the same token twice is a no-op.
func (r *RevokedTokenRepository) Create(token *models.RevokedToken) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jti"}},
		DoNothing: true,
	}).Create(token).Error
}

func (r *RevokedTokenRepository) IsRevoked(jti string) (bool, error) {
	var count int64
	err := r.db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

func (r *RevokedTokenRepository) DeleteExpired(before time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", before).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}
