package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type PointRepository struct {
	DB *gorm.DB
}

func NewPointRepository(db *gorm.DB) *PointRepository {
	return &PointRepository{DB: db}
}

// CreatePointHistory 同一来源重复奖励时返回 gorm.ErrDuplicatedKey
func (r *PointRepository) CreatePointHistory(h *model.PointHistory) error {
	return createOnce(r.DB, h)
}

func (r *PointRepository) ListPointHistory(userID uint, page, limit int) ([]model.PointHistory, int64, error) {
	var hs []model.PointHistory
	var total int64
	query := r.DB.Model(&model.PointHistory{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&hs).Error
	return hs, total, err
}

func (r *PointRepository) SumPoints(userID uint) (int64, error) {
	var sum int64
	err := r.DB.Model(&model.PointHistory{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	return sum, err
}
