package repository

import (
	"time"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) CreateNotification(n *model.Notification) error {
	return r.DB.Create(n).Error
}

func (r *NotificationRepository) ListNotifications(userID uint, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	var ns []model.Notification
	var total int64
	query := r.DB.Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&ns).Error
	return ns, total, err
}

func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// MarkRead 返回实际更新的行数，0 表示不存在或已读
func (r *NotificationRepository) MarkRead(userID, id uint, at time.Time) (int64, error) {
	res := r.DB.Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) MarkAllRead(userID uint, at time.Time) (int64, error) {
	res := r.DB.Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}
