package repository

import (
	"context"
	"time"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

// EventStore 培训活动报名在事务内锁住活动行，保证名额不超卖
type EventStore interface {
	Create(e *model.TrainingEvent) error
	FindByID(id uint) (*model.TrainingEvent, error)
	Lock(id uint) (*model.TrainingEvent, error)
	Update(e *model.TrainingEvent) error
	Delete(id uint) error
	List(publishedOnly bool, upcomingFrom time.Time, page, limit int) ([]model.TrainingEvent, int64, error)
	CountActiveRegistrations(eventID uint) (int64, error)
	FindRegistration(eventID, userID uint) (*model.EventRegistration, error)
	SaveRegistration(reg *model.EventRegistration) error
	ListRegistrations(eventID uint) ([]model.EventRegistration, error)
	ListRegistrationsByUser(userID uint) ([]model.EventRegistration, error)

	Transaction(ctx context.Context, fn func(tx EventStore) error) error
}

type TrainingEventRepository struct {
	DB *gorm.DB
}

var _ EventStore = (*TrainingEventRepository)(nil)

func NewTrainingEventRepository(db *gorm.DB) *TrainingEventRepository {
	return &TrainingEventRepository{DB: db}
}

func (r *TrainingEventRepository) Transaction(ctx context.Context, fn func(tx EventStore) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewTrainingEventRepository(tx))
	})
}

func (r *TrainingEventRepository) Create(e *model.TrainingEvent) error {
	return r.DB.Create(e).Error
}

func (r *TrainingEventRepository) FindByID(id uint) (*model.TrainingEvent, error) {
	var e model.TrainingEvent
	err := r.DB.First(&e, id).Error
	return &e, err
}

func (r *TrainingEventRepository) Lock(id uint) (*model.TrainingEvent, error) {
	var e model.TrainingEvent
	err := forUpdate(r.DB).First(&e, id).Error
	return &e, err
}

func (r *TrainingEventRepository) Update(e *model.TrainingEvent) error {
	return r.DB.Save(e).Error
}

func (r *TrainingEventRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.EventRegistration{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.TrainingEvent{}, id).Error
	})
}

// List upcomingFrom 非零时只返回该时间之后结束的活动
func (r *TrainingEventRepository) List(publishedOnly bool, upcomingFrom time.Time, page, limit int) ([]model.TrainingEvent, int64, error) {
	var es []model.TrainingEvent
	var total int64
	query := r.DB.Model(&model.TrainingEvent{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if !upcomingFrom.IsZero() {
		query = query.Where("ends_at >= ?", upcomingFrom)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("starts_at ASC").Offset((page - 1) * limit).Limit(limit).Find(&es).Error
	return es, total, err
}

func (r *TrainingEventRepository) CountActiveRegistrations(eventID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.EventRegistration{}).
		Where("event_id = ? AND status = ?", eventID, model.RegistrationActive).
		Count(&count).Error
	return count, err
}

func (r *TrainingEventRepository) FindRegistration(eventID, userID uint) (*model.EventRegistration, error) {
	var reg model.EventRegistration
	err := r.DB.Where("event_id = ? AND user_id = ?", eventID, userID).First(&reg).Error
	return &reg, err
}

func (r *TrainingEventRepository) SaveRegistration(reg *model.EventRegistration) error {
	if reg.ID == 0 {
		return createOnce(r.DB, reg)
	}
	return r.DB.Omit("User").Save(reg).Error
}

func (r *TrainingEventRepository) ListRegistrations(eventID uint) ([]model.EventRegistration, error) {
	var regs []model.EventRegistration
	err := r.DB.Preload("User").
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&regs).Error
	return regs, err
}

func (r *TrainingEventRepository) ListRegistrationsByUser(userID uint) ([]model.EventRegistration, error) {
	var regs []model.EventRegistration
	err := r.DB.Where("user_id = ? AND status = ?", userID, model.RegistrationActive).
		Order("id DESC").
		Find(&regs).Error
	return regs, err
}
