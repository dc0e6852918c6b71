package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type AIDraftRepository struct {
	DB *gorm.DB
}

func NewAIDraftRepository(db *gorm.DB) *AIDraftRepository {
	return &AIDraftRepository{DB: db}
}

func (r *AIDraftRepository) Create(d *model.AIDraft) error {
	return r.DB.Create(d).Error
}

func (r *AIDraftRepository) FindByID(id uint) (*model.AIDraft, error) {
	var d model.AIDraft
	err := r.DB.First(&d, id).Error
	return &d, err
}

func (r *AIDraftRepository) Update(d *model.AIDraft) error {
	return r.DB.Save(d).Error
}

func (r *AIDraftRepository) List(kind model.AIDraftKind, page, limit int) ([]model.AIDraft, int64, error) {
	var ds []model.AIDraft
	var total int64
	query := r.DB.Model(&model.AIDraft{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&ds).Error
	return ds, total, err
}
