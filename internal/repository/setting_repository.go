package repository

import (
	"time"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	DB *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{DB: db}
}

// key 是 mysql 保留字，条件一律交给 gorm 生成以便正确加引号
func (r *SettingRepository) Get(key string) (*model.Setting, error) {
	var s model.Setting
	err := r.DB.Where(&model.Setting{Key: key}).First(&s).Error
	return &s, err
}

func (r *SettingRepository) List() ([]model.Setting, error) {
	var ss []model.Setting
	err := r.DB.Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&ss).Error
	return ss, err
}

func (r *SettingRepository) Upsert(key, value string) error {
	s := model.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&s).Error
}

func (r *SettingRepository) Delete(key string) error {
	return r.DB.Delete(&model.Setting{Key: key}).Error
}
