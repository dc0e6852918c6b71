package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) FindCertificate(userID uint, typ model.CertificateType, refID uint) (*model.Certificate, error) {
	var c model.Certificate
	err := r.DB.Where("user_id = ? AND type = ? AND reference_id = ?", userID, typ, refID).First(&c).Error
	return &c, err
}

// CreateCertificate (user, type, reference) 已存在时返回 gorm.ErrDuplicatedKey
func (r *CertificateRepository) CreateCertificate(c *model.Certificate) error {
	return createOnce(r.DB, c)
}

func (r *CertificateRepository) FindCertificateByID(id uint) (*model.Certificate, error) {
	var c model.Certificate
	err := r.DB.First(&c, id).Error
	return &c, err
}

func (r *CertificateRepository) FindCertificateByNumber(number string) (*model.Certificate, error) {
	var c model.Certificate
	err := r.DB.Where("number = ?", number).First(&c).Error
	return &c, err
}

func (r *CertificateRepository) ListCertificatesByUser(userID uint) ([]model.Certificate, error) {
	var cs []model.Certificate
	err := r.DB.Where("user_id = ?", userID).Order("issued_at DESC").Find(&cs).Error
	return cs, err
}

func (r *CertificateRepository) ListCertificates(typ model.CertificateType, page, limit int) ([]model.Certificate, int64, error) {
	var cs []model.Certificate
	var total int64
	query := r.DB.Model(&model.Certificate{})
	if typ != "" {
		query = query.Where("type = ?", typ)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("issued_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&cs).Error
	return cs, total, err
}

func (r *CertificateRepository) SaveCertificate(c *model.Certificate) error {
	return r.DB.Save(c).Error
}
