package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) FindEnrollment(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	return &e, err
}

func (r *EnrollmentRepository) LockEnrollment(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := forUpdate(r.DB).Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	return &e, err
}

// CreateEnrollment 重复报名返回 gorm.ErrDuplicatedKey
func (r *EnrollmentRepository) CreateEnrollment(e *model.Enrollment) error {
	return createOnce(r.DB, e)
}

func (r *EnrollmentRepository) SaveEnrollment(e *model.Enrollment) error {
	return r.DB.Omit("Course").Save(e).Error
}

// EnrollmentsByCourses 以课程ID为键，未报名的课程不在结果中
func (r *EnrollmentRepository) EnrollmentsByCourses(userID uint, courseIDs []uint) (map[uint]model.Enrollment, error) {
	out := make(map[uint]model.Enrollment, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}
	var rows []model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id IN ?", userID, courseIDs).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, e := range rows {
		out[e.CourseID] = e
	}
	return out, nil
}

func (r *EnrollmentRepository) ListEnrollmentsByUser(userID uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.Preload("Course").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&es).Error
	return es, err
}

func (r *EnrollmentRepository) ListEnrollmentsByCourse(courseID uint, page, limit int) ([]model.Enrollment, int64, error) {
	var es []model.Enrollment
	var total int64
	query := r.DB.Model(&model.Enrollment{}).Where("course_id = ?", courseID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("enrolled_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&es).Error
	return es, total, err
}
