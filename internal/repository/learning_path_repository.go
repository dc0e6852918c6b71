package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type LearningPathRepository struct {
	DB *gorm.DB
}

func NewLearningPathRepository(db *gorm.DB) *LearningPathRepository {
	return &LearningPathRepository{DB: db}
}

func (r *LearningPathRepository) CreatePath(p *model.LearningPath) error {
	return r.DB.Create(p).Error
}

func (r *LearningPathRepository) FindPathWithCourses(id uint) (*model.LearningPath, error) {
	var p model.LearningPath
	err := r.DB.
		Preload("Courses", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Courses.Course").
		First(&p, id).Error
	return &p, err
}

func (r *LearningPathRepository) ListPaths(publishedOnly bool, page, limit int) ([]model.LearningPath, int64, error) {
	var ps []model.LearningPath
	var total int64
	query := r.DB.Model(&model.LearningPath{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&ps).Error
	return ps, total, err
}

func (r *LearningPathRepository) UpdatePath(p *model.LearningPath) error {
	return r.DB.Omit("Courses").Save(p).Error
}

// ReplacePathCourses 按给定顺序重写路径中的课程，position 从 0 开始
func (r *LearningPathRepository) ReplacePathCourses(pathID uint, courseIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path_id = ?", pathID).Delete(&model.LearningPathCourse{}).Error; err != nil {
			return err
		}
		if len(courseIDs) == 0 {
			return nil
		}
		rows := make([]model.LearningPathCourse, len(courseIDs))
		for i, id := range courseIDs {
			rows[i] = model.LearningPathCourse{PathID: pathID, CourseID: id, Position: i}
		}
		return tx.Create(&rows).Error
	})
}

func (r *LearningPathRepository) DeletePath(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path_id = ?", id).Delete(&model.LearningPathCourse{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.LearningPath{}, id).Error
	})
}

func (r *LearningPathRepository) PathsContainingCourse(courseID uint) ([]model.LearningPath, error) {
	var ps []model.LearningPath
	sub := r.DB.Model(&model.LearningPathCourse{}).Select("path_id").Where("course_id = ?", courseID)
	err := r.DB.
		Preload("Courses", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Where("id IN (?)", sub).
		Find(&ps).Error
	return ps, err
}

func (r *LearningPathRepository) FindPathEnrollment(userID, pathID uint) (*model.PathEnrollment, error) {
	var pe model.PathEnrollment
	err := r.DB.Where("user_id = ? AND path_id = ?", userID, pathID).First(&pe).Error
	return &pe, err
}

func (r *LearningPathRepository) LockPathEnrollment(userID, pathID uint) (*model.PathEnrollment, error) {
	var pe model.PathEnrollment
	err := forUpdate(r.DB).Where("user_id = ? AND path_id = ?", userID, pathID).First(&pe).Error
	return &pe, err
}

func (r *LearningPathRepository) CreatePathEnrollment(pe *model.PathEnrollment) error {
	return createOnce(r.DB, pe)
}

func (r *LearningPathRepository) SavePathEnrollment(pe *model.PathEnrollment) error {
	return r.DB.Save(pe).Error
}

func (r *LearningPathRepository) OpenPathEnrollments(pathID uint) ([]model.PathEnrollment, error) {
	var pes []model.PathEnrollment
	err := forUpdate(r.DB).
		Where("path_id = ? AND status <> ?", pathID, model.PathEnrollmentCompleted).
		Order("id ASC").
		Find(&pes).Error
	return pes, err
}

func (r *LearningPathRepository) ListPathEnrollments(userID uint) ([]model.PathEnrollment, error) {
	var pes []model.PathEnrollment
	err := r.DB.Where("user_id = ?", userID).Order("enrolled_at DESC").Find(&pes).Error
	return pes, err
}
