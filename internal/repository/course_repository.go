package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) CreateCourse(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindCourse(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

// FindCourseTree 课程 + 章节 + 课时，均按 position 排序
func (r *CourseRepository) FindCourseTree(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) ListCourses(publishedOnly bool, keyword string, page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	query := r.DB.Model(&model.Course{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	if keyword != "" {
		query = query.Where("title LIKE ?", "%"+keyword+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) UpdateCourse(course *model.Course) error {
	return r.DB.Omit("Modules").Save(course).Error
}

func (r *CourseRepository) DeleteCourse(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&model.Module{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Course{}, id).Error
	})
}

func (r *CourseRepository) CreateModule(m *model.Module) error {
	return r.DB.Create(m).Error
}

func (r *CourseRepository) FindModule(id uint) (*model.Module, error) {
	var m model.Module
	err := r.DB.First(&m, id).Error
	return &m, err
}

func (r *CourseRepository) UpdateModule(m *model.Module) error {
	return r.DB.Omit("Lessons").Save(m).Error
}

func (r *CourseRepository) DeleteModule(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_id = ?", id).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Module{}, id).Error
	})
}

func (r *CourseRepository) CreateLesson(l *model.Lesson) error {
	return r.DB.Create(l).Error
}

func (r *CourseRepository) FindLesson(id uint) (*model.Lesson, error) {
	var l model.Lesson
	err := r.DB.First(&l, id).Error
	return &l, err
}

func (r *CourseRepository) UpdateLesson(l *model.Lesson) error {
	return r.DB.Save(l).Error
}

func (r *CourseRepository) DeleteLesson(id uint) error {
	return r.DB.Delete(&model.Lesson{}, id).Error
}

func (r *CourseRepository) CountLessons(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// CountCompletedLessons 只统计仍然存在的课时，删除课时后进度会按新的总数重算
func (r *CourseRepository) CountCompletedLessons(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id AND lessons.deleted_at IS NULL").
		Where("lesson_completions.user_id = ? AND lesson_completions.course_id = ?", userID, courseID).
		Count(&count).Error
	return count, err
}

func (r *CourseRepository) CreateLessonCompletion(c *model.LessonCompletion) error {
	return createOnce(r.DB, c)
}

func (r *CourseRepository) CompletedLessonIDs(userID, courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.LessonCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Pluck("lesson_id", &ids).Error
	return ids, err
}
