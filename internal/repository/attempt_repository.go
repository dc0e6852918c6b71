package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) CreateAttempt(a *model.Attempt) error {
	return r.DB.Omit("Answers").Create(a).Error
}

func (r *AttemptRepository) FindAttempt(id uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.Preload("Answers").First(&a, id).Error
	return &a, err
}

// LockAttempt SELECT ... FOR UPDATE，提交与评分串行化
func (r *AttemptRepository) LockAttempt(id uint) (*model.Attempt, error) {
	var a model.Attempt
	if err := forUpdate(r.DB).First(&a, id).Error; err != nil {
		return &a, err
	}
	err := r.DB.Where("attempt_id = ?", id).Order("id ASC").Find(&a.Answers).Error
	return &a, err
}

func (r *AttemptRepository) SaveAttempt(a *model.Attempt) error {
	return r.DB.Omit("Answers").Save(a).Error
}

func (r *AttemptRepository) CountAttempts(userID, quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return count, err
}

// CountQuizAttempts 所有学员的作答次数，有作答后题目不可再改
func (r *AttemptRepository) CountQuizAttempts(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Attempt{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}

func (r *AttemptRepository) FindInProgressAttempt(userID, quizID uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.Preload("Answers").
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, model.AttemptInProgress).
		First(&a).Error
	return &a, err
}

func (r *AttemptRepository) SaveAnswer(a *model.Answer) error {
	if a.ID == 0 {
		return r.DB.Create(a).Error
	}
	return r.DB.Save(a).Error
}

func (r *AttemptRepository) LatestAttempts(userID uint, quizIDs []uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if len(quizIDs) == 0 {
		return attempts, nil
	}
	latest := r.DB.Model(&model.Attempt{}).
		Select("MAX(id)").
		Where("user_id = ? AND quiz_id IN ?", userID, quizIDs).
		Group("quiz_id")
	err := r.DB.Where("id IN (?)", latest).Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListAttempts(userID, quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}

// ListPendingGrading 已提交但仍有问答题未评分的作答，按提交时间排队
func (r *AttemptRepository) ListPendingGrading(courseID uint, page, limit int) ([]model.Attempt, int64, error) {
	var attempts []model.Attempt
	var total int64

	query := r.DB.Model(&model.Attempt{}).Where("quiz_attempts.status = ?", model.AttemptSubmitted)
	if courseID > 0 {
		query = query.Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
			Where("quizzes.course_id = ?", courseID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Answers").
		Order("quiz_attempts.submitted_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&attempts).Error
	return attempts, total, err
}
