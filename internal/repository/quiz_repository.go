package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func (r *QuizRepository) CreateQuiz(quiz *model.Quiz) error {
	return r.DB.Omit("Questions").Create(quiz).Error
}

func (r *QuizRepository) FindQuiz(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) FindQuizWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", orderByPosition).
		Preload("Questions.Options", orderByPosition).
		First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) ListQuizzesByCourse(courseID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("course_id = ?", courseID).Order("id ASC").Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) UpdateQuiz(quiz *model.Quiz) error {
	return r.DB.Omit("Questions").Save(quiz).Error
}

func (r *QuizRepository) DeleteQuiz(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&model.Question{}).Where("quiz_id = ?", id).Pluck("id", &questionIDs).Error; err != nil {
			return err
		}
		if len(questionIDs) > 0 {
			if err := tx.Where("question_id IN ?", questionIDs).Delete(&model.Option{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

func (r *QuizRepository) RequiredQuizIDs(courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Quiz{}).
		Where("course_id = ? AND required_for_completion = ?", courseID, true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// CreateQuestion 题目与选项一起写入
func (r *QuizRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) CreateQuestions(qs []model.Question) error {
	if len(qs) == 0 {
		return nil
	}
	return r.DB.Create(&qs).Error
}

func (r *QuizRepository) FindQuestion(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("Options", orderByPosition).First(&q, id).Error
	return &q, err
}

// ReplaceQuestion 更新题目并整体替换选项
func (r *QuizRepository) ReplaceQuestion(q *model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options").Save(q).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", q.ID).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		for i := range q.Options {
			q.Options[i].ID = 0
			q.Options[i].QuestionID = q.ID
		}
		if len(q.Options) == 0 {
			return nil
		}
		return tx.Create(&q.Options).Error
	})
}

func (r *QuizRepository) DeleteQuestion(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}

func (r *QuizRepository) NextQuestionPosition(quizID uint) (int, error) {
	var max *int
	err := r.DB.Model(&model.Question{}).Where("quiz_id = ?", quizID).Select("MAX(position)").Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max + 1, nil
}
