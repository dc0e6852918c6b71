package model

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted" // 已提交，问答题待评分
	AttemptGraded     AttemptStatus = "graded"
)

// swagger:model Attempt
type Attempt struct {
	BaseModel
	QuizID      uint          `gorm:"index:idx_attempt_user_quiz;not null" json:"quizId"`
	UserID      uint          `gorm:"index:idx_attempt_user_quiz;not null" json:"userId"`
	Status      AttemptStatus `gorm:"size:20;default:'in_progress'" json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty"`
	GradedAt    *time.Time    `json:"gradedAt,omitempty"`
	Score       *float64      `json:"score"`      // 获得的分数之和
	Percentage  *int          `json:"percentage"` // round(100 * score / total)
	Passed      *bool         `json:"passed"`
	Answers     []Answer      `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

func (Attempt) TableName() string {
	return "quiz_attempts"
}

func (a *Attempt) FindAnswer(questionID uint) (*Answer, bool) {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == questionID {
			return &a.Answers[i], true
		}
	}
	return nil, false
}

// Answer 的字段按题型互斥：选择题只有 OptionID，问答题只有 EssayText 与评分字段
type Answer struct {
	BaseModel
	AttemptID     uint         `gorm:"uniqueIndex:idx_answer_attempt_question;not null" json:"attemptId"`
	QuestionID    uint         `gorm:"uniqueIndex:idx_answer_attempt_question;not null" json:"questionId"`
	QuestionType  QuestionType `gorm:"size:20;not null" json:"questionType"`
	OptionID      *uint        `json:"optionId,omitempty"`
	EssayText     string       `gorm:"type:text" json:"essayText,omitempty"`
	EssayScore    *int         `json:"essayScore,omitempty"` // 0-100
	PointsAwarded *float64     `json:"pointsAwarded,omitempty"`
	Feedback      string       `gorm:"type:text" json:"feedback,omitempty"`
	GradedBy      *uint        `json:"gradedBy,omitempty"`
	GradedAt      *time.Time   `json:"gradedAt,omitempty"`
}

func (Answer) TableName() string {
	return "quiz_answers"
}
