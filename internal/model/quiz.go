package model

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	Essay          QuestionType = "essay"
)

// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID              uint       `gorm:"index;not null" json:"courseId"`
	ModuleID              *uint      `gorm:"index" json:"moduleId,omitempty"`
	Title                 string     `gorm:"size:255;not null" json:"title"`
	Description           string     `gorm:"type:text" json:"description"`
	PassingScore          int        `gorm:"not null" json:"passingScore"`      // 0-100
	TimeLimitMinutes      int        `gorm:"default:0" json:"timeLimitMinutes"` // 仅用于前端倒计时显示
	MaxAttempts           int        `gorm:"default:0" json:"maxAttempts"`      // 0 表示不限
	ShuffleQuestions      bool       `gorm:"default:false" json:"shuffleQuestions"`
	ShowResult            bool       `gorm:"not null" json:"showResult"`
	RequiredForCompletion bool       `gorm:"default:false" json:"requiredForCompletion"`
	Questions             []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) HasEssay() bool {
	for _, question := range q.Questions {
		if question.Type == Essay {
			return true
		}
	}
	return false
}

// Question 按 Type 区分：选择题携带 Options，问答题没有选项
type Question struct {
	BaseModel
	QuizID      uint         `gorm:"index;not null" json:"quizId"`
	Type        QuestionType `gorm:"size:20;not null" json:"type"`
	Prompt      string       `gorm:"type:text;not null" json:"prompt"`
	Points      int          `gorm:"not null" json:"points"`
	Position    int          `gorm:"default:0" json:"position"`
	Explanation string       `gorm:"type:text" json:"explanation,omitempty"`
	Options     []Option     `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

func (q *Question) FindOption(optionID uint) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i], true
		}
	}
	return nil, false
}

type Option struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
	Position   int    `gorm:"default:0" json:"position"`
}

func (Option) TableName() string {
	return "quiz_options"
}
