package service

import (
	"fmt"
	"strings"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
)

// QuizAdminService 测验与题目编排
type QuizAdminService struct {
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.AttemptRepository
	CourseRepo  *repository.CourseRepository
}

func NewQuizAdminService(quizRepo *repository.QuizRepository, attemptRepo *repository.AttemptRepository, courseRepo *repository.CourseRepository) *QuizAdminService {
	return &QuizAdminService{
		QuizRepo:    quizRepo,
		AttemptRepo: attemptRepo,
		CourseRepo:  courseRepo,
	}
}

type QuizInput struct {
	CourseID              uint   `json:"courseId" validate:"required"`
	ModuleID              *uint  `json:"moduleId"`
	Title                 string `json:"title" validate:"required,max=255"`
	Description           string `json:"description"`
	PassingScore          int    `json:"passingScore" validate:"gte=0,lte=100"`
	TimeLimitMinutes      int    `json:"timeLimitMinutes" validate:"gte=0"`
	MaxAttempts           int    `json:"maxAttempts" validate:"gte=0"`
	ShuffleQuestions      bool   `json:"shuffleQuestions"`
	ShowResult            bool   `json:"showResult"`
	RequiredForCompletion bool   `json:"requiredForCompletion"`
}

func (s *QuizAdminService) checkScope(in QuizInput) error {
	if _, err := s.CourseRepo.FindCourse(in.CourseID); err != nil {
		if repository.IsNotFound(err) {
			return util.NewValidationError("courseId", "course does not exist")
		}
		return err
	}
	if in.ModuleID == nil {
		return nil
	}
	m, err := s.CourseRepo.FindModule(*in.ModuleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return util.NewValidationError("moduleId", "module does not exist")
		}
		return err
	}
	if m.CourseID != in.CourseID {
		return util.NewValidationError("moduleId", "module belongs to another course")
	}
	return nil
}

func applyQuizInput(q *model.Quiz, in QuizInput) {
	q.CourseID = in.CourseID
	q.ModuleID = in.ModuleID
	q.Title = in.Title
	q.Description = in.Description
	q.PassingScore = in.PassingScore
	q.TimeLimitMinutes = in.TimeLimitMinutes
	q.MaxAttempts = in.MaxAttempts
	q.ShuffleQuestions = in.ShuffleQuestions
	q.ShowResult = in.ShowResult
	q.RequiredForCompletion = in.RequiredForCompletion
}

func (s *QuizAdminService) CreateQuiz(in QuizInput) (*model.Quiz, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	if err := s.checkScope(in); err != nil {
		return nil, err
	}
	quiz := &model.Quiz{}
	applyQuizInput(quiz, in)
	if err := s.QuizRepo.CreateQuiz(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// GetQuiz 后台视图，包含正确答案
func (s *QuizAdminService) GetQuiz(id uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindQuizWithQuestions(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

func (s *QuizAdminService) ListByCourse(courseID uint) ([]model.Quiz, error) {
	return s.QuizRepo.ListQuizzesByCourse(courseID)
}

// UpdateQuiz 设置项随时可改；已有作答时不能换课程
func (s *QuizAdminService) UpdateQuiz(id uint, in QuizInput) (*model.Quiz, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	quiz, err := s.GetQuiz(id)
	if err != nil {
		return nil, err
	}
	if in.CourseID != quiz.CourseID {
		if err := s.ensureNoAttempts(id); err != nil {
			return nil, err
		}
	}
	if err := s.checkScope(in); err != nil {
		return nil, err
	}
	applyQuizInput(quiz, in)
	if err := s.QuizRepo.UpdateQuiz(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizAdminService) DeleteQuiz(id uint) error {
	if _, err := s.GetQuiz(id); err != nil {
		return err
	}
	if err := s.ensureNoAttempts(id); err != nil {
		return err
	}
	return s.QuizRepo.DeleteQuiz(id)
}

// 已有作答的测验题目结构冻结，否则历史答案会指向不存在的选项
func (s *QuizAdminService) ensureNoAttempts(quizID uint) error {
	n, err := s.AttemptRepo.CountQuizAttempts(quizID)
	if err != nil {
		return err
	}
	if n > 0 {
		return util.ErrQuizHasAttempts
	}
	return nil
}

type OptionInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionInput struct {
	Type        model.QuestionType `json:"type" validate:"required,oneof=multiple_choice essay"`
	Prompt      string             `json:"prompt" validate:"required"`
	Points      int                `json:"points" validate:"gte=1"`
	Position    *int               `json:"position" validate:"omitempty,gte=0"`
	Explanation string             `json:"explanation"`
	Options     []OptionInput      `json:"options" validate:"dive"`
}

// BuildQuestion 按题型校验：选择题至少两个选项且至少一个正确，问答题不能带选项
func BuildQuestion(in QuestionInput) (*model.Question, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	verr := &util.ValidationError{}
	switch in.Type {
	case model.MultipleChoice:
		if len(in.Options) < 2 {
			verr.Add("options", "multiple choice needs at least 2 options")
		}
		correct := 0
		for _, o := range in.Options {
			if o.IsCorrect {
				correct++
			}
		}
		if len(in.Options) >= 2 && correct == 0 {
			verr.Add("options", "mark at least one option as correct")
		}
	case model.Essay:
		if len(in.Options) > 0 {
			verr.Add("options", "essay questions take no options")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	q := &model.Question{
		Type:        in.Type,
		Prompt:      strings.TrimSpace(in.Prompt),
		Points:      in.Points,
		Explanation: in.Explanation,
	}
	if in.Position != nil {
		q.Position = *in.Position
	}
	for i, o := range in.Options {
		q.Options = append(q.Options, model.Option{Text: o.Text, IsCorrect: o.IsCorrect, Position: i})
	}
	return q, nil
}

func (s *QuizAdminService) AddQuestion(quizID uint, in QuestionInput) (*model.Question, error) {
	q, err := BuildQuestion(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetQuiz(quizID); err != nil {
		return nil, err
	}
	if err := s.ensureNoAttempts(quizID); err != nil {
		return nil, err
	}
	q.QuizID = quizID
	if in.Position == nil {
		if q.Position, err = s.QuizRepo.NextQuestionPosition(quizID); err != nil {
			return nil, err
		}
	}
	if err := s.QuizRepo.CreateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

// AddQuestions 批量追加（AI 草稿导入），全部校验通过才写入
func (s *QuizAdminService) AddQuestions(quizID uint, inputs []QuestionInput) ([]model.Question, error) {
	if _, err := s.GetQuiz(quizID); err != nil {
		return nil, err
	}
	if err := s.ensureNoAttempts(quizID); err != nil {
		return nil, err
	}
	next, err := s.QuizRepo.NextQuestionPosition(quizID)
	if err != nil {
		return nil, err
	}
	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		q, err := BuildQuestion(in)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		q.QuizID = quizID
		q.Position = next + i
		questions = append(questions, *q)
	}
	if err := s.QuizRepo.CreateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *QuizAdminService) getQuestion(id uint) (*model.Question, error) {
	q, err := s.QuizRepo.FindQuestion(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *QuizAdminService) UpdateQuestion(id uint, in QuestionInput) (*model.Question, error) {
	built, err := BuildQuestion(in)
	if err != nil {
		return nil, err
	}
	q, err := s.getQuestion(id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoAttempts(q.QuizID); err != nil {
		return nil, err
	}
	built.ID = q.ID
	built.CreatedAt = q.CreatedAt
	built.QuizID = q.QuizID
	if in.Position == nil {
		built.Position = q.Position
	}
	if err := s.QuizRepo.ReplaceQuestion(built); err != nil {
		return nil, err
	}
	return built, nil
}

func (s *QuizAdminService) DeleteQuestion(id uint) error {
	q, err := s.getQuestion(id)
	if err != nil {
		return err
	}
	if err := s.ensureNoAttempts(q.QuizID); err != nil {
		return err
	}
	return s.QuizRepo.DeleteQuestion(id)
}
