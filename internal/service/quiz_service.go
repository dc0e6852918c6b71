package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lms_backend/internal/grading"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EssayGrader 问答题评分建议的来源（AI 助手），只给建议，不直接写入评分
type EssayGrader interface {
	SuggestEssayGrade(ctx context.Context, in EssayGradingInput) (*EssaySuggestion, error)
}

type EssayGradingInput struct {
	QuizTitle   string
	Prompt      string
	Reference   string
	AnswerText  string
	QuestionPts int
}

type EssaySuggestion struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

type QuizService struct {
	Store       repository.Store
	Engine      *CompletionEngine
	Dispatcher  *Dispatcher
	AI          EssayGrader
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.AttemptRepository
}

func NewQuizService(store repository.Store, engine *CompletionEngine, dispatcher *Dispatcher, ai EssayGrader,
	quizRepo *repository.QuizRepository, attemptRepo *repository.AttemptRepository) *QuizService {
	return &QuizService{
		Store:       store,
		Engine:      engine,
		Dispatcher:  dispatcher,
		AI:          ai,
		QuizRepo:    quizRepo,
		AttemptRepo: attemptRepo,
	}
}

// ---- 学员视图，不包含正确答案 ----

type OptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      uint               `json:"id"`
	Type    model.QuestionType `json:"type"`
	Prompt  string             `json:"prompt"`
	Points  int                `json:"points"`
	Options []OptionView       `json:"options,omitempty"`
}

type AnswerView struct {
	QuestionID uint     `json:"questionId"`
	OptionID   *uint    `json:"optionId,omitempty"`
	EssayText  string   `json:"essayText,omitempty"`
	Feedback   string   `json:"feedback,omitempty"`
	Awarded    *float64 `json:"pointsAwarded,omitempty"`
}

type AttemptView struct {
	ID          uint                `json:"id"`
	QuizID      uint                `json:"quizId"`
	QuizTitle   string              `json:"quizTitle"`
	Status      model.AttemptStatus `json:"status"`
	StartedAt   time.Time           `json:"startedAt"`
	SubmittedAt *time.Time          `json:"submittedAt,omitempty"`
	// Deadline 仅供前端倒计时，服务端不强制
	Deadline  *time.Time     `json:"deadline,omitempty"`
	Questions []QuestionView `json:"questions"`
	Answers   []AnswerView   `json:"answers"`
}

// Deadline 开始时间 + 时限，未设时限返回 nil
func Deadline(startedAt time.Time, limitMinutes int) *time.Time {
	if limitMinutes <= 0 {
		return nil
	}
	d := startedAt.Add(time.Duration(limitMinutes) * time.Minute)
	return &d
}

func questionView(q *model.Question) QuestionView {
	v := QuestionView{ID: q.ID, Type: q.Type, Prompt: q.Prompt, Points: q.Points}
	for _, o := range q.Options {
		v.Options = append(v.Options, OptionView{ID: o.ID, Text: o.Text})
	}
	return v
}

// Presentation 按作答的展示顺序组装题目，乱序以作答ID为种子
func Presentation(quiz *model.Quiz, attempt *model.Attempt) AttemptView {
	ordered := grading.PresentationOrder(quiz.Questions, quiz.ShuffleQuestions, attempt.ID)
	view := AttemptView{
		ID:          attempt.ID,
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		Status:      attempt.Status,
		StartedAt:   attempt.StartedAt,
		SubmittedAt: attempt.SubmittedAt,
		Deadline:    Deadline(attempt.StartedAt, quiz.TimeLimitMinutes),
		Questions:   make([]QuestionView, len(ordered)),
		Answers:     make([]AnswerView, 0, len(attempt.Answers)),
	}
	for i := range ordered {
		view.Questions[i] = questionView(&ordered[i])
	}
	for _, a := range attempt.Answers {
		view.Answers = append(view.Answers, AnswerView{
			QuestionID: a.QuestionID,
			OptionID:   a.OptionID,
			EssayText:  a.EssayText,
		})
	}
	return view
}

func findQuiz(tx repository.QuizStore, quizID uint) (*model.Quiz, error) {
	quiz, err := tx.FindQuizWithQuestions(quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// lockOwnAttempt 锁定作答行；不属于当前学员的作答同样按不存在处理
func lockOwnAttempt(tx repository.Store, userID, attemptID uint) (*model.Attempt, error) {
	attempt, err := tx.LockAttempt(attemptID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotFound
	}
	return attempt, nil
}

// Start 开始一次作答。已报名（未退课）的学员才能作答；
// 次数上限先于“已有进行中作答”检查。
func (s *QuizService) Start(ctx context.Context, userID, quizID uint) (*AttemptView, error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.Start",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("quiz_id", int64(quizID)))
	defer span.End()

	fx := &Effects{}
	var view AttemptView
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		quiz, err := findQuiz(tx, quizID)
		if err != nil {
			return err
		}
		if len(quiz.Questions) == 0 {
			return util.NewValidationError("quizId", "quiz has no questions")
		}

		// 锁住报名行，同一学员并发开始作答时串行化
		en, err := tx.LockEnrollment(userID, quiz.CourseID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrNotEnrolled
			}
			return err
		}
		if en.Status == model.EnrollmentDropped {
			return util.ErrNotEnrolled
		}

		if quiz.MaxAttempts > 0 {
			used, err := tx.CountAttempts(userID, quizID)
			if err != nil {
				return fmt.Errorf("count attempts: %w", err)
			}
			if used >= int64(quiz.MaxAttempts) {
				return util.ErrAttemptLimitExceeded
			}
		}
		if _, err := tx.FindInProgressAttempt(userID, quizID); err == nil {
			return util.ErrAlreadyInProgress
		} else if !repository.IsNotFound(err) {
			return err
		}

		attempt := &model.Attempt{
			QuizID:    quizID,
			UserID:    userID,
			Status:    model.AttemptInProgress,
			StartedAt: s.Engine.now(),
		}
		if err := tx.CreateAttempt(attempt); err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}
		view = Presentation(quiz, attempt)
		fx.add(Event{Kind: EventAttemptStarted, UserID: userID, RefID: attempt.ID})
		return nil
	})
	if err != nil {
		tracing.Fail(span, err)
		return nil, err
	}
	logger.Log.Info("attempt started", zap.Uint("user_id", userID), zap.Uint("quiz_id", quizID), zap.Uint("attempt_id", view.ID))
	s.Dispatcher.Dispatch(ctx, fx)
	return &view, nil
}

// GetAttempt 学员继续作答时读取题目与已保存的答案
func (s *QuizService) GetAttempt(ctx context.Context, userID, attemptID uint) (*AttemptView, error) {
	attempt, err := s.Store.FindAttempt(attemptID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotFound
	}
	quiz, err := findQuiz(s.Store, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	view := Presentation(quiz, attempt)
	return &view, nil
}

// AnswerInput 选择题只填 OptionID（为空表示跳过），问答题只填 EssayText
type AnswerInput struct {
	OptionID  *uint   `json:"optionId"`
	EssayText *string `json:"essayText"`
}

func validateAnswer(q *model.Question, in AnswerInput) error {
	verr := &util.ValidationError{}
	switch q.Type {
	case model.MultipleChoice:
		if in.EssayText != nil {
			verr.Add("essayText", "not allowed for multiple choice questions")
		}
		if in.OptionID != nil {
			if _, ok := q.FindOption(*in.OptionID); !ok {
				verr.Add("optionId", "option does not belong to this question")
			}
		}
	case model.Essay:
		if in.OptionID != nil {
			verr.Add("optionId", "not allowed for essay questions")
		}
		if in.EssayText == nil {
			verr.Add("essayText", "required")
		}
	default:
		verr.Add("questionId", "unsupported question type")
	}
	return verr.OrNil()
}

// AnswerQuestion 保存（覆盖）某道题的答案，只能在作答进行中调用
func (s *QuizService) AnswerQuestion(ctx context.Context, userID, attemptID, questionID uint, in AnswerInput) (*AnswerView, error) {
	var out AnswerView
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		attempt, err := lockOwnAttempt(tx, userID, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status != model.AttemptInProgress {
			return util.ErrAttemptNotActive
		}
		quiz, err := findQuiz(tx, attempt.QuizID)
		if err != nil {
			return err
		}
		var question *model.Question
		for i := range quiz.Questions {
			if quiz.Questions[i].ID == questionID {
				question = &quiz.Questions[i]
				break
			}
		}
		if question == nil {
			return util.ErrQuestionNotFound
		}
		if err := validateAnswer(question, in); err != nil {
			return err
		}

		answer, ok := attempt.FindAnswer(questionID)
		if !ok {
			answer = &model.Answer{AttemptID: attempt.ID, QuestionID: questionID}
		}
		answer.QuestionType = question.Type
		answer.OptionID = nil
		answer.EssayText = ""
		if question.Type == model.MultipleChoice {
			if in.OptionID != nil {
				id := *in.OptionID
				answer.OptionID = &id
			}
		} else {
			answer.EssayText = strings.TrimSpace(*in.EssayText)
		}
		if err := tx.SaveAnswer(answer); err != nil {
			return fmt.Errorf("save answer: %w", err)
		}
		out = AnswerView{QuestionID: answer.QuestionID, OptionID: answer.OptionID, EssayText: answer.EssayText}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit 提交作答：选择题立即评分；没有问答题时直接出结果，否则等待问答题评分
func (s *QuizService) Submit(ctx context.Context, userID, attemptID uint) (*model.Attempt, error) {
	ctx, span := tracing.StartSpan(ctx, "quiz.Submit",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("attempt_id", int64(attemptID)))
	defer span.End()

	fx := &Effects{}
	var attempt *model.Attempt
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		attempt, err = lockOwnAttempt(tx, userID, attemptID)
		if err != nil {
			return err
		}
		if attempt.Status != model.AttemptInProgress {
			return util.ErrAttemptNotActive
		}
		quiz, err := findQuiz(tx, attempt.QuizID)
		if err != nil {
			return err
		}

		now := s.Engine.now()
		attempt.SubmittedAt = &now

		// 未作答的问答题补一条空答案，评分人才能对其打分
		for i := range quiz.Questions {
			q := &quiz.Questions[i]
			if q.Type != model.Essay {
				continue
			}
			if _, ok := attempt.FindAnswer(q.ID); ok {
				continue
			}
			blank := model.Answer{AttemptID: attempt.ID, QuestionID: q.ID, QuestionType: model.Essay}
			if err := tx.SaveAnswer(&blank); err != nil {
				return fmt.Errorf("create blank essay answer: %w", err)
			}
			attempt.Answers = append(attempt.Answers, blank)
		}

		outcome := grading.Finalize(quiz.Questions, attempt.Answers, quiz.PassingScore)
		for i := range attempt.Answers {
			if attempt.Answers[i].QuestionType != model.MultipleChoice {
				continue
			}
			if err := tx.SaveAnswer(&attempt.Answers[i]); err != nil {
				return fmt.Errorf("save answer score: %w", err)
			}
		}

		if outcome.Complete {
			return s.applyGraded(tx, fx, quiz, attempt, outcome)
		}
		attempt.Status = model.AttemptSubmitted
		if err := tx.SaveAttempt(attempt); err != nil {
			return fmt.Errorf("save attempt: %w", err)
		}
		logger.Log.Info("attempt submitted, essays pending",
			zap.Uint("attempt_id", attempt.ID), zap.Int("pending", outcome.Pending), zap.Float64("objective_score", outcome.Score))
		fx.add(Event{Kind: EventAttemptFinalized, UserID: userID, RefID: attempt.ID, Result: "pending"})
		return nil
	})
	if err != nil {
		tracing.Fail(span, err)
		return nil, err
	}
	s.Dispatcher.Dispatch(ctx, fx)
	return attempt, nil
}

// applyGraded 写入最终成绩并触发通知、积分与课程进度重算，调用方必须持有作答行锁
func (s *QuizService) applyGraded(tx repository.Store, fx *Effects, quiz *model.Quiz, attempt *model.Attempt, outcome grading.Outcome) error {
	now := s.Engine.now()
	score, pct, passed := outcome.Score, outcome.Percentage, outcome.Passed
	attempt.Status = model.AttemptGraded
	attempt.GradedAt = &now
	attempt.Score = &score
	attempt.Percentage = &pct
	attempt.Passed = &passed
	if err := tx.SaveAttempt(attempt); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}

	result := "failed"
	if passed {
		result = "passed"
	}
	logger.Log.Info("attempt graded",
		zap.Uint("attempt_id", attempt.ID), zap.Uint("user_id", attempt.UserID),
		zap.Int("percentage", pct), zap.String("result", result))

	msg := fmt.Sprintf("测验《%s》得分 %d%%，未通过", quiz.Title, pct)
	if passed {
		msg = fmt.Sprintf("测验《%s》得分 %d%%，已通过", quiz.Title, pct)
	}
	if err := s.Engine.Notes.Notify(tx, fx, attempt.UserID, model.NotificationQuizGraded,
		"测验成绩已出", msg, fmt.Sprintf("/portal/attempts/%d", attempt.ID)); err != nil {
		return err
	}

	if passed {
		reward := s.Engine.Rewards.Current().QuizPassPoints
		if _, err := s.Engine.Points.Award(tx, fx, attempt.UserID, reward,
			fmt.Sprintf("通过测验《%s》", quiz.Title), model.PointSourceQuiz, quiz.ID); err != nil {
			return err
		}
	}
	if quiz.RequiredForCompletion {
		if _, err := s.Engine.RecomputeCourse(tx, fx, attempt.UserID, quiz.CourseID); err != nil && !errors.Is(err, util.ErrNotEnrolled) {
			return err
		}
	}
	fx.add(Event{Kind: EventAttemptFinalized, UserID: attempt.UserID, RefID: attempt.ID, Result: result})
	return nil
}

// authorizeGrader 管理员可以评任意课程，讲师只能评自己创建的课程
func authorizeGrader(tx repository.Store, graderID, courseID uint) error {
	grader, err := tx.FindUser(graderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return util.ErrForbidden
		}
		return err
	}
	switch grader.Role {
	case model.Admin:
		return nil
	case model.Instructor:
		course, err := tx.FindCourse(courseID)
		if err != nil {
			return fmt.Errorf("find course: %w", err)
		}
		if course.CreatorID == graderID {
			return nil
		}
	}
	return util.ErrForbidden
}

type GradeInput struct {
	Score    int    `json:"score" validate:"min=0,max=100"`
	Feedback string `json:"feedback" validate:"max=5000"`
}

// GradeEssay 为问答题评分（0-100），每道题只能评一次；最后一道评完时出最终成绩。
// 讲师只能评自己课程下的作答
func (s *QuizService) GradeEssay(ctx context.Context, graderID, attemptID, answerID uint, in GradeInput) (*model.Attempt, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "quiz.GradeEssay",
		attribute.Int64("attempt_id", int64(attemptID)), attribute.Int64("answer_id", int64(answerID)))
	defer span.End()

	fx := &Effects{}
	var attempt *model.Attempt
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		attempt, err = tx.LockAttempt(attemptID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrAttemptNotFound
			}
			return err
		}
		if attempt.Status == model.AttemptInProgress {
			return util.ErrAttemptNotSubmitted
		}

		var answer *model.Answer
		for i := range attempt.Answers {
			if attempt.Answers[i].ID == answerID {
				answer = &attempt.Answers[i]
				break
			}
		}
		if answer == nil {
			return util.ErrAnswerNotFound
		}
		if answer.QuestionType != model.Essay {
			return util.NewValidationError("answerId", "only essay answers can be graded manually")
		}
		if answer.EssayScore != nil {
			return util.ErrAlreadyGraded
		}

		quiz, err := findQuiz(tx, attempt.QuizID)
		if err != nil {
			return err
		}
		if err := authorizeGrader(tx, graderID, quiz.CourseID); err != nil {
			return err
		}
		var points int
		for _, q := range quiz.Questions {
			if q.ID == answer.QuestionID {
				points = q.Points
				break
			}
		}

		now := s.Engine.now()
		score := in.Score
		awarded := grading.ScaleEssay(score, points)
		grader := graderID
		answer.EssayScore = &score
		answer.PointsAwarded = &awarded
		answer.Feedback = strings.TrimSpace(in.Feedback)
		answer.GradedBy = &grader
		answer.GradedAt = &now
		if err := tx.SaveAnswer(answer); err != nil {
			return fmt.Errorf("save essay grade: %w", err)
		}

		outcome := grading.Finalize(quiz.Questions, attempt.Answers, quiz.PassingScore)
		if !outcome.Complete {
			return nil
		}
		return s.applyGraded(tx, fx, quiz, attempt, outcome)
	})
	if err != nil {
		tracing.Fail(span, err)
		return nil, err
	}
	s.Dispatcher.Dispatch(ctx, fx)
	return attempt, nil
}

// SuggestEssayGrade 请 AI 给出评分建议，评分人确认后再调用 GradeEssay
func (s *QuizService) SuggestEssayGrade(ctx context.Context, attemptID, answerID uint) (*EssaySuggestion, error) {
	if s.AI == nil {
		return nil, util.ErrAIUnavailable
	}
	attempt, err := s.Store.FindAttempt(attemptID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	var answer *model.Answer
	for i := range attempt.Answers {
		if attempt.Answers[i].ID == answerID {
			answer = &attempt.Answers[i]
			break
		}
	}
	if answer == nil {
		return nil, util.ErrAnswerNotFound
	}
	if answer.QuestionType != model.Essay {
		return nil, util.NewValidationError("answerId", "only essay answers can be graded manually")
	}
	quiz, err := findQuiz(s.Store, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	in := EssayGradingInput{QuizTitle: quiz.Title, AnswerText: answer.EssayText}
	for _, q := range quiz.Questions {
		if q.ID == answer.QuestionID {
			in.Prompt = q.Prompt
			in.Reference = q.Explanation
			in.QuestionPts = q.Points
		}
	}
	return s.AI.SuggestEssayGrade(ctx, in)
}

// ---- 成绩查看 ----

type ResultQuestion struct {
	QuestionView
	Answer           *AnswerView `json:"answer,omitempty"`
	CorrectOptionIDs []uint      `json:"correctOptionIds,omitempty"`
	Explanation      string      `json:"explanation,omitempty"`
}

type AttemptResult struct {
	ID          uint                `json:"id"`
	QuizID      uint                `json:"quizId"`
	QuizTitle   string              `json:"quizTitle"`
	Status      model.AttemptStatus `json:"status"`
	SubmittedAt *time.Time          `json:"submittedAt,omitempty"`
	Score       *float64            `json:"score"`
	Possible    int                 `json:"possible"`
	Percentage  *int                `json:"percentage"`
	Passed      *bool               `json:"passed"`
	// ShowDetails 为 false 时不返回逐题对错
	ShowDetails bool             `json:"showDetails"`
	Questions   []ResultQuestion `json:"questions,omitempty"`
}

// Result 学员查看自己已提交的作答
func (s *QuizService) Result(ctx context.Context, userID, attemptID uint) (*AttemptResult, error) {
	attempt, err := s.Store.FindAttempt(attemptID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.Status == model.AttemptInProgress {
		return nil, util.ErrAttemptNotSubmitted
	}
	quiz, err := findQuiz(s.Store, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	return buildResult(quiz, attempt, quiz.ShowResult), nil
}

func buildResult(quiz *model.Quiz, attempt *model.Attempt, details bool) *AttemptResult {
	res := &AttemptResult{
		ID:          attempt.ID,
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		Status:      attempt.Status,
		SubmittedAt: attempt.SubmittedAt,
		Score:       attempt.Score,
		Percentage:  attempt.Percentage,
		Passed:      attempt.Passed,
		ShowDetails: details,
	}
	for _, q := range quiz.Questions {
		res.Possible += q.Points
	}
	if !details {
		return res
	}

	ordered := grading.PresentationOrder(quiz.Questions, quiz.ShuffleQuestions, attempt.ID)
	for i := range ordered {
		q := &ordered[i]
		rq := ResultQuestion{QuestionView: questionView(q), Explanation: q.Explanation}
		for _, o := range q.Options {
			if o.IsCorrect {
				rq.CorrectOptionIDs = append(rq.CorrectOptionIDs, o.ID)
			}
		}
		if a, ok := attempt.FindAnswer(q.ID); ok {
			rq.Answer = &AnswerView{
				QuestionID: a.QuestionID,
				OptionID:   a.OptionID,
				EssayText:  a.EssayText,
				Feedback:   a.Feedback,
				Awarded:    a.PointsAwarded,
			}
		}
		res.Questions = append(res.Questions, rq)
	}
	return res
}

type QuizOverview struct {
	Quiz              *model.Quiz     `json:"quiz"`
	QuestionCount     int             `json:"questionCount"`
	AttemptsUsed      int             `json:"attemptsUsed"`
	AttemptsRemaining *int            `json:"attemptsRemaining"` // nil 表示不限
	InProgressID      *uint           `json:"inProgressAttemptId,omitempty"`
	Attempts          []model.Attempt `json:"attempts"`
}

// Overview 开始作答前的测验说明与历史作答
func (s *QuizService) Overview(ctx context.Context, userID, quizID uint) (*QuizOverview, error) {
	quiz, err := findQuiz(s.Store, quizID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.AttemptRepo.ListAttempts(userID, quizID)
	if err != nil {
		return nil, err
	}

	out := &QuizOverview{
		QuestionCount: len(quiz.Questions),
		AttemptsUsed:  len(attempts),
		Attempts:      attempts,
	}
	if quiz.MaxAttempts > 0 {
		left := quiz.MaxAttempts - len(attempts)
		if left < 0 {
			left = 0
		}
		out.AttemptsRemaining = &left
	}
	for i := range attempts {
		if attempts[i].Status == model.AttemptInProgress {
			id := attempts[i].ID
			out.InProgressID = &id
			break
		}
	}
	quiz.Questions = nil
	out.Quiz = quiz
	return out, nil
}

func (s *QuizService) PendingGrading(courseID uint, page, limit int) ([]model.Attempt, int64, error) {
	return s.AttemptRepo.ListPendingGrading(courseID, page, limit)
}

// GradingView 评分人看到的完整作答，包含正确答案
type GradingView struct {
	Attempt *model.Attempt `json:"attempt"`
	Quiz    *model.Quiz    `json:"quiz"`
	Result  *AttemptResult `json:"result"`
}

func (s *QuizService) AttemptForGrading(ctx context.Context, attemptID uint) (*GradingView, error) {
	attempt, err := s.Store.FindAttempt(attemptID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	quiz, err := findQuiz(s.Store, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	return &GradingView{Attempt: attempt, Quiz: quiz, Result: buildResult(quiz, attempt, true)}, nil
}
