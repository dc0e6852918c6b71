package service

import (
	"context"
	"errors"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/util"
)

func strPtr(s string) *string { return &s }

func TestSubmitMultipleChoiceOnly(t *testing.T) {
	cases := []struct {
		name       string
		correct    [2]bool
		score      float64
		percentage int
		passed     bool
	}{
		{"both correct", [2]bool{true, true}, 10, 100, true},
		{"one correct", [2]bool{true, false}, 5, 50, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			courseID, _ := f.addCourse("Go", 1)
			f.enroll(f.learner, courseID)
			q1, q2 := f.mcQuestion(5), f.mcQuestion(5)
			quiz := f.addQuiz(model.Quiz{CourseID: courseID, PassingScore: 70}, q1, q2)

			view, err := f.quiz.Start(ctx, f.learner, quiz.ID)
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			for i, q := range []model.Question{q1, q2} {
				opt := wrongOption(q)
				if tc.correct[i] {
					opt = correctOption(q)
				}
				if _, err := f.quiz.AnswerQuestion(ctx, f.learner, view.ID, q.ID, AnswerInput{OptionID: opt}); err != nil {
					t.Fatalf("AnswerQuestion: %v", err)
				}
			}

			attempt, err := f.quiz.Submit(ctx, f.learner, view.ID)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if attempt.Status != model.AttemptGraded {
				t.Fatalf("status = %s, want graded", attempt.Status)
			}
			if attempt.SubmittedAt == nil {
				t.Fatal("submitted_at not set")
			}
			if *attempt.Score != tc.score || *attempt.Percentage != tc.percentage || *attempt.Passed != tc.passed {
				t.Errorf("got score=%v pct=%d passed=%v", *attempt.Score, *attempt.Percentage, *attempt.Passed)
			}
			if got := f.hook.count(EventAttemptFinalized); got != 1 {
				t.Errorf("finalized events = %d, want 1", got)
			}
		})
	}
}

func TestStartAttemptLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, PassingScore: 70, MaxAttempts: 1}, f.mcQuestion(5))

	view, err := f.quiz.Start(ctx, f.learner, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.quiz.Submit(ctx, f.learner, view.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.quiz.Start(ctx, f.learner, quiz.ID); !errors.Is(err, util.ErrAttemptLimitExceeded) {
		t.Fatalf("second Start err = %v, want ErrAttemptLimitExceeded", err)
	}
	if n, _ := f.store.CountAttempts(f.learner, quiz.ID); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestStartLimitAppliesPerLearner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	other := f.addUser("另一位学员")
	f.enroll(f.learner, courseID)
	f.enroll(other, courseID)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, MaxAttempts: 2}, f.mcQuestion(1))

	for i := 0; i < 2; i++ {
		v, err := f.quiz.Start(ctx, f.learner, quiz.ID)
		if err != nil {
			t.Fatalf("Start #%d: %v", i+1, err)
		}
		if _, err := f.quiz.Submit(ctx, f.learner, v.ID); err != nil {
			t.Fatalf("Submit #%d: %v", i+1, err)
		}
	}
	if _, err := f.quiz.Start(ctx, f.learner, quiz.ID); !errors.Is(err, util.ErrAttemptLimitExceeded) {
		t.Fatalf("third Start err = %v, want ErrAttemptLimitExceeded", err)
	}
	if _, err := f.quiz.Start(ctx, other, quiz.ID); err != nil {
		t.Fatalf("other learner Start: %v", err)
	}
}

func TestStartAlreadyInProgress(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID}, f.mcQuestion(1))

	if _, err := f.quiz.Start(ctx, f.learner, quiz.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.quiz.Start(ctx, f.learner, quiz.ID); !errors.Is(err, util.ErrAlreadyInProgress) {
		t.Fatalf("err = %v, want ErrAlreadyInProgress", err)
	}
	if got := f.hook.count(EventAttemptStarted); got != 1 {
		t.Errorf("started events = %d, want 1", got)
	}
}

func TestStartRequiresEnrollment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID}, f.mcQuestion(1))

	if _, err := f.quiz.Start(ctx, f.learner, quiz.ID); !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("err = %v, want ErrNotEnrolled", err)
	}

	f.enroll(f.learner, courseID)
	if _, err := f.progress.Drop(ctx, f.learner, courseID); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, err := f.quiz.Start(ctx, f.learner, quiz.ID); !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("dropped err = %v, want ErrNotEnrolled", err)
	}

	empty := f.addQuiz(model.Quiz{CourseID: courseID})
	var verr *util.ValidationError
	if _, err := f.quiz.Start(ctx, f.learner, empty.ID); !errors.As(err, &verr) {
		t.Fatalf("empty quiz err = %v, want validation error", err)
	}
	if _, err := f.quiz.Start(ctx, f.learner, 9999); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("missing quiz err = %v, want ErrQuizNotFound", err)
	}
}

func TestAnswerAfterSubmitRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	q := f.mcQuestion(5)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, PassingScore: 50}, q)

	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	if _, err := f.quiz.AnswerQuestion(ctx, f.learner, view.ID, q.ID, AnswerInput{OptionID: wrongOption(q)}); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	// 提交前可以覆盖答案
	if _, err := f.quiz.AnswerQuestion(ctx, f.learner, view.ID, q.ID, AnswerInput{OptionID: correctOption(q)}); err != nil {
		t.Fatalf("overwrite answer: %v", err)
	}
	submitted, err := f.quiz.Submit(ctx, f.learner, view.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !*submitted.Passed {
		t.Fatal("last answer before submit should be the one scored")
	}
	submittedAt := *submitted.SubmittedAt

	_, err = f.quiz.AnswerQuestion(ctx, f.learner, view.ID, q.ID, AnswerInput{OptionID: wrongOption(q)})
	if !errors.Is(err, util.ErrAttemptNotActive) {
		t.Fatalf("answer after submit err = %v, want ErrAttemptNotActive", err)
	}
	if _, err := f.quiz.Submit(ctx, f.learner, view.ID); !errors.Is(err, util.ErrAttemptNotActive) {
		t.Fatalf("resubmit err = %v, want ErrAttemptNotActive", err)
	}

	after, _ := f.store.FindAttempt(view.ID)
	if len(after.Answers) != 1 || *after.Answers[0].OptionID != *correctOption(q) {
		t.Errorf("answers changed after submit: %+v", after.Answers)
	}
	if !after.SubmittedAt.Equal(submittedAt) {
		t.Errorf("submitted_at changed: %v -> %v", submittedAt, after.SubmittedAt)
	}
}

func TestAnswerValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	mc, essay, foreign := f.mcQuestion(1), f.essayQuestion(1), f.mcQuestion(1)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID}, mc, essay)
	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)

	cases := []struct {
		name     string
		question uint
		in       AnswerInput
		field    string
	}{
		{"essay text on mc", mc.ID, AnswerInput{OptionID: correctOption(mc), EssayText: strPtr("x")}, "essayText"},
		{"option of another question", mc.ID, AnswerInput{OptionID: correctOption(foreign)}, "optionId"},
		{"option on essay", essay.ID, AnswerInput{OptionID: correctOption(mc), EssayText: strPtr("x")}, "optionId"},
		{"essay without text", essay.ID, AnswerInput{}, "essayText"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.quiz.AnswerQuestion(ctx, f.learner, view.ID, tc.question, tc.in)
			var verr *util.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if _, ok := verr.Fields[tc.field]; !ok {
				t.Errorf("fields = %v, want %s", verr.Fields, tc.field)
			}
		})
	}

	if _, err := f.quiz.AnswerQuestion(ctx, f.learner, view.ID, foreign.ID, AnswerInput{OptionID: correctOption(foreign)}); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Errorf("foreign question err = %v, want ErrQuestionNotFound", err)
	}
	if len(f.store.data.answers) != 0 {
		t.Errorf("rejected answers were stored: %d", len(f.store.data.answers))
	}
}

func TestClearMultipleChoiceAnswer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	q := f.mcQuestion(5)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, PassingScore: 50}, q)
	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)

	if _, err := f.quiz.AnswerQuestion(ctx, f.learner, view.ID, q.ID, AnswerInput{OptionID: correctOption(q)}); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	cleared, err := f.quiz.AnswerQuestion(ctx, f.learner, view.ID, q.ID, AnswerInput{})
	if err != nil {
		t.Fatalf("clear answer: %v", err)
	}
	if cleared.OptionID != nil {
		t.Errorf("cleared option = %d, want nil", *cleared.OptionID)
	}

	stored, _ := f.store.FindAttempt(view.ID)
	if len(stored.Answers) != 1 || stored.Answers[0].OptionID != nil {
		t.Fatalf("stored answers = %+v, want one skipped answer", stored.Answers)
	}

	submitted, err := f.quiz.Submit(ctx, f.learner, view.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if *submitted.Score != 0 || *submitted.Passed {
		t.Errorf("skipped answer scored %v passed=%v, want 0 and failed", *submitted.Score, *submitted.Passed)
	}
}

func TestAttemptOfAnotherLearnerIsHidden(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	q := f.mcQuestion(1)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID}, q)
	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	other := f.addUser("旁观者")

	if _, err := f.quiz.GetAttempt(ctx, other, view.ID); !errors.Is(err, util.ErrAttemptNotFound) {
		t.Errorf("GetAttempt err = %v", err)
	}
	if _, err := f.quiz.AnswerQuestion(ctx, other, view.ID, q.ID, AnswerInput{OptionID: correctOption(q)}); !errors.Is(err, util.ErrAttemptNotFound) {
		t.Errorf("AnswerQuestion err = %v", err)
	}
	if _, err := f.quiz.Submit(ctx, other, view.ID); !errors.Is(err, util.ErrAttemptNotFound) {
		t.Errorf("Submit err = %v", err)
	}
}

func TestEssayGradingClosure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	mc, essay := f.mcQuestion(5), f.essayQuestion(5)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, PassingScore: 70}, mc, essay)
	grader := f.instructor

	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	f.quiz.AnswerQuestion(ctx, f.learner, view.ID, mc.ID, AnswerInput{OptionID: correctOption(mc)})
	f.quiz.AnswerQuestion(ctx, f.learner, view.ID, essay.ID, AnswerInput{EssayText: strPtr("goroutines are cheap")})

	if _, err := f.quiz.GradeEssay(ctx, grader, view.ID, 1, GradeInput{Score: 80}); !errors.Is(err, util.ErrAttemptNotSubmitted) {
		t.Fatalf("grading before submit err = %v, want ErrAttemptNotSubmitted", err)
	}

	attempt, err := f.quiz.Submit(ctx, f.learner, view.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if attempt.Status != model.AttemptSubmitted || attempt.Passed != nil || attempt.Score != nil {
		t.Fatalf("after submit: status=%s passed=%v score=%v", attempt.Status, attempt.Passed, attempt.Score)
	}

	essayAnswer, ok := attempt.FindAnswer(essay.ID)
	if !ok {
		t.Fatal("essay answer missing")
	}
	if _, err := f.quiz.GradeEssay(ctx, grader, view.ID, essayAnswer.ID, GradeInput{Score: 101}); err == nil {
		t.Fatal("score above 100 accepted")
	}
	mcAnswer, _ := attempt.FindAnswer(mc.ID)
	var verr *util.ValidationError
	if _, err := f.quiz.GradeEssay(ctx, grader, view.ID, mcAnswer.ID, GradeInput{Score: 50}); !errors.As(err, &verr) {
		t.Fatalf("grading mc answer err = %v, want validation error", err)
	}

	graded, err := f.quiz.GradeEssay(ctx, grader, view.ID, essayAnswer.ID, GradeInput{Score: 80, Feedback: "good"})
	if err != nil {
		t.Fatalf("GradeEssay: %v", err)
	}
	if graded.Status != model.AttemptGraded {
		t.Fatalf("status = %s, want graded", graded.Status)
	}
	if *graded.Score != 9 || *graded.Percentage != 90 || !*graded.Passed {
		t.Errorf("score=%v pct=%d passed=%v, want 9/90/true", *graded.Score, *graded.Percentage, *graded.Passed)
	}

	if _, err := f.quiz.GradeEssay(ctx, grader, view.ID, essayAnswer.ID, GradeInput{Score: 10}); !errors.Is(err, util.ErrAlreadyGraded) {
		t.Fatalf("regrade err = %v, want ErrAlreadyGraded", err)
	}
	if got := f.hook.count(EventAttemptFinalized); got != 2 {
		t.Errorf("finalized events = %d, want 2 (pending + passed)", got)
	}
	if len(f.pointHistory(f.learner)) != 1 {
		t.Errorf("quiz pass points not awarded once: %+v", f.pointHistory(f.learner))
	}
}

func TestGradeEssayRequiresCourseOwnerOrAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	e1, e2 := f.essayQuestion(2), f.essayQuestion(2)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, PassingScore: 50}, e1, e2)
	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	attempt, err := f.quiz.Submit(ctx, f.learner, view.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	a1, _ := attempt.FindAnswer(e1.ID)
	a2, _ := attempt.FindAnswer(e2.ID)

	outsider := f.addStaff("其他讲师", model.Instructor)
	for name, grader := range map[string]uint{"other instructor": outsider, "learner": f.learner, "unknown user": 9999} {
		if _, err := f.quiz.GradeEssay(ctx, grader, view.ID, a1.ID, GradeInput{Score: 90}); !errors.Is(err, util.ErrForbidden) {
			t.Errorf("%s: err = %v, want ErrForbidden", name, err)
		}
	}
	stored, _ := f.store.FindAttempt(view.ID)
	if ans, _ := stored.FindAnswer(e1.ID); ans.EssayScore != nil {
		t.Fatalf("rejected grade was stored: %d", *ans.EssayScore)
	}

	if _, err := f.quiz.GradeEssay(ctx, f.instructor, view.ID, a1.ID, GradeInput{Score: 90}); err != nil {
		t.Fatalf("course instructor: %v", err)
	}
	admin := f.addStaff("管理员", model.Admin)
	graded, err := f.quiz.GradeEssay(ctx, admin, view.ID, a2.ID, GradeInput{Score: 50})
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if graded.Status != model.AttemptGraded {
		t.Errorf("status = %s, want graded", graded.Status)
	}
}

func TestEssayGradingWaitsForEveryEssay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	e1, e2 := f.essayQuestion(2), f.essayQuestion(2)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, PassingScore: 60}, e1, e2)

	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	f.quiz.AnswerQuestion(ctx, f.learner, view.ID, e1.ID, AnswerInput{EssayText: strPtr("answer")})
	// e2 未作答，提交时补空答案
	attempt, err := f.quiz.Submit(ctx, f.learner, view.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(attempt.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(attempt.Answers))
	}

	a1, _ := attempt.FindAnswer(e1.ID)
	a2, _ := attempt.FindAnswer(e2.ID)
	first, err := f.quiz.GradeEssay(ctx, f.instructor, view.ID, a1.ID, GradeInput{Score: 100})
	if err != nil {
		t.Fatalf("grade first: %v", err)
	}
	if first.Passed != nil || first.Status != model.AttemptSubmitted {
		t.Fatalf("graded too early: status=%s passed=%v", first.Status, first.Passed)
	}
	second, err := f.quiz.GradeEssay(ctx, f.instructor, view.ID, a2.ID, GradeInput{Score: 0})
	if err != nil {
		t.Fatalf("grade second: %v", err)
	}
	if second.Passed == nil || *second.Passed || *second.Percentage != 50 {
		t.Errorf("final = pct %v passed %v, want 50/false", second.Percentage, second.Passed)
	}
}

func TestShuffledPresentationIsStable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	var qs []model.Question
	for i := 0; i < 8; i++ {
		qs = append(qs, f.mcQuestion(1))
	}
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, ShuffleQuestions: true}, qs...)

	started, err := f.quiz.Start(ctx, f.learner, quiz.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	again, err := f.quiz.GetAttempt(ctx, f.learner, started.ID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	for i := range started.Questions {
		if started.Questions[i].ID != again.Questions[i].ID {
			t.Fatalf("order differs at %d", i)
		}
		for _, o := range started.Questions[i].Options {
			if o.Text == "" {
				t.Fatalf("option text missing")
			}
		}
	}
	stored := f.store.data.quizzes[quiz.ID]
	for i, q := range stored.Questions {
		if q.Position != i {
			t.Errorf("question %d position mutated to %d", q.ID, q.Position)
		}
	}
}

func TestResultHidesDetails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	q := f.mcQuestion(3)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, ShowResult: false}, q)

	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	if _, err := f.quiz.Result(ctx, f.learner, view.ID); !errors.Is(err, util.ErrAttemptNotSubmitted) {
		t.Fatalf("result before submit err = %v", err)
	}
	f.quiz.Submit(ctx, f.learner, view.ID)
	res, err := f.quiz.Result(ctx, f.learner, view.ID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.ShowDetails || len(res.Questions) != 0 {
		t.Errorf("details leaked: %+v", res.Questions)
	}
	if res.Possible != 3 || res.Passed == nil {
		t.Errorf("summary missing: %+v", res)
	}
}

func TestRequiredQuizGatesCourseCompletion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, lessons := f.addCourse("Go", 1)
	if _, err := f.progress.EnrollCourse(ctx, f.learner, courseID); err != nil {
		t.Fatalf("EnrollCourse: %v", err)
	}
	q := f.mcQuestion(1)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID, PassingScore: 100, RequiredForCompletion: true}, q)

	en, err := f.progress.CompleteLesson(ctx, f.learner, lessons[0])
	if err != nil {
		t.Fatalf("CompleteLesson: %v", err)
	}
	if en.Progress != 99 || en.Status != model.EnrollmentInProgress {
		t.Fatalf("before quiz: progress=%d status=%s", en.Progress, en.Status)
	}

	// 未通过不计入
	v1, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	f.quiz.AnswerQuestion(ctx, f.learner, v1.ID, q.ID, AnswerInput{OptionID: wrongOption(q)})
	f.quiz.Submit(ctx, f.learner, v1.ID)
	if e, _ := f.store.FindEnrollment(f.learner, courseID); e.Status == model.EnrollmentCompleted {
		t.Fatal("completed with a failed required quiz")
	}

	v2, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	f.quiz.AnswerQuestion(ctx, f.learner, v2.ID, q.ID, AnswerInput{OptionID: correctOption(q)})
	if _, err := f.quiz.Submit(ctx, f.learner, v2.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	e, _ := f.store.FindEnrollment(f.learner, courseID)
	if e.Status != model.EnrollmentCompleted || e.Progress != 100 || e.CompletedAt == nil {
		t.Fatalf("after pass: %+v", e)
	}
	if certs := f.certificates(f.learner); len(certs) != 1 || certs[0].Type != model.CertificateCourse {
		t.Errorf("certificates = %+v", certs)
	}
}

func TestFailedTransactionLeavesNoWrites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	courseID, _ := f.addCourse("Go", 1)
	f.enroll(f.learner, courseID)
	q := f.mcQuestion(1)
	quiz := f.addQuiz(model.Quiz{CourseID: courseID}, q)
	view, _ := f.quiz.Start(ctx, f.learner, quiz.ID)
	before := len(f.hook.events)

	// 题目被删掉后提交失败，不能留下 submitted_at
	stored := f.store.data.quizzes[quiz.ID]
	delete(f.store.data.quizzes, quiz.ID)
	if _, err := f.quiz.Submit(ctx, f.learner, view.ID); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("err = %v, want ErrQuizNotFound", err)
	}
	f.store.data.quizzes[quiz.ID] = stored

	a, _ := f.store.FindAttempt(view.ID)
	if a.SubmittedAt != nil || a.Status != model.AttemptInProgress {
		t.Errorf("partial write: %+v", a)
	}
	if len(f.hook.events) != before {
		t.Errorf("events dispatched for a rolled back transaction")
	}
}
