package service

import (
	"context"
	"fmt"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type ProgressService struct {
	Store          repository.Store
	Engine         *CompletionEngine
	Dispatcher     *Dispatcher
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewProgressService(store repository.Store, engine *CompletionEngine, dispatcher *Dispatcher,
	enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *ProgressService {
	return &ProgressService{
		Store:          store,
		Engine:         engine,
		Dispatcher:     dispatcher,
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
	}
}

// EnrollCourse 单独报名一门已发布的课程，受学员所在学习路径的解锁顺序限制
func (s *ProgressService) EnrollCourse(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	fx := &Effects{}
	var en *model.Enrollment
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		course, err := tx.FindCourse(courseID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrCourseNotFound
			}
			return err
		}
		if !course.IsPublished {
			return util.ErrCourseNotFound
		}
		if err := s.Engine.CheckCourseUnlocked(tx, userID, courseID); err != nil {
			return err
		}
		en, err = s.Engine.Enroll(tx, fx, userID, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Dispatcher.Dispatch(ctx, fx)
	return en, nil
}

// Drop 退课。已完成的课程不能退，已退课的重复调用直接返回
func (s *ProgressService) Drop(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var en *model.Enrollment
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		en, err = tx.LockEnrollment(userID, courseID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrNotEnrolled
			}
			return err
		}
		switch en.Status {
		case model.EnrollmentDropped:
			return nil
		case model.EnrollmentCompleted:
			return util.NewValidationError("status", "completed enrollment cannot be dropped")
		}
		en.Status = model.EnrollmentDropped
		return tx.SaveEnrollment(en)
	})
	if err != nil {
		return nil, err
	}
	return en, nil
}

// CompleteLesson 标记课时完成（幂等）并重算所在课程的进度
func (s *ProgressService) CompleteLesson(ctx context.Context, userID, lessonID uint) (*model.Enrollment, error) {
	ctx, span := tracing.StartSpan(ctx, "progress.CompleteLesson",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("lesson_id", int64(lessonID)))
	defer span.End()

	fx := &Effects{}
	var en *model.Enrollment
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		lesson, err := tx.FindLesson(lessonID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrLessonNotFound
			}
			return err
		}
		current, err := tx.FindEnrollment(userID, lesson.CourseID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.ErrNotEnrolled
			}
			return err
		}
		if current.Status == model.EnrollmentDropped {
			return util.ErrNotEnrolled
		}

		err = tx.CreateLessonCompletion(&model.LessonCompletion{
			UserID:      userID,
			LessonID:    lesson.ID,
			CourseID:    lesson.CourseID,
			CompletedAt: s.Engine.now(),
		})
		if err != nil && !repository.IsDuplicate(err) {
			return fmt.Errorf("create lesson completion: %w", err)
		}

		en, err = s.Engine.RecomputeCourse(tx, fx, userID, lesson.CourseID)
		return err
	})
	if err != nil {
		tracing.Fail(span, err)
		return nil, err
	}
	s.Dispatcher.Dispatch(ctx, fx)
	return en, nil
}

// Recompute 手动重新触发一次进度计算，已完成的报名不会重复产生副作用
func (s *ProgressService) Recompute(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	ctx, span := tracing.StartSpan(ctx, "progress.Recompute",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("course_id", int64(courseID)))
	defer span.End()

	fx := &Effects{}
	var en *model.Enrollment
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		en, err = s.Engine.RecomputeCourse(tx, fx, userID, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Dispatcher.Dispatch(ctx, fx)
	return en, nil
}

func (s *ProgressService) MyEnrollments(userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListEnrollmentsByUser(userID)
}

func (s *ProgressService) CourseEnrollments(courseID uint, page, limit int) ([]model.Enrollment, int64, error) {
	return s.EnrollmentRepo.ListEnrollmentsByCourse(courseID, page, limit)
}

// CourseProgress 学员视角的课程详情：课程结构 + 已完成课时
type CourseProgress struct {
	Course             *model.Course     `json:"course"`
	Enrollment         *model.Enrollment `json:"enrollment,omitempty"`
	CompletedLessonIDs []uint            `json:"completedLessonIds"`
}

func (s *ProgressService) CourseProgress(userID, courseID uint) (*CourseProgress, error) {
	course, err := s.CourseRepo.FindCourseTree(courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if !course.IsPublished {
		return nil, util.ErrCourseNotFound
	}

	out := &CourseProgress{Course: course, CompletedLessonIDs: []uint{}}
	en, err := s.EnrollmentRepo.FindEnrollment(userID, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return out, nil
		}
		return nil, err
	}
	out.Enrollment = en
	ids, err := s.CourseRepo.CompletedLessonIDs(userID, courseID)
	if err != nil {
		return nil, err
	}
	out.CompletedLessonIDs = ids
	return out, nil
}
