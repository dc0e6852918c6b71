package repository

import (
	"context"
	"errors"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 未找到记录统一返回 gorm.ErrRecordNotFound，唯一索引冲突返回 gorm.ErrDuplicatedKey
// （需要 gorm.Config.TranslateError）。

type UserStore interface {
	FindUser(id uint) (*model.User, error)
	IncrementUserPoints(userID uint, amount int) error
}

type QuizStore interface {
	FindQuizWithQuestions(id uint) (*model.Quiz, error)
	RequiredQuizIDs(courseID uint) ([]uint, error)
}

type AttemptStore interface {
	CreateAttempt(a *model.Attempt) error
	FindAttempt(id uint) (*model.Attempt, error)
	LockAttempt(id uint) (*model.Attempt, error)
	SaveAttempt(a *model.Attempt) error
	CountAttempts(userID, quizID uint) (int64, error)
	FindInProgressAttempt(userID, quizID uint) (*model.Attempt, error)
	SaveAnswer(a *model.Answer) error
	// LatestAttempts 每个测验最近一次作答
	LatestAttempts(userID uint, quizIDs []uint) ([]model.Attempt, error)
}

type EnrollmentStore interface {
	FindCourse(id uint) (*model.Course, error)
	FindLesson(id uint) (*model.Lesson, error)
	CountLessons(courseID uint) (int64, error)
	CountCompletedLessons(userID, courseID uint) (int64, error)
	CreateLessonCompletion(c *model.LessonCompletion) error

	FindEnrollment(userID, courseID uint) (*model.Enrollment, error)
	LockEnrollment(userID, courseID uint) (*model.Enrollment, error)
	CreateEnrollment(e *model.Enrollment) error
	SaveEnrollment(e *model.Enrollment) error
	EnrollmentsByCourses(userID uint, courseIDs []uint) (map[uint]model.Enrollment, error)
}

type PathStore interface {
	FindPathWithCourses(id uint) (*model.LearningPath, error)
	PathsContainingCourse(courseID uint) ([]model.LearningPath, error)
	FindPathEnrollment(userID, pathID uint) (*model.PathEnrollment, error)
	LockPathEnrollment(userID, pathID uint) (*model.PathEnrollment, error)
	CreatePathEnrollment(pe *model.PathEnrollment) error
	SavePathEnrollment(pe *model.PathEnrollment) error
	ListPathEnrollments(userID uint) ([]model.PathEnrollment, error)

	CreatePath(p *model.LearningPath) error
	UpdatePath(p *model.LearningPath) error
	ReplacePathCourses(pathID uint, courseIDs []uint) error
	// OpenPathEnrollments 路径下尚未完成的报名（加锁）
	OpenPathEnrollments(pathID uint) ([]model.PathEnrollment, error)
}

type CertificateStore interface {
	FindCertificate(userID uint, typ model.CertificateType, refID uint) (*model.Certificate, error)
	CreateCertificate(c *model.Certificate) error
}

type PointStore interface {
	CreatePointHistory(h *model.PointHistory) error
}

type NotificationStore interface {
	CreateNotification(n *model.Notification) error
}

// Store 测验、进度、路径、证书与积分共用的存储接口。
// Transaction 内回调拿到的 Store 绑定在同一个事务上。
type Store interface {
	UserStore
	QuizStore
	AttemptStore
	EnrollmentStore
	PathStore
	CertificateStore
	PointStore
	NotificationStore

	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore 由各个 gorm 仓库组合而成
type GormStore struct {
	db *gorm.DB
	*UserRepository
	*CourseRepository
	*QuizRepository
	*AttemptRepository
	*EnrollmentRepository
	*LearningPathRepository
	*CertificateRepository
	*PointRepository
	*NotificationRepository
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:                     db,
		UserRepository:         NewUserRepository(db),
		CourseRepository:       NewCourseRepository(db),
		QuizRepository:         NewQuizRepository(db),
		AttemptRepository:      NewAttemptRepository(db),
		EnrollmentRepository:   NewEnrollmentRepository(db),
		LearningPathRepository: NewLearningPathRepository(db),
		CertificateRepository:  NewCertificateRepository(db),
		PointRepository:        NewPointRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// createOnce 在 savepoint 中插入，唯一索引冲突时只回滚到 savepoint，
// 外层事务（postgres 下）仍可继续使用。
func createOnce(db *gorm.DB, value interface{}) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(value).Error
	})
}

// IsNotFound gorm.ErrRecordNotFound 的简写
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
