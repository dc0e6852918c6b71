package service

import (
	"fmt"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/progress"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

// CompletionEngine 事务内的进度重算与完成副作用，课时、测验、路径三处共用。
// 所有方法都要求传入的 tx 已处于事务中。
type CompletionEngine struct {
	Certs   *CertificateService
	Points  *PointService
	Notes   *NotificationService
	Rewards *RewardPolicy
	Now     func() time.Time
}

func (e *CompletionEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *CompletionEngine) courseInput(tx repository.Store, userID, courseID uint) (progress.CourseInput, error) {
	var in progress.CourseInput

	total, err := tx.CountLessons(courseID)
	if err != nil {
		return in, fmt.Errorf("count lessons: %w", err)
	}
	done, err := tx.CountCompletedLessons(userID, courseID)
	if err != nil {
		return in, fmt.Errorf("count completed lessons: %w", err)
	}
	required, err := tx.RequiredQuizIDs(courseID)
	if err != nil {
		return in, fmt.Errorf("required quizzes: %w", err)
	}
	in.TotalLessons = int(total)
	in.CompletedLessons = int(done)
	in.RequiredQuizzes = len(required)

	if len(required) > 0 {
		latest, err := tx.LatestAttempts(userID, required)
		if err != nil {
			return in, fmt.Errorf("latest attempts: %w", err)
		}
		for _, a := range latest {
			if a.Status == model.AttemptGraded && a.Passed != nil && *a.Passed {
				in.PassedQuizzes++
			}
		}
	}
	return in, nil
}

// RecomputeCourse 锁定报名行后重算进度，刚完成时在同一事务内签发证书、奖励积分并重算相关路径
func (e *CompletionEngine) RecomputeCourse(tx repository.Store, fx *Effects, userID, courseID uint) (*model.Enrollment, error) {
	en, err := tx.LockEnrollment(userID, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrNotEnrolled
		}
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}
	if en.Status == model.EnrollmentDropped || en.Status == model.EnrollmentCompleted {
		return en, nil
	}

	in, err := e.courseInput(tx, userID, courseID)
	if err != nil {
		return nil, err
	}

	prevStatus, prevProgress := en.Status, en.Progress
	justCompleted := progress.Apply(en, in, e.now())
	if en.Status != prevStatus || en.Progress != prevProgress {
		if err := tx.SaveEnrollment(en); err != nil {
			return nil, fmt.Errorf("save enrollment: %w", err)
		}
	}
	if !justCompleted {
		return en, nil
	}

	logger.Log.Info("course completed", zap.Uint("user_id", userID), zap.Uint("course_id", courseID))
	if err := e.onCourseCompleted(tx, fx, en); err != nil {
		return nil, err
	}
	if err := e.ReevaluatePaths(tx, fx, userID, courseID); err != nil {
		return nil, err
	}
	return en, nil
}

func (e *CompletionEngine) onCourseCompleted(tx repository.Store, fx *Effects, en *model.Enrollment) error {
	course, err := tx.FindCourse(en.CourseID)
	if err != nil {
		return fmt.Errorf("find course: %w", err)
	}

	if _, err := e.Certs.Issue(tx, fx, en.UserID, model.CertificateCourse, course.ID, course.Title); err != nil {
		return err
	}
	reward := e.Rewards.Current().CourseCompletionPoints
	if _, err := e.Points.Award(tx, fx, en.UserID, reward,
		fmt.Sprintf("完成课程《%s》", course.Title), model.PointSourceCourse, course.ID); err != nil {
		return err
	}
	if err := e.Notes.Notify(tx, fx, en.UserID, model.NotificationCourse,
		"课程已完成", fmt.Sprintf("恭喜完成课程《%s》", course.Title),
		fmt.Sprintf("/portal/courses/%d", course.ID)); err != nil {
		return err
	}
	fx.add(Event{Kind: EventCourseCompleted, UserID: en.UserID, RefID: course.ID})
	return nil
}

// ReevaluatePaths 学员已加入且包含该课程的路径逐一重新判断是否完成
func (e *CompletionEngine) ReevaluatePaths(tx repository.Store, fx *Effects, userID, courseID uint) error {
	paths, err := tx.PathsContainingCourse(courseID)
	if err != nil {
		return fmt.Errorf("paths containing course: %w", err)
	}
	for i := range paths {
		pe, err := tx.LockPathEnrollment(userID, paths[i].ID)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("lock path enrollment: %w", err)
		}
		if _, err := e.EvaluatePath(tx, fx, pe, &paths[i]); err != nil {
			return err
		}
	}
	return nil
}

// EvaluatePath 全部课程完成时标记路径完成并触发副作用，只在第一次完成时返回 true
func (e *CompletionEngine) EvaluatePath(tx repository.Store, fx *Effects, pe *model.PathEnrollment, path *model.LearningPath) (bool, error) {
	if pe.Status == model.PathEnrollmentCompleted {
		return false, nil
	}
	states, err := pathStates(tx, pe.UserID, path)
	if err != nil {
		return false, err
	}
	if !progress.AllCompleted(states) {
		return false, nil
	}

	now := e.now()
	pe.Status = model.PathEnrollmentCompleted
	pe.CompletedAt = &now
	if err := tx.SavePathEnrollment(pe); err != nil {
		return false, fmt.Errorf("save path enrollment: %w", err)
	}

	logger.Log.Info("learning path completed", zap.Uint("user_id", pe.UserID), zap.Uint("path_id", path.ID))
	if _, err := e.Certs.Issue(tx, fx, pe.UserID, model.CertificatePath, path.ID, path.Title); err != nil {
		return false, err
	}
	reward := e.Rewards.Current().PathCompletionPoints
	if _, err := e.Points.Award(tx, fx, pe.UserID, reward,
		fmt.Sprintf("完成学习路径《%s》", path.Title), model.PointSourcePath, path.ID); err != nil {
		return false, err
	}
	if err := e.Notes.Notify(tx, fx, pe.UserID, model.NotificationPath,
		"学习路径已完成", fmt.Sprintf("恭喜完成学习路径《%s》", path.Title),
		fmt.Sprintf("/portal/paths/%d", path.ID)); err != nil {
		return false, err
	}
	fx.add(Event{Kind: EventPathCompleted, UserID: pe.UserID, RefID: path.ID})
	return true, nil
}

func pathStates(tx repository.Store, userID uint, path *model.LearningPath) ([]progress.CourseState, error) {
	ids := path.CourseIDs()
	ens, err := tx.EnrollmentsByCourses(userID, ids)
	if err != nil {
		return nil, fmt.Errorf("path enrollments: %w", err)
	}
	return progress.Gate(ids, statusesOf(ens)), nil
}

func statusesOf(ens map[uint]model.Enrollment) map[uint]model.EnrollmentStatus {
	out := make(map[uint]model.EnrollmentStatus, len(ens))
	for id, en := range ens {
		out[id] = en.Status
	}
	return out
}

// CheckCourseUnlocked 单独报名课程时的路径限制：课程不在学员加入的任何路径中则不受限，
// 否则至少要有一条已加入的路径解锁了它。
func (e *CompletionEngine) CheckCourseUnlocked(tx repository.Store, userID, courseID uint) error {
	paths, err := tx.PathsContainingCourse(courseID)
	if err != nil {
		return fmt.Errorf("paths containing course: %w", err)
	}
	if len(paths) == 0 {
		return nil
	}
	pes, err := tx.ListPathEnrollments(userID)
	if err != nil {
		return fmt.Errorf("list path enrollments: %w", err)
	}
	followed := make(map[uint]bool, len(pes))
	for _, pe := range pes {
		followed[pe.PathID] = true
	}

	restricted := false
	for i := range paths {
		if !followed[paths[i].ID] {
			continue
		}
		restricted = true
		states, err := pathStates(tx, userID, &paths[i])
		if err != nil {
			return err
		}
		if locked, found := progress.IsLocked(states, courseID); found && !locked {
			return nil
		}
	}
	if restricted {
		return util.ErrCourseLocked
	}
	return nil
}

// Enroll 新建报名，或重新激活已退课的报名，随后按已有学习记录重算一次
func (e *CompletionEngine) Enroll(tx repository.Store, fx *Effects, userID, courseID uint) (*model.Enrollment, error) {
	en, err := tx.LockEnrollment(userID, courseID)
	switch {
	case err == nil:
		if en.Status != model.EnrollmentDropped {
			return en, util.ErrAlreadyEnrolled
		}
		en.Status = model.EnrollmentEnrolled
		en.EnrolledAt = e.now()
		if err := tx.SaveEnrollment(en); err != nil {
			return nil, fmt.Errorf("reactivate enrollment: %w", err)
		}
	case repository.IsNotFound(err):
		en = &model.Enrollment{
			UserID:     userID,
			CourseID:   courseID,
			Status:     model.EnrollmentEnrolled,
			EnrolledAt: e.now(),
		}
		if err := tx.CreateEnrollment(en); err != nil {
			if repository.IsDuplicate(err) {
				return nil, util.ErrAlreadyEnrolled
			}
			return nil, fmt.Errorf("create enrollment: %w", err)
		}
	default:
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}
	return e.RecomputeCourse(tx, fx, userID, courseID)
}
