// Package progress 计算课程报名进度与学习路径的解锁状态，不涉及存储。
package progress

import (
	"time"

	"lms_backend/internal/model"
)

// CourseInput 重新计算一次报名进度所需的数据
type CourseInput struct {
	TotalLessons     int
	CompletedLessons int
	// 设为完成条件的测验数量，以及其中最近一次作答已评分且通过的数量
	RequiredQuizzes int
	PassedQuizzes   int
}

func (in CourseInput) quizzesSatisfied() bool {
	return in.PassedQuizzes >= in.RequiredQuizzes
}

// Percentage floor(100 * completed / total)。必修测验未全部通过时最多 99。
// 没有课时的课程只由必修测验决定：通过即 100，否则为 0。
func Percentage(in CourseInput) int {
	var pct int
	switch {
	case in.TotalLessons > 0:
		completed := in.CompletedLessons
		if completed > in.TotalLessons {
			completed = in.TotalLessons
		}
		pct = 100 * completed / in.TotalLessons
	case in.RequiredQuizzes > 0:
		pct = 100
	default:
		return 0
	}
	if pct == 100 && !in.quizzesSatisfied() {
		pct = 99
	}
	return pct
}

// Apply 用最新数据更新报名的进度与状态，返回本次是否刚好跨过“完成”这条边。
// 已完成或已退课的报名不会被修改，重复调用不会再次返回 true。
func Apply(e *model.Enrollment, in CourseInput, now time.Time) (justCompleted bool) {
	switch e.Status {
	case model.EnrollmentDropped, model.EnrollmentCompleted:
		return false
	}

	e.Progress = Percentage(in)
	if e.Progress == 100 {
		e.Status = model.EnrollmentCompleted
		if e.CompletedAt == nil {
			t := now
			e.CompletedAt = &t
		}
		return true
	}
	if in.CompletedLessons > 0 && e.Status == model.EnrollmentEnrolled {
		e.Status = model.EnrollmentInProgress
	}
	return false
}
