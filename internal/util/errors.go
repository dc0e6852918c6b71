package util

import (
	"errors"
	"sort"
	"strings"
)

// 权限
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotEnrolled  = errors.New("not enrolled in this course")
)

// 状态冲突
var (
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrAlreadyInProgress    = errors.New("an attempt is already in progress")
	ErrAttemptNotActive     = errors.New("attempt is not in progress")
	ErrAttemptNotSubmitted  = errors.New("attempt has not been submitted")
	ErrAlreadyGraded        = errors.New("answer already graded")
	ErrCourseLocked         = errors.New("course is locked by learning path")
	ErrEventFull            = errors.New("event is full")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrAlreadyEnrolled      = errors.New("already enrolled")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrQuizHasAttempts      = errors.New("quiz already has attempts")
)

// 不存在
var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrAnswerNotFound      = errors.New("answer not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrModuleNotFound      = errors.New("module not found")
	ErrPathNotFound        = errors.New("learning path not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrDraftNotFound       = errors.New("draft not found")
	ErrSettingNotFound     = errors.New("setting not found")
)

var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")

	// ErrAIUnavailable AI 助手未配置或上游调用失败
	ErrAIUnavailable = errors.New("AI assistant unavailable")
)

// ValidationError 字段 -> 错误原因
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

func (e *ValidationError) Add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
}

// OrNil 没有字段错误时返回 nil，便于逐项校验后直接 return
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsNotFound 判断是否为任一“不存在”类错误
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrUserNotFound, ErrQuizNotFound, ErrAttemptNotFound, ErrQuestionNotFound, ErrAnswerNotFound,
		ErrCourseNotFound, ErrModuleNotFound, ErrPathNotFound, ErrLessonNotFound,
		ErrCertificateNotFound, ErrEventNotFound, ErrDraftNotFound, ErrSettingNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isConflict(err error) bool {
	for _, target := range []error{
		ErrAttemptLimitExceeded, ErrAlreadyInProgress, ErrAttemptNotActive,
		ErrAttemptNotSubmitted, ErrAlreadyGraded, ErrCourseLocked, ErrEventFull,
		ErrAlreadyRegistered, ErrAlreadyEnrolled, ErrEmailRegistered, ErrQuizHasAttempts,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
