package service

import (
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

// CourseService 后台课程编排：课程 / 章节 / 课时
type CourseService struct {
	CourseRepo *repository.CourseRepository
}

func NewCourseService(courseRepo *repository.CourseRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo}
}

type CourseInput struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,max=512"`
}

func (s *CourseService) CreateCourse(creatorID uint, in CourseInput) (*model.Course, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	course := &model.Course{
		Title:        in.Title,
		Description:  in.Description,
		ThumbnailURL: in.ThumbnailURL,
		CreatorID:    creatorID,
	}
	if err := s.CourseRepo.CreateCourse(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindCourse(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// GetCourseTree publishedOnly 为 true 时草稿课程视为不存在（学员端）
func (s *CourseService) GetCourseTree(id uint, publishedOnly bool) (*model.Course, error) {
	course, err := s.CourseRepo.FindCourseTree(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if publishedOnly && !course.IsPublished {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseService) ListCourses(publishedOnly bool, keyword string, page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.ListCourses(publishedOnly, keyword, page, limit)
}

func (s *CourseService) UpdateCourse(id uint, in CourseInput) (*model.Course, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	course, err := s.GetCourse(id)
	if err != nil {
		return nil, err
	}
	course.Title = in.Title
	course.Description = in.Description
	course.ThumbnailURL = in.ThumbnailURL
	if err := s.CourseRepo.UpdateCourse(course); err != nil {
		return nil, err
	}
	return course, nil
}

// SetPublished 发布前至少要有一个课时，撤回发布不影响已有报名
func (s *CourseService) SetPublished(id uint, published bool) (*model.Course, error) {
	course, err := s.GetCourseTree(id, false)
	if err != nil {
		return nil, err
	}
	if published && !hasLessons(course) {
		return nil, util.NewValidationError("lessons", "a course needs at least one lesson before publishing")
	}
	course.IsPublished = published
	if published && course.PublishedAt == nil {
		now := time.Now()
		course.PublishedAt = &now
	}
	if err := s.CourseRepo.UpdateCourse(course); err != nil {
		return nil, err
	}
	logger.Log.Info("course publish state changed", zap.Uint("course_id", id), zap.Bool("published", published))
	return course, nil
}

func hasLessons(course *model.Course) bool {
	for _, m := range course.Modules {
		if len(m.Lessons) > 0 {
			return true
		}
	}
	return false
}

func (s *CourseService) DeleteCourse(id uint) error {
	if _, err := s.GetCourse(id); err != nil {
		return err
	}
	return s.CourseRepo.DeleteCourse(id)
}

type ModuleInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Position    int    `json:"position" validate:"gte=0"`
}

func (s *CourseService) CreateModule(courseID uint, in ModuleInput) (*model.Module, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.GetCourse(courseID); err != nil {
		return nil, err
	}
	m := &model.Module{
		CourseID:    courseID,
		Title:       in.Title,
		Description: in.Description,
		Position:    in.Position,
	}
	if err := s.CourseRepo.CreateModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CourseService) getModule(id uint) (*model.Module, error) {
	m, err := s.CourseRepo.FindModule(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *CourseService) UpdateModule(id uint, in ModuleInput) (*model.Module, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	m, err := s.getModule(id)
	if err != nil {
		return nil, err
	}
	m.Title = in.Title
	m.Description = in.Description
	m.Position = in.Position
	if err := s.CourseRepo.UpdateModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CourseService) DeleteModule(id uint) error {
	if _, err := s.getModule(id); err != nil {
		return err
	}
	return s.CourseRepo.DeleteModule(id)
}

type LessonInput struct {
	Title           string           `json:"title" validate:"required,max=255"`
	ContentType     model.LessonType `json:"contentType" validate:"required,oneof=text video file"`
	Body            string           `json:"body"`
	MediaURL        string           `json:"mediaUrl" validate:"omitempty,max=512"`
	DurationMinutes int              `json:"durationMinutes" validate:"gte=0"`
	Position        int              `json:"position" validate:"gte=0"`
}

// CreateLesson 课时的 CourseID 取自所属章节
func (s *CourseService) CreateLesson(moduleID uint, in LessonInput) (*model.Lesson, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	m, err := s.getModule(moduleID)
	if err != nil {
		return nil, err
	}
	lesson := &model.Lesson{
		ModuleID:        m.ID,
		CourseID:        m.CourseID,
		Title:           in.Title,
		ContentType:     in.ContentType,
		Body:            in.Body,
		MediaURL:        in.MediaURL,
		DurationMinutes: in.DurationMinutes,
		Position:        in.Position,
	}
	if err := s.CourseRepo.CreateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) GetLesson(id uint) (*model.Lesson, error) {
	lesson, err := s.CourseRepo.FindLesson(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) UpdateLesson(id uint, in LessonInput) (*model.Lesson, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	lesson, err := s.GetLesson(id)
	if err != nil {
		return nil, err
	}
	lesson.Title = in.Title
	lesson.ContentType = in.ContentType
	lesson.Body = in.Body
	lesson.MediaURL = in.MediaURL
	lesson.DurationMinutes = in.DurationMinutes
	lesson.Position = in.Position
	if err := s.CourseRepo.UpdateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// DeleteLesson 已完成的课程不回退，进行中的报名在下次学习事件时按新的课时数重算
func (s *CourseService) DeleteLesson(id uint) error {
	if _, err := s.GetLesson(id); err != nil {
		return err
	}
	return s.CourseRepo.DeleteLesson(id)
}
