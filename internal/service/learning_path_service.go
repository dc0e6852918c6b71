package service

import (
	"context"
	"fmt"

	"lms_backend/internal/model"
	"lms_backend/internal/progress"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

type LearningPathService struct {
	Store      repository.Store
	Engine     *CompletionEngine
	Dispatcher *Dispatcher
	Repo       *repository.LearningPathRepository
}

func NewLearningPathService(store repository.Store, engine *CompletionEngine, dispatcher *Dispatcher,
	repo *repository.LearningPathRepository) *LearningPathService {
	return &LearningPathService{
		Store:      store,
		Engine:     engine,
		Dispatcher: dispatcher,
		Repo:       repo,
	}
}

func findPublishedPath(tx repository.Store, pathID uint) (*model.LearningPath, error) {
	path, err := findPath(tx, pathID)
	if err != nil {
		return nil, err
	}
	if !path.IsPublished {
		return nil, util.ErrPathNotFound
	}
	return path, nil
}

// EnrollPath 加入学习路径，不会自动报名路径中的课程。
// 若学员已学完路径全部课程，加入即视为完成。
func (s *LearningPathService) EnrollPath(ctx context.Context, userID, pathID uint) (*model.PathEnrollment, error) {
	fx := &Effects{}
	var pe *model.PathEnrollment
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		path, err := findPublishedPath(tx, pathID)
		if err != nil {
			return err
		}
		pe = &model.PathEnrollment{
			UserID:     userID,
			PathID:     pathID,
			Status:     model.PathEnrollmentActive,
			EnrolledAt: s.Engine.now(),
		}
		if err := tx.CreatePathEnrollment(pe); err != nil {
			if repository.IsDuplicate(err) {
				return util.ErrAlreadyEnrolled
			}
			return fmt.Errorf("create path enrollment: %w", err)
		}
		_, err = s.Engine.EvaluatePath(tx, fx, pe, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Dispatcher.Dispatch(ctx, fx)
	return pe, nil
}

type PathCourseView struct {
	progress.CourseState
	Title    string `json:"title"`
	Progress int    `json:"progress"`
}

type PathProgressView struct {
	PathID     uint                  `json:"pathId"`
	Title      string                `json:"title"`
	Enrollment *model.PathEnrollment `json:"enrollment,omitempty"`
	Courses    []PathCourseView      `json:"courses"`
	Completed  int                   `json:"completedCourses"`
	Total      int                   `json:"totalCourses"`
	IsComplete bool                  `json:"isComplete"`
}

// PathProgress 路径中每门课程的锁定/完成状态。未加入路径时同样返回，Enrollment 为空。
func (s *LearningPathService) PathProgress(ctx context.Context, userID, pathID uint) (*PathProgressView, error) {
	path, err := findPublishedPath(s.Store, pathID)
	if err != nil {
		return nil, err
	}
	ids := path.CourseIDs()
	ens, err := s.Store.EnrollmentsByCourses(userID, ids)
	if err != nil {
		return nil, err
	}
	states := progress.Gate(ids, statusesOf(ens))

	view := &PathProgressView{
		PathID:     path.ID,
		Title:      path.Title,
		Courses:    make([]PathCourseView, len(states)),
		Total:      len(states),
		IsComplete: progress.AllCompleted(states),
	}
	for i, st := range states {
		cv := PathCourseView{CourseState: st, Progress: ens[st.CourseID].Progress}
		if c := path.Courses[i].Course; c != nil {
			cv.Title = c.Title
		}
		if st.IsCompleted {
			view.Completed++
		}
		view.Courses[i] = cv
	}

	pe, err := s.Store.FindPathEnrollment(userID, pathID)
	switch {
	case err == nil:
		view.Enrollment = pe
	case !repository.IsNotFound(err):
		return nil, err
	}
	return view, nil
}

// EnrollCourseInPath 从路径中报名课程，前一门课程未完成时拒绝
func (s *LearningPathService) EnrollCourseInPath(ctx context.Context, userID, pathID, courseID uint) (*model.Enrollment, error) {
	fx := &Effects{}
	var en *model.Enrollment
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		path, err := findPublishedPath(tx, pathID)
		if err != nil {
			return err
		}
		if _, err := tx.FindPathEnrollment(userID, pathID); err != nil {
			if repository.IsNotFound(err) {
				return util.ErrNotEnrolled
			}
			return err
		}
		states, err := pathStates(tx, userID, path)
		if err != nil {
			return err
		}
		locked, found := progress.IsLocked(states, courseID)
		if !found {
			return util.ErrCourseNotFound
		}
		if locked {
			return util.ErrCourseLocked
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

func (s *LearningPathService) MyPaths(userID uint) ([]model.PathEnrollment, error) {
	return s.Store.ListPathEnrollments(userID)
}

// ---- 后台维护 ----

type PathInput struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,max=512"`
	CourseIDs    []uint `json:"courseIds"`
}

func validateCourses(tx repository.Store, ids []uint) error {
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return util.NewValidationError("courseIds", fmt.Sprintf("course %d listed twice", id))
		}
		seen[id] = true
		if _, err := tx.FindCourse(id); err != nil {
			if repository.IsNotFound(err) {
				return util.NewValidationError("courseIds", fmt.Sprintf("course %d does not exist", id))
			}
			return err
		}
	}
	return nil
}

func findPath(tx repository.Store, id uint) (*model.LearningPath, error) {
	path, err := tx.FindPathWithCourses(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrPathNotFound
		}
		return nil, err
	}
	return path, nil
}

// reevaluateEnrollments 课程列表变化后，已加入路径的学员可能因此满足完成条件
func (s *LearningPathService) reevaluateEnrollments(tx repository.Store, fx *Effects, path *model.LearningPath) error {
	if !path.IsPublished {
		return nil
	}
	pes, err := tx.OpenPathEnrollments(path.ID)
	if err != nil {
		return fmt.Errorf("open path enrollments: %w", err)
	}
	for i := range pes {
		if _, err := s.Engine.EvaluatePath(tx, fx, &pes[i], path); err != nil {
			return err
		}
	}
	return nil
}

// Create 路径与课程列表在同一事务中写入
func (s *LearningPathService) Create(ctx context.Context, in PathInput) (*model.LearningPath, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	var path *model.LearningPath
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		if err := validateCourses(tx, in.CourseIDs); err != nil {
			return err
		}
		created := &model.LearningPath{
			Title:        in.Title,
			Description:  in.Description,
			ThumbnailURL: in.ThumbnailURL,
		}
		if err := tx.CreatePath(created); err != nil {
			return fmt.Errorf("create path: %w", err)
		}
		if err := tx.ReplacePathCourses(created.ID, in.CourseIDs); err != nil {
			return fmt.Errorf("replace path courses: %w", err)
		}
		var err error
		path, err = findPath(tx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

// Update 重写路径信息与课程顺序，随后重新判断未完成学员的路径完成状态
func (s *LearningPathService) Update(ctx context.Context, id uint, in PathInput) (*model.LearningPath, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	fx := &Effects{}
	var path *model.LearningPath
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		current, err := findPath(tx, id)
		if err != nil {
			return err
		}
		if err := validateCourses(tx, in.CourseIDs); err != nil {
			return err
		}
		current.Title = in.Title
		current.Description = in.Description
		current.ThumbnailURL = in.ThumbnailURL
		if err := tx.UpdatePath(current); err != nil {
			return fmt.Errorf("update path: %w", err)
		}
		if err := tx.ReplacePathCourses(id, in.CourseIDs); err != nil {
			return fmt.Errorf("replace path courses: %w", err)
		}
		if path, err = findPath(tx, id); err != nil {
			return err
		}
		return s.reevaluateEnrollments(tx, fx, path)
	})
	if err != nil {
		return nil, err
	}
	s.Dispatcher.Dispatch(ctx, fx)
	logger.Log.Info("learning path updated", zap.Uint("path_id", id), zap.Int("courses", len(in.CourseIDs)))
	return path, nil
}

// SetPublished 空路径不能发布；重新发布时同样检查学员是否已满足完成条件
func (s *LearningPathService) SetPublished(ctx context.Context, id uint, published bool) (*model.LearningPath, error) {
	fx := &Effects{}
	var path *model.LearningPath
	err := s.Store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		if path, err = findPath(tx, id); err != nil {
			return err
		}
		if published && len(path.Courses) == 0 {
			return util.NewValidationError("courseIds", "cannot publish an empty learning path")
		}
		path.IsPublished = published
		if published && path.PublishedAt == nil {
			now := s.Engine.now()
			path.PublishedAt = &now
		}
		if err := tx.UpdatePath(path); err != nil {
			return fmt.Errorf("update path: %w", err)
		}
		return s.reevaluateEnrollments(tx, fx, path)
	})
	if err != nil {
		return nil, err
	}
	s.Dispatcher.Dispatch(ctx, fx)
	return path, nil
}

func (s *LearningPathService) Get(id uint) (*model.LearningPath, error) {
	return findPath(s.Store, id)
}

func (s *LearningPathService) List(publishedOnly bool, page, limit int) ([]model.LearningPath, int64, error) {
	return s.Repo.ListPaths(publishedOnly, page, limit)
}

func (s *LearningPathService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.Repo.DeletePath(id)
}
