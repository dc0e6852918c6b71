package progress

import "lms_backend/internal/model"

// CourseState 路径中某门课程对学员的状态
type CourseState struct {
	CourseID    uint                   `json:"courseId"`
	Position    int                    `json:"position"`
	Status      model.EnrollmentStatus `json:"status,omitempty"` // 未报名时为空
	IsLocked    bool                   `json:"isLocked"`
	IsCompleted bool                   `json:"isCompleted"`
}

// Gate 第一门课程永远解锁；第 i 门课程在第 i-1 门课程的报名未完成前保持锁定。
func Gate(courseIDs []uint, statuses map[uint]model.EnrollmentStatus) []CourseState {
	states := make([]CourseState, len(courseIDs))
	for i, id := range courseIDs {
		status := statuses[id]
		states[i] = CourseState{
			CourseID:    id,
			Position:    i,
			Status:      status,
			IsCompleted: status == model.EnrollmentCompleted,
		}
		if i > 0 {
			states[i].IsLocked = statuses[courseIDs[i-1]] != model.EnrollmentCompleted
		}
	}
	return states
}

// AllCompleted 路径中的课程全部完成。空路径不算完成。
func AllCompleted(states []CourseState) bool {
	if len(states) == 0 {
		return false
	}
	for _, s := range states {
		if !s.IsCompleted {
			return false
		}
	}
	return true
}

// IsLocked 查询课程在路径中是否锁定，found 为 false 表示课程不在该路径中
func IsLocked(states []CourseState, courseID uint) (locked bool, found bool) {
	for _, s := range states {
		if s.CourseID == courseID {
			return s.IsLocked, true
		}
	}
	return false, false
}
