package model

import "time"

// swagger:model LearningPath
type LearningPath struct {
	BaseModel
	Title        string               `gorm:"size:255;not null" json:"title"`
	Description  string               `gorm:"type:text" json:"description"`
	ThumbnailURL string               `gorm:"size:512" json:"thumbnailUrl"`
	IsPublished  bool                 `gorm:"default:false" json:"isPublished"`
	PublishedAt  *time.Time           `json:"publishedAt,omitempty"`
	Courses      []LearningPathCourse `gorm:"foreignKey:PathID" json:"courses,omitempty"`
}

func (LearningPath) TableName() string {
	return "learning_paths"
}

// CourseIDs 按 Position 排好序的课程ID
func (p *LearningPath) CourseIDs() []uint {
	ids := make([]uint, len(p.Courses))
	for i, c := range p.Courses {
		ids[i] = c.CourseID
	}
	return ids
}

type LearningPathCourse struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	PathID   uint    `gorm:"uniqueIndex:idx_path_course;not null" json:"pathId"`
	CourseID uint    `gorm:"uniqueIndex:idx_path_course;not null" json:"courseId"`
	Course   *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Position int     `gorm:"default:0" json:"position"`
}

func (LearningPathCourse) TableName() string {
	return "learning_path_courses"
}
