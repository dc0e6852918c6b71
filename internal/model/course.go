package model

import "time"

type LessonType string

const (
	LessonText  LessonType = "text"
	LessonVideo LessonType = "video"
	LessonFile  LessonType = "file"
)

// swagger:model Course
type Course struct {
	BaseModel
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	ThumbnailURL string     `gorm:"size:512" json:"thumbnailUrl"`
	IsPublished  bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	CreatorID    uint       `gorm:"index" json:"creatorId"`
	Modules      []Module   `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

type Module struct {
	BaseModel
	CourseID    uint     `gorm:"index;not null" json:"courseId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Position    int      `gorm:"default:0" json:"position"`
	Lessons     []Lesson `gorm:"foreignKey:ModuleID" json:"lessons,omitempty"`
}

func (Module) TableName() string {
	return "course_modules"
}

// Lesson 的 CourseID 冗余存储，便于统计课程课时数
type Lesson struct {
	BaseModel
	ModuleID        uint       `gorm:"index;not null" json:"moduleId"`
	CourseID        uint       `gorm:"index;not null" json:"courseId"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	ContentType     LessonType `gorm:"size:20;default:'text'" json:"contentType"`
	Body            string     `gorm:"type:text" json:"body"`
	MediaURL        string     `gorm:"size:512" json:"mediaUrl"`
	PosterURL       string     `gorm:"size:512" json:"posterUrl,omitempty"`
	DurationMinutes int        `gorm:"default:0" json:"durationMinutes"`
	Position        int        `gorm:"default:0" json:"position"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type LessonCompletion struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_lesson_completion_user_lesson;not null" json:"userId"`
	LessonID    uint      `gorm:"uniqueIndex:idx_lesson_completion_user_lesson;not null" json:"lessonId"`
	CourseID    uint      `gorm:"index;not null" json:"courseId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (LessonCompletion) TableName() string {
	return "lesson_completions"
}
