package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentEnrolled   EnrollmentStatus = "enrolled"
	EnrollmentInProgress EnrollmentStatus = "in_progress"
	EnrollmentCompleted  EnrollmentStatus = "completed"
	EnrollmentDropped    EnrollmentStatus = "dropped"
)

// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID      uint             `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"userId"`
	CourseID    uint             `gorm:"uniqueIndex:idx_enrollment_user_course;not null" json:"courseId"`
	Course      *Course          `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Status      EnrollmentStatus `gorm:"size:20;default:'enrolled'" json:"status"`
	Progress    int              `gorm:"default:0" json:"progress"`
	EnrolledAt  time.Time        `json:"enrolledAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

type PathEnrollmentStatus string

const (
	PathEnrollmentActive    PathEnrollmentStatus = "enrolled"
	PathEnrollmentCompleted PathEnrollmentStatus = "completed"
)

type PathEnrollment struct {
	BaseModel
	UserID      uint                 `gorm:"uniqueIndex:idx_path_enrollment_user_path;not null" json:"userId"`
	PathID      uint                 `gorm:"uniqueIndex:idx_path_enrollment_user_path;not null" json:"pathId"`
	Status      PathEnrollmentStatus `gorm:"size:20;default:'enrolled'" json:"status"`
	EnrolledAt  time.Time            `json:"enrolledAt"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
}

func (PathEnrollment) TableName() string {
	return "path_enrollments"
}
