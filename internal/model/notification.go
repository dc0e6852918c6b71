package model

import "time"

type NotificationType string

const (
	NotificationCertificate NotificationType = "certificate"
	NotificationPoints      NotificationType = "points"
	NotificationQuizGraded  NotificationType = "quiz_graded"
	NotificationCourse      NotificationType = "course_completed"
	NotificationPath        NotificationType = "path_completed"
	NotificationEvent       NotificationType = "event"
)

// swagger:model Notification
type Notification struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"userId"`
	Type      NotificationType `gorm:"size:30;not null" json:"type"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	ActionURL string           `gorm:"size:512" json:"actionUrl,omitempty"`
	ReadAt    *time.Time       `json:"readAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
