package model

import "time"

type PointSource string

const (
	PointSourceCourse PointSource = "course_completion"
	PointSourcePath   PointSource = "path_completion"
	PointSourceQuiz   PointSource = "quiz_pass"
	PointSourceManual PointSource = "manual"
)

// PointHistory 只追加的积分流水，(user, source_type, source_id) 唯一保证同一事件只奖励一次
type PointHistory struct {
	ID         uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint        `gorm:"uniqueIndex:idx_point_user_source;not null" json:"userId"`
	Amount     int         `gorm:"not null" json:"amount"`
	Reason     string      `gorm:"size:255" json:"reason"`
	SourceType PointSource `gorm:"uniqueIndex:idx_point_user_source;size:30;not null" json:"sourceType"`
	SourceID   uint        `gorm:"uniqueIndex:idx_point_user_source;not null" json:"sourceId"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (PointHistory) TableName() string {
	return "point_histories"
}
