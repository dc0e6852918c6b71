package model

import "time"

// swagger:model TrainingEvent
type TrainingEvent struct {
	BaseModel
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:255" json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Capacity    int       `gorm:"default:0" json:"capacity"` // 0 表示不限人数
	IsPublished bool      `gorm:"default:false" json:"isPublished"`
}

func (TrainingEvent) TableName() string {
	return "training_events"
}

type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "registered"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

type EventRegistration struct {
	BaseModel
	EventID uint               `gorm:"uniqueIndex:idx_event_registration;not null" json:"eventId"`
	UserID  uint               `gorm:"uniqueIndex:idx_event_registration;not null" json:"userId"`
	User    *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status  RegistrationStatus `gorm:"size:20;default:'registered'" json:"status"`
}

func (EventRegistration) TableName() string {
	return "event_registrations"
}
