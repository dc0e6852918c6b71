package model

import "time"

type CertificateType string

const (
	CertificateCourse CertificateType = "course"
	CertificatePath   CertificateType = "path"
)

// Certificate 每个 (user, type, reference) 最多一张，吊销只做软失效
// swagger:model Certificate
type Certificate struct {
	BaseModel
	UserID        uint            `gorm:"uniqueIndex:idx_certificate_user_ref;not null" json:"userId"`
	Type          CertificateType `gorm:"uniqueIndex:idx_certificate_user_ref;size:20;not null" json:"type"`
	ReferenceID   uint            `gorm:"uniqueIndex:idx_certificate_user_ref;not null" json:"referenceId"`
	Title         string          `gorm:"size:255" json:"title"`
	Number        string          `gorm:"size:64;uniqueIndex;not null" json:"number"`
	IssuedAt      time.Time       `json:"issuedAt"`
	RevokedAt     *time.Time      `json:"revokedAt,omitempty"`
	RevokedReason string          `gorm:"size:255" json:"revokedReason,omitempty"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) Valid() bool {
	return c.RevokedAt == nil
}
