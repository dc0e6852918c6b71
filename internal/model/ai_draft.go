package model

import (
	"time"

	"gorm.io/datatypes"
)

type AIDraftKind string

const (
	AIDraftContent   AIDraftKind = "content"
	AIDraftQuestions AIDraftKind = "questions"
)

// AIDraft AI 生成的草稿，由管理员确认后才导入测验
type AIDraft struct {
	BaseModel
	Kind       AIDraftKind    `gorm:"size:20;not null" json:"kind"`
	Prompt     string         `gorm:"type:text" json:"prompt"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedBy  uint           `gorm:"index" json:"createdBy"`
	ImportedAt *time.Time     `json:"importedAt,omitempty"`
	QuizID     *uint          `json:"quizId,omitempty"`
}

func (AIDraft) TableName() string {
	return "ai_drafts"
}

// DraftQuestion AI 返回的选择题结构
type DraftQuestion struct {
	Prompt  string        `json:"prompt"`
	Points  int           `json:"points"`
	Options []DraftOption `json:"options"`
}

type DraftOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}
