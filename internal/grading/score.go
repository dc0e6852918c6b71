// Package grading 实现测验的计分规则：选择题自动评分，问答题按 0-100 的评分折算题目分值。
package grading

import (
	"math"

	"lms_backend/internal/model"
)

// ScoreMultipleChoice 选中的选项正确则得满分，否则（含未作答）得 0 分，没有部分分。
// 题目没有任何正确选项属于出题配置问题，这里同样按 0 分处理而不报错。
func ScoreMultipleChoice(q *model.Question, optionID *uint) float64 {
	if optionID == nil {
		return 0
	}
	opt, ok := q.FindOption(*optionID)
	if !ok || !opt.IsCorrect {
		return 0
	}
	return float64(q.Points)
}

// ScaleEssay 将 0-100 的问答题评分折算为题目分值：score/100 * points
func ScaleEssay(score, points int) float64 {
	return float64(score*points) / 100
}

// Award 返回单题得分；问答题未评分时 scored 为 false
func Award(q *model.Question, a *model.Answer) (points float64, scored bool) {
	switch q.Type {
	case model.MultipleChoice:
		if a == nil {
			return 0, true
		}
		return ScoreMultipleChoice(q, a.OptionID), true
	case model.Essay:
		if a == nil || a.EssayScore == nil {
			return 0, false
		}
		return ScaleEssay(*a.EssayScore, q.Points), true
	}
	return 0, true
}

// Percentage round(100 * awarded / possible)
func Percentage(awarded float64, possible int) int {
	if possible <= 0 {
		return 0
	}
	return int(math.Round(100 * awarded / float64(possible)))
}

// IsPassing 百分比达到及格线即通过
func IsPassing(percentage, passingScore int) bool {
	return percentage >= passingScore
}
