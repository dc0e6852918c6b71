package grading

import (
	"math/rand"
	"sort"

	"lms_backend/internal/model"
)

// PresentationOrder 返回题目的展示顺序。开启乱序时以 attemptID 为种子，
// 同一次作答每次读取得到相同顺序；返回的是副本，不修改题目本身的 Position。
func PresentationOrder(questions []model.Question, shuffle bool, attemptID uint) []model.Question {
	out := make([]model.Question, len(questions))
	copy(out, questions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	if !shuffle {
		return out
	}
	r := rand.New(rand.NewSource(int64(attemptID)))
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
