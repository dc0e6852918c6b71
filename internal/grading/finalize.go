package grading

import "lms_backend/internal/model"

// Outcome 一次提交/评分后的汇总结果
type Outcome struct {
	// Complete 为 false 表示仍有问答题未评分，Score/Percentage/Passed 不应写回
	Complete   bool
	Score      float64
	Possible   int
	Percentage int
	Passed     bool
	// Pending 尚未评分的问答题数量
	Pending int
}

// Finalize 汇总所有题目的得分。选择题得分同时写回对应 Answer 的 PointsAwarded，
// 跳过的选择题不会生成 Answer，这里视为 0 分。
func Finalize(questions []model.Question, answers []model.Answer, passingScore int) Outcome {
	byQuestion := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	var out Outcome
	for i := range questions {
		q := &questions[i]
		out.Possible += q.Points

		a := byQuestion[q.ID]
		pts, scored := Award(q, a)
		if !scored {
			out.Pending++
			continue
		}
		if a != nil && q.Type == model.MultipleChoice {
			v := pts
			a.PointsAwarded = &v
		}
		out.Score += pts
	}

	out.Complete = out.Pending == 0
	if out.Complete {
		out.Percentage = Percentage(out.Score, out.Possible)
		out.Passed = IsPassing(out.Percentage, passingScore)
	}
	return out
}
