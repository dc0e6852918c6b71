package service

import (
	"errors"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/util"
)

func TestBuildQuestion(t *testing.T) {
	two := []OptionInput{{Text: "a"}, {Text: "b", IsCorrect: true}}
	cases := []struct {
		name    string
		in      QuestionInput
		wantErr string // 出错字段，空表示应通过
	}{
		{"mc ok", QuestionInput{Type: model.MultipleChoice, Prompt: "1+1?", Points: 2, Options: two}, ""},
		{"essay ok", QuestionInput{Type: model.Essay, Prompt: "explain", Points: 5}, ""},
		{"mc one option", QuestionInput{Type: model.MultipleChoice, Prompt: "q", Points: 1, Options: two[1:]}, "options"},
		{"mc no correct", QuestionInput{Type: model.MultipleChoice, Prompt: "q", Points: 1,
			Options: []OptionInput{{Text: "a"}, {Text: "b"}}}, "options"},
		{"essay with options", QuestionInput{Type: model.Essay, Prompt: "q", Points: 1, Options: two}, "options"},
		{"zero points", QuestionInput{Type: model.Essay, Prompt: "q", Points: 0}, "points"},
		{"unknown type", QuestionInput{Type: "true_false", Prompt: "q", Points: 1}, "type"},
		{"empty prompt", QuestionInput{Type: model.Essay, Points: 1}, "prompt"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q, err := BuildQuestion(c.in)
			if c.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(q.Options) != len(c.in.Options) {
					t.Fatalf("options = %d, want %d", len(q.Options), len(c.in.Options))
				}
				return
			}
			var verr *util.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if _, ok := verr.Fields[c.wantErr]; !ok {
				t.Errorf("fields = %v, want %q", verr.Fields, c.wantErr)
			}
		})
	}
}

func TestBuildQuestionKeepsOptionOrder(t *testing.T) {
	q, err := BuildQuestion(QuestionInput{
		Type:   model.MultipleChoice,
		Prompt: "pick",
		Points: 1,
		Options: []OptionInput{
			{Text: "first"}, {Text: "second", IsCorrect: true}, {Text: "third"},
		},
	})
	if err != nil {
		t.Fatalf("BuildQuestion: %v", err)
	}
	for i, o := range q.Options {
		if o.Position != i {
			t.Errorf("option %q position = %d, want %d", o.Text, o.Position, i)
		}
	}
}
