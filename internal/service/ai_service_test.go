package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type fakeSettings struct {
	values map[string]string
}

func (f *fakeSettings) Get(key string) (*model.Setting, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.Setting{Key: key, Value: v}, nil
}

func (f *fakeSettings) List() ([]model.Setting, error) {
	var out []model.Setting
	for k, v := range f.values {
		out = append(out, model.Setting{Key: k, Value: v})
	}
	return out, nil
}

func (f *fakeSettings) Upsert(key, value string) error {
	f.values[key] = value
	return nil
}

func (f *fakeSettings) Delete(key string) error {
	delete(f.values, key)
	return nil
}

type fakeDrafts struct {
	drafts map[uint]*model.AIDraft
}

func (f *fakeDrafts) Create(d *model.AIDraft) error {
	d.ID = uint(len(f.drafts) + 1)
	f.drafts[d.ID] = d
	return nil
}

func (f *fakeDrafts) FindByID(id uint) (*model.AIDraft, error) {
	d, ok := f.drafts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (f *fakeDrafts) Update(d *model.AIDraft) error {
	f.drafts[d.ID] = d
	return nil
}

func (f *fakeDrafts) List(kind model.AIDraftKind, page, limit int) ([]model.AIDraft, int64, error) {
	var out []model.AIDraft
	for _, d := range f.drafts {
		if kind == "" || d.Kind == kind {
			out = append(out, *d)
		}
	}
	return out, int64(len(out)), nil
}

type fakeImporter struct {
	quizID uint
	inputs []QuestionInput
}

func (f *fakeImporter) AddQuestions(quizID uint, inputs []QuestionInput) ([]model.Question, error) {
	f.quizID = quizID
	f.inputs = inputs
	out := make([]model.Question, len(inputs))
	for i, in := range inputs {
		q, err := BuildQuestion(in)
		if err != nil {
			return nil, err
		}
		out[i] = *q
	}
	return out, nil
}

// chatServer 返回固定内容的 OpenAI 兼容接口
func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) != 2 {
			t.Errorf("bad request body: %v %+v", err, req)
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAI(baseURL string) (*AIService, *fakeDrafts, *fakeImporter) {
	settings := NewSettingsResolver(&fakeSettings{values: map[string]string{}}, config.AIConfig{
		BaseURL: baseURL,
		APIKey:  "sk-test",
		Model:   "test-model",
	})
	drafts := &fakeDrafts{drafts: map[uint]*model.AIDraft{}}
	importer := &fakeImporter{}
	return NewAIService(settings, drafts, importer), drafts, importer
}

func TestAIUnavailableWithoutKey(t *testing.T) {
	ai := NewAIService(NewSettingsResolver(&fakeSettings{values: map[string]string{}}, config.AIConfig{}), nil, nil)
	_, err := ai.SuggestEssayGrade(context.Background(), EssayGradingInput{Prompt: "q", AnswerText: "a"})
	if !errors.Is(err, util.ErrAIUnavailable) {
		t.Fatalf("err = %v, want ErrAIUnavailable", err)
	}
}

func TestAIUpstreamFailure(t *testing.T) {
	srv := chatServer(t, http.StatusBadGateway, "")
	ai, _, _ := newTestAI(srv.URL)
	_, err := ai.Chat(context.Background(), "sys", "hi")
	if !errors.Is(err, util.ErrAIUnavailable) {
		t.Fatalf("err = %v, want ErrAIUnavailable", err)
	}
}

func TestSuggestEssayGrade(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "```json\n{\"score\": 87.6, \"feedback\": \" 结构清晰 \"}\n```")
	ai, _, _ := newTestAI(srv.URL)
	got, err := ai.SuggestEssayGrade(context.Background(), EssayGradingInput{
		QuizTitle: "Go", Prompt: "解释 channel", AnswerText: "...", QuestionPts: 10,
	})
	if err != nil {
		t.Fatalf("SuggestEssayGrade: %v", err)
	}
	if got.Score != 88 || got.Feedback != "结构清晰" {
		t.Errorf("suggestion = %+v", got)
	}
}

func TestParseEssaySuggestionClamps(t *testing.T) {
	cases := map[string]int{
		`{"score": 140}`: 100,
		`{"score": -3}`:  0,
		`{"score": 0}`:   0,
	}
	for raw, want := range cases {
		got, err := ParseEssaySuggestion(raw)
		if err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if got.Score != want {
			t.Errorf("%s: score = %d, want %d", raw, got.Score, want)
		}
	}
	if _, err := ParseEssaySuggestion(`{"feedback": "no score"}`); !errors.Is(err, util.ErrAIUnavailable) {
		t.Errorf("missing score err = %v", err)
	}
}

func TestParseDraftQuestionsDropsInvalid(t *testing.T) {
	raw := `[
		{"prompt": "ok", "points": 2, "options": [{"text": "a"}, {"text": "b", "isCorrect": true}]},
		{"prompt": "no correct", "options": [{"text": "a"}, {"text": "b"}]},
		{"prompt": "", "options": [{"text": "a", "isCorrect": true}, {"text": "b"}]},
		{"prompt": "zero points", "points": 0, "options": [{"text": "a", "isCorrect": true}, {"text": "b"}]}
	]`
	got, err := ParseDraftQuestions(raw)
	if err != nil {
		t.Fatalf("ParseDraftQuestions: %v", err)
	}
	if len(got) != 2 || got[0].Prompt != "ok" || got[1].Points != 1 {
		t.Fatalf("questions = %+v", got)
	}
	if _, err := ParseDraftQuestions("not json"); !errors.Is(err, util.ErrAIUnavailable) {
		t.Errorf("malformed err = %v", err)
	}
}

func TestDraftAndImportQuestions(t *testing.T) {
	content := `[{"prompt":"defer 的执行顺序?","points":1,"options":[{"text":"FIFO"},{"text":"LIFO","isCorrect":true}]}]`
	srv := chatServer(t, http.StatusOK, content)
	ai, drafts, importer := newTestAI(srv.URL)
	ctx := context.Background()

	draft, err := ai.DraftQuestions(ctx, 9, DraftQuestionsInput{Topic: "Go defer", Count: 1})
	if err != nil {
		t.Fatalf("DraftQuestions: %v", err)
	}
	if draft.Kind != model.AIDraftQuestions || !strings.Contains(draft.Prompt, "Go defer") {
		t.Fatalf("draft = %+v", draft)
	}

	questions, err := ai.ImportDraft(ctx, draft.ID, 42)
	if err != nil {
		t.Fatalf("ImportDraft: %v", err)
	}
	if importer.quizID != 42 || len(questions) != 1 || !questions[0].Options[1].IsCorrect {
		t.Fatalf("imported = %+v", questions)
	}
	if d := drafts.drafts[draft.ID]; d.ImportedAt == nil || *d.QuizID != 42 {
		t.Errorf("draft not marked imported: %+v", d)
	}

	var verr *util.ValidationError
	if _, err := ai.ImportDraft(ctx, draft.ID, 42); !errors.As(err, &verr) {
		t.Errorf("second import err = %v, want validation error", err)
	}
}

func TestSettingsOverrideConfig(t *testing.T) {
	store := &fakeSettings{values: map[string]string{SettingAIModel: "db-model"}}
	r := NewSettingsResolver(store, config.AIConfig{Model: "cfg-model", APIKey: "sk-abcdefgh"})

	if v, _ := r.Resolve(SettingAIModel); v != "db-model" {
		t.Errorf("model = %q, want db value", v)
	}
	if v, _ := r.Resolve(SettingAIKey); v != "sk-abcdefgh" {
		t.Errorf("key = %q, want config fallback", v)
	}
	if _, err := r.Resolve(SettingAIBaseURL); !errors.Is(err, util.ErrSettingNotFound) {
		t.Errorf("base url err = %v, want ErrSettingNotFound", err)
	}

	views, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, v := range views {
		if v.Key == SettingAIKey && (v.Value != "****efgh" || v.Source != "config") {
			t.Errorf("api key view = %+v", v)
		}
	}

	if err := r.Set("unknown.key", "x"); err == nil {
		t.Error("unknown key accepted")
	}
	if err := r.Set(SettingAITimeout, "abc"); err == nil {
		t.Error("non-numeric timeout accepted")
	}
	r.Reset(SettingAIModel)
	if v, _ := r.Resolve(SettingAIModel); v != "cfg-model" {
		t.Errorf("after reset model = %q", v)
	}
}
