package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultContentPrompt = "你是一名企业培训课程设计师。请围绕主题「{topic}」为{audience}撰写一节课时讲义，" +
		"使用 Markdown，包含学习目标、正文和小结。"
	defaultQuestionsPrompt = "请围绕主题「{topic}」出 {count} 道单选题。只输出 JSON 数组，不要任何解释，" +
		`格式：[{"prompt":"题干","points":1,"options":[{"text":"选项","isCorrect":false}]}]，每题 4 个选项且只有一个正确。`
	defaultGradingPrompt = "你是阅卷老师。根据题目、参考要点和学员答案给出 0-100 的分数和简短评语。" +
		`只输出 JSON：{"score":80,"feedback":"评语"}`
)

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type draftStore interface {
	Create(d *model.AIDraft) error
	FindByID(id uint) (*model.AIDraft, error)
	Update(d *model.AIDraft) error
	List(kind model.AIDraftKind, page, limit int) ([]model.AIDraft, int64, error)
}

type questionImporter interface {
	AddQuestions(quizID uint, inputs []QuestionInput) ([]model.Question, error)
}

// AIService OpenAI 兼容接口的生成式助手：讲义草稿、题目草稿、问答题评分建议
type AIService struct {
	Settings *SettingsResolver
	Drafts   draftStore
	Quizzes  questionImporter
	Client   *http.Client
}

func NewAIService(settings *SettingsResolver, drafts draftStore, quizzes questionImporter) *AIService {
	return &AIService{
		Settings: settings,
		Drafts:   drafts,
		Quizzes:  quizzes,
		Client:   &http.Client{},
	}
}

type aiEndpoint struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
}

func (s *AIService) endpoint() (*aiEndpoint, error) {
	ep := &aiEndpoint{}
	var err error
	if ep.baseURL, err = s.Settings.Resolve(SettingAIBaseURL); err != nil {
		return nil, fmt.Errorf("%w: base url not configured", util.ErrAIUnavailable)
	}
	if ep.apiKey, err = s.Settings.Resolve(SettingAIKey); err != nil {
		return nil, fmt.Errorf("%w: api key not configured", util.ErrAIUnavailable)
	}
	if ep.model, err = s.Settings.ResolveOr(SettingAIModel, "gpt-4o-mini"); err != nil {
		return nil, err
	}
	secs, err := s.Settings.ResolveOr(SettingAITimeout, "60")
	if err != nil {
		return nil, err
	}
	n, convErr := strconv.Atoi(secs)
	if convErr != nil || n <= 0 {
		n = 60
	}
	ep.timeout = time.Duration(n) * time.Second
	ep.baseURL = strings.TrimRight(ep.baseURL, "/")
	return ep, nil
}

// Chat 非流式对话，上游失败统一包装成 ErrAIUnavailable
func (s *AIService) Chat(ctx context.Context, system, prompt string) (string, error) {
	ep, err := s.endpoint()
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, ep.timeout)
	defer cancel()

	reqBody := ChatCompletionRequest{
		Model: ep.model,
		Messages: []AIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ep.apiKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrAIUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Log.Warn("AI upstream error", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return "", fmt.Errorf("%w: upstream status %d", util.ErrAIUnavailable, resp.StatusCode)
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", util.ErrAIUnavailable, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: %s", util.ErrAIUnavailable, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", util.ErrAIUnavailable)
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (s *AIService) template(key, def string, vars map[string]string) (string, error) {
	tpl, err := s.Settings.ResolveOr(key, def)
	if err != nil {
		return "", err
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl), nil
}

// stripFence 去掉模型常见的 ```json 包裹
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type DraftContentInput struct {
	Topic    string `json:"topic" validate:"required,max=500"`
	Audience string `json:"audience" validate:"max=100"`
}

type ContentDraft struct {
	Topic    string `json:"topic"`
	Markdown string `json:"markdown"`
}

func (s *AIService) DraftContent(ctx context.Context, userID uint, in DraftContentInput) (*model.AIDraft, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.Audience == "" {
		in.Audience = "新员工"
	}
	prompt, err := s.template(SettingAIContentPrompt, defaultContentPrompt, map[string]string{
		"topic":    in.Topic,
		"audience": in.Audience,
	})
	if err != nil {
		return nil, err
	}
	text, err := s.Chat(ctx, "你是专业的培训内容助手。", prompt)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(ContentDraft{Topic: in.Topic, Markdown: strings.TrimSpace(text)})
	if err != nil {
		return nil, err
	}
	draft := &model.AIDraft{
		Kind:      model.AIDraftContent,
		Prompt:    prompt,
		Payload:   datatypes.JSON(payload),
		CreatedBy: userID,
	}
	if err := s.Drafts.Create(draft); err != nil {
		return nil, err
	}
	return draft, nil
}

type DraftQuestionsInput struct {
	Topic string `json:"topic" validate:"required,max=500"`
	Count int    `json:"count" validate:"gte=1,lte=20"`
}

// ParseDraftQuestions 解析模型返回的题目数组，丢弃不合规的题目
func ParseDraftQuestions(raw string) ([]model.DraftQuestion, error) {
	var items []model.DraftQuestion
	if err := json.Unmarshal([]byte(stripFence(raw)), &items); err != nil {
		return nil, fmt.Errorf("%w: malformed question draft", util.ErrAIUnavailable)
	}
	valid := items[:0]
	for _, it := range items {
		if it.Points < 1 {
			it.Points = 1
		}
		if _, err := BuildQuestion(draftToInput(it)); err != nil {
			continue
		}
		valid = append(valid, it)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no usable questions in draft", util.ErrAIUnavailable)
	}
	return valid, nil
}

func draftToInput(d model.DraftQuestion) QuestionInput {
	in := QuestionInput{Type: model.MultipleChoice, Prompt: d.Prompt, Points: d.Points}
	for _, o := range d.Options {
		in.Options = append(in.Options, OptionInput{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	return in
}

func (s *AIService) DraftQuestions(ctx context.Context, userID uint, in DraftQuestionsInput) (*model.AIDraft, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	prompt, err := s.template(SettingAIQuestionsPrompt, defaultQuestionsPrompt, map[string]string{
		"topic": in.Topic,
		"count": strconv.Itoa(in.Count),
	})
	if err != nil {
		return nil, err
	}
	text, err := s.Chat(ctx, "你是严谨的出题助手，只输出 JSON。", prompt)
	if err != nil {
		return nil, err
	}
	questions, err := ParseDraftQuestions(text)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(questions)
	if err != nil {
		return nil, err
	}
	draft := &model.AIDraft{
		Kind:      model.AIDraftQuestions,
		Prompt:    prompt,
		Payload:   datatypes.JSON(payload),
		CreatedBy: userID,
	}
	if err := s.Drafts.Create(draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *AIService) GetDraft(id uint) (*model.AIDraft, error) {
	d, err := s.Drafts.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrDraftNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *AIService) ListDrafts(kind model.AIDraftKind, page, limit int) ([]model.AIDraft, int64, error) {
	return s.Drafts.List(kind, page, limit)
}

// ImportDraft 把题目草稿追加到测验末尾，每份草稿只能导入一次
func (s *AIService) ImportDraft(ctx context.Context, draftID, quizID uint) ([]model.Question, error) {
	draft, err := s.GetDraft(draftID)
	if err != nil {
		return nil, err
	}
	if draft.Kind != model.AIDraftQuestions {
		return nil, util.NewValidationError("draftId", "only question drafts can be imported")
	}
	if draft.ImportedAt != nil {
		return nil, util.NewValidationError("draftId", "draft already imported")
	}
	var items []model.DraftQuestion
	if err := json.Unmarshal(draft.Payload, &items); err != nil {
		return nil, fmt.Errorf("decode draft %d: %w", draftID, err)
	}
	inputs := make([]QuestionInput, len(items))
	for i, it := range items {
		inputs[i] = draftToInput(it)
	}
	questions, err := s.Quizzes.AddQuestions(quizID, inputs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	draft.ImportedAt = &now
	draft.QuizID = &quizID
	if err := s.Drafts.Update(draft); err != nil {
		logger.Log.Error("mark draft imported failed", zap.Uint("draft_id", draftID), zap.Error(err))
	}
	logger.Log.Info("AI draft imported", zap.Uint("draft_id", draftID), zap.Uint("quiz_id", quizID), zap.Int("questions", len(questions)))
	return questions, nil
}

// SuggestEssayGrade 实现 EssayGrader
func (s *AIService) SuggestEssayGrade(ctx context.Context, in EssayGradingInput) (*EssaySuggestion, error) {
	system, err := s.template(SettingAIGradingPrompt, defaultGradingPrompt, nil)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "测验：%s\n题目（%d 分）：%s\n", in.QuizTitle, in.QuestionPts, in.Prompt)
	if in.Reference != "" {
		fmt.Fprintf(&b, "参考要点：%s\n", in.Reference)
	}
	fmt.Fprintf(&b, "学员答案：%s", in.AnswerText)

	text, err := s.Chat(ctx, system, b.String())
	if err != nil {
		return nil, err
	}
	return ParseEssaySuggestion(text)
}

func ParseEssaySuggestion(raw string) (*EssaySuggestion, error) {
	var out struct {
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), &out); err != nil || out.Score == nil {
		return nil, errors.Join(util.ErrAIUnavailable, errors.New("malformed grading suggestion"))
	}
	score := int(*out.Score + 0.5)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return &EssaySuggestion{Score: score, Feedback: strings.TrimSpace(out.Feedback)}, nil
}
