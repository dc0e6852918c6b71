package service

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
)

// 后台可覆盖的配置项
const (
	SettingAIBaseURL         = "ai.base_url"
	SettingAIKey             = "ai.api_key"
	SettingAIModel           = "ai.model"
	SettingAIContentPrompt   = "ai.content_prompt"
	SettingAIQuestionsPrompt = "ai.questions_prompt"
	SettingAIGradingPrompt   = "ai.grading_prompt"
	SettingAITimeout         = "ai.timeout_seconds"
)

var knownSettings = map[string]bool{
	SettingAIBaseURL:         true,
	SettingAIKey:             true,
	SettingAIModel:           true,
	SettingAIContentPrompt:   true,
	SettingAIQuestionsPrompt: true,
	SettingAIGradingPrompt:   true,
	SettingAITimeout:         true,
}

var secretSettings = map[string]bool{SettingAIKey: true}

type settingStore interface {
	Get(key string) (*model.Setting, error)
	List() ([]model.Setting, error)
	Upsert(key, value string) error
	Delete(key string) error
}

// SettingsResolver 取值顺序：settings 表 -> 配置文件/环境变量 -> ErrSettingNotFound
type SettingsResolver struct {
	Repo settingStore

	mu       sync.RWMutex
	fallback map[string]string
}

func NewSettingsResolver(repo settingStore, ai config.AIConfig) *SettingsResolver {
	r := &SettingsResolver{Repo: repo}
	r.SetAIConfig(ai)
	return r
}

// SetAIConfig 配置热更新时替换兜底值
func (r *SettingsResolver) SetAIConfig(ai config.AIConfig) {
	fb := map[string]string{
		SettingAIBaseURL:         ai.BaseURL,
		SettingAIKey:             ai.APIKey,
		SettingAIModel:           ai.Model,
		SettingAIContentPrompt:   ai.ContentPrompt,
		SettingAIQuestionsPrompt: ai.QuestionsPrompt,
		SettingAIGradingPrompt:   ai.GradingPrompt,
	}
	if ai.TimeoutSeconds > 0 {
		fb[SettingAITimeout] = strconv.Itoa(ai.TimeoutSeconds)
	}
	r.mu.Lock()
	r.fallback = fb
	r.mu.Unlock()
}

func (r *SettingsResolver) Resolve(key string) (string, error) {
	s, err := r.Repo.Get(key)
	if err == nil && strings.TrimSpace(s.Value) != "" {
		return s.Value, nil
	}
	if err != nil && !repository.IsNotFound(err) {
		return "", err
	}
	r.mu.RLock()
	v := r.fallback[key]
	r.mu.RUnlock()
	if strings.TrimSpace(v) == "" {
		return "", util.ErrSettingNotFound
	}
	return v, nil
}

// ResolveOr 找不到时返回默认值，其它错误照常返回
func (r *SettingsResolver) ResolveOr(key, def string) (string, error) {
	v, err := r.Resolve(key)
	if errors.Is(err, util.ErrSettingNotFound) {
		return def, nil
	}
	return v, err
}

type SettingView struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"` // db | config | unset
}

// List 后台展示，密钥只显示末四位
func (r *SettingsResolver) List() ([]SettingView, error) {
	stored, err := r.Repo.List()
	if err != nil {
		return nil, err
	}
	db := make(map[string]string, len(stored))
	for _, s := range stored {
		db[s.Key] = s.Value
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SettingView, 0, len(knownSettings))
	for _, key := range sortedKeys(knownSettings) {
		view := SettingView{Key: key, Source: "unset"}
		if v, ok := db[key]; ok && v != "" {
			view.Value, view.Source = v, "db"
		} else if v := r.fallback[key]; v != "" {
			view.Value, view.Source = v, "config"
		}
		if secretSettings[key] {
			view.Value = maskSecret(view.Value)
		}
		out = append(out, view)
	}
	return out, nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

func (r *SettingsResolver) Set(key, value string) error {
	if !knownSettings[key] {
		return util.NewValidationError("key", "unknown setting")
	}
	if key == SettingAITimeout {
		if n, err := strconv.Atoi(value); err != nil || n <= 0 {
			return util.NewValidationError("value", "must be a positive integer")
		}
	}
	return r.Repo.Upsert(key, value)
}

// Reset 删除数据库中的覆盖值，回落到配置文件
func (r *SettingsResolver) Reset(key string) error {
	if !knownSettings[key] {
		return util.NewValidationError("key", "unknown setting")
	}
	return r.Repo.Delete(key)
}
