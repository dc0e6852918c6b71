package service

import (
	"sync"

	"lms_backend/internal/config"
)

// RewardPolicy 当前生效的积分奖励额度，配置文件变更时整体替换
type RewardPolicy struct {
	mu  sync.RWMutex
	cfg config.RewardConfig
}

func NewRewardPolicy(cfg config.RewardConfig) *RewardPolicy {
	return &RewardPolicy{cfg: cfg}
}

func (p *RewardPolicy) Current() config.RewardConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

func (p *RewardPolicy) Update(cfg config.RewardConfig) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}
