package service

import (
	"context"
	"fmt"
	"strconv"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const leaderboardKey = "lms:leaderboard:points"

type PointService struct {
	Repo     *repository.PointRepository
	UserRepo *repository.UserRepository
	Notes    *NotificationService
	Redis    *redis.Client
}

func NewPointService(repo *repository.PointRepository, userRepo *repository.UserRepository, notes *NotificationService, rdb *redis.Client) *PointService {
	return &PointService{Repo: repo, UserRepo: userRepo, Notes: notes, Redis: rdb}
}

// Award 写流水、加余额并通知。同一 (user, sourceType, sourceID) 只会奖励一次，
// 重复调用返回 false 且不产生任何写入。amount<=0 视为关闭该奖励。
func (s *PointService) Award(tx repository.Store, fx *Effects, userID uint, amount int, reason string, src model.PointSource, srcID uint) (bool, error) {
	if amount <= 0 {
		return false, nil
	}

	h := &model.PointHistory{
		UserID:     userID,
		Amount:     amount,
		Reason:     reason,
		SourceType: src,
		SourceID:   srcID,
	}
	if err := tx.CreatePointHistory(h); err != nil {
		if repository.IsDuplicate(err) {
			return false, nil
		}
		return false, fmt.Errorf("create point history: %w", err)
	}
	if err := tx.IncrementUserPoints(userID, amount); err != nil {
		return false, fmt.Errorf("increment points: %w", err)
	}
	if err := s.Notes.Notify(tx, fx, userID, model.NotificationPoints,
		fmt.Sprintf("获得 %d 积分", amount), reason, "/portal/points"); err != nil {
		return false, err
	}

	fx.add(Event{Kind: EventPointsAwarded, UserID: userID, Points: amount, PointSource: src, RefID: srcID})
	return true, nil
}

func (s *PointService) Balance(userID uint) (int, error) {
	u, err := s.UserRepo.FindUser(userID)
	if err != nil {
		return 0, err
	}
	return u.Points, nil
}

func (s *PointService) History(userID uint, page, limit int) ([]model.PointHistory, int64, error) {
	return s.Repo.ListPointHistory(userID, page, limit)
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Leaderboard 优先读 redis 有序集合，不可用或为空时回落到数据库
func (s *PointService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if s.Redis != nil {
		zs, err := s.Redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
		if err == nil && len(zs) > 0 {
			return s.fromRedis(zs)
		}
		if err != nil {
			logger.Log.Warn("leaderboard read failed, using database", zap.Error(err))
		}
	}

	users, err := s.UserRepo.TopByPoints(limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		out[i] = LeaderboardEntry{Rank: i + 1, UserID: u.ID, Name: u.Name, Points: u.Points}
	}
	return out, nil
}

func (s *PointService) fromRedis(zs []redis.Z) ([]LeaderboardEntry, error) {
	ids := make([]uint, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseUint(member, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	users, err := s.UserRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	out := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		id, _ := strconv.ParseUint(member, 10, 32)
		out = append(out, LeaderboardEntry{
			Rank:   i + 1,
			UserID: uint(id),
			Name:   names[uint(id)],
			Points: int(z.Score),
		})
	}
	return out, nil
}

// RebuildLeaderboard 启动时用数据库余额重建有序集合
func (s *PointService) RebuildLeaderboard(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	users, err := s.UserRepo.TopByPoints(1000)
	if err != nil {
		return err
	}
	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	for _, u := range users {
		pipe.ZAdd(ctx, leaderboardKey, &redis.Z{Score: float64(u.Points), Member: strconv.FormatUint(uint64(u.ID), 10)})
	}
	_, err = pipe.Exec(ctx)
	return err
}

// LeaderboardHook 积分提交后同步到排行榜
type LeaderboardHook struct {
	Redis *redis.Client
}

func (h *LeaderboardHook) Name() string { return "leaderboard" }

func (h *LeaderboardHook) Handle(ctx context.Context, ev Event) error {
	if ev.Kind != EventPointsAwarded || h.Redis == nil {
		return nil
	}
	member := strconv.FormatUint(uint64(ev.UserID), 10)
	return h.Redis.ZIncrBy(ctx, leaderboardKey, float64(ev.Points), member).Err()
}
