package service

import (
	"context"
	"fmt"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const unreadCacheTTL = 5 * time.Minute

func unreadKey(userID uint) string {
	return fmt.Sprintf("lms:notifications:unread:%d", userID)
}

// NotificationService 站内通知。未读数缓存在 redis 中，写入提交后由 Hook 失效。
type NotificationService struct {
	Repo  *repository.NotificationRepository
	Redis *redis.Client
}

func NewNotificationService(repo *repository.NotificationRepository, rdb *redis.Client) *NotificationService {
	return &NotificationService{Repo: repo, Redis: rdb}
}

// Notify 在调用方事务内写入通知
func (s *NotificationService) Notify(tx repository.NotificationStore, fx *Effects, userID uint, typ model.NotificationType, title, message, actionURL string) error {
	n := &model.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		ActionURL: actionURL,
		CreatedAt: time.Now(),
	}
	if err := tx.CreateNotification(n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	fx.add(Event{Kind: EventNotified, UserID: userID})
	return nil
}

func (s *NotificationService) List(userID uint, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	return s.Repo.ListNotifications(userID, unreadOnly, page, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if s.Redis != nil {
		if n, err := s.Redis.Get(ctx, unreadKey(userID)).Int64(); err == nil {
			return n, nil
		} else if err != redis.Nil {
			logger.Log.Warn("unread cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
	}

	n, err := s.Repo.CountUnread(userID)
	if err != nil {
		return 0, err
	}
	if s.Redis != nil {
		s.Redis.Set(ctx, unreadKey(userID), n, unreadCacheTTL)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if _, err := s.Repo.MarkRead(userID, id, time.Now()); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.Repo.MarkAllRead(userID, time.Now())
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, userID)
	return n, nil
}

func (s *NotificationService) invalidate(ctx context.Context, userID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, unreadKey(userID)).Err(); err != nil {
		logger.Log.Warn("unread cache invalidate failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *NotificationService) Name() string { return "notification-cache" }

// Handle 新通知提交后清掉未读数缓存
func (s *NotificationService) Handle(ctx context.Context, ev Event) error {
	if ev.Kind == EventNotified {
		s.invalidate(ctx, ev.UserID)
	}
	return nil
}
