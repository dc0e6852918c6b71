package service

import (
	"context"

	"lms_backend/internal/model"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type EventKind string

const (
	EventAttemptStarted    EventKind = "attempt_started"
	EventAttemptFinalized  EventKind = "attempt_finalized"
	EventCertificateIssued EventKind = "certificate_issued"
	EventPointsAwarded     EventKind = "points_awarded"
	EventNotified          EventKind = "notified"
	EventCourseCompleted   EventKind = "course_completed"
	EventPathCompleted     EventKind = "path_completed"
)

// Event 事务内产生、提交后才派发的领域事件
type Event struct {
	Kind   EventKind
	UserID uint

	Certificate *model.Certificate
	Points      int
	PointSource model.PointSource
	// Result 测验结果：passed | failed | pending
	Result string
	RefID  uint
}

// Effects 收集一次事务产生的事件。事务回滚时直接丢弃。
type Effects struct {
	events []Event
}

func (fx *Effects) add(ev Event) {
	if fx == nil {
		return
	}
	fx.events = append(fx.events, ev)
}

func (fx *Effects) Events() []Event {
	if fx == nil {
		return nil
	}
	return fx.events
}

// Hook 提交后的副作用，失败只记录日志
type Hook interface {
	Name() string
	Handle(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	hooks []Hook
}

func NewDispatcher(hooks ...Hook) *Dispatcher {
	return &Dispatcher{hooks: hooks}
}

func (d *Dispatcher) Register(h Hook) {
	d.hooks = append(d.hooks, h)
}

func (d *Dispatcher) Dispatch(ctx context.Context, fx *Effects) {
	if d == nil {
		return
	}
	for _, ev := range fx.Events() {
		for _, h := range d.hooks {
			if err := h.Handle(ctx, ev); err != nil {
				logger.Log.Warn("post-commit hook failed",
					zap.String("hook", h.Name()),
					zap.String("event", string(ev.Kind)),
					zap.Uint("user_id", ev.UserID),
					zap.Error(err))
			}
		}
	}
}

// MetricsHook 领域事件计数
type MetricsHook struct{}

func (MetricsHook) Name() string { return "metrics" }

func (MetricsHook) Handle(_ context.Context, ev Event) error {
	switch ev.Kind {
	case EventAttemptStarted:
		monitoring.AttemptsStarted.Inc()
	case EventAttemptFinalized:
		monitoring.AttemptsFinalized.WithLabelValues(ev.Result).Inc()
	case EventCertificateIssued:
		if ev.Certificate != nil {
			monitoring.CertificatesIssued.WithLabelValues(string(ev.Certificate.Type)).Inc()
		}
	case EventCourseCompleted:
		monitoring.Completions.WithLabelValues("course").Inc()
	case EventPathCompleted:
		monitoring.Completions.WithLabelValues("path").Inc()
	case EventPointsAwarded:
		monitoring.PointsAwarded.WithLabelValues(string(ev.PointSource)).Add(float64(ev.Points))
	}
	return nil
}
