package service

import (
	"context"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

// EventService 线下/直播培训活动与报名
type EventService struct {
	Repo repository.EventStore
	Now  func() time.Time
}

func NewEventService(repo repository.EventStore) *EventService {
	return &EventService{Repo: repo, Now: time.Now}
}

type EventInput struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	Location    string    `json:"location" validate:"max=255"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
}

func (s *EventService) Create(in EventInput) (*model.TrainingEvent, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	e := &model.TrainingEvent{}
	applyEventInput(e, in)
	if err := s.Repo.Create(e); err != nil {
		return nil, err
	}
	return e, nil
}

func applyEventInput(e *model.TrainingEvent, in EventInput) {
	e.Title = in.Title
	e.Description = in.Description
	e.Location = in.Location
	e.StartsAt = in.StartsAt
	e.EndsAt = in.EndsAt
	e.Capacity = in.Capacity
}

func findEvent(repo repository.EventStore, id uint, lock bool) (*model.TrainingEvent, error) {
	var e *model.TrainingEvent
	var err error
	if lock {
		e, err = repo.Lock(id)
	} else {
		e, err = repo.FindByID(id)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, util.ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EventService) Get(id uint) (*model.TrainingEvent, error) {
	return findEvent(s.Repo, id, false)
}

// Update 容量可以调小，已报名的人不受影响
func (s *EventService) Update(id uint, in EventInput) (*model.TrainingEvent, error) {
	if err := util.ValidateStruct(in); err != nil {
		return nil, err
	}
	e, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	applyEventInput(e, in)
	if err := s.Repo.Update(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) SetPublished(id uint, published bool) (*model.TrainingEvent, error) {
	e, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	e.IsPublished = published
	if err := s.Repo.Update(e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.Repo.Delete(id)
}

type EventView struct {
	model.TrainingEvent
	Registered int64 `json:"registered"`
	SeatsLeft  *int  `json:"seatsLeft,omitempty"` // 不限人数时为空
}

func (s *EventService) view(e model.TrainingEvent) (EventView, error) {
	n, err := s.Repo.CountActiveRegistrations(e.ID)
	if err != nil {
		return EventView{}, err
	}
	v := EventView{TrainingEvent: e, Registered: n}
	if e.Capacity > 0 {
		left := e.Capacity - int(n)
		if left < 0 {
			left = 0
		}
		v.SeatsLeft = &left
	}
	return v, nil
}

// ListUpcoming 学员端：已发布且尚未结束的活动
func (s *EventService) ListUpcoming(page, limit int) ([]EventView, int64, error) {
	events, total, err := s.Repo.List(true, s.Now(), page, limit)
	if err != nil {
		return nil, 0, err
	}
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		v, err := s.view(e)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, v)
	}
	return views, total, nil
}

func (s *EventService) ListAll(page, limit int) ([]model.TrainingEvent, int64, error) {
	return s.Repo.List(false, time.Time{}, page, limit)
}

// Register 锁住活动行后再数名额；取消过的报名重新激活
func (s *EventService) Register(ctx context.Context, userID, eventID uint) (*model.EventRegistration, error) {
	var reg *model.EventRegistration
	err := s.Repo.Transaction(ctx, func(tx repository.EventStore) error {
		e, err := findEvent(tx, eventID, true)
		if err != nil {
			return err
		}
		if !e.IsPublished {
			return util.ErrEventNotFound
		}
		if !e.EndsAt.After(s.Now()) {
			return util.NewValidationError("eventId", "event has already ended")
		}

		existing, err := tx.FindRegistration(eventID, userID)
		switch {
		case err == nil && existing.Status == model.RegistrationActive:
			return util.ErrAlreadyRegistered
		case err != nil && !repository.IsNotFound(err):
			return err
		}

		if e.Capacity > 0 {
			n, err := tx.CountActiveRegistrations(eventID)
			if err != nil {
				return err
			}
			if n >= int64(e.Capacity) {
				return util.ErrEventFull
			}
		}

		if err == nil {
			reg = existing
			reg.Status = model.RegistrationActive
		} else {
			reg = &model.EventRegistration{EventID: eventID, UserID: userID, Status: model.RegistrationActive}
		}
		if err := tx.SaveRegistration(reg); err != nil {
			if repository.IsDuplicate(err) {
				return util.ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Info("event registration", zap.Uint("user_id", userID), zap.Uint("event_id", eventID))
	return reg, nil
}

func (s *EventService) Cancel(ctx context.Context, userID, eventID uint) (*model.EventRegistration, error) {
	var reg *model.EventRegistration
	err := s.Repo.Transaction(ctx, func(tx repository.EventStore) error {
		if _, err := findEvent(tx, eventID, true); err != nil {
			return err
		}
		r, err := tx.FindRegistration(eventID, userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return util.NewValidationError("eventId", "not registered for this event")
			}
			return err
		}
		if r.Status != model.RegistrationActive {
			return util.NewValidationError("eventId", "not registered for this event")
		}
		r.Status = model.RegistrationCancelled
		reg = r
		return tx.SaveRegistration(r)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *EventService) MyRegistrations(userID uint) ([]model.EventRegistration, error) {
	return s.Repo.ListRegistrationsByUser(userID)
}

func (s *EventService) Registrations(eventID uint) ([]model.EventRegistration, error) {
	if _, err := s.Get(eventID); err != nil {
		return nil, err
	}
	return s.Repo.ListRegistrations(eventID)
}
