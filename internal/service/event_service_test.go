package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

type memEvents struct {
	mu     sync.Mutex
	nextID uint
	events map[uint]model.TrainingEvent
	regs   map[uint]model.EventRegistration
}

func newMemEvents() *memEvents {
	return &memEvents{events: map[uint]model.TrainingEvent{}, regs: map[uint]model.EventRegistration{}}
}

func (m *memEvents) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memEvents) Create(e *model.TrainingEvent) error {
	e.ID = m.id()
	m.events[e.ID] = *e
	return nil
}

func (m *memEvents) FindByID(id uint) (*model.TrainingEvent, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (m *memEvents) Lock(id uint) (*model.TrainingEvent, error) { return m.FindByID(id) }

func (m *memEvents) Update(e *model.TrainingEvent) error {
	m.events[e.ID] = *e
	return nil
}

func (m *memEvents) Delete(id uint) error {
	delete(m.events, id)
	return nil
}

func (m *memEvents) List(publishedOnly bool, upcomingFrom time.Time, page, limit int) ([]model.TrainingEvent, int64, error) {
	var out []model.TrainingEvent
	for _, e := range m.events {
		if publishedOnly && !e.IsPublished {
			continue
		}
		if !upcomingFrom.IsZero() && e.EndsAt.Before(upcomingFrom) {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (m *memEvents) CountActiveRegistrations(eventID uint) (int64, error) {
	var n int64
	for _, r := range m.regs {
		if r.EventID == eventID && r.Status == model.RegistrationActive {
			n++
		}
	}
	return n, nil
}

func (m *memEvents) FindRegistration(eventID, userID uint) (*model.EventRegistration, error) {
	for _, r := range m.regs {
		if r.EventID == eventID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memEvents) SaveRegistration(reg *model.EventRegistration) error {
	if reg.ID == 0 {
		if _, err := m.FindRegistration(reg.EventID, reg.UserID); err == nil {
			return gorm.ErrDuplicatedKey
		}
		reg.ID = m.id()
	}
	m.regs[reg.ID] = *reg
	return nil
}

func (m *memEvents) ListRegistrations(eventID uint) ([]model.EventRegistration, error) {
	var out []model.EventRegistration
	for _, r := range m.regs {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memEvents) ListRegistrationsByUser(userID uint) ([]model.EventRegistration, error) {
	var out []model.EventRegistration
	for _, r := range m.regs {
		if r.UserID == userID && r.Status == model.RegistrationActive {
			out = append(out, r)
		}
	}
	return out, nil
}

// Transaction 串行执行，模拟行锁
func (m *memEvents) Transaction(ctx context.Context, fn func(tx repository.EventStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m)
}

func newEventFixture(t *testing.T, capacity int) (*EventService, uint) {
	t.Helper()
	svc := NewEventService(newMemEvents())
	svc.Now = func() time.Time { return fixedNow }
	e, err := svc.Create(EventInput{
		Title:    "Go 并发工作坊",
		StartsAt: fixedNow.Add(24 * time.Hour),
		EndsAt:   fixedNow.Add(26 * time.Hour),
		Capacity: capacity,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.SetPublished(e.ID, true); err != nil {
		t.Fatalf("SetPublished: %v", err)
	}
	return svc, e.ID
}

func TestEventCapacity(t *testing.T) {
	svc, eventID := newEventFixture(t, 2)
	ctx := context.Background()

	for _, uid := range []uint{1, 2} {
		if _, err := svc.Register(ctx, uid, eventID); err != nil {
			t.Fatalf("Register(%d): %v", uid, err)
		}
	}
	if _, err := svc.Register(ctx, 1, eventID); !errors.Is(err, util.ErrAlreadyRegistered) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := svc.Register(ctx, 3, eventID); !errors.Is(err, util.ErrEventFull) {
		t.Fatalf("over capacity err = %v", err)
	}

	// 取消后空出名额
	if _, err := svc.Cancel(ctx, 2, eventID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Register(ctx, 3, eventID); err != nil {
		t.Fatalf("Register after cancel: %v", err)
	}
	if _, err := svc.Register(ctx, 2, eventID); !errors.Is(err, util.ErrEventFull) {
		t.Fatalf("re-register into full event err = %v", err)
	}

	views, _, _ := svc.ListUpcoming(1, 10)
	if len(views) != 1 || views[0].Registered != 2 || *views[0].SeatsLeft != 0 {
		t.Errorf("views = %+v", views)
	}
}

func TestEventConcurrentRegistrationNeverOverbooks(t *testing.T) {
	svc, eventID := newEventFixture(t, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	for uid := uint(1); uid <= 20; uid++ {
		wg.Add(1)
		go func(uid uint) {
			defer wg.Done()
			svc.Register(ctx, uid, eventID)
		}(uid)
	}
	wg.Wait()

	regs, _ := svc.Registrations(eventID)
	if len(regs) != 5 {
		t.Errorf("registrations = %d, want 5", len(regs))
	}
}

func TestEventRegistrationRules(t *testing.T) {
	svc, eventID := newEventFixture(t, 0)
	ctx := context.Background()

	if _, err := svc.Register(ctx, 1, 999); !errors.Is(err, util.ErrEventNotFound) {
		t.Errorf("missing event err = %v", err)
	}
	draft, _ := svc.Create(EventInput{Title: "draft", StartsAt: fixedNow.Add(time.Hour), EndsAt: fixedNow.Add(2 * time.Hour)})
	if _, err := svc.Register(ctx, 1, draft.ID); !errors.Is(err, util.ErrEventNotFound) {
		t.Errorf("unpublished event err = %v", err)
	}

	var verr *util.ValidationError
	if _, err := svc.Cancel(ctx, 1, eventID); !errors.As(err, &verr) {
		t.Errorf("cancel without registration err = %v", err)
	}

	svc.Now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	if _, err := svc.Register(ctx, 1, eventID); !errors.As(err, &verr) {
		t.Errorf("ended event err = %v", err)
	}

	if _, err := svc.Create(EventInput{Title: "bad", StartsAt: fixedNow, EndsAt: fixedNow.Add(-time.Hour)}); !errors.As(err, &verr) {
		t.Errorf("ends before start err = %v", err)
	}
}
