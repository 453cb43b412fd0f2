package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepo is an in-memory Repository with the same compare-and-set
// semantics as the Postgres implementation, for service-level tests.
type memoryRepo struct {
	mu      sync.Mutex
	slots   map[uuid.UUID]*Slot
	doctors map[uuid.UUID]string

	reserveErr error
	freeErr    error
	freeCalls  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		slots:   make(map[uuid.UUID]*Slot),
		doctors: make(map[uuid.UUID]string),
	}
}

func (m *memoryRepo) addDoctor(name string) uuid.UUID {
	id := uuid.New()
	m.doctors[id] = name
	return id
}

func (m *memoryRepo) addSlot(doctorID uuid.UUID, start time.Time, status SlotStatus) uuid.UUID {
	id := uuid.New()
	m.slots[id] = &Slot{
		ID:              id,
		DoctorID:        doctorID,
		StartAt:         start.UTC(),
		DurationMinutes: 30,
		Status:          status,
		UpdatedAt:       start.UTC(),
	}
	return id
}

func (m *memoryRepo) view(s *Slot) SlotView {
	return SlotView{Slot: *s, DoctorName: m.doctors[s.DoctorID]}
}

func (m *memoryRepo) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memoryRepo) freeSorted(doctorIDs []uuid.UUID, from, to time.Time) []SlotView {
	wanted := make(map[uuid.UUID]bool, len(doctorIDs))
	for _, id := range doctorIDs {
		wanted[id] = true
	}
	var out []SlotView
	for _, s := range m.slots {
		if s.Status != SlotFree || !wanted[s.DoctorID] {
			continue
		}
		if s.StartAt.Before(from) || !s.StartAt.Before(to) {
			continue
		}
		out = append(out, m.view(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func (m *memoryRepo) ListFreeSlots(ctx context.Context, doctorIDs []uuid.UUID, from, to time.Time, limit int) ([]SlotView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.freeSorted(doctorIDs, from, to)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) FindFirstFreeSlot(ctx context.Context, doctorIDs []uuid.UUID, from time.Time) (*SlotView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.freeSorted(doctorIDs, from, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (m *memoryRepo) FindFreeSlotsAt(ctx context.Context, at time.Time, doctorID *uuid.UUID) ([]SlotView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SlotView
	for _, s := range m.slots {
		if s.Status != SlotFree || !s.StartAt.Equal(at) {
			continue
		}
		if doctorID != nil && s.DoctorID != *doctorID {
			continue
		}
		out = append(out, m.view(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DoctorName < out[j].DoctorName })
	return out, nil
}

func (m *memoryRepo) ReserveSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveErr != nil {
		return nil, m.reserveErr
	}
	s, ok := m.slots[id]
	if !ok || s.Status != SlotFree {
		return nil, ErrSlotUnavailable
	}
	s.Status = SlotReserved
	cp := *s
	return &cp, nil
}

func (m *memoryRepo) FreeSlot(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freeCalls++
	if m.freeErr != nil {
		return m.freeErr
	}
	s, ok := m.slots[id]
	if !ok {
		return ErrSlotNotFound
	}
	s.Status = SlotFree
	return nil
}

func (m *memoryRepo) FindOrphanedReserved(ctx context.Context) ([]Slot, error) {
	return nil, nil
}
