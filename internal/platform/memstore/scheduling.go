package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/domain/scheduling"
)

type scheduleRepo struct{ s *Store }

// snapshot copies a schedule with its slots. Callers hold the lock.
func (s *Store) snapshot(sched *scheduling.Schedule) *scheduling.Schedule {
	cp := *sched
	cp.Slots = []*scheduling.Slot{}
	for _, sl := range s.slotsBySchedule[sched.ID] {
		slCopy := *sl
		cp.Slots = append(cp.Slots, &slCopy)
	}
	cp.SortSlots()
	return &cp
}

func (r scheduleRepo) CreateScheduleIfAbsent(_ context.Context, sched *scheduling.Schedule) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := dayKey{doctorID: sched.DoctorID, date: sched.DateString()}
	if _, exists := r.s.scheduleByDay[key]; exists {
		return false, nil
	}
	now := time.Now().UTC()
	sched.CreatedAt, sched.UpdatedAt = now, now
	cp := *sched
	cp.Slots = nil
	r.s.schedules[sched.ID] = &cp
	r.s.scheduleByDay[key] = sched.ID
	r.s.slotsBySchedule[sched.ID] = make(map[uuid.UUID]*scheduling.Slot, len(sched.Slots))
	for _, sl := range sched.Slots {
		sl.ScheduleID = sched.ID
		sl.CreatedAt = now
		slCopy := *sl
		r.s.slots[sl.ID] = &slCopy
		r.s.slotsBySchedule[sched.ID][sl.ID] = &slCopy
	}
	return true, nil
}

func (r scheduleRepo) GetSchedule(_ context.Context, id uuid.UUID) (*scheduling.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sched, ok := r.s.schedules[id]
	if !ok {
		return nil, scheduling.ErrScheduleNotFound
	}
	return r.s.snapshot(sched), nil
}

func (r scheduleRepo) ListSchedules(_ context.Context, doctorID uuid.UUID, from, to *time.Time) ([]*scheduling.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*scheduling.Schedule
	for _, sched := range r.s.schedules {
		if sched.DoctorID != doctorID {
			continue
		}
		if from != nil && sched.Date.Before(*from) {
			continue
		}
		if to != nil && sched.Date.After(*to) {
			continue
		}
		out = append(out, r.s.snapshot(sched))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r scheduleRepo) SetScheduleStatus(_ context.Context, id uuid.UUID, status scheduling.ScheduleStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sched, ok := r.s.schedules[id]
	if !ok {
		return scheduling.ErrScheduleNotFound
	}
	sched.Status = status
	sched.UpdatedAt = time.Now().UTC()
	return nil
}

func (r scheduleRepo) AddSlot(_ context.Context, sl *scheduling.Slot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.schedules[sl.ScheduleID]; !ok {
		return scheduling.ErrScheduleNotFound
	}
	for _, existing := range r.s.slotsBySchedule[sl.ScheduleID] {
		if existing.Time == sl.Time {
			return scheduling.ErrDuplicateSlot
		}
	}
	if sl.ID == uuid.Nil {
		sl.ID = uuid.New()
	}
	sl.Status = scheduling.SlotAvailable
	sl.CreatedAt = time.Now().UTC()
	cp := *sl
	r.s.slots[sl.ID] = &cp
	r.s.slotsBySchedule[sl.ScheduleID][sl.ID] = &cp
	return nil
}

func (r scheduleRepo) GetSlot(_ context.Context, id uuid.UUID) (*scheduling.Slot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[id]
	if !ok {
		return nil, scheduling.ErrSlotNotFound
	}
	cp := *sl
	return &cp, nil
}

func (r scheduleRepo) DeleteSlot(_ context.Context, scheduleID, slotID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sl, ok := r.s.slots[slotID]
	if !ok || sl.ScheduleID != scheduleID {
		return scheduling.ErrSlotNotFound
	}
	if !sl.IsAvailable() {
		return scheduling.ErrSlotNotRemovable
	}
	// Cancelled appointments keep pointing at a released slot.
	for _, a := range r.s.appointments {
		if a.SlotID == slotID {
			return scheduling.ErrSlotNotRemovable
		}
	}
	delete(r.s.slots, slotID)
	delete(r.s.slotsBySchedule[scheduleID], slotID)
	return nil
}
