package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/domain/appointment"
	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/pkg/pagination"
)

type appointmentRepo struct{ s *Store }

func copyAppointment(a *appointment.Appointment) *appointment.Appointment {
	cp := *a
	return &cp
}

func (r appointmentRepo) Book(_ context.Context, a *appointment.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sl, ok := r.s.slots[a.SlotID]
	if !ok || sl.ScheduleID != a.ScheduleID {
		return scheduling.ErrSlotNotFound
	}
	if !sl.IsAvailable() {
		return appointment.ErrSlotAlreadyBooked
	}
	if _, taken := r.s.activeBySlot[a.SlotID]; taken {
		return appointment.ErrSlotAlreadyBooked
	}
	sched, ok := r.s.schedules[a.ScheduleID]
	if !ok {
		return scheduling.ErrScheduleNotFound
	}
	if !sched.IsOpen() {
		return appointment.ErrScheduleClosed
	}
	if d, ok := r.s.doctors[sched.DoctorID]; !ok || !d.IsValid {
		return appointment.ErrDoctorUnavailable
	}

	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	id := a.ID
	sl.Status = scheduling.SlotBooked
	sl.AppointmentID = &id
	r.s.appointments[a.ID] = copyAppointment(a)
	r.s.activeBySlot[a.SlotID] = a.ID
	return nil
}

func (r appointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return copyAppointment(a), nil
}

func (r appointmentRepo) UpdateStatus(_ context.Context, a *appointment.Appointment, from appointment.Status, releaseSlot bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.appointments[a.ID]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	if stored.Status != from {
		return appointment.ErrStatusChanged
	}

	a.UpdatedAt = time.Now().UTC()
	stored.Status = a.Status
	stored.CancellationReason = a.CancellationReason
	stored.CancelledBy = a.CancelledBy
	stored.UpdatedAt = a.UpdatedAt

	if a.Status == appointment.StatusCancelled && r.s.activeBySlot[a.SlotID] == a.ID {
		delete(r.s.activeBySlot, a.SlotID)
	}
	if releaseSlot {
		if sl, ok := r.s.slots[a.SlotID]; ok && sl.AppointmentID != nil && *sl.AppointmentID == a.ID {
			sl.Status = scheduling.SlotAvailable
			sl.AppointmentID = nil
		}
	}
	return nil
}

func (r appointmentRepo) List(_ context.Context, f appointment.Filter) ([]*appointment.Appointment, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	statuses := make(map[appointment.Status]bool, len(f.Statuses))
	for _, st := range f.Statuses {
		statuses[st] = true
	}

	var out []*appointment.Appointment
	for _, a := range r.s.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if len(statuses) > 0 && !statuses[a.Status] {
			continue
		}
		if f.From != nil && a.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && a.Date.After(*f.To) {
			continue
		}
		out = append(out, copyAppointment(a))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	total := len(out)
	if f.Limit > 0 {
		out = pagination.Page(out, pagination.Params{Limit: f.Limit, Offset: f.Offset})
	}
	return out, total, nil
}

func (r appointmentRepo) CreatePrescription(_ context.Context, p *appointment.Prescription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.prescriptions[p.AppointmentID]; exists {
		return appointment.ErrPrescriptionExists
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	r.s.prescriptions[p.AppointmentID] = &cp
	return nil
}

func (r appointmentRepo) GetPrescription(_ context.Context, appointmentID uuid.UUID) (*appointment.Prescription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.prescriptions[appointmentID]
	if !ok {
		return nil, appointment.ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}
