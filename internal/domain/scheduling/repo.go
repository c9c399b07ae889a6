package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/domain/identity"
)

// Repository stores schedules and their slots. Slots only become booked
// through the appointment repository.
type Repository interface {
	// CreateScheduleIfAbsent inserts s with its slots unless the doctor
	// already has a schedule on s.Date. It reports whether s was inserted.
	CreateScheduleIfAbsent(ctx context.Context, s *Schedule) (bool, error)
	// GetSchedule returns the schedule with its slots ordered by time, or
	// ErrScheduleNotFound.
	GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error)
	// ListSchedules returns a doctor's schedules ordered by date. Nil bounds
	// are open.
	ListSchedules(ctx context.Context, doctorID uuid.UUID, from, to *time.Time) ([]*Schedule, error)
	SetScheduleStatus(ctx context.Context, id uuid.UUID, status ScheduleStatus) error
	// AddSlot returns ErrDuplicateSlot when the time is taken.
	AddSlot(ctx context.Context, sl *Slot) error
	GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	// DeleteSlot removes an available slot. Booked slots yield
	// ErrSlotNotRemovable.
	DeleteSlot(ctx context.Context, scheduleID, slotID uuid.UUID) error
}

// DoctorDirectory is the part of the doctor registry scheduling reads.
type DoctorDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
	List(ctx context.Context, filter identity.DoctorFilter) ([]*identity.Doctor, error)
}
