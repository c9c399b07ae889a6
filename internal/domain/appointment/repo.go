package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Book marks the slot booked and inserts a in one atomic step. The slot
	// is claimed only if it is still available, its schedule is still open
	// and the doctor is still valid; otherwise nothing is written and
	// ErrSlotAlreadyBooked, ErrScheduleClosed or ErrDoctorUnavailable is
	// returned.
	Book(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpdateStatus writes a's status and cancellation fields only if the
	// stored status still equals from, else ErrStatusChanged. With
	// releaseSlot the slot returns to available in the same step.
	UpdateStatus(ctx context.Context, a *Appointment, from Status, releaseSlot bool) error
	// List returns one page of matches and the total match count.
	List(ctx context.Context, f Filter) ([]*Appointment, int, error)
	// CreatePrescription returns ErrPrescriptionExists on a second write.
	CreatePrescription(ctx context.Context, p *Prescription) error
	GetPrescription(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
}
