package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/events"
)

type ScheduleLookup interface {
	GetSchedule(ctx context.Context, id uuid.UUID) (*scheduling.Schedule, error)
}

type DoctorLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
}

type PatientLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

// Discounter resolves a promo code to a discount percentage.
type Discounter interface {
	Evaluate(ctx context.Context, code string) (int, error)
}

type Options struct {
	// Location is the clinic time zone used for slot start times and
	// display states.
	Location *time.Location
	// ReleaseSlotOnCancel returns a cancelled appointment's slot to the
	// available pool.
	ReleaseSlotOnCancel bool
	Now                 func() time.Time
}

type Service struct {
	repo      Repository
	schedules ScheduleLookup
	doctors   DoctorLookup
	patients  PatientLookup
	promos    Discounter
	events    events.Publisher
	logger    zerolog.Logger

	loc             *time.Location
	releaseOnCancel bool
	now             func() time.Time
}

func NewService(repo Repository, schedules ScheduleLookup, doctors DoctorLookup, patients PatientLookup,
	promos Discounter, publisher events.Publisher, logger zerolog.Logger, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:            repo,
		schedules:       schedules,
		doctors:         doctors,
		patients:        patients,
		promos:          promos,
		events:          publisher,
		logger:          logger.With().Str("component", "appointment").Logger(),
		loc:             opts.Location,
		releaseOnCancel: opts.ReleaseSlotOnCancel,
		now:             opts.Now,
	}
}

func (s *Service) view(a *Appointment) *View {
	return NewView(a, s.now(), s.loc)
}

// load returns the appointment if actor is one of its parties.
func (s *Service) load(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Involves(actor) {
		return nil, apperr.Unauthorized("not a party to this appointment")
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*View, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.view(a), nil
}

// List scopes patients and doctors to their own appointments.
func (s *Service) List(ctx context.Context, actor auth.Principal, f Filter) ([]*View, int, error) {
	switch actor.Role {
	case auth.RolePatient:
		if f.PatientID != nil && *f.PatientID != actor.ID {
			return nil, 0, apperr.Unauthorized("cannot list another patient's appointments")
		}
		f.PatientID = &actor.ID
	case auth.RoleDoctor:
		if f.DoctorID != nil && *f.DoctorID != actor.ID {
			return nil, 0, apperr.Unauthorized("cannot list another doctor's appointments")
		}
		f.DoctorID = &actor.ID
	}

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*View, len(items))
	for i, a := range items {
		views[i] = s.view(a)
	}
	return views, total, nil
}

// Transition moves an appointment to target. The status is re-read and the
// write only lands if nobody changed it in between.
func (s *Service) Transition(ctx context.Context, actor auth.Principal, id uuid.UUID, target Status, reason string) (*View, error) {
	a, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !RoleMay(actor.Role, target) {
		return nil, apperr.Unauthorized("%s cannot set an appointment to %s", actor.Role, target)
	}
	if a.Status.IsTerminal() {
		return nil, apperr.InvalidState("appointment is already %s", a.Status)
	}
	if !CanTransition(a.Status, target) {
		return nil, apperr.InvalidState("cannot move appointment from %s to %s", a.Status, target)
	}

	from := a.Status
	a.Status = target
	release := false
	if target == StatusCancelled {
		role := actor.Role
		a.CancelledBy = &role
		if reason != "" {
			a.CancellationReason = &reason
		}
		release = s.releaseOnCancel
	}
	if err := s.repo.UpdateStatus(ctx, a, from, release); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Str("actor", actor.String()).
		Bool("slot_released", release).
		Msg("appointment status changed")

	evt := events.New(events.AppointmentStatusChanged, a.DoctorID).ForAppointment(a.ID, a.PatientID, string(a.Status))
	evt.Detail = string(from)
	events.PublishBestEffort(ctx, s.events, s.logger, evt)

	return s.view(a), nil
}
