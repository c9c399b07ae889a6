package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/events"
)

type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	template Template
	events   events.Publisher
	logger   zerolog.Logger
}

func NewService(repo Repository, doctors DoctorDirectory, tpl Template, publisher events.Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:     repo,
		doctors:  doctors,
		template: tpl,
		events:   publisher,
		logger:   logger.With().Str("component", "scheduling").Logger(),
	}
}

func (s *Service) Template() Template { return s.template }

func authorizeDoctor(actor auth.Principal, doctorID uuid.UUID) error {
	if !actor.Acts(auth.RoleDoctor, doctorID) {
		return apperr.Unauthorized("cannot manage another doctor's schedule")
	}
	return nil
}

// ownedSchedule loads a schedule the doctor is about to change. Touching
// another doctor's schedule is refused, not hidden.
func (s *Service) ownedSchedule(ctx context.Context, doctorID, scheduleID uuid.UUID) (*Schedule, error) {
	sched, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.DoctorID != doctorID {
		return nil, apperr.Unauthorized("schedule belongs to another doctor")
	}
	return sched, nil
}

// -- Generation --

// GenerateSchedule creates the doctor's schedules for a month from the slot
// template. Dates that already have a schedule are skipped and left as they
// are, so repeated calls converge on the same calendar.
func (s *Service) GenerateSchedule(ctx context.Context, actor auth.Principal, doctorID uuid.UUID, m Month) (*GenerationResult, error) {
	if err := authorizeDoctor(actor, doctorID); err != nil {
		return nil, err
	}
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !d.IsValid {
		return nil, apperr.Validation("doctor %s is not active", doctorID)
	}
	return s.generate(ctx, doctorID, m)
}

func (s *Service) generate(ctx context.Context, doctorID uuid.UUID, m Month) (*GenerationResult, error) {
	res := &GenerationResult{DoctorID: doctorID, Month: m.String(), Created: []string{}, Skipped: []string{}}
	for _, sched := range PlanMonth(doctorID, m, s.template) {
		created, err := s.repo.CreateScheduleIfAbsent(ctx, sched)
		if err != nil {
			return nil, err
		}
		if created {
			res.Created = append(res.Created, sched.DateString())
		} else {
			res.Skipped = append(res.Skipped, sched.DateString())
		}
	}

	s.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("month", res.Month).
		Int("created", len(res.Created)).
		Int("skipped", len(res.Skipped)).
		Msg("schedule generated")

	if len(res.Created) > 0 {
		evt := events.New(events.ScheduleGenerated, doctorID)
		evt.Detail = res.Month
		events.PublishBestEffort(ctx, s.events, s.logger, evt)
	}
	return res, nil
}

// -- Availability --

// ListSchedules is readable by every role; patients browse it to pick a slot.
func (s *Service) ListSchedules(ctx context.Context, doctorID uuid.UUID, from, to *time.Time) ([]*Schedule, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.Validation("to must not be before from")
	}
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListSchedules(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Schedule{}
	}
	return items, nil
}

// AddSlot inserts an ad-hoc slot outside the template.
func (s *Service) AddSlot(ctx context.Context, actor auth.Principal, doctorID, scheduleID uuid.UUID, at string) (*Slot, error) {
	if err := authorizeDoctor(actor, doctorID); err != nil {
		return nil, err
	}
	t, err := ParseTimeOfDay(at)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedSchedule(ctx, doctorID, scheduleID); err != nil {
		return nil, err
	}
	sl := &Slot{ScheduleID: scheduleID, Time: t, Status: SlotAvailable}
	if err := s.repo.AddSlot(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

// DeleteSlot removes an available slot. A slot that is booked, or that any
// appointment still references, is never removed.
func (s *Service) DeleteSlot(ctx context.Context, actor auth.Principal, doctorID, scheduleID, slotID uuid.UUID) error {
	if err := authorizeDoctor(actor, doctorID); err != nil {
		return err
	}
	if _, err := s.ownedSchedule(ctx, doctorID, scheduleID); err != nil {
		return err
	}
	return s.repo.DeleteSlot(ctx, scheduleID, slotID)
}

// SetScheduleStatus opens or closes a day for booking. Existing appointments
// are unaffected.
func (s *Service) SetScheduleStatus(ctx context.Context, actor auth.Principal, doctorID, scheduleID uuid.UUID, status ScheduleStatus) (*Schedule, error) {
	if err := authorizeDoctor(actor, doctorID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Validation("status must be one of [open closed]")
	}
	sched, err := s.ownedSchedule(ctx, doctorID, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status == status {
		return sched, nil
	}
	if err := s.repo.SetScheduleStatus(ctx, scheduleID, status); err != nil {
		return nil, err
	}
	sched.Status = status
	return sched, nil
}
