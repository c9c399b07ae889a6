package appointment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/domain/promo"
	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/events"
	"github.com/telemed/telemed/internal/platform/validate"
)

type BookingRequest struct {
	PatientID      uuid.UUID      `json:"patient_id" validate:"required"`
	DoctorID       uuid.UUID      `json:"doctor_id" validate:"required"`
	ScheduleID     uuid.UUID      `json:"schedule_id" validate:"required"`
	SlotID         uuid.UUID      `json:"slot_id" validate:"required"`
	PatientDetails PatientDetails `json:"patient_details"`
	PromoCode      string         `json:"promo_code,omitempty"`
}

// BookAppointment claims an available slot for a patient. The appointment is
// confirmed straight away when the discounted fee is zero and pending
// payment otherwise. Concurrent attempts on one slot yield exactly one
// appointment; the losers get ErrSlotAlreadyBooked.
func (s *Service) BookAppointment(ctx context.Context, actor auth.Principal, req BookingRequest) (*View, error) {
	req.PatientDetails.FullName = strings.TrimSpace(req.PatientDetails.FullName)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if !actor.Acts(auth.RolePatient, req.PatientID) {
		return nil, apperr.Unauthorized("patients can only book for themselves")
	}

	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		return nil, err
	}
	doctor, err := s.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.IsValid {
		return nil, ErrDoctorUnavailable
	}

	sched, err := s.schedules.GetSchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	if sched.DoctorID != req.DoctorID {
		return nil, scheduling.ErrScheduleNotFound
	}
	if !sched.IsOpen() {
		return nil, ErrScheduleClosed
	}
	slot := sched.FindSlot(req.SlotID)
	if slot == nil {
		return nil, scheduling.ErrSlotNotFound
	}
	if !slot.IsAvailable() {
		return nil, ErrSlotAlreadyBooked
	}
	startsAt := slot.Time.On(sched.Date, s.loc)
	if startsAt.Before(s.now()) {
		return nil, apperr.Validation("slot %s %s has already passed", sched.DateString(), slot.Time)
	}

	pct, err := s.promos.Evaluate(ctx, req.PromoCode)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Newf(apperr.KindInvalidPromoCode, "promo code %q is not valid", req.PromoCode)
		}
		return nil, err
	}

	a := &Appointment{
		ID:              uuid.New(),
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		ScheduleID:      sched.ID,
		SlotID:          slot.ID,
		Date:            sched.Date,
		Time:            slot.Time,
		StartsAt:        startsAt.UTC(),
		Fee:             doctor.Fee,
		DiscountPercent: pct,
		TotalFee:        promo.ApplyDiscount(doctor.Fee, pct),
		Status:          StatusPending,
		Patient:         req.PatientDetails,
	}
	if code := promo.NormalizeCode(req.PromoCode); code != "" {
		a.PromoCode = &code
	}
	if a.TotalFee.IsZero() {
		a.Status = StatusConfirmed
	}

	if err := s.repo.Book(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Str("patient_id", a.PatientID.String()).
		Str("date", a.DateString()).
		Str("time", string(a.Time)).
		Str("total_fee", a.TotalFee.StringFixed(2)).
		Str("status", string(a.Status)).
		Msg("appointment booked")

	evt := events.New(events.AppointmentBooked, a.DoctorID).ForAppointment(a.ID, a.PatientID, string(a.Status))
	events.PublishBestEffort(ctx, s.events, s.logger, evt)

	return s.view(a), nil
}
