package appointment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telemed/telemed/internal/domain/appointment"
	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/domain/promo"
	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/apperr"
)

// frozenSchedules and frozenDoctors answer with the state captured before a
// concurrent change, the way a read that raced a writer would.
type frozenSchedules struct{ sched scheduling.Schedule }

func (f frozenSchedules) GetSchedule(_ context.Context, _ uuid.UUID) (*scheduling.Schedule, error) {
	cp := f.sched
	return &cp, nil
}

type frozenDoctors struct{ doctor identity.Doctor }

func (f frozenDoctors) GetByID(_ context.Context, _ uuid.UUID) (*identity.Doctor, error) {
	cp := f.doctor
	return &cp, nil
}

func (f *fixture) serviceReading(schedules appointment.ScheduleLookup, doctors appointment.DoctorLookup) *appointment.Service {
	return appointment.NewService(f.store.Appointments(), schedules, doctors, f.store.Patients(),
		promo.NewEvaluator(f.store.Promos()), nil, zerolog.Nop(),
		appointment.Options{Location: time.UTC, ReleaseSlotOnCancel: true, Now: func() time.Time { return f.now }})
}

func TestBook_ScheduleClosedAfterCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.serviceReading(frozenSchedules{sched: *f.schedule}, f.store.Doctors())
	slotID := f.slot(t, "10:00").ID

	_, err := f.scheduling.SetScheduleStatus(ctx, f.doctorPrincipal(), f.doctor.ID, f.schedule.ID, scheduling.ScheduleClosed)
	require.NoError(t, err)

	_, err = svc.BookAppointment(ctx, f.patientPrincipal(), f.request(f.patient.ID, slotID, ""))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState), "got %v", err)
	assert.Equal(t, scheduling.SlotAvailable, f.slotStatus(t, slotID).Status)

	_, total, err := f.svc.List(ctx, f.patientPrincipal(), appointment.Filter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBook_DoctorInvalidatedAfterCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.serviceReading(f.store.Schedules(), frozenDoctors{doctor: *f.doctor})
	slotID := f.slot(t, "10:00").ID

	d, err := f.store.Doctors().GetByID(ctx, f.doctor.ID)
	require.NoError(t, err)
	d.IsValid = false
	require.NoError(t, f.store.Doctors().Update(ctx, d))

	_, err = svc.BookAppointment(ctx, f.patientPrincipal(), f.request(f.patient.ID, slotID, ""))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
	assert.Equal(t, scheduling.SlotAvailable, f.slotStatus(t, slotID).Status)
}
