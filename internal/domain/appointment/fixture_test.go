package appointment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/telemed/telemed/internal/domain/appointment"
	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/domain/promo"
	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/memstore"
)

// clinicNow is the fixed clock of every booking test: the day before the
// first generated schedule.
var clinicNow = time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memstore.Store
	svc        *appointment.Service
	scheduling *scheduling.Service
	doctor     *identity.Doctor
	patient    *identity.Patient
	schedule   *scheduling.Schedule
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, true)
}

func newFixtureWith(t *testing.T, releaseOnCancel bool) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	f := &fixture{store: store, now: clinicNow}

	f.doctor = &identity.Doctor{FirstName: "Gregory", LastName: "House", Specialty: "Diagnostics", Fee: decimal.NewFromInt(500), IsValid: true}
	require.NoError(t, store.Doctors().Create(ctx, f.doctor))
	f.patient = addPatient(t, store)

	for code, pct := range map[string]int{"FREE100": 100, "HALF50": 50, "ZERO0": 0} {
		require.NoError(t, store.Promos().Upsert(ctx, &promo.PromoCode{Code: code, Percentage: pct, Active: true}))
	}
	require.NoError(t, store.Promos().Upsert(ctx, &promo.PromoCode{Code: "EXPIRED", Percentage: 20, Active: false}))

	tpl, err := scheduling.ParseTemplate([]string{"10:00", "11:00", "12:00"}, []string{"saturday", "sunday"})
	require.NoError(t, err)
	f.scheduling = scheduling.NewService(store.Schedules(), store.Doctors(), tpl, nil, zerolog.Nop())
	_, err = f.scheduling.GenerateSchedule(ctx, f.doctorPrincipal(), f.doctor.ID, scheduling.Month{Year: 2024, Month: time.May})
	require.NoError(t, err)

	items, err := f.scheduling.ListSchedules(ctx, f.doctor.ID, nil, nil)
	require.NoError(t, err)
	f.schedule = items[0]
	require.Equal(t, "2024-05-01", f.schedule.DateString())

	f.svc = appointment.NewService(store.Appointments(), store.Schedules(), store.Doctors(), store.Patients(),
		promo.NewEvaluator(store.Promos()), nil, zerolog.Nop(),
		appointment.Options{Location: time.UTC, ReleaseSlotOnCancel: releaseOnCancel, Now: func() time.Time { return f.now }})
	return f
}

func addPatient(t *testing.T, store *memstore.Store) *identity.Patient {
	t.Helper()
	p := &identity.Patient{FirstName: "Jane", LastName: "Doe"}
	require.NoError(t, store.Patients().Create(context.Background(), p))
	return p
}

func (f *fixture) doctorPrincipal() auth.Principal {
	return auth.Principal{ID: f.doctor.ID, Role: auth.RoleDoctor}
}

func (f *fixture) patientPrincipal() auth.Principal {
	return asPatient(f.patient)
}

func asPatient(p *identity.Patient) auth.Principal {
	return auth.Principal{ID: p.ID, Role: auth.RolePatient}
}

// slot returns the schedule's slot at the given time.
func (f *fixture) slot(t *testing.T, at scheduling.TimeOfDay) *scheduling.Slot {
	t.Helper()
	for _, sl := range f.schedule.Slots {
		if sl.Time == at {
			return sl
		}
	}
	t.Fatalf("no slot at %s", at)
	return nil
}

func (f *fixture) request(patientID uuid.UUID, slotID uuid.UUID, code string) appointment.BookingRequest {
	return appointment.BookingRequest{
		PatientID:      patientID,
		DoctorID:       f.doctor.ID,
		ScheduleID:     f.schedule.ID,
		SlotID:         slotID,
		PatientDetails: appointment.PatientDetails{FullName: "Jane Doe"},
		PromoCode:      code,
	}
}

// book books the 10:00 slot for the fixture patient.
func (f *fixture) book(t *testing.T, code string) *appointment.View {
	t.Helper()
	v, err := f.svc.BookAppointment(context.Background(), f.patientPrincipal(), f.request(f.patient.ID, f.slot(t, "10:00").ID, code))
	require.NoError(t, err)
	return v
}

func (f *fixture) slotStatus(t *testing.T, id uuid.UUID) *scheduling.Slot {
	t.Helper()
	sl, err := f.store.Schedules().GetSlot(context.Background(), id)
	require.NoError(t, err)
	return sl
}
