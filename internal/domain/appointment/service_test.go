package appointment_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telemed/telemed/internal/domain/appointment"
	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
)

var adminPrincipal = auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin}

func TestTransition_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "")
	require.Equal(t, appointment.StatusPending, v.Status)

	v, err := f.svc.Transition(ctx, f.doctorPrincipal(), v.ID, appointment.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, v.Status)

	v, err = f.svc.Transition(ctx, f.doctorPrincipal(), v.ID, appointment.StatusCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, v.Status)
	assert.Equal(t, appointment.DisplayCompleted, v.DisplayState)

	// Terminal states never move again.
	for _, target := range []appointment.Status{appointment.StatusConfirmed, appointment.StatusCompleted, appointment.StatusCancelled} {
		_, err = f.svc.Transition(ctx, adminPrincipal, v.ID, target, "")
		assert.True(t, apperr.IsKind(err, apperr.KindInvalidState), "%s: got %v", target, err)
	}
}

func TestTransition_NoGoingBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "FREE100")

	_, err := f.svc.Transition(ctx, adminPrincipal, v.ID, appointment.StatusPending, "")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "nobody sets pending: got %v", err)

	_, err = f.svc.Transition(ctx, adminPrincipal, v.ID, appointment.StatusConfirmed, "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState), "got %v", err)
}

func TestTransition_RoleCapabilities(t *testing.T) {
	ctx := context.Background()

	t.Run("patient cannot confirm", func(t *testing.T) {
		f := newFixture(t)
		v := f.book(t, "")
		_, err := f.svc.Transition(ctx, f.patientPrincipal(), v.ID, appointment.StatusConfirmed, "")
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "got %v", err)
	})

	t.Run("patient can cancel", func(t *testing.T) {
		f := newFixture(t)
		v := f.book(t, "")
		got, err := f.svc.Transition(ctx, f.patientPrincipal(), v.ID, appointment.StatusCancelled, " changed plans ")
		require.NoError(t, err)
		assert.Equal(t, appointment.StatusCancelled, got.Status)
		require.NotNil(t, got.CancelledBy)
		assert.Equal(t, auth.RolePatient, *got.CancelledBy)
		require.NotNil(t, got.CancellationReason)
	})

	t.Run("unrelated doctor", func(t *testing.T) {
		f := newFixture(t)
		v := f.book(t, "")
		stranger := auth.Principal{ID: uuid.New(), Role: auth.RoleDoctor}
		_, err := f.svc.Transition(ctx, stranger, v.ID, appointment.StatusConfirmed, "")
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "got %v", err)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Transition(ctx, adminPrincipal, uuid.New(), appointment.StatusConfirmed, "")
		assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "got %v", err)
	})
}

func TestCancel_ReleasesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "")

	_, err := f.svc.Transition(ctx, f.patientPrincipal(), v.ID, appointment.StatusCancelled, "")
	require.NoError(t, err)

	sl := f.slotStatus(t, v.SlotID)
	assert.Equal(t, scheduling.SlotAvailable, sl.Status)
	assert.Nil(t, sl.AppointmentID)

	// The freed slot can be booked again.
	other := addPatient(t, f.store)
	again, err := f.svc.BookAppointment(ctx, asPatient(other), f.request(other.ID, v.SlotID, ""))
	require.NoError(t, err)
	assert.NotEqual(t, v.ID, again.ID)
}

func TestCancel_KeepsSlotWhenReleaseDisabled(t *testing.T) {
	f := newFixtureWith(t, false)
	ctx := context.Background()
	v := f.book(t, "")

	_, err := f.svc.Transition(ctx, f.doctorPrincipal(), v.ID, appointment.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, scheduling.SlotBooked, f.slotStatus(t, v.SlotID).Status)
}

func TestDeleteBookedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "")

	err := f.scheduling.DeleteSlot(ctx, f.doctorPrincipal(), f.doctor.ID, f.schedule.ID, v.SlotID)
	assert.True(t, apperr.IsKind(err, apperr.KindSlotNotRemovable), "got %v", err)

	got, err := f.svc.Get(ctx, f.patientPrincipal(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusPending, got.Status)
	assert.Equal(t, v.SlotID, got.SlotID)
	assert.Equal(t, scheduling.SlotBooked, f.slotStatus(t, v.SlotID).Status)

	// Unbooked slots of the same schedule can still go.
	require.NoError(t, f.scheduling.DeleteSlot(ctx, f.doctorPrincipal(), f.doctor.ID, f.schedule.ID, f.slot(t, "12:00").ID))
}

func TestDeleteSlot_FreedByCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "")

	_, err := f.svc.Transition(ctx, f.patientPrincipal(), v.ID, appointment.StatusCancelled, "")
	require.NoError(t, err)
	require.Equal(t, scheduling.SlotAvailable, f.slotStatus(t, v.SlotID).Status)

	// The cancelled appointment still points at the slot.
	err = f.scheduling.DeleteSlot(ctx, f.doctorPrincipal(), f.doctor.ID, f.schedule.ID, v.SlotID)
	assert.True(t, apperr.IsKind(err, apperr.KindSlotNotRemovable), "got %v", err)

	got, err := f.svc.Get(ctx, f.patientPrincipal(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.SlotID, got.SlotID)
	assert.Equal(t, scheduling.SlotAvailable, f.slotStatus(t, v.SlotID).Status)
}

func TestGet_OnlyParties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "")

	for _, p := range []auth.Principal{f.patientPrincipal(), f.doctorPrincipal(), adminPrincipal} {
		_, err := f.svc.Get(ctx, p, v.ID)
		assert.NoError(t, err, "role %s", p.Role)
	}
	other := addPatient(t, f.store)
	_, err := f.svc.Get(ctx, asPatient(other), v.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "got %v", err)
}

func TestView_DisplayStateFollowsClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "FREE100")
	assert.False(t, v.VideoCallEnabled)
	assert.False(t, v.PrescriptionAvailable)

	f.now = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	got, err := f.svc.Get(ctx, f.patientPrincipal(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.DisplayToday, got.DisplayState)
	assert.True(t, got.VideoCallEnabled)
	assert.True(t, got.PrescriptionAvailable)

	f.now = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	got, err = f.svc.Get(ctx, f.patientPrincipal(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.DisplayOverdue, got.DisplayState)
	assert.False(t, got.VideoCallEnabled)
}

func TestList_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.book(t, "")

	other := addPatient(t, f.store)
	_, err := f.svc.BookAppointment(ctx, asPatient(other), f.request(other.ID, f.slot(t, "11:00").ID, ""))
	require.NoError(t, err)

	items, total, err := f.svc.List(ctx, f.patientPrincipal(), appointment.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].ID)

	_, total, err = f.svc.List(ctx, f.doctorPrincipal(), appointment.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, _, err = f.svc.List(ctx, f.patientPrincipal(), appointment.Filter{PatientID: &other.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "got %v", err)

	stranger := auth.Principal{ID: uuid.New(), Role: auth.RoleDoctor}
	_, total, err = f.svc.List(ctx, stranger, appointment.Filter{})
	require.NoError(t, err)
	assert.Zero(t, total)

	items, total, err = f.svc.List(ctx, adminPrincipal, appointment.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, scheduling.TimeOfDay("10:00"), items[0].Time)
}

func TestPrescription_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "")

	_, err := f.svc.CreatePrescription(ctx, f.doctorPrincipal(), v.ID, "Migraine")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState), "pending appointment: got %v", err)

	_, err = f.svc.Transition(ctx, f.doctorPrincipal(), v.ID, appointment.StatusConfirmed, "")
	require.NoError(t, err)

	_, err = f.svc.CreatePrescription(ctx, f.doctorPrincipal(), v.ID, "   ")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)

	stranger := auth.Principal{ID: uuid.New(), Role: auth.RoleDoctor}
	_, err = f.svc.CreatePrescription(ctx, stranger, v.ID, "Migraine")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "other doctor: got %v", err)

	_, err = f.svc.GetPrescription(ctx, f.patientPrincipal(), v.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "got %v", err)

	p, err := f.svc.CreatePrescription(ctx, f.doctorPrincipal(), v.ID, " Migraine, rest and fluids ")
	require.NoError(t, err)
	assert.Equal(t, "Migraine, rest and fluids", p.Problem)

	_, err = f.svc.CreatePrescription(ctx, f.doctorPrincipal(), v.ID, "Something else")
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyExists), "second write: got %v", err)

	got, err := f.svc.GetPrescription(ctx, f.patientPrincipal(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Problem, got.Problem)
}

func TestPrescription_CancelledAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "")
	_, err := f.svc.Transition(ctx, f.patientPrincipal(), v.ID, appointment.StatusCancelled, "")
	require.NoError(t, err)

	_, err = f.svc.CreatePrescription(ctx, f.doctorPrincipal(), v.ID, "Migraine")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState), "got %v", err)
}

func TestWritePrescriptionPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "FREE100")
	_, err := f.svc.CreatePrescription(ctx, f.doctorPrincipal(), v.ID, "Seasonal allergies")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.WritePrescriptionPDF(ctx, f.patientPrincipal(), v.ID, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "expected a PDF document")

	stranger := addPatient(t, f.store)
	err = f.svc.WritePrescriptionPDF(ctx, asPatient(stranger), v.ID, &bytes.Buffer{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized), "got %v", err)
}

func TestBook_DoctorInvalidatedAfterBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.book(t, "")

	svc := identity.NewService(f.store.Doctors(), f.store.Patients())
	require.NoError(t, svc.InvalidateDoctor(ctx, adminPrincipal, f.doctor.ID))

	// Existing appointments stay readable and cancellable.
	_, err := f.svc.Transition(ctx, f.patientPrincipal(), v.ID, appointment.StatusCancelled, "")
	assert.NoError(t, err)
}
