// Package events publishes appointment lifecycle events for downstream
// consumers (notification senders, calendars, dashboards).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Type string

const (
	AppointmentBooked        Type = "appointment.booked"
	AppointmentStatusChanged Type = "appointment.status_changed"
	PrescriptionCreated      Type = "prescription.created"
	ScheduleGenerated        Type = "schedule.generated"
)

const (
	// ChannelAppointments carries every event.
	ChannelAppointments = "appointments"
	// channelDoctorPrefix scopes events to one doctor's feed.
	channelDoctorPrefix = "appointments:doctor:"
)

func DoctorChannel(doctorID uuid.UUID) string {
	return channelDoctorPrefix + doctorID.String()
}

type Event struct {
	ID            uuid.UUID  `json:"id"`
	Type          Type       `json:"type"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	PatientID     *uuid.UUID `json:"patient_id,omitempty"`
	Status        string     `json:"status,omitempty"`
	Detail        string     `json:"detail,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// New stamps an event with an id and the current time.
func New(t Type, doctorID uuid.UUID) *Event {
	return &Event{ID: uuid.New(), Type: t, DoctorID: doctorID, OccurredAt: time.Now().UTC()}
}

func (e *Event) ForAppointment(id, patientID uuid.UUID, status string) *Event {
	e.AppointmentID = &id
	e.PatientID = &patientID
	e.Status = status
	return e
}

type Publisher interface {
	Publish(ctx context.Context, evt *Event) error
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(_ context.Context, evt *Event) error {
	p.Logger.Info().
		Str("event_id", evt.ID.String()).
		Str("type", string(evt.Type)).
		Str("doctor_id", evt.DoctorID.String()).
		Str("status", evt.Status).
		Msg("event")
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, *Event) error { return nil }

// PublishBestEffort publishes evt and logs failures instead of returning them.
// Events are emitted after the state change commits, so a broker outage must
// not fail the request.
func PublishBestEffort(ctx context.Context, p Publisher, logger zerolog.Logger, evt *Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		logger.Warn().Err(err).
			Str("event_id", evt.ID.String()).
			Str("type", string(evt.Type)).
			Msg("publish event failed")
	}
}
