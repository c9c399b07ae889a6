package appointment

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/events"
)

// CreatePrescription records the doctor's note for a confirmed or completed
// appointment. It can be written once.
func (s *Service) CreatePrescription(ctx context.Context, actor auth.Principal, appointmentID uuid.UUID, problem string) (*Prescription, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, apperr.Validation("problem is required")
	}
	a, err := s.load(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}
	if !actor.Acts(auth.RoleDoctor, a.DoctorID) {
		return nil, apperr.Unauthorized("only the appointment's doctor can write a prescription")
	}
	if a.Status != StatusConfirmed && a.Status != StatusCompleted {
		return nil, apperr.InvalidState("cannot write a prescription for a %s appointment", a.Status)
	}

	p := &Prescription{AppointmentID: a.ID, DoctorID: a.DoctorID, Problem: problem}
	if err := s.repo.CreatePrescription(ctx, p); err != nil {
		return nil, err
	}

	evt := events.New(events.PrescriptionCreated, a.DoctorID).ForAppointment(a.ID, a.PatientID, string(a.Status))
	events.PublishBestEffort(ctx, s.events, s.logger, evt)
	return p, nil
}

func (s *Service) GetPrescription(ctx context.Context, actor auth.Principal, appointmentID uuid.UUID) (*Prescription, error) {
	if _, err := s.load(ctx, actor, appointmentID); err != nil {
		return nil, err
	}
	return s.repo.GetPrescription(ctx, appointmentID)
}

// WritePrescriptionPDF renders the prescription of an appointment to w.
func (s *Service) WritePrescriptionPDF(ctx context.Context, actor auth.Principal, appointmentID uuid.UUID, w io.Writer) error {
	a, err := s.load(ctx, actor, appointmentID)
	if err != nil {
		return err
	}
	p, err := s.repo.GetPrescription(ctx, appointmentID)
	if err != nil {
		return err
	}
	doctor, err := s.doctors.GetByID(ctx, a.DoctorID)
	if err != nil {
		return err
	}
	return RenderPrescriptionPDF(w, PrescriptionDocument{
		Appointment:  a,
		Prescription: p,
		DoctorName:   doctor.DisplayName(),
		Specialty:    doctor.Specialty,
		Location:     s.loc,
	})
}
