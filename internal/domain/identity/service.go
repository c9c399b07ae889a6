package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/validate"
)

type Service struct {
	doctors  DoctorRepository
	patients PatientRepository
}

func NewService(doctors DoctorRepository, patients PatientRepository) *Service {
	return &Service{doctors: doctors, patients: patients}
}

// -- Doctor --

// ListDoctors returns bookable doctors, optionally narrowed to a specialty.
// Only admins may include invalidated doctors.
func (s *Service) ListDoctors(ctx context.Context, actor auth.Principal, specialty string, includeInvalid bool) ([]*Doctor, error) {
	return s.doctors.List(ctx, DoctorFilter{
		Specialty:      specialty,
		IncludeInvalid: includeInvalid && actor.IsAdmin(),
	})
}

func (s *Service) ListSpecialties(ctx context.Context) ([]string, error) {
	return s.doctors.ListSpecialties(ctx)
}

// GetDoctor hides invalidated doctors from everyone but admins and the doctor.
func (s *Service) GetDoctor(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsValid && !actor.Acts(auth.RoleDoctor, d.ID) {
		return nil, ErrDoctorNotFound
	}
	return d, nil
}

func (s *Service) CreateDoctor(ctx context.Context, actor auth.Principal, d *Doctor) error {
	if !actor.IsAdmin() {
		return apperr.Unauthorized("only admins can register doctors")
	}
	if err := validate.Struct(d); err != nil {
		return err
	}
	if !d.Fee.IsPositive() {
		return apperr.Validation("fee must be greater than zero")
	}
	d.IsValid = true
	return s.doctors.Create(ctx, d)
}

func (s *Service) UpdateDoctor(ctx context.Context, actor auth.Principal, id uuid.UUID, u DoctorUpdate) (*Doctor, error) {
	if !actor.Acts(auth.RoleDoctor, id) {
		return nil, apperr.Unauthorized("cannot modify another doctor's profile")
	}
	if err := validate.Struct(u); err != nil {
		return nil, err
	}
	if u.Fee != nil && !u.Fee.IsPositive() {
		return nil, apperr.Validation("fee must be greater than zero")
	}
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.apply(d)
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// InvalidateDoctor is the soft delete: the doctor stays on record for
// existing appointments but can no longer be found or booked.
func (s *Service) InvalidateDoctor(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperr.Unauthorized("only admins can invalidate doctors")
	}
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !d.IsValid {
		return nil
	}
	d.IsValid = false
	return s.doctors.Update(ctx, d)
}

// -- Patient --

// CreatePatient registers a patient. A patient principal may only create the
// record matching its own id.
func (s *Service) CreatePatient(ctx context.Context, actor auth.Principal, p *Patient) error {
	switch {
	case actor.IsAdmin():
	case actor.Role == auth.RolePatient:
		if p.ID != uuid.Nil && p.ID != actor.ID {
			return apperr.Unauthorized("patients can only register themselves")
		}
		p.ID = actor.ID
	default:
		return apperr.Unauthorized("only patients and admins can register patients")
	}
	if err := validate.Struct(p); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

// GetPatient is readable by the patient, doctors and admins.
func (s *Service) GetPatient(ctx context.Context, actor auth.Principal, id uuid.UUID) (*Patient, error) {
	if actor.Role != auth.RoleDoctor && !actor.Acts(auth.RolePatient, id) {
		return nil, apperr.Unauthorized("cannot read another patient's record")
	}
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, actor auth.Principal, p *Patient) error {
	if !actor.Acts(auth.RolePatient, p.ID) {
		return apperr.Unauthorized("cannot modify another patient's record")
	}
	if err := validate.Struct(p); err != nil {
		return err
	}
	existing, err := s.patients.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	return s.patients.Update(ctx, p)
}
