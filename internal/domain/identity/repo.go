package identity

import (
	"context"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	// GetByID returns ErrDoctorNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, filter DoctorFilter) ([]*Doctor, error)
	ListSpecialties(ctx context.Context) ([]string, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	// GetByID returns ErrPatientNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
}
