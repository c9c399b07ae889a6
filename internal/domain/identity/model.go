package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telemed/telemed/internal/platform/apperr"
)

var (
	ErrDoctorNotFound  = apperr.New(apperr.KindNotFound, "doctor not found")
	ErrPatientNotFound = apperr.New(apperr.KindNotFound, "patient not found")
)

// Doctor maps to the doctor table. Doctors are never deleted; an invalid
// doctor is hidden from patients and cannot be booked.
type Doctor struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	FirstName string          `db:"first_name" json:"first_name" validate:"required,max=100"`
	LastName  string          `db:"last_name" json:"last_name" validate:"required,max=100"`
	Title     string          `db:"title" json:"title" validate:"max=100"`
	Specialty string          `db:"specialty" json:"specialty" validate:"required,max=100"`
	Fee       decimal.Decimal `db:"fee" json:"fee"`
	IsValid   bool            `db:"is_valid" json:"is_valid"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

func (d *Doctor) DisplayName() string {
	return strings.TrimSpace(strings.Join([]string{"Dr.", d.FirstName, d.LastName}, " "))
}

// DoctorUpdate carries the editable doctor fields; nil means unchanged.
type DoctorUpdate struct {
	FirstName *string          `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string          `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Title     *string          `json:"title,omitempty" validate:"omitempty,max=100"`
	Specialty *string          `json:"specialty,omitempty" validate:"omitempty,min=1,max=100"`
	Fee       *decimal.Decimal `json:"fee,omitempty"`
}

func (u DoctorUpdate) apply(d *Doctor) {
	if u.FirstName != nil {
		d.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		d.LastName = *u.LastName
	}
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.Specialty != nil {
		d.Specialty = *u.Specialty
	}
	if u.Fee != nil {
		d.Fee = *u.Fee
	}
}

type DoctorFilter struct {
	Specialty      string
	IncludeInvalid bool
}

// Patient maps to the patient table.
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	FirstName string     `db:"first_name" json:"first_name" validate:"required,max=100"`
	LastName  string     `db:"last_name" json:"last_name" validate:"required,max=100"`
	Email     *string    `db:"email" json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string    `db:"phone" json:"phone,omitempty" validate:"omitempty,max=50"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Gender    *string    `db:"gender" json:"gender,omitempty" validate:"omitempty,oneof=male female other unknown"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
