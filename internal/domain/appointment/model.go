package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
)

var (
	ErrAppointmentNotFound  = apperr.NotFound("appointment not found")
	ErrPrescriptionNotFound = apperr.NotFound("prescription not found")
	ErrSlotAlreadyBooked    = apperr.New(apperr.KindSlotAlreadyBooked, "slot is already booked")
	ErrScheduleClosed       = apperr.InvalidState("schedule is closed for booking")
	ErrDoctorUnavailable    = apperr.Validation("doctor is not accepting appointments")
	ErrStatusChanged        = apperr.InvalidState("appointment status changed concurrently")
	ErrPrescriptionExists   = apperr.New(apperr.KindAlreadyExists, "prescription already written for this appointment")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", apperr.Validation("unknown status %q", s)
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PatientDetails is the intake form filled in when booking.
type PatientDetails struct {
	FullName    string           `json:"full_name" validate:"required,max=200"`
	DateOfBirth *time.Time       `json:"date_of_birth,omitempty"`
	Gender      *string          `json:"gender,omitempty" validate:"omitempty,oneof=male female other unknown"`
	Age         *int             `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	HeightCM    *decimal.Decimal `json:"height_cm,omitempty"`
	WeightKG    *decimal.Decimal `json:"weight_kg,omitempty"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,max=50"`
}

type Appointment struct {
	ID                 uuid.UUID            `json:"id"`
	PatientID          uuid.UUID            `json:"patient_id"`
	DoctorID           uuid.UUID            `json:"doctor_id"`
	ScheduleID         uuid.UUID            `json:"schedule_id"`
	SlotID             uuid.UUID            `json:"slot_id"`
	Date               time.Time            `json:"-"`
	Time               scheduling.TimeOfDay `json:"time"`
	StartsAt           time.Time            `json:"starts_at"`
	Fee                decimal.Decimal      `json:"fee"`
	DiscountPercent    int                  `json:"discount_percent"`
	PromoCode          *string              `json:"promo_code,omitempty"`
	TotalFee           decimal.Decimal      `json:"total_fee"`
	Status             Status               `json:"status"`
	Patient            PatientDetails       `json:"patient_details"`
	CancellationReason *string              `json:"cancellation_reason,omitempty"`
	CancelledBy        *auth.Role           `json:"cancelled_by,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

func (a *Appointment) DateString() string { return a.Date.Format(scheduling.DateLayout) }

// Involves reports whether actor is the patient or doctor of a, or an admin.
func (a *Appointment) Involves(actor auth.Principal) bool {
	return actor.IsAdmin() ||
		actor.Role == auth.RolePatient && actor.ID == a.PatientID ||
		actor.Role == auth.RoleDoctor && actor.ID == a.DoctorID
}

// View is an appointment as returned to clients, with the fields derived at
// read time.
type View struct {
	*Appointment
	Date                  string       `json:"date"`
	DisplayState          DisplayState `json:"display_state"`
	VideoCallEnabled      bool         `json:"video_call_enabled"`
	PrescriptionAvailable bool         `json:"prescription_available"`
}

type Prescription struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	Problem       string    `json:"problem"`
	CreatedAt     time.Time `json:"created_at"`
}

// Filter narrows appointment listings. Results are ordered by date, time and
// creation.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Statuses  []Status
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
