package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/db"
)

type repoPG struct {
	pool    *pgxpool.Pool
	dialect goqu.DialectWrapper
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool, dialect: goqu.Dialect("postgres")}
}

var appointmentCols = []interface{}{
	"id", "patient_id", "doctor_id", "schedule_id", "slot_id", "date", "slot_time", "starts_at",
	"fee", "discount_percent", "promo_code", "total_fee", "status",
	"full_name", "date_of_birth", "gender", "age", "height_cm", "weight_kg", "phone",
	"cancellation_reason", "cancelled_by", "created_at", "updated_at",
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduleID, &a.SlotID, &a.Date, &a.Time, &a.StartsAt,
		&a.Fee, &a.DiscountPercent, &a.PromoCode, &a.TotalFee, &a.Status,
		&a.Patient.FullName, &a.Patient.DateOfBirth, &a.Patient.Gender, &a.Patient.Age,
		&a.Patient.HeightCM, &a.Patient.WeightKG, &a.Patient.Phone,
		&a.CancellationReason, &a.CancelledBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}
	return &a, nil
}

func (r *repoPG) Book(ctx context.Context, a *Appointment) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		tx := db.TxFromContext(ctx)

		tag, err := tx.Exec(ctx, `
			UPDATE slot SET status = 'booked', appointment_id = $1
			WHERE id = $2 AND schedule_id = $3 AND status = 'available'
			  AND EXISTS (
			      SELECT 1 FROM schedule sch JOIN doctor d ON d.id = sch.doctor_id
			      WHERE sch.id = $3 AND sch.status = 'open' AND d.is_valid)`,
			a.ID, a.SlotID, a.ScheduleID)
		if err != nil {
			return fmt.Errorf("claim slot: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return claimFailure(ctx, tx, a.ScheduleID)
		}

		now := time.Now().UTC()
		a.CreatedAt, a.UpdatedAt = now, now
		_, err = tx.Exec(ctx, `
			INSERT INTO appointment (id, patient_id, doctor_id, schedule_id, slot_id, date, slot_time, starts_at,
				fee, discount_percent, promo_code, total_fee, status,
				full_name, date_of_birth, gender, age, height_cm, weight_kg, phone, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$21)`,
			a.ID, a.PatientID, a.DoctorID, a.ScheduleID, a.SlotID, a.Date, a.Time, a.StartsAt,
			a.Fee, a.DiscountPercent, a.PromoCode, a.TotalFee, a.Status,
			a.Patient.FullName, a.Patient.DateOfBirth, a.Patient.Gender, a.Patient.Age,
			a.Patient.HeightCM, a.Patient.WeightKG, a.Patient.Phone, now)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrSlotAlreadyBooked
			}
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})
}

// claimFailure explains a slot claim that matched no row.
func claimFailure(ctx context.Context, tx pgx.Tx, scheduleID uuid.UUID) error {
	var (
		status string
		valid  bool
	)
	err := tx.QueryRow(ctx, `
		SELECT sch.status, d.is_valid FROM schedule sch JOIN doctor d ON d.id = sch.doctor_id
		WHERE sch.id = $1`, scheduleID).Scan(&status, &valid)
	switch {
	case db.IsNoRows(err):
		return scheduling.ErrScheduleNotFound
	case err != nil:
		return fmt.Errorf("check schedule: %w", err)
	case status != string(scheduling.ScheduleOpen):
		return ErrScheduleClosed
	case !valid:
		return ErrDoctorUnavailable
	}
	return ErrSlotAlreadyBooked
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query, args, err := r.dialect.From("appointment").Select(appointmentCols...).
		Where(goqu.Ex{"id": id}).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build appointment query: %w", err)
	}
	return scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
}

func (r *repoPG) UpdateStatus(ctx context.Context, a *Appointment, from Status, releaseSlot bool) error {
	return db.InTx(ctx, r.pool, func(ctx context.Context) error {
		tx := db.TxFromContext(ctx)
		a.UpdatedAt = time.Now().UTC()
		tag, err := tx.Exec(ctx, `
			UPDATE appointment SET status = $3, cancellation_reason = $4, cancelled_by = $5, updated_at = $6
			WHERE id = $1 AND status = $2`,
			a.ID, from, a.Status, a.CancellationReason, a.CancelledBy, a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update appointment status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStatusChanged
		}
		if releaseSlot {
			_, err := tx.Exec(ctx, `
				UPDATE slot SET status = 'available', appointment_id = NULL
				WHERE id = $1 AND appointment_id = $2`, a.SlotID, a.ID)
			if err != nil {
				return fmt.Errorf("release slot: %w", err)
			}
		}
		return nil
	})
}

func (r *repoPG) filtered(f Filter) *goqu.SelectDataset {
	ds := r.dialect.From("appointment")
	if f.PatientID != nil {
		ds = ds.Where(goqu.Ex{"patient_id": *f.PatientID})
	}
	if f.DoctorID != nil {
		ds = ds.Where(goqu.Ex{"doctor_id": *f.DoctorID})
	}
	if len(f.Statuses) > 0 {
		statuses := make([]interface{}, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.C("status").In(statuses...))
	}
	if f.From != nil {
		ds = ds.Where(goqu.C("date").Gte(*f.From))
	}
	if f.To != nil {
		ds = ds.Where(goqu.C("date").Lte(*f.To))
	}
	return ds
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Appointment, int, error) {
	conn := db.Conn(ctx, r.pool)
	base := r.filtered(f)

	countSQL, countArgs, err := base.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	ds := base.Select(appointmentCols...).
		Order(goqu.I("date").Asc(), goqu.I("slot_time").Asc(), goqu.I("created_at").Asc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CreatePrescription(ctx context.Context, p *Prescription) error {
	p.CreatedAt = time.Now().UTC()
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO prescription (appointment_id, doctor_id, problem, created_at) VALUES ($1,$2,$3,$4)`,
		p.AppointmentID, p.DoctorID, p.Problem, p.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrPrescriptionExists
		}
		return fmt.Errorf("insert prescription: %w", err)
	}
	return nil
}

func (r *repoPG) GetPrescription(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT appointment_id, doctor_id, problem, created_at FROM prescription WHERE appointment_id = $1`,
		appointmentID).Scan(&p.AppointmentID, &p.DoctorID, &p.Problem, &p.CreatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("get prescription: %w", err)
	}
	return &p, nil
}
