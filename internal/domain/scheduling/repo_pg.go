package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telemed/telemed/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const (
	scheduleCols = `id, doctor_id, date, status, created_at, updated_at`
	slotCols     = `id, schedule_id, slot_time, status, appointment_id, created_at`
)

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	if err := row.Scan(&s.ID, &s.DoctorID, &s.Date, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return &s, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var sl Slot
	if err := row.Scan(&sl.ID, &sl.ScheduleID, &sl.Time, &sl.Status, &sl.AppointmentID, &sl.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("scan slot: %w", err)
	}
	return &sl, nil
}

func (r *repoPG) CreateScheduleIfAbsent(ctx context.Context, s *Schedule) (bool, error) {
	created := false
	err := db.InTx(ctx, r.pool, func(ctx context.Context) error {
		tx := db.TxFromContext(ctx)
		now := time.Now().UTC()
		tag, err := tx.Exec(ctx, `
			INSERT INTO schedule (id, doctor_id, date, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$5)
			ON CONFLICT (doctor_id, date) DO NOTHING`,
			s.ID, s.DoctorID, s.Date, s.Status, now)
		if err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		s.CreatedAt, s.UpdatedAt = now, now

		batch := &pgx.Batch{}
		for _, sl := range s.Slots {
			sl.ScheduleID = s.ID
			sl.CreatedAt = now
			batch.Queue(`INSERT INTO slot (id, schedule_id, slot_time, status, created_at) VALUES ($1,$2,$3,$4,$5)`,
				sl.ID, sl.ScheduleID, sl.Time, sl.Status, sl.CreatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert slots: %w", err)
		}
		created = true
		return nil
	})
	return created, err
}

func (r *repoPG) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	s, err := scanSchedule(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+scheduleCols+` FROM schedule WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachSlots(ctx, []*Schedule{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) ListSchedules(ctx context.Context, doctorID uuid.UUID, from, to *time.Time) ([]*Schedule, error) {
	query := `SELECT ` + scheduleCols + ` FROM schedule WHERE doctor_id = $1`
	args := []interface{}{doctorID}
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	query += ` ORDER BY date`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var items []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	if err := r.attachSlots(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// attachSlots loads the slots of all schedules in one query.
func (r *repoPG) attachSlots(ctx context.Context, schedules []*Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Schedule, len(schedules))
	ids := make([]uuid.UUID, 0, len(schedules))
	for _, s := range schedules {
		s.Slots = []*Slot{}
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+slotCols+` FROM slot WHERE schedule_id = ANY($1) ORDER BY slot_time`, ids)
	if err != nil {
		return fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		sl, err := scanSlot(rows)
		if err != nil {
			return err
		}
		if s := byID[sl.ScheduleID]; s != nil {
			s.Slots = append(s.Slots, sl)
		}
	}
	return rows.Err()
}

func (r *repoPG) SetScheduleStatus(ctx context.Context, id uuid.UUID, status ScheduleStatus) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE schedule SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *repoPG) AddSlot(ctx context.Context, sl *Slot) error {
	if sl.ID == uuid.Nil {
		sl.ID = uuid.New()
	}
	sl.Status = SlotAvailable
	sl.CreatedAt = time.Now().UTC()
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO slot (id, schedule_id, slot_time, status, created_at) VALUES ($1,$2,$3,$4,$5)`,
		sl.ID, sl.ScheduleID, sl.Time, sl.Status, sl.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (r *repoPG) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return scanSlot(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+slotCols+` FROM slot WHERE id = $1`, id))
}

func (r *repoPG) DeleteSlot(ctx context.Context, scheduleID, slotID uuid.UUID) error {
	conn := db.Conn(ctx, r.pool)
	tag, err := conn.Exec(ctx,
		`DELETE FROM slot
		  WHERE id = $1 AND schedule_id = $2 AND status = 'available'
		    AND NOT EXISTS (SELECT 1 FROM appointment WHERE slot_id = $1)`, slotID, scheduleID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing deleted: tell a booked or referenced slot apart from a missing one.
	var status SlotStatus
	err = conn.QueryRow(ctx, `SELECT status FROM slot WHERE id = $1 AND schedule_id = $2`, slotID, scheduleID).Scan(&status)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("check slot: %w", err)
	}
	return ErrSlotNotRemovable
}
