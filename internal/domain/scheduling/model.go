package scheduling

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/validate"
)

// DateLayout is the wire format of schedule dates.
const DateLayout = "2006-01-02"

var (
	ErrScheduleNotFound = apperr.NotFound("schedule not found")
	ErrSlotNotFound     = apperr.NotFound("slot not found")
	ErrSlotNotRemovable = apperr.New(apperr.KindSlotNotRemovable, "slot is booked and cannot be removed")
	ErrDuplicateSlot    = apperr.Validation("slot time already exists in this schedule")
)

type ScheduleStatus string

const (
	ScheduleOpen   ScheduleStatus = "open"
	ScheduleClosed ScheduleStatus = "closed"
)

func (s ScheduleStatus) Valid() bool {
	return s == ScheduleOpen || s == ScheduleClosed
}

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// TimeOfDay is a 24h "HH:MM" clock time. Lexical order equals chronological
// order.
type TimeOfDay string

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if !validate.IsTimeOfDay(s) {
		return "", apperr.Validation("invalid time of day %q, expected HH:MM", s)
	}
	return TimeOfDay(s), nil
}

// Clock returns the hour and minute.
func (t TimeOfDay) Clock() (int, int) {
	s := string(t)
	return int(s[0]-'0')*10 + int(s[1]-'0'), int(s[3]-'0')*10 + int(s[4]-'0')
}

// On returns the instant t occurs on the calendar day of date in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	h, m := t.Clock()
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc)
}

type Slot struct {
	ID            uuid.UUID  `json:"id"`
	ScheduleID    uuid.UUID  `json:"schedule_id"`
	Time          TimeOfDay  `json:"time"`
	Status        SlotStatus `json:"status"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (sl *Slot) IsAvailable() bool { return sl.Status == SlotAvailable }

// Schedule is one doctor's bookable day. Date is midnight UTC of the
// calendar day.
type Schedule struct {
	ID        uuid.UUID      `json:"id"`
	DoctorID  uuid.UUID      `json:"doctor_id"`
	Date      time.Time      `json:"-"`
	Status    ScheduleStatus `json:"status"`
	Slots     []*Slot        `json:"slots"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DateString is the JSON form of Date.
func (s *Schedule) DateString() string { return s.Date.Format(DateLayout) }

func (s *Schedule) MarshalJSON() ([]byte, error) {
	type plain Schedule
	return json.Marshal(struct {
		Date string `json:"date"`
		*plain
	}{s.DateString(), (*plain)(s)})
}

func (s *Schedule) IsOpen() bool { return s.Status == ScheduleOpen }

// SortSlots orders slots by time of day.
func (s *Schedule) SortSlots() {
	sort.Slice(s.Slots, func(i, j int) bool { return s.Slots[i].Time < s.Slots[j].Time })
}

func (s *Schedule) FindSlot(id uuid.UUID) *Slot {
	for _, sl := range s.Slots {
		if sl.ID == id {
			return sl
		}
	}
	return nil
}

// Day truncates t to midnight UTC of its calendar day in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, apperr.Validation("invalid month %q, expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

// Days lists every calendar day of the month.
func (m Month) Days() []time.Time {
	var days []time.Time
	for d := m.First(); d.Month() == m.Month; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// GenerationResult reports which dates a generation run created and which it
// left alone because a schedule already existed.
type GenerationResult struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Month    string    `json:"month"`
	Created  []string  `json:"created"`
	Skipped  []string  `json:"skipped"`
}
