package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Template is the daily slot layout applied to every working day.
type Template struct {
	Times          []TimeOfDay
	NonWorkingDays map[time.Weekday]bool
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseTemplate builds a Template from clock times and weekday names. Times
// must be unique; they are sorted.
func ParseTemplate(times, nonWorkingDays []string) (Template, error) {
	if len(times) == 0 {
		return Template{}, fmt.Errorf("slot template is empty")
	}
	tpl := Template{NonWorkingDays: make(map[time.Weekday]bool)}
	seen := make(map[TimeOfDay]bool, len(times))
	for _, raw := range times {
		t, err := ParseTimeOfDay(strings.TrimSpace(raw))
		if err != nil {
			return Template{}, err
		}
		if seen[t] {
			return Template{}, fmt.Errorf("duplicate slot time %s in template", t)
		}
		seen[t] = true
		tpl.Times = append(tpl.Times, t)
	}
	sort.Slice(tpl.Times, func(i, j int) bool { return tpl.Times[i] < tpl.Times[j] })

	for _, raw := range nonWorkingDays {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		wd, ok := weekdays[name]
		if !ok {
			return Template{}, fmt.Errorf("unknown weekday %q", raw)
		}
		tpl.NonWorkingDays[wd] = true
	}
	return tpl, nil
}

func (t Template) IsWorkingDay(day time.Time) bool {
	return !t.NonWorkingDays[day.Weekday()]
}

// PlanMonth lays out one open schedule per working day of the month, each
// holding an available slot per template time. Nothing is persisted.
func PlanMonth(doctorID uuid.UUID, m Month, tpl Template) []*Schedule {
	var plan []*Schedule
	for _, day := range m.Days() {
		if !tpl.IsWorkingDay(day) {
			continue
		}
		s := &Schedule{
			ID:       uuid.New(),
			DoctorID: doctorID,
			Date:     day,
			Status:   ScheduleOpen,
			Slots:    make([]*Slot, 0, len(tpl.Times)),
		}
		for _, t := range tpl.Times {
			s.Slots = append(s.Slots, &Slot{
				ID:         uuid.New(),
				ScheduleID: s.ID,
				Time:       t,
				Status:     SlotAvailable,
			})
		}
		plan = append(plan, s)
	}
	return plan
}
