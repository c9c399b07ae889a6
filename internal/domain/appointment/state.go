package appointment

import (
	"time"

	"github.com/telemed/telemed/internal/platform/auth"
)

// transitions lists the legal next states of each status.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// capabilities lists the target states each role may request.
var capabilities = map[auth.Role][]Status{
	auth.RoleDoctor:  {StatusConfirmed, StatusCompleted, StatusCancelled},
	auth.RolePatient: {StatusCancelled},
	auth.RoleAdmin:   {StatusConfirmed, StatusCompleted, StatusCancelled},
}

func contains(list []Status, s Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	return contains(transitions[from], to)
}

// RoleMay reports whether role may move an appointment into target.
func RoleMay(role auth.Role, target Status) bool {
	return contains(capabilities[role], target)
}

type DisplayState string

const (
	DisplayPending   DisplayState = "pending"
	DisplayUpcoming  DisplayState = "upcoming"
	DisplayToday     DisplayState = "today"
	DisplayOverdue   DisplayState = "overdue"
	DisplayCompleted DisplayState = "completed"
	DisplayCancelled DisplayState = "cancelled"
)

// DisplayStateOf derives what the client shows for an appointment. Confirmed
// appointments are compared with today by calendar date in loc.
func DisplayStateOf(status Status, date, now time.Time, loc *time.Location) DisplayState {
	switch status {
	case StatusPending:
		return DisplayPending
	case StatusCompleted:
		return DisplayCompleted
	case StatusCancelled:
		return DisplayCancelled
	}

	ty, tm, td := now.In(loc).Date()
	today := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	ay, am, ad := date.Date()
	day := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	switch {
	case day.After(today):
		return DisplayUpcoming
	case day.Equal(today):
		return DisplayToday
	default:
		return DisplayOverdue
	}
}

// NewView decorates a with its derived fields as of now.
func NewView(a *Appointment, now time.Time, loc *time.Location) *View {
	state := DisplayStateOf(a.Status, a.Date, now, loc)
	return &View{
		Appointment:      a,
		Date:             a.DateString(),
		DisplayState:     state,
		VideoCallEnabled: state == DisplayToday,
		PrescriptionAvailable: (a.Status == StatusConfirmed || a.Status == StatusCompleted) &&
			state != DisplayUpcoming,
	}
}
