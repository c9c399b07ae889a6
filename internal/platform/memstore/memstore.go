// Package memstore keeps every repository in process memory behind one
// mutex. It enforces the same uniqueness and compare-and-swap rules as the
// PostgreSQL repositories and backs STORE=memory and the service tests.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/domain/appointment"
	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/domain/promo"
	"github.com/telemed/telemed/internal/domain/scheduling"
)

type Store struct {
	mu              sync.Mutex
	doctors         map[uuid.UUID]*identity.Doctor
	patients        map[uuid.UUID]*identity.Patient
	schedules       map[uuid.UUID]*scheduling.Schedule
	scheduleByDay   map[dayKey]uuid.UUID
	slots           map[uuid.UUID]*scheduling.Slot
	slotsBySchedule map[uuid.UUID]map[uuid.UUID]*scheduling.Slot // schedule id -> slot id -> slot
	appointments    map[uuid.UUID]*appointment.Appointment
	activeBySlot    map[uuid.UUID]uuid.UUID
	prescriptions   map[uuid.UUID]*appointment.Prescription
	promos          map[string]*promo.PromoCode
}

type dayKey struct {
	doctorID uuid.UUID
	date     string
}

func New() *Store {
	return &Store{
		doctors:         make(map[uuid.UUID]*identity.Doctor),
		patients:        make(map[uuid.UUID]*identity.Patient),
		schedules:       make(map[uuid.UUID]*scheduling.Schedule),
		scheduleByDay:   make(map[dayKey]uuid.UUID),
		slots:           make(map[uuid.UUID]*scheduling.Slot),
		slotsBySchedule: make(map[uuid.UUID]map[uuid.UUID]*scheduling.Slot),
		appointments:    make(map[uuid.UUID]*appointment.Appointment),
		activeBySlot:    make(map[uuid.UUID]uuid.UUID),
		prescriptions:   make(map[uuid.UUID]*appointment.Prescription),
		promos:          make(map[string]*promo.PromoCode),
	}
}

// Ping always succeeds; it lets the store stand in for a database pool in
// health checks.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Doctors() identity.DoctorRepository { return doctorRepo{s} }
func (s *Store) Patients() identity.PatientRepository { return patientRepo{s} }
func (s *Store) Schedules() scheduling.Repository { return scheduleRepo{s} }
func (s *Store) Appointments() appointment.Repository { return appointmentRepo{s} }
func (s *Store) Promos() promo.Repository { return promoRepo{s} }
