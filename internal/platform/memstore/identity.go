package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/telemed/telemed/internal/domain/identity"
)

type doctorRepo struct{ s *Store }

func (r doctorRepo) Create(_ context.Context, d *identity.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	cp := *d
	r.s.doctors[d.ID] = &cp
	return nil
}

func (r doctorRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, identity.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r doctorRepo) Update(_ context.Context, d *identity.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[d.ID]; !ok {
		return identity.ErrDoctorNotFound
	}
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	r.s.doctors[d.ID] = &cp
	return nil
}

func (r doctorRepo) List(_ context.Context, f identity.DoctorFilter) ([]*identity.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*identity.Doctor
	for _, d := range r.s.doctors {
		if !d.IsValid && !f.IncludeInvalid {
			continue
		}
		if f.Specialty != "" && !strings.EqualFold(d.Specialty, f.Specialty) {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r doctorRepo) ListSpecialties(_ context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.s.doctors {
		if d.IsValid && !seen[d.Specialty] {
			seen[d.Specialty] = true
			out = append(out, d.Specialty)
		}
	}
	sort.Strings(out)
	return out, nil
}

type patientRepo struct{ s *Store }

func (r patientRepo) Create(_ context.Context, p *identity.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.s.patients[p.ID] = &cp
	return nil
}

func (r patientRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.patients[id]
	if !ok {
		return nil, identity.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r patientRepo) Update(_ context.Context, p *identity.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.patients[p.ID]; !ok {
		return identity.ErrPatientNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	r.s.patients[p.ID] = &cp
	return nil
}
