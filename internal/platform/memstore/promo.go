package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/telemed/telemed/internal/domain/promo"
)

type promoRepo struct{ s *Store }

func (r promoRepo) Get(_ context.Context, code string) (*promo.PromoCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.promos[code]
	if !ok {
		return nil, promo.ErrPromoNotFound
	}
	cp := *p
	return &cp, nil
}

func (r promoRepo) Create(_ context.Context, p *promo.PromoCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.promos[p.Code]; exists {
		return promo.ErrPromoExists
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	r.s.promos[p.Code] = &cp
	return nil
}

func (r promoRepo) Upsert(_ context.Context, p *promo.PromoCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.promos[p.Code]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	r.s.promos[p.Code] = &cp
	return nil
}

func (r promoRepo) List(_ context.Context) ([]*promo.PromoCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*promo.PromoCode, 0, len(r.s.promos))
	for _, p := range r.s.promos {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
