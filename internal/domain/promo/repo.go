package promo

import "context"

type Repository interface {
	// Get returns ErrPromoNotFound when the code is unknown. Codes are
	// stored normalized.
	Get(ctx context.Context, code string) (*PromoCode, error)
	// Create returns ErrPromoExists on a duplicate code.
	Create(ctx context.Context, p *PromoCode) error
	// Upsert creates or replaces the percentage and active flag of a code.
	Upsert(ctx context.Context, p *PromoCode) error
	List(ctx context.Context) ([]*PromoCode, error)
}
