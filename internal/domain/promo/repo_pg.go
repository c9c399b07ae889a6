package promo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telemed/telemed/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const promoCols = `code, percentage, active, created_at`

func scanPromo(row pgx.Row) (*PromoCode, error) {
	var p PromoCode
	if err := row.Scan(&p.Code, &p.Percentage, &p.Active, &p.CreatedAt); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrPromoNotFound
		}
		return nil, fmt.Errorf("scan promo code: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Get(ctx context.Context, code string) (*PromoCode, error) {
	return scanPromo(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+promoCols+` FROM promo_code WHERE code = $1`, code))
}

func (r *repoPG) Create(ctx context.Context, p *PromoCode) error {
	p.CreatedAt = time.Now().UTC()
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO promo_code (code, percentage, active, created_at) VALUES ($1,$2,$3,$4)`,
		p.Code, p.Percentage, p.Active, p.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrPromoExists
		}
		return fmt.Errorf("insert promo code: %w", err)
	}
	return nil
}

func (r *repoPG) Upsert(ctx context.Context, p *PromoCode) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO promo_code (code, percentage, active) VALUES ($1,$2,$3)
		ON CONFLICT (code) DO UPDATE SET percentage = EXCLUDED.percentage, active = EXCLUDED.active
		RETURNING created_at`,
		p.Code, p.Percentage, p.Active).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert promo code: %w", err)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*PromoCode, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+promoCols+` FROM promo_code ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()
	var items []*PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
