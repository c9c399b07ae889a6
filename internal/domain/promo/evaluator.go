package promo

import (
	"context"

	"github.com/shopspring/decimal"
)

// Evaluator resolves promo codes to discount percentages. It never mutates
// anything.
type Evaluator struct {
	repo Repository
}

func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo}
}

// Evaluate returns the discount percentage of code. An empty code means no
// discount. Unknown and inactive codes return ErrPromoNotFound.
func (e *Evaluator) Evaluate(ctx context.Context, code string) (int, error) {
	code = NormalizeCode(code)
	if code == "" {
		return 0, nil
	}
	p, err := e.repo.Get(ctx, code)
	if err != nil {
		return 0, err
	}
	if !p.Active {
		return 0, ErrPromoNotFound
	}
	return p.Percentage, nil
}

var hundred = decimal.NewFromInt(100)

// ApplyDiscount returns fee reduced by pct percent, rounded half away from
// zero to cents. pct is clamped to [0, 100].
func ApplyDiscount(fee decimal.Decimal, pct int) decimal.Decimal {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	remaining := hundred.Sub(decimal.NewFromInt(int64(pct)))
	return fee.Mul(remaining).Div(hundred).Round(2)
}
