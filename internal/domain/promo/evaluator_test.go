package promo

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telemed/telemed/internal/platform/apperr"
)

type mockRepo struct {
	codes map[string]*PromoCode
}

func newMockRepo(codes ...*PromoCode) *mockRepo {
	m := &mockRepo{codes: make(map[string]*PromoCode)}
	for _, p := range codes {
		m.codes[p.Code] = p
	}
	return m
}

func (m *mockRepo) Get(_ context.Context, code string) (*PromoCode, error) {
	p, ok := m.codes[code]
	if !ok {
		return nil, ErrPromoNotFound
	}
	return p, nil
}

func (m *mockRepo) Create(_ context.Context, p *PromoCode) error {
	if _, ok := m.codes[p.Code]; ok {
		return ErrPromoExists
	}
	m.codes[p.Code] = p
	return nil
}

func (m *mockRepo) Upsert(_ context.Context, p *PromoCode) error {
	m.codes[p.Code] = p
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]*PromoCode, error) {
	var out []*PromoCode
	for _, p := range m.codes {
		out = append(out, p)
	}
	return out, nil
}

func TestEvaluator_Evaluate(t *testing.T) {
	e := NewEvaluator(newMockRepo(
		&PromoCode{Code: "FREE100", Percentage: 100, Active: true},
		&PromoCode{Code: "HALF50", Percentage: 50, Active: true},
		&PromoCode{Code: "OLD10", Percentage: 10, Active: false},
	))
	ctx := context.Background()

	tests := []struct {
		code string
		want int
		kind apperr.Kind
	}{
		{"FREE100", 100, ""},
		{" free100 ", 100, ""},
		{"half50", 50, ""},
		{"", 0, ""},
		{"OLD10", 0, apperr.KindNotFound},
		{"NOPE", 0, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := e.Evaluate(ctx, tt.code)
			if tt.kind != "" {
				assert.True(t, apperr.IsKind(err, tt.kind), "expected %s, got %v", tt.kind, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		fee  string
		pct  int
		want string
	}{
		{"500", 100, "0"},
		{"500", 0, "500"},
		{"500", 50, "250"},
		{"99.99", 15, "84.99"},
		{"10.01", 50, "5.01"},
		{"333.33", 33, "223.33"},
		{"100", 150, "0"},
		{"100", -5, "100"},
	}
	for _, tt := range tests {
		got := ApplyDiscount(decimal.RequireFromString(tt.fee), tt.pct)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"ApplyDiscount(%s, %d) = %s, want %s", tt.fee, tt.pct, got, tt.want)
	}
}

func TestApplyDiscount_FullDiscountIsZero(t *testing.T) {
	for _, fee := range []string{"0.01", "1", "1234.56"} {
		assert.True(t, ApplyDiscount(decimal.RequireFromString(fee), 100).IsZero())
	}
}
