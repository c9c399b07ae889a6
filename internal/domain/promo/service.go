package promo

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/platform/apperr"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/validate"
)

type Service struct {
	repo      Repository
	evaluator *Evaluator
	logger    zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, evaluator: NewEvaluator(repo), logger: logger}
}

func (s *Service) Evaluator() *Evaluator { return s.evaluator }

// Evaluate resolves code for display before booking.
func (s *Service) Evaluate(ctx context.Context, code string) (*PromoCode, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apperr.Validation("code is required")
	}
	pct, err := s.evaluator.Evaluate(ctx, code)
	if err != nil {
		return nil, err
	}
	return &PromoCode{Code: code, Percentage: pct, Active: true}, nil
}

func (s *Service) Create(ctx context.Context, actor auth.Principal, p *PromoCode) error {
	if !actor.IsAdmin() {
		return apperr.Unauthorized("only admins can create promo codes")
	}
	p.Code = NormalizeCode(p.Code)
	if err := validate.Struct(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) List(ctx context.Context, actor auth.Principal) ([]*PromoCode, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Unauthorized("only admins can list promo codes")
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*PromoCode{}
	}
	return items, nil
}

// Seed installs the configured codes as active, replacing earlier values.
func (s *Service) Seed(ctx context.Context, codes map[string]int) error {
	names := make([]string, 0, len(codes))
	for code := range codes {
		names = append(names, code)
	}
	sort.Strings(names)
	for _, code := range names {
		p := &PromoCode{Code: NormalizeCode(code), Percentage: codes[code], Active: true}
		if err := validate.Struct(p); err != nil {
			return err
		}
		if err := s.repo.Upsert(ctx, p); err != nil {
			return err
		}
	}
	if len(names) > 0 {
		s.logger.Info().Strs("codes", names).Msg("promo codes seeded")
	}
	return nil
}
