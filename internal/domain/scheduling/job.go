package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/telemed/telemed/internal/domain/identity"
)

// MonthlyGenerator keeps every active doctor's calendar filled for the
// current and the following month.
type MonthlyGenerator struct {
	svc         *Service
	interval    time.Duration
	concurrency int
	loc         *time.Location
	now         func() time.Time
	logger      zerolog.Logger
}

func NewMonthlyGenerator(svc *Service, interval time.Duration, concurrency int, loc *time.Location, logger zerolog.Logger) *MonthlyGenerator {
	if concurrency < 1 {
		concurrency = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &MonthlyGenerator{
		svc:         svc,
		interval:    interval,
		concurrency: concurrency,
		loc:         loc,
		now:         time.Now,
		logger:      logger.With().Str("component", "schedule-generator").Logger(),
	}
}

// Run generates once immediately and then on every tick until ctx is done.
func (g *MonthlyGenerator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		if err := g.RunOnce(ctx); err != nil && ctx.Err() == nil {
			g.logger.Error().Err(err).Msg("schedule generation run failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce generates the current and next month for every valid doctor.
// Doctors are processed concurrently. A doctor whose generation fails is
// logged and does not stop the others; the failures are joined into the
// returned error.
func (g *MonthlyGenerator) RunOnce(ctx context.Context) error {
	doctors, err := g.svc.doctors.List(ctx, identity.DoctorFilter{})
	if err != nil {
		return err
	}
	current := MonthOf(g.now().In(g.loc))
	months := []Month{current, current.Next()}

	var (
		mu   sync.Mutex
		errs []error
	)
	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for _, d := range doctors {
		doctorID := d.ID
		eg.Go(func() error {
			for _, m := range months {
				if _, err := g.svc.generate(ctx, doctorID, m); err != nil {
					g.logger.Error().Err(err).
						Str("doctor_id", doctorID.String()).
						Str("month", m.String()).
						Msg("schedule generation failed for doctor")
					mu.Lock()
					errs = append(errs, fmt.Errorf("doctor %s month %s: %w", doctorID, m, err))
					mu.Unlock()
					return nil
				}
			}
			return nil
		})
	}
	_ = eg.Wait()

	g.logger.Info().
		Int("doctors", len(doctors)).
		Int("failed", len(errs)).
		Str("from", current.String()).
		Msg("schedule generation run complete")
	return errors.Join(errs...)
}
