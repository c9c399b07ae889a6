package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/config"
	"github.com/telemed/telemed/internal/domain/appointment"
	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/domain/promo"
	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/db"
	"github.com/telemed/telemed/internal/platform/events"
	"github.com/telemed/telemed/internal/platform/memstore"
	"github.com/telemed/telemed/internal/platform/middleware"
)

// stores is the persistence backend selected by STORE.
type stores struct {
	doctors      identity.DoctorRepository
	patients     identity.PatientRepository
	schedules    scheduling.Repository
	appointments appointment.Repository
	promos       promo.Repository
	health       db.Pinger
	close        func()
}

func memoryStores(m *memstore.Store) *stores {
	return &stores{
		doctors:      m.Doctors(),
		patients:     m.Patients(),
		schedules:    m.Schedules(),
		appointments: m.Appointments(),
		promos:       m.Promos(),
		health:       m,
		close:        func() {},
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn().Msg("using the in-memory store, data is lost on restart")
		return memoryStores(memstore.New()), nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Timezone: cfg.Timezone,
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("connected to database")
	return &stores{
		doctors:      identity.NewDoctorRepoPG(pool),
		patients:     identity.NewPatientRepoPG(pool),
		schedules:    scheduling.NewRepoPG(pool),
		appointments: appointment.NewRepoPG(pool),
		promos:       promo.NewRepoPG(pool),
		health:       pool,
		close:        pool.Close,
	}, nil
}

func openPublisher(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (events.Publisher, func(), error) {
	if cfg.RedisURL == "" {
		return events.LogPublisher{Logger: logger.With().Str("component", "events").Logger()}, func() {}, nil
	}
	client, err := events.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Msg("publishing events to redis")
	return events.NewRedisPublisher(client), func() { client.Close() }, nil
}

func jwtConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.AuthSigningKey),
		Skipper:    auth.AuthSkipper,
	}
}

// app is the wired HTTP server and its background jobs.
type app struct {
	echo      *echo.Echo
	generator *scheduling.MonthlyGenerator
}

func newApp(ctx context.Context, cfg *config.Config, st *stores, publisher events.Publisher, logger zerolog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	tpl, err := scheduling.ParseTemplate(cfg.SlotTemplate, cfg.NonWorkingDays)
	if err != nil {
		return nil, err
	}

	// Services
	identitySvc := identity.NewService(st.doctors, st.patients)
	promoSvc := promo.NewService(st.promos, logger.With().Str("component", "promo").Logger())
	seeds, err := cfg.PromoSeeds()
	if err != nil {
		return nil, err
	}
	if err := promoSvc.Seed(ctx, seeds); err != nil {
		return nil, err
	}
	schedulingSvc := scheduling.NewService(st.schedules, st.doctors, tpl, publisher, logger)
	appointmentSvc := appointment.NewService(st.appointments, st.schedules, st.doctors, st.patients,
		promoSvc.Evaluator(), publisher, logger, appointment.Options{
			Location:            loc,
			ReleaseSlotOnCancel: cfg.ReleaseSlotOnCancel,
		})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, auth.DevUserHeader, auth.DevRoleHeader},
	}))
	e.Use(echomw.Secure())

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwtConfig(cfg)))
	} else {
		e.Use(auth.JWTMiddleware(jwtConfig(cfg)))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(st.health))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)
	promo.NewHandler(promoSvc).RegisterRoutes(apiV1)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1)

	a := &app{echo: e}
	if cfg.GenerationEnabled {
		a.generator = scheduling.NewMonthlyGenerator(schedulingSvc, cfg.GenerationInterval, cfg.GenerationConcurrency, loc, logger)
	}
	return a, nil
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	publisher, closePublisher, err := openPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	a, err := newApp(ctx, cfg, st, publisher, logger)
	if err != nil {
		return err
	}

	if a.generator != nil {
		go a.generator.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("store", cfg.Store).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
