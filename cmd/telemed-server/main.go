package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/telemed/telemed/internal/config"
	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/domain/scheduling"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/db"
	"github.com/telemed/telemed/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "telemed-server",
		Short: "Telemedicine scheduling and booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg, newLogger(cfg))
		},
	}
}

func openMigrator(ctx context.Context, cfg *config.Config) (*db.Migrator, func(), error) {
	if cfg.Store != config.StorePostgres {
		return nil, nil, fmt.Errorf("migrations need STORE=%s", config.StorePostgres)
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: 2, Timezone: cfg.Timezone})
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrations.FS), pool.Close, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			migrator, closeFn, err := openMigrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			migrator, closeFn, err := openMigrator(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage doctor schedules",
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a month of schedules for one doctor or every valid doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			monthFlag, _ := cmd.Flags().GetString("month")
			doctorFlag, _ := cmd.Flags().GetString("doctor")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			month := scheduling.MonthOf(time.Now().In(loc))
			if monthFlag != "" {
				if month, err = scheduling.ParseMonth(monthFlag); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			st, err := openStores(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			tpl, err := scheduling.ParseTemplate(cfg.SlotTemplate, cfg.NonWorkingDays)
			if err != nil {
				return err
			}
			svc := scheduling.NewService(st.schedules, st.doctors, tpl, nil, logger)

			var doctorIDs []uuid.UUID
			if doctorFlag != "" {
				id, err := uuid.Parse(doctorFlag)
				if err != nil {
					return fmt.Errorf("--doctor: %w", err)
				}
				doctorIDs = append(doctorIDs, id)
			} else {
				doctors, err := st.doctors.List(ctx, identity.DoctorFilter{})
				if err != nil {
					return err
				}
				for _, d := range doctors {
					doctorIDs = append(doctorIDs, d.ID)
				}
			}

			system := auth.Principal{Role: auth.RoleAdmin}
			for _, id := range doctorIDs {
				res, err := svc.GenerateSchedule(ctx, system, id, month)
				if err != nil {
					return fmt.Errorf("doctor %s: %w", id, err)
				}
				fmt.Printf("%s %s: %d created, %d skipped\n", res.Month, id, len(res.Created), len(res.Skipped))
			}
			return nil
		},
	}
	generateCmd.Flags().String("month", "", "Month to generate (YYYY-MM), defaults to the current month")
	generateCmd.Flags().String("doctor", "", "Doctor id, defaults to every valid doctor")
	cmd.AddCommand(generateCmd)

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for a principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			roleFlag, _ := cmd.Flags().GetString("role")
			idFlag, _ := cmd.Flags().GetString("id")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AuthSigningKey == "" {
				return fmt.Errorf("AUTH_SIGNING_KEY is not set")
			}
			role, err := auth.ParseRole(roleFlag)
			if err != nil {
				return err
			}
			id := uuid.Nil
			if idFlag != "" {
				if id, err = uuid.Parse(idFlag); err != nil {
					return fmt.Errorf("--id: %w", err)
				}
			}
			if id == uuid.Nil && role != auth.RoleAdmin {
				return fmt.Errorf("--id is required for role %s", role)
			}

			token, err := auth.IssueToken(jwtConfig(cfg), auth.Principal{ID: id, Role: role}, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().String("role", string(auth.RolePatient), "patient, doctor or admin")
	cmd.Flags().String("id", "", "Patient or doctor id")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
