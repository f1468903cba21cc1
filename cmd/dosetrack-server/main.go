package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dosetrack/dosetrack/internal/config"
	"github.com/dosetrack/dosetrack/internal/domain/dose"
	"github.com/dosetrack/dosetrack/internal/domain/schedule"
	"github.com/dosetrack/dosetrack/internal/platform/auth"
	"github.com/dosetrack/dosetrack/internal/platform/cron"
	"github.com/dosetrack/dosetrack/internal/platform/db"
	"github.com/dosetrack/dosetrack/internal/platform/middleware"
)

func main() {
	root := &cobra.Command{
		Use:   "dosetrack-server",
		Short: "Dose schedule expansion engine and API",
	}
	root.AddCommand(serveCmd(), migrateCmd(), generateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
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
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			cancel()
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			itemRepo := schedule.NewItemRepoPG(pool)
			schedRepo := schedule.NewScheduleRepoPG(pool)
			schedSvc := schedule.NewService(itemRepo, schedRepo)
			schedHandler := schedule.NewHandler(schedSvc)

			doseRepo := dose.NewOccurrenceRepoPG(pool)
			doseSvc := dose.NewService(schedSvc, doseRepo, log)
			verifier := auth.NewVerifier(auth.JWTConfig{
				Issuer:   cfg.AuthIssuer,
				Audience: cfg.AuthAudience,
				JWKSURL:  cfg.AuthJWKSURL,
			})
			doseHandler := dose.NewHandler(doseSvc, verifier, cfg.CronSecret)

			e := echo.New()
			e.HideBanner = true
			e.Use(middleware.Recovery(log))
			e.Use(middleware.RequestID())
			e.Use(middleware.Logger(log))
			e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
				AllowOrigins: cfg.CORSOrigins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			}))
			e.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerSecond: cfg.RateLimitRPS,
				BurstSize:         cfg.RateLimitBurst,
			}))
			e.Use(middleware.RequestTimeout(30 * time.Second))

			e.GET("/health", db.HealthHandler(pool))

			// The generation endpoint authenticates internally (bearer token
			// or cron secret), so it mounts outside the JWT middleware.
			doseHandler.RegisterGenerate(e.Group("/api/v1"))

			api := e.Group("/api/v1")
			if cfg.IsDev() && cfg.AuthIssuer == "" && cfg.AuthJWKSURL == "" {
				api.Use(auth.DevAuthMiddleware())
			} else {
				api.Use(auth.JWTMiddleware(verifier))
			}
			schedHandler.RegisterRoutes(api)
			doseHandler.RegisterRoutes(api)

			var runner *cron.Runner
			if cfg.CronEnabled {
				runner, err = cron.NewRunner(doseSvc, cfg.CronSpec, cfg.HorizonDays, log)
				if err != nil {
					return err
				}
				runner.Start()
			}

			go func() {
				log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
				if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server stopped")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down")
			if runner != nil {
				runner.Stop()
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	withMigrator := func(run func(ctx context.Context, m *db.Migrator, log zerolog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, 2, 1)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			return run(ctx, db.NewMigrator(pool, "migrations"), log)
		}
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(func(ctx context.Context, m *db.Migrator, log zerolog.Logger) error {
			applied, err := m.Up(ctx)
			if err != nil {
				return err
			}
			log.Info().Int("applied", applied).Msg("migrations complete")
			return nil
		}),
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: withMigrator(func(ctx context.Context, m *db.Migrator, log zerolog.Logger) error {
			statuses, err := m.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%04d  %-10s %s\n", s.Version, state, s.Name)
			}
			return nil
		}),
	})

	return migrate
}

func generateCmd() *cobra.Command {
	var days int
	var userID string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one dose generation pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			schedSvc := schedule.NewService(schedule.NewItemRepoPG(pool), schedule.NewScheduleRepoPG(pool))
			doseSvc := dose.NewService(schedSvc, dose.NewOccurrenceRepoPG(pool), log)

			if days == 0 {
				days = cfg.HorizonDays
			}
			var scope *uuid.UUID
			if userID != "" {
				uid, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("invalid --user-id: %w", err)
				}
				scope = &uid
			}

			summary, err := doseSvc.Run(ctx, scope, days)
			if err != nil {
				return err
			}
			if summary.Message != "" {
				log.Info().Msg(summary.Message)
				return nil
			}
			log.Info().
				Int("generated", summary.Generated).
				Int("schedules_processed", summary.SchedulesProcessed).
				Int("days", summary.Days).
				Int64("duration_ms", summary.DurationMS).
				Msg("generation run finished")
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "horizon in days (default from HORIZON_DAYS)")
	cmd.Flags().StringVar(&userID, "user-id", "", "generate for a single user")
	return cmd
}
