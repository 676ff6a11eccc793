package main

import (
	"context"
	"errors"
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

	"github.com/cgmartin0310/careconnect/internal/config"
	"github.com/cgmartin0310/careconnect/internal/domain/compliance"
	"github.com/cgmartin0310/careconnect/internal/domain/conversation"
	"github.com/cgmartin0310/careconnect/internal/domain/organization"
	"github.com/cgmartin0310/careconnect/internal/domain/patient"
	"github.com/cgmartin0310/careconnect/internal/domain/user"
	"github.com/cgmartin0310/careconnect/internal/platform/auth"
	"github.com/cgmartin0310/careconnect/internal/platform/blobstore"
	"github.com/cgmartin0310/careconnect/internal/platform/db"
	"github.com/cgmartin0310/careconnect/internal/platform/middleware"
	"github.com/cgmartin0310/careconnect/internal/platform/sendbird"
)

// subjectLookupAdapter exposes user accounts to the compliance evaluator,
// avoiding a circular import between the user and compliance packages.
type subjectLookupAdapter struct {
	users *user.Service
}

func (a *subjectLookupAdapter) Lookup(ctx context.Context, id uuid.UUID) (*compliance.Subject, error) {
	u, err := a.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, compliance.ErrSubjectNotFound
		}
		return nil, err
	}
	return &compliance.Subject{
		ID:             u.ID,
		IsExternal:     u.IsExternal,
		OrganizationID: u.OrganizationID,
	}, nil
}

// patientCheckerAdapter answers patient-existence checks for consent
// creation.
type patientCheckerAdapter struct {
	patients *patient.Service
}

func (a *patientCheckerAdapter) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := a.patients.GetPatient(ctx, id)
	if errors.Is(err, patient.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// orgPoliciesAdapter projects an organization's compliance group onto the
// policy view consent creation consults.
type orgPoliciesAdapter struct {
	orgs *organization.Service
}

func (a *orgPoliciesAdapter) GroupPolicyFor(ctx context.Context, organizationID uuid.UUID) (*compliance.GroupPolicy, error) {
	group, err := a.orgs.GroupPolicyFor(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return &compliance.GroupPolicy{
		Name:                        group.Name,
		RequiresConsent:             group.RequiresConsent,
		RequiresOrganizationConsent: group.RequiresOrganizationConsent,
	}, nil
}

// patientDirectoryAdapter exposes patients to conversation provisioning.
type patientDirectoryAdapter struct {
	patients *patient.Service
}

func (a *patientDirectoryAdapter) Patient(ctx context.Context, id uuid.UUID) (*conversation.PatientInfo, error) {
	p, err := a.patients.GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, conversation.ErrPatientNotFound
		}
		return nil, err
	}
	return &conversation.PatientInfo{ID: p.ID, FirstName: p.FirstName, LastName: p.LastName}, nil
}

// participantDirectoryAdapter exposes user accounts to conversation
// provisioning.
type participantDirectoryAdapter struct {
	users *user.Service
}

func (a *participantDirectoryAdapter) Participant(ctx context.Context, id uuid.UUID) (*conversation.Participant, error) {
	u, err := a.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return toParticipant(u), nil
}

func (a *participantDirectoryAdapter) FindOrCreateExternal(ctx context.Context, phoneNumber, name string) (*conversation.Participant, error) {
	u, err := a.users.FindOrCreateExternal(ctx, phoneNumber, name)
	if err != nil {
		return nil, err
	}
	return toParticipant(u), nil
}

func (a *participantDirectoryAdapter) RecordSendbirdID(ctx context.Context, id uuid.UUID, sendbirdID string) error {
	return a.users.RecordSendbirdID(ctx, id, sendbirdID)
}

func toParticipant(u *user.User) *conversation.Participant {
	return &conversation.Participant{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsExternal:  u.IsExternal,
		PhoneNumber: u.PhoneNumber,
		SendbirdID:  u.SendbirdUserID,
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "careconnect-server",
		Short: "Care coordination messaging API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
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
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)

	var sb sendbird.Client
	if cfg.SendbirdAPIURL != "" {
		sb = sendbird.NewHTTPClient(cfg.SendbirdAPIURL, cfg.SendbirdAPIToken)
	} else {
		logger.Warn().Msg("no messaging platform configured; using in-memory fake")
		sb = sendbird.NewFakeClient()
	}

	attachments := blobstore.NewInMemoryStore()

	// Repositories and services
	userRepo := user.NewRepoPG(pool)
	userSvc := user.NewService(userRepo, issuer)

	orgRepo := organization.NewRepoPG(pool)
	orgSvc := organization.NewService(orgRepo)

	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, userSvc)

	consentRepo := compliance.NewConsentRepoPG(pool)
	complianceSvc := compliance.NewService(
		consentRepo,
		&patientCheckerAdapter{patients: patientSvc},
		&orgPoliciesAdapter{orgs: orgSvc},
		attachments,
		logger,
	)
	evaluator := compliance.NewEvaluator(&subjectLookupAdapter{users: userSvc}, consentRepo, logger)

	convRepo := conversation.NewRepoPG(pool)
	convSvc := conversation.NewService(
		convRepo,
		&patientDirectoryAdapter{patients: patientSvc},
		&participantDirectoryAdapter{users: userSvc},
		evaluator,
		sb,
		logger,
	)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	userHandler := user.NewHandler(userSvc)
	orgHandler := organization.NewHandler(orgSvc)
	patientHandler := patient.NewHandler(patientSvc)
	complianceHandler := compliance.NewHandler(complianceSvc)
	convHandler := conversation.NewHandler(convSvc, logger)

	// Public surface: login, registration, and platform webhooks.
	public := e.Group("/api/v1")
	public.Use(middleware.RateLimit(rateLimitCfg))
	userHandler.RegisterPublicRoutes(public)
	convHandler.RegisterPublicRoutes(e)

	// Authenticated API
	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(auth.Middleware(issuer))
	userHandler.RegisterRoutes(api)
	orgHandler.RegisterRoutes(api)
	patientHandler.RegisterRoutes(api)
	complianceHandler.RegisterRoutes(api)
	convHandler.RegisterRoutes(api)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	return nil
}
