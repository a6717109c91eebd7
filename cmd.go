package main

import (
	"context"
	"errors"
	"net/http"

	"task-manager/api/internal/cache"
	"task-manager/api/internal/calendar"
	"task-manager/api/internal/config"
	"task-manager/api/internal/database"
	"task-manager/api/internal/handlers"
	"task-manager/api/internal/middleware"
	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/notify"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/security"
	"task-manager/api/internal/services"
	"task-manager/api/internal/tracing"
	"task-manager/api/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the taskmanager command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "taskmanager",
		Short:         "Task Manager API",
		Long:          `Task Manager serves the task tracking REST API and runs its background email worker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewWorkerCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.Server.Environment,
	}, log)
	if err != nil {
		return err
	}

	codec, err := security.NewTokenCodec(security.TokenConfig{
		PrivateKeyPath: cfg.Auth.PrivateKeyPath,
		PublicKeyPath:  cfg.Auth.PublicKeyPath,
		Algorithm:      cfg.Auth.Algorithm,
		TTL:            cfg.Auth.AccessTokenTTL,
	})
	if err != nil {
		return oops.Code("TOKEN_KEYS_INVALID").Wrap(err)
	}

	cal, err := calendar.New(ctx, calendar.Config{
		CredentialsFile: cfg.Calendar.CredentialsFile,
		CalendarID:      cfg.Calendar.CalendarID,
	})
	switch {
	case errors.Is(err, calendar.ErrNotConfigured):
		log.Info().Msg("calendar disabled: CALENDAR_CREDENTIALS_FILE not set")
	case err != nil:
		return err
	}

	taskCache := cache.NewTaskCache(a.redis, cfg.Redis.TaskCacheTTL, a.metrics, log)
	tasks := services.NewCachedTaskService(
		services.NewTaskService(repositories.NewTaskRepository(a.db.DB), database.NewTxManager(a.db.DB), a.metrics, log),
		taskCache,
		log,
	)
	a.users.TrackTaskReferences(tasks)

	health := monitoring.NewHealthChecker(0)
	health.Register("database", a.db.Ping)
	health.Register("redis", taskCache.Ping)

	var limiter *middleware.IPRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
		go limiter.Run(ctx, cfg.RateLimit.CleanupInterval)
	}

	queueName := worker.DefaultQueue
	if len(cfg.Worker.Queues) > 0 {
		queueName = cfg.Worker.Queues[0]
	}
	notifier := notify.NewDispatcher(a.jobQueue(), a.users, queueName, log)

	router := handlers.NewRouter(handlers.RouterDeps{
		Log:          log,
		ServiceName:  cfg.App.Name,
		Tracing:      cfg.Tracing.Endpoint != "",
		CORS:         cfg.CORS,
		Tokens:       codec,
		Users:        a.users,
		Auth:         services.NewAuthService(a.users, codec, a.metrics, log),
		Tasks:        tasks,
		Notifier:     notifier,
		Policy:       services.NewAccessPolicy(log),
		Analytics:    services.NewAnalyticsService(repositories.NewAnalyticsRepository(a.db.DB)),
		Calendar:     cal,
		Metrics:      a.metrics,
		Health:       health,
		LoginLimiter: limiter,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVER_FAILED").Wrap(err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	notifier.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	return nil
}

func NewWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background email notification worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func runWorker(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	smtp := notify.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		User:     cfg.Email.User,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}
	if !cfg.EmailEnabled() {
		a.log.Warn().Msg("EMAIL_HOST or EMAIL_FROM not set; notifications will be skipped")
	}
	emails := notify.NewEmailJobHandler(
		notify.NewSMTPMailer(smtp, a.log),
		repositories.NewEmailLogRepository(a.db.DB),
		a.metrics,
		a.log,
	)

	w := worker.NewWorker(a.jobQueue(), worker.Config{
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval,
		Queues:       cfg.Worker.Queues,
		JobTimeout:   cfg.Worker.JobTimeout,
		BaseBackoff:  cfg.Worker.BaseBackoff,
	}, a.metrics, a.log)
	w.RegisterHandler(worker.JobTypeEmailNotification, emails.Handle)

	w.Start(ctx)
	<-ctx.Done()
	w.Stop()
	return nil
}

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *database.Migrator) error { return m.Up() })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every applied migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, func(m *database.Migrator) error { return m.Down() })
			},
		},
	)
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(m *database.Migrator) error) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Database.Driver != database.DriverPostgres {
		return oops.Code("CONFIG_INVALID").Errorf("migrations apply to postgres only; sqlite schemas are created on startup")
	}

	m, err := database.NewMigrator(cfg.GetMigrationURL())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := fn(m); err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	cmd.Printf("schema version %d (dirty=%t)\n", version, dirty)
	return nil
}

func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts",
	}

	var email string
	promote := &cobra.Command{
		Use:   "promote",
		Short: "Grant the ADMIN role to an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.users.GetByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			if user == nil {
				return oops.Code("USER_NOT_FOUND").With("email", email).Errorf("no user with email %q", email)
			}
			role := models.RoleAdmin
			if _, err := a.users.Update(cmd.Context(), user.ID, models.UserPatch{Role: &role}, nil); err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", user.Email, role)
			return nil
		},
	}
	promote.Flags().StringVar(&email, "email", "", "email of the user to promote")
	_ = promote.MarkFlagRequired("email")

	cmd.AddCommand(promote)
	return cmd
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application name and version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%s %s\n", cfg.App.Name, cfg.App.Version)
			return nil
		},
	}
}
