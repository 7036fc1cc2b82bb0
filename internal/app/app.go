// Package app wires configuration, storage, services and transport into
// runnable process modes.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/buildsafe/siteward/internal/admin"
	"github.com/buildsafe/siteward/internal/alert"
	"github.com/buildsafe/siteward/internal/auth"
	"github.com/buildsafe/siteward/internal/checkin"
	"github.com/buildsafe/siteward/internal/config"
	"github.com/buildsafe/siteward/internal/database"
	"github.com/buildsafe/siteward/internal/handler"
	"github.com/buildsafe/siteward/internal/induction"
	"github.com/buildsafe/siteward/internal/logger"
	"github.com/buildsafe/siteward/internal/metrics"
	"github.com/buildsafe/siteward/internal/middleware"
	"github.com/buildsafe/siteward/internal/repository"
	"github.com/buildsafe/siteward/internal/security"
	"github.com/buildsafe/siteward/internal/storage"
	"github.com/buildsafe/siteward/internal/swms"
	alertspkg "github.com/buildsafe/siteward/internal/worker/alerts"
	"github.com/buildsafe/siteward/internal/worker/cleanup"
)

// sessionCleanupInterval is how often expired admin sessions are purged
// in worker mode.
const sessionCleanupInterval = time.Hour

// Init loads the Config from environment variables and sets up JSON
// structured logging. When w is non-nil, logs are written to it.
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run is the main entry point. It resolves the subcommand from args
// (os.Args[1:]) and starts the matching mode.
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck skips full initialization
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe opens the database and Redis connections, wires every
// dependency and starts the HTTP server. SIGINT or SIGTERM triggers a
// graceful shutdown.
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	// the alert queue degrades to logged drops when Redis is down, so a
	// failed ping is a warning rather than a startup failure
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable at startup",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
	}
	cancelPing()

	if cfg.AlertWebhookURL != "" {
		guard := security.NewSSRFGuard()
		if err := guard.ValidateURL(cfg.AlertWebhookURL); err != nil {
			return fmt.Errorf("alert webhook URL rejected: %w", err)
		}
	}

	workerRepo := repository.NewPostgresWorkerRepo(db)
	jobSiteRepo := repository.NewPostgresJobSiteRepo(db)
	certRepo := repository.NewPostgresCertificationRepo(db)
	attendanceRepo := repository.NewPostgresAttendanceRepo(db)
	contractorRepo := repository.NewPostgresContractorRepo(db)
	swmsRepo := repository.NewPostgresSWMSRepo(db)
	adminRepo := repository.NewPostgresAdminRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	sanitizer := security.NewTextSanitizer()
	alertQueue := alert.NewRedisQueue(redisClient, cfg.AlertQueueKey)
	tokenService := swms.NewTokenService(cfg.SWMSTokenSecret, cfg.SWMSTokenTTL)

	blobs, err := storage.NewDiskStore(cfg.SWMSStorageDir)
	if err != nil {
		return fmt.Errorf("failed to prepare SWMS storage: %w", err)
	}

	checkInService := checkin.NewService(
		workerRepo, jobSiteRepo, certRepo, attendanceRepo,
		alertQueue, slog.Default(), collector,
	)
	inductionService := induction.NewService(
		workerRepo, certRepo, sanitizer, slog.Default(),
	)
	swmsService := swms.NewService(
		tokenService, contractorRepo, jobSiteRepo, swmsRepo,
		blobs, sanitizer, cfg.SWMSMaxUploadSize, slog.Default(),
	)
	authService := auth.NewService(
		adminRepo, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	adminService := admin.NewService(
		jobSiteRepo, contractorRepo, attendanceRepo,
		workerRepo, certRepo, tokenService, sanitizer,
	)

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitCheckIn, cfg.RateLimitInduction),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger: slog.Default(),

		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		StatusRecorder: collector,

		CheckInService:   checkInService,
		InductionService: inductionService,
		SWMSService:      swmsService,
		MaxUploadSize:    cfg.SWMSMaxUploadSize,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},
		JobSiteService:       adminService,
		ContractorService:    adminService,
		AttendanceService:    adminService,
		CertificationService: adminService,
		SWMSTokenService:     adminService,

		DB:              db,
		MetricsGatherer: registry,
	}

	router := handler.NewRouter(deps)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker starts the alert delivery worker. It drains the Redis queue
// and posts each compliance alert to the configured webhook, and purges
// expired admin sessions in the background.
func runWorker(cfg *config.Config) error {
	if cfg.AlertWebhookURL == "" {
		return fmt.Errorf("ALERT_WEBHOOK_URL is required in worker mode")
	}

	guard := security.NewSSRFGuard()
	if err := guard.ValidateURL(cfg.AlertWebhookURL); err != nil {
		return fmt.Errorf("alert webhook URL rejected: %w", err)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	deliverer := alertspkg.NewDeliverer(
		redisClient,
		guard.NewSafeClient(cfg.AlertHTTPTimeout),
		alertspkg.Config{
			QueueKey:    cfg.AlertQueueKey,
			WebhookURL:  cfg.AlertWebhookURL,
			PollTimeout: cfg.AlertPollTimeout,
			MaxAttempts: cfg.AlertMaxAttempts,
		},
		slog.Default(),
		collector,
	)

	cleanupJob := cleanup.NewSessionCleanupJob(db, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	go cleanupJob.Start(ctx, sessionCleanupInterval)

	slog.Info("worker starting",
		slog.String("queue_key", cfg.AlertQueueKey),
		slog.Int("max_attempts", cfg.AlertMaxAttempts),
	)

	if err := deliverer.Run(ctx); err != nil {
		return fmt.Errorf("alert deliverer stopped: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate applies every pending database migration in order.
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck probes the /health endpoint of the local server.
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL hides credentials when logging the connection string.
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
