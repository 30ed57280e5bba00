package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/accounts"
	"github.com/Conceptual-Machines/eternal-union/internal/album"
	"github.com/Conceptual-Machines/eternal-union/internal/api"
	apimiddleware "github.com/Conceptual-Machines/eternal-union/internal/api/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/config"
	"github.com/Conceptual-Machines/eternal-union/internal/database"
	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/imagegen"
	"github.com/Conceptual-Machines/eternal-union/internal/metrics"
	"github.com/Conceptual-Machines/eternal-union/internal/observability"
	"github.com/Conceptual-Machines/eternal-union/internal/sealbox"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	shutdownTimeout       = 10 * time.Second
	studioCookieMaxAge    = 30 * 24 * 60 * 60
	studioSweepPeriod     = 5 * time.Minute
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()
	if cfg.JWTSecret == "" || cfg.SessionSecret == "" || cfg.CredentialSecret == "" {
		log.Fatal("JWT_SECRET, SESSION_SECRET and CREDENTIAL_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Sentry
	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "eternal-union@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			sentryEnabled = true
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	box, err := sealbox.New(cfg.CredentialSecret)
	if err != nil {
		log.Fatal("Failed to initialize credential sealing:", err)
	}

	// Storage: Postgres when configured, otherwise process memory
	var (
		db         *gorm.DB
		albumStore album.Store
		users      accounts.Store
	)
	if cfg.UsesDatabase() {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to connect to database:", err)
		}
		if err := database.Migrate(db); err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to run migrations:", err)
		}
		albumStore = album.NewGormStore(db, box)
		users = accounts.NewGormStore(db)
	} else {
		log.Println("⚠️  DATABASE_URL not set, albums and accounts are kept in memory")
		albumStore = album.NewMemoryStore()
		users = accounts.NewMemoryStore()
	}

	// Image service
	tracer := observability.NewLangfuseClient(ctx, cfg)
	var images imagegen.Client = imagegen.NewGeminiClient(imagegen.NewGenaiFactory(), cfg.GeminiImageModel, cfg.GeminiTextModel, tracer)
	if cfg.UsesOpenAISuggestions() {
		images = imagegen.WithSuggester(images, imagegen.NewOpenAISuggester(cfg.OpenAIAPIKey, cfg.OpenAISuggestModel))
		log.Printf("✅ Suggestions served by OpenAI (%s)", cfg.OpenAISuggestModel)
	}

	// Metrics
	sentryMetrics := metrics.NewSentryMetrics(sentryEnabled)
	cloudwatchMetrics, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}
	recorders := metrics.Multi{sentryMetrics}
	apiRecorders := metrics.MultiAPI{sentryMetrics}
	if cloudwatchMetrics != nil {
		recorders = append(recorders, cloudwatchMetrics)
		apiRecorders = append(apiRecorders, cloudwatchMetrics)
	}

	hub := events.NewHub()
	studios := studio.NewManager(studio.Deps{
		Images:       images,
		Album:        albumStore,
		Metrics:      recorders,
		DismissDelay: cfg.StatusDismissDelay,
	}, hub)
	studios.StartSweeper(cfg.StudioIdleTTL, studioSweepPeriod)
	defer studios.Stop()

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options.Path = "/"
	sessionStore.Options.MaxAge = studioCookieMaxAge
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.IsProduction()
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	limiter := apimiddleware.NewRateLimiter(cfg.GenerateRatePerMin)
	defer limiter.Stop()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(cfg, api.Services{
		DB:       db,
		Users:    users,
		Studios:  studios,
		Hub:      hub,
		Sessions: sessionStore,
		Requests: apiRecorders,
		Limiter:  limiter,
	}, GetVersion())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
