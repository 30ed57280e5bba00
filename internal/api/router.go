package api

import (
	"github.com/Conceptual-Machines/eternal-union/internal/accounts"
	"github.com/Conceptual-Machines/eternal-union/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/eternal-union/internal/api/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/config"
	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/metrics"
	"github.com/Conceptual-Machines/eternal-union/internal/middleware"
	"github.com/Conceptual-Machines/eternal-union/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"
)

// Services are the long-lived collaborators the routes are wired to.
type Services struct {
	DB       *gorm.DB // nil when running on in-memory stores
	Users    accounts.Store
	Studios  *studio.Manager
	Hub      *events.Hub
	Sessions sessions.Store
	Requests metrics.APIRecorder
	Limiter  *apimiddleware.RateLimiter
}

func SetupRouter(cfg *config.Config, svc Services, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(svc.Requests))

	// CORS middleware
	router.Use(apimiddleware.CORS(cfg.AllowedOrigins))

	// Health check
	healthHandler := handlers.NewHealthHandler(svc.DB, svc.Studios, version)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, svc.Studios)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Every browser route is bound to a studio
	api := router.Group("/api")
	api.Use(apimiddleware.StudioSession(svc.Sessions))

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		oauthHandler := handlers.NewOAuthHandler(svc.Users, svc.Studios, cfg, svc.Sessions)
		auth.POST("/logout", oauthHandler.Logout)
		auth.GET("/:provider", oauthHandler.BeginAuth)
		auth.GET("/:provider/callback", oauthHandler.Callback)
	}

	// Studio routes; the signed-in user is optional and kept in sync
	signedIn := api.Group("")
	signedIn.Use(middleware.OptionalJWTAuth(svc.Users, cfg.JWTSecret), apimiddleware.SyncStudioUser(svc.Studios))

	studioHandler := handlers.NewStudioHandler(svc.Studios, svc.Hub)
	st := signedIn.Group("/studio")
	{
		st.GET("", studioHandler.Get)
		st.PATCH("", studioHandler.Patch)
		st.GET("/catalog", studioHandler.Catalog)
		st.GET("/events", studioHandler.Events)
		st.PUT("/hover", studioHandler.Hover)
		st.DELETE("/status", studioHandler.DismissStatus)
		st.POST("/home", studioHandler.Home)

		st.POST("/uploads/:slot", studioHandler.Upload)
		st.DELETE("/uploads/:slot", studioHandler.ClearUpload)
		st.DELETE("/uploads/:slot/:index", studioHandler.RemoveUpload)

		st.POST("/batch/cancel", studioHandler.CancelBatch)
		st.POST("/batch/select/:index", studioHandler.SelectBatchResult)
		st.POST("/editor", studioHandler.OpenEditor)

		// Calls that reach the image service are rate-limited per user or address
		limited := st.Group("")
		limited.Use(svc.Limiter.Middleware())
		limited.POST("/generate", studioHandler.Generate)
		limited.POST("/batch", studioHandler.StartBatch)
		limited.POST("/retouch", studioHandler.Retouch)
		limited.POST("/suggest-pose", studioHandler.SuggestPose)
	}

	// Protected routes (require JWT)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(svc.Users, cfg.JWTSecret), apimiddleware.SyncStudioUser(svc.Studios))
	{
		userHandler := handlers.NewUserHandler(svc.Studios)
		protected.GET("/me", userHandler.GetProfile)

		albumHandler := handlers.NewAlbumHandler(svc.Studios)
		protected.GET("/album", albumHandler.List)
		protected.POST("/album", albumHandler.Save)
		protected.DELETE("/album/:id", albumHandler.Delete)

		credentialHandler := handlers.NewCredentialHandler(svc.Studios)
		protected.PUT("/credential", credentialHandler.Put)
	}

	return router
}
