package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string
	BaseURL     string // public origin used for OAuth callbacks

	// Browser client
	AllowedOrigins  []string // CORS origins allowed to call the API with cookies
	AuthRedirectURL string   // where the browser lands after signing in

	// Database; empty runs on in-memory stores
	DatabaseURL string

	// Secrets
	JWTSecret        string // signs access-token cookies
	SessionSecret    string // signs the studio and gothic session cookies
	CredentialSecret string // seals stored Gemini API keys

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Generation
	GeminiImageModel   string
	GeminiTextModel    string
	SuggestProvider    string // "gemini" (default) or "openai"
	OpenAIAPIKey       string // only used when SuggestProvider is "openai"
	OpenAISuggestModel string
	GenerateRatePerMin int
	StatusDismissDelay time.Duration
	StudioIdleTTL      time.Duration // in-memory studios untouched this long are evicted

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

func Load() *Config {
	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnv("PORT", "8080"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		AuthRedirectURL:    getEnv("AUTH_REDIRECT_URL", "/"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		CredentialSecret:   getEnv("CREDENTIAL_SECRET", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GeminiImageModel:   getEnv("GEMINI_IMAGE_MODEL", "gemini-3-pro-image-preview"),
		GeminiTextModel:    getEnv("GEMINI_TEXT_MODEL", "gemini-3-flash-preview"),
		SuggestProvider:    getEnv("SUGGEST_PROVIDER", "gemini"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAISuggestModel: getEnv("OPENAI_SUGGEST_MODEL", "gpt-4o-mini"),
		GenerateRatePerMin: getEnvInt("GENERATE_RATE_PER_MIN", 12),
		StatusDismissDelay: getEnvDuration("STATUS_DISMISS_DELAY", 3*time.Second),
		StudioIdleTTL:      getEnvDuration("STUDIO_IDLE_TTL", 2*time.Hour),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:  getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:  getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:       getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:    getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDatabase reports whether persistence goes to Postgres
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// UsesOpenAISuggestions returns true when suggestions go to OpenAI instead of Gemini
func (c *Config) UsesOpenAISuggestions() bool {
	return c.SuggestProvider == "openai" && c.OpenAIAPIKey != ""
}
