// Package config provides centralized default values for the glossary service
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

// loadEnvFile applies .env overrides without clobbering variables already
// set in the environment.
func loadEnvFile() {
	envLoaded.Do(func() {
		_ = godotenv.Load()
	})
}

// getEnvInt reads environment variable with fallback to default
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvString reads environment variable with string fallback
func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvDuration reads environment variable as duration with fallback
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		// Try as integer seconds
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database
	DBDriver                 string
	DBPath                   string
	TursoDatabaseURL         string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Secrets
	JWTSecret string
	AESKey    string

	// Identity provider selection ("local" or "http")
	IdentityBackend string
	IdentityURL     string
	IdentityAPIKey  string

	// Session token persistence
	TokenStoreDir string

	// Email (Resend)
	ResendAPIKey string
	EmailFrom    string
	SupportInbox string

	// CORS
	AllowedOrigins []string

	// Entitlement defaults
	DailyViewLimit     int
	GuestPreviewLimit  int
	GuestSessionMaxAge time.Duration

	// Token refresh scheduling and caching
	TokenLifetime    time.Duration
	RefreshLeadTime  time.Duration
	AccessStatusTTL  time.Duration
	TermAccessTTL    time.Duration
	ContentCacheTTL  time.Duration
	SearchResultsCap int

	// Resilience: per-operation timeouts
	SignInTimeout      time.Duration
	SignUpTimeout      time.Duration
	SignOutTimeout     time.Duration
	RefreshTimeout     time.Duration
	StateChangeTimeout time.Duration

	// Resilience: retry/backoff
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RetryMultiplier  float64

	// Resilience: circuit breaker
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration

	// Resilience: query deduplication
	DedupeMinInterval    time.Duration
	DedupeMaxConsecutive int
	DedupeForcedWindow   time.Duration

	// Rate limiting
	SignInRatePerMinute int
	SignInRateBurst     int

	// Cleanup Intervals
	CleanupInterval    time.Duration
	GuestSweepInterval time.Duration
	QuotaResetCronSpec string

	// WebSocket subscription
	MaxSubscribersPerSession int
	SubscribeWriteTimeout    time.Duration
	SubscribePingInterval    time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "glossary.db")
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 250*time.Millisecond)

	// Secrets
	JWTSecret = getEnvString("JWT_SECRET", "")
	AESKey = getEnvString("AES_KEY", "")

	// Identity provider selection
	IdentityBackend = getEnvString("IDENTITY_BACKEND", "local")
	IdentityURL = getEnvString("IDENTITY_URL", "")
	IdentityAPIKey = getEnvString("IDENTITY_API_KEY", "")

	// Session token persistence
	TokenStoreDir = getEnvString("TOKEN_STORE_DIR", ".tokens")

	// Email (Resend)
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	EmailFrom = getEnvString("EMAIL_FROM", "AI/ML Glossary <no-reply@aimlglossary.com>")
	SupportInbox = getEnvString("SUPPORT_INBOX", "support@aimlglossary.com")

	// CORS
	if origins := getEnvString("ALLOWED_ORIGINS", ""); origins != "" {
		AllowedOrigins = strings.Split(origins, ",")
	}

	// Entitlement defaults
	DailyViewLimit = getEnvInt("DAILY_VIEW_LIMIT", 50)
	GuestPreviewLimit = getEnvInt("GUEST_PREVIEW_LIMIT", 2)
	GuestSessionMaxAge = time.Duration(getEnvInt("GUEST_SESSION_MAX_AGE_HOURS", 24)) * time.Hour

	// Token refresh scheduling and caching
	TokenLifetime = time.Duration(getEnvInt("TOKEN_LIFETIME_MINUTES", 60)) * time.Minute
	RefreshLeadTime = time.Duration(getEnvInt("REFRESH_LEAD_TIME_MINUTES", 5)) * time.Minute
	AccessStatusTTL = time.Duration(getEnvInt("ACCESS_STATUS_TTL_SECONDS", 60)) * time.Second
	TermAccessTTL = time.Duration(getEnvInt("TERM_ACCESS_TTL_SECONDS", 60)) * time.Second
	ContentCacheTTL = time.Duration(getEnvInt("CONTENT_CACHE_TTL_HOURS", 24)) * time.Hour
	SearchResultsCap = getEnvInt("SEARCH_RESULTS_CAP", 50)

	// Resilience: per-operation timeouts
	SignInTimeout = getEnvDuration("SIGNIN_TIMEOUT", 5*time.Second)
	SignUpTimeout = getEnvDuration("SIGNUP_TIMEOUT", 8*time.Second)
	SignOutTimeout = getEnvDuration("SIGNOUT_TIMEOUT", 3*time.Second)
	RefreshTimeout = getEnvDuration("REFRESH_TIMEOUT", 5*time.Second)
	StateChangeTimeout = getEnvDuration("STATE_CHANGE_TIMEOUT", 2*time.Second)

	// Resilience: retry/backoff
	RetryMaxAttempts = getEnvInt("RETRY_MAX_ATTEMPTS", 3)
	RetryBaseDelay = getEnvDuration("RETRY_BASE_DELAY", 1000*time.Millisecond)
	RetryMaxDelay = getEnvDuration("RETRY_MAX_DELAY", 10000*time.Millisecond)
	RetryMultiplier = 2.0

	// Resilience: circuit breaker
	BreakerFailureThreshold = getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)
	BreakerOpenTimeout = getEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)

	// Resilience: query deduplication
	DedupeMinInterval = getEnvDuration("DEDUPE_MIN_INTERVAL", 1*time.Second)
	DedupeMaxConsecutive = getEnvInt("DEDUPE_MAX_CONSECUTIVE", 5)
	DedupeForcedWindow = getEnvDuration("DEDUPE_FORCED_WINDOW", 10*time.Second)

	// Rate limiting
	SignInRatePerMinute = getEnvInt("SIGNIN_RATE_PER_MINUTE", 10)
	SignInRateBurst = getEnvInt("SIGNIN_RATE_BURST", 5)

	// Cleanup Intervals
	CleanupInterval = time.Duration(getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", 30)) * time.Minute
	GuestSweepInterval = time.Duration(getEnvInt("GUEST_SWEEP_INTERVAL_MINUTES", 60)) * time.Minute
	QuotaResetCronSpec = getEnvString("QUOTA_RESET_CRON", "0 0 * * *")

	// WebSocket subscription
	MaxSubscribersPerSession = getEnvInt("MAX_SUBSCRIBERS_PER_SESSION", 3)
	SubscribeWriteTimeout = getEnvDuration("SUBSCRIBE_WRITE_TIMEOUT", 10*time.Second)
	SubscribePingInterval = getEnvDuration("SUBSCRIBE_PING_INTERVAL", 30*time.Second)
}
