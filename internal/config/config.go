package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// User mode constants
const (
	UserModeIndividual = "users"
	UserModeTeams      = "teams"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Session settings
	SessionSecret string

	// Signing secret for email confirmation / password reset links
	TokenSecret string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// External registration API (credential login delegation)
	RegistrationAPIURL     string
	RegistrationAPITimeout time.Duration

	// OAuth settings. Empty values fall back to the DB config store and
	// then to the MajorLeagueCyber defaults (see services.Settings).
	OAuthAuthorizationEndpoint string
	OAuthTokenEndpoint         string
	OAuthAPIEndpoint           string
	OAuthClientID              string
	OAuthClientSecret          string
	OAuthTimeout               time.Duration

	// Feature flags. Like the OAuth settings these are app-level overrides;
	// unset values ("") defer to the config store.
	VerifyEmails        string // "true"/"false" or "" (defer)
	RegistrationVisible string
	MLCRegistration     string
	UserMode            string
	TeamSize            string

	// Mail settings. Reset/confirmation flows are refused when not configured.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Redis (rate limit store + session cache). Empty addr = memory backends.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitEnabled bool

	// Metrics
	MetricsEnabled bool
	MetricsToken   string
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "ctfd.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8000"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8000"),
		IsProduction: getEnvBool("PRODUCTION", false),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		TokenSecret:   getEnv("TOKEN_SECRET", "signing-secret-change-in-production"),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		RegistrationAPIURL:     getEnv("REGISTRATION_API_URL", "https://api.hackru.org/dev"),
		RegistrationAPITimeout: getEnvDuration("REGISTRATION_API_TIMEOUT", 10*time.Second),

		OAuthAuthorizationEndpoint: getEnv("OAUTH_AUTHORIZATION_ENDPOINT", ""),
		OAuthTokenEndpoint:         getEnv("OAUTH_TOKEN_ENDPOINT", ""),
		OAuthAPIEndpoint:           getEnv("OAUTH_API_ENDPOINT", ""),
		OAuthClientID:              getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret:          getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthTimeout:               getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),

		VerifyEmails:        getEnv("VERIFY_EMAILS", ""),
		RegistrationVisible: getEnv("REGISTRATION_VISIBLE", ""),
		MLCRegistration:     getEnv("MLC_REGISTRATION", ""),
		UserMode:            getEnv("USER_MODE", ""),
		TeamSize:            getEnv("TEAM_SIZE", ""),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnvInt("SMTP_PORT", 587),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),
	}
}

// CanSendMail reports whether outbound mail is configured. The password
// reset flow refuses all actions when it is not.
func (c *Config) CanSendMail() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
