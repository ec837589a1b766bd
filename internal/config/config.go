package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Stripe    StripeConfig
	Downloads DownloadConfig
	Tickets   TicketConfig
	Notify    NotifyConfig
	Catalog   CatalogConfig
	VIP       VIPConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines gateway authentication parameters. The chat gateway
// presents a static API key plus a per-request JWT asserting the acting
// end user and their capabilities.
type AuthConfig struct {
	JWTSecret       string
	GatewayKeyHash  string
	TokenMaxAgeMins int
}

// StripeConfig holds payment provider credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// DownloadConfig governs signed download tokens and the deliverable root.
type DownloadConfig struct {
	Secret   string
	TTLHours int
	FilesDir string
}

// TicketConfig tunes the ticket lifecycle engine.
type TicketConfig struct {
	CloseGraceSeconds int
	MaxIntakeAnswers  int
	CooldownSeconds   int
	ConfirmTTLMinutes int
	ArchiveChannelID  string
}

// NotifyConfig points at the chat gateway used for outbound messages.
type NotifyConfig struct {
	GatewayURL     string
	TimeoutSeconds int
}

// CatalogConfig locates the product/category definition file.
type CatalogConfig struct {
	Path string
}

// VIPConfig sets the cumulative-spend thresholds (minor units) for each tier.
type VIPConfig struct {
	SilverCents  int64
	GoldCents    int64
	DiamondCents int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "commerce-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", "dev-secret"),
			GatewayKeyHash:  os.Getenv("AUTH_GATEWAY_KEY_HASH"),
			TokenMaxAgeMins: getEnvAsInt("AUTH_TOKEN_MAX_AGE_MINUTES", 5),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", "https://checkout.stripe.com/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", "https://checkout.stripe.com/cancel"),
		},
		Downloads: DownloadConfig{
			Secret:   getEnv("DOWNLOAD_URL_SECRET", "download_secret_change_me"),
			TTLHours: getEnvAsInt("DOWNLOAD_TTL_HOURS", 24),
			FilesDir: getEnv("DOWNLOAD_FILES_DIR", "files"),
		},
		Tickets: TicketConfig{
			CloseGraceSeconds: getEnvAsInt("TICKET_CLOSE_GRACE_SECONDS", 10),
			MaxIntakeAnswers:  getEnvAsInt("TICKET_MAX_INTAKE_ANSWERS", 5),
			CooldownSeconds:   getEnvAsInt("COMMAND_COOLDOWN_SECONDS", 5),
			ConfirmTTLMinutes: getEnvAsInt("CONFIRM_TOKEN_TTL_MINUTES", 10),
			ArchiveChannelID:  os.Getenv("TICKET_ARCHIVE_CHANNEL_ID"),
		},
		Notify: NotifyConfig{
			GatewayURL:     os.Getenv("NOTIFY_GATEWAY_URL"),
			TimeoutSeconds: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 5),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", "catalog.json"),
		},
		VIP: VIPConfig{
			SilverCents:  getEnvAsInt64("VIP_SILVER_CENTS", 5000),
			GoldCents:    getEnvAsInt64("VIP_GOLD_CENTS", 25000),
			DiamondCents: getEnvAsInt64("VIP_DIAMOND_CENTS", 100000),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CloseGrace returns the delay between ticket closure and channel deletion.
func (t TicketConfig) CloseGrace() time.Duration {
	if t.CloseGraceSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(t.CloseGraceSeconds) * time.Second
}

// ConfirmTTL returns the validity window for confirmation tokens.
func (t TicketConfig) ConfirmTTL() time.Duration {
	if t.ConfirmTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(t.ConfirmTTLMinutes) * time.Minute
}

// Cooldown returns the per-command cooldown window.
func (t TicketConfig) Cooldown() time.Duration {
	if t.CooldownSeconds <= 0 {
		return 0
	}
	return time.Duration(t.CooldownSeconds) * time.Second
}

// TTL returns the download token validity window.
func (d DownloadConfig) TTL() time.Duration {
	if d.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(d.TTLHours) * time.Hour
}

// Timeout returns the notify gateway HTTP timeout.
func (n NotifyConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// Threshold returns the spend threshold for the given tier, or -1 when the
// tier is not spend-driven.
func (v VIPConfig) Threshold(tier int) int64 {
	switch tier {
	case 1:
		return v.SilverCents
	case 2:
		return v.GoldCents
	case 3:
		return v.DiamondCents
	default:
		return -1
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
