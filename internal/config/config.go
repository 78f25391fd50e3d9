package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for both services.
type Config struct {
	App          AppConfig
	Support      SupportDBConfig
	Passport     PassportDBConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Kafka        KafkaConfig
	Chain        ChainConfig
	Worker       WorkerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	SupportPort           string
	PassportPort          string
	Version               string
	RequestTimeoutSeconds int
}

// SupportDBConfig points at the embedded support database.
type SupportDBConfig struct {
	Path          string
	URL           string
	AuthToken     string
	RunMigrations bool
}

// PassportDBConfig holds the hosted Postgres connection values.
type PassportDBConfig struct {
	DSN            string
	RunMigrations  bool
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig bounds write endpoints per client IP.
type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines admin token verification.
type AuthConfig struct {
	JWTSecret string
}

// NotificationConfig holds SMTP relay settings.
type NotificationConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	FromName     string
}

// KafkaConfig enables the ticket event stream when brokers are set.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ChainConfig holds the minting RPC endpoint and signer.
type ChainConfig struct {
	RPCURL       string
	SignerKey    string
	ContractHash string
}

// WorkerConfig schedules background jobs.
type WorkerConfig struct {
	StatsReconcileSchedule string
}

// Load reads configuration from environment variables, applying defaults where possible.
// Any envFiles are loaded first; a missing default .env is ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "glow-support"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			SupportPort:           getEnv("SUPPORT_PORT", getEnv("PORT", "3000")),
			PassportPort:          getEnv("PASSPORT_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Support: SupportDBConfig{
			Path:          getEnv("SUPPORT_DB_PATH", "./support.db"),
			URL:           os.Getenv("SUPPORT_DB_URL"),
			AuthToken:     os.Getenv("SUPPORT_DB_AUTH_TOKEN"),
			RunMigrations: getEnvAsBool("SUPPORT_DB_RUN_MIGRATIONS", true),
		},
		Passport: PassportDBConfig{
			DSN:            os.Getenv("PASSPORT_DATABASE_URL"),
			RunMigrations:  getEnvAsBool("PASSPORT_DB_RUN_MIGRATIONS", true),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		RateLimit: RateLimitConfig{
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		},
		Notification: NotificationConfig{
			SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", os.Getenv("EMAIL_USER")),
			SMTPPassword: getEnv("SMTP_PASSWORD", os.Getenv("EMAIL_PASS")),
			EmailFrom:    getEnv("SMTP_FROM", getEnv("EMAIL_USER", "noreply@glowsupport.com")),
			FromName:     getEnv("SMTP_FROM_NAME", "Glow Support"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_TOPIC", "support.ticket-events"),
		},
		Chain: ChainConfig{
			RPCURL:       os.Getenv("CHAIN_RPC_URL"),
			SignerKey:    os.Getenv("CHAIN_SIGNER_KEY"),
			ContractHash: os.Getenv("CHAIN_CONTRACT_HASH"),
		},
		Worker: WorkerConfig{
			StatsReconcileSchedule: getEnv("STATS_RECONCILE_SCHEDULE", "@every 15m"),
		},
	}

	return cfg, nil
}

// ValidatePassport fails when the passport service cannot reach its required collaborators.
func (c *Config) ValidatePassport() error {
	var missing []string
	if c.Passport.DSN == "" {
		missing = append(missing, "PASSPORT_DATABASE_URL")
	}
	if c.Chain.RPCURL == "" {
		missing = append(missing, "CHAIN_RPC_URL")
	}
	if c.Chain.SignerKey == "" {
		missing = append(missing, "CHAIN_SIGNER_KEY")
	}
	if c.Chain.ContractHash == "" {
		missing = append(missing, "CHAIN_CONTRACT_HASH")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateSupport fails when the support database location is unusable.
func (c *Config) ValidateSupport() error {
	if c.Support.Path == "" && c.Support.URL == "" {
		return errors.New("missing required configuration: SUPPORT_DB_PATH or SUPPORT_DB_URL")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	return nil
}

// SupportAddr returns the support HTTP bind address.
func (a AppConfig) SupportAddr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.SupportPort)
}

// PassportAddr returns the passport HTTP bind address.
func (a AppConfig) PassportAddr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.PassportPort)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Window returns the rate limit window.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
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

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
