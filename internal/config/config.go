package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the whole application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Pipeline  PipelineConfig
	Providers ProvidersConfig
}

// ServerConfig configures the HTTP/dashboard surface.
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig configures the persistence layer.
type DatabaseConfig struct {
	Driver        string
	Host          string
	Port          int
	Name          string
	User          string
	Password      string
	SSLMode       string
	ClickhouseDSN string // read from CLICKHOUSE_DSN; no component reads this field
}

// SecurityConfig configures secrets-at-rest and session handling.
type SecurityConfig struct {
	JWTSecret      string
	EncryptionKey  string
	SessionTimeout int
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// PipelineConfig bundles every pipeline-stage knob named in §4, each
// overridable via environment variable so a deployment can retune
// without a rebuild.
type PipelineConfig struct {
	UpstreamFeedURL  string
	WhaleFeedURL     string
	WSReconnectDelay time.Duration
	WSMaxBackoff     time.Duration
	WSPingInterval   time.Duration

	DedupWindow           time.Duration
	MaxConcurrentAnalyses int
	IntakeQueueCapacity   int

	EnrichDeadline time.Duration

	AbsoluteMinLiquidityUsd float64
	CreatorRugCountMax      int

	MaxOpenPositions    int
	StopLossPct         float64
	TakeProfitPct       float64
	TrailingDrawdownPct float64
	MaxHoldDuration     time.Duration
	StartingCashUsd     float64

	TelemetryBufferSize int
	SnapshotInterval    time.Duration
	SnapshotPath        string
}

// ProvidersConfig carries per-provider credentials and rate limits; the
// core never issues tokens, it only reads them (§6).
type ProvidersConfig struct {
	APIKeys map[string]string // provider name -> key, as read from the environment (not encrypted)
	RateRPS map[string]float64
}

// Load reads configuration from the environment, optionally preloaded
// from a .env file (a no-op, ignored error, when none is present — the
// idiom used across the pack's godotenv consumers).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:        getEnv("DB_DRIVER", "postgres"),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvAsInt("DB_PORT", 5432),
			Name:          getEnv("DB_NAME", "solmeme"),
			User:          getEnv("DB_USER", "user"),
			Password:      getEnv("DB_PASSWORD", "password"),
			SSLMode:       getEnv("DB_SSL_MODE", "disable"),
			ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		},
		Security: SecurityConfig{
			JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
			EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
			SessionTimeout: getEnvAsInt("SESSION_TIMEOUT", 3600),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Pipeline: PipelineConfig{
			UpstreamFeedURL:  getEnv("UPSTREAM_FEED_URL", ""),
			WhaleFeedURL:     getEnv("WHALE_FEED_URL", ""),
			WSReconnectDelay: getEnvAsDuration("WS_RECONNECT_DELAY", 500*time.Millisecond),
			WSMaxBackoff:     getEnvAsDuration("WS_MAX_BACKOFF", 30*time.Second),
			WSPingInterval:   getEnvAsDuration("WS_PING_INTERVAL", 15*time.Second),

			DedupWindow:           getEnvAsDuration("DEDUP_WINDOW", 10*time.Minute),
			MaxConcurrentAnalyses: getEnvAsInt("MAX_CONCURRENT_ANALYSES", 8),
			IntakeQueueCapacity:   getEnvAsInt("INTAKE_QUEUE_CAPACITY", 64),

			EnrichDeadline: getEnvAsDuration("ENRICH_DEADLINE", 2*time.Second),

			AbsoluteMinLiquidityUsd: getEnvAsFloat("ABSOLUTE_MIN_LIQUIDITY_USD", 2000),
			CreatorRugCountMax:      getEnvAsInt("CREATOR_RUG_COUNT_MAX", 2),

			MaxOpenPositions:    getEnvAsInt("MAX_OPEN_POSITIONS", 20),
			StopLossPct:         getEnvAsFloat("STOP_LOSS_PCT", 0.15),
			TakeProfitPct:       getEnvAsFloat("TAKE_PROFIT_PCT", 0.25),
			TrailingDrawdownPct: getEnvAsFloat("TRAILING_DRAWDOWN_PCT", 0.15),
			MaxHoldDuration:     getEnvAsDuration("MAX_HOLD_DURATION", 5*time.Minute),
			StartingCashUsd:     getEnvAsFloat("STARTING_CASH_USD", 1000),

			TelemetryBufferSize: getEnvAsInt("TELEMETRY_BUFFER_SIZE", 128),
			SnapshotInterval:    getEnvAsDuration("SNAPSHOT_INTERVAL", 30*time.Second),
			SnapshotPath:        getEnv("SNAPSHOT_PATH", "./data/portfolio_snapshot.json"),
		},
		Providers: ProvidersConfig{
			APIKeys: map[string]string{
				"security":       getEnv("PROVIDER_SECURITY_API_KEY", ""),
				"holders":        getEnv("PROVIDER_HOLDERS_API_KEY", ""),
				"creatorhistory": getEnv("PROVIDER_CREATOR_HISTORY_API_KEY", ""),
			},
			RateRPS: map[string]float64{
				"security":       getEnvAsFloat("PROVIDER_SECURITY_RATE_RPS", 5),
				"holders":        getEnvAsFloat("PROVIDER_HOLDERS_RATE_RPS", 5),
				"creatorhistory": getEnvAsFloat("PROVIDER_CREATOR_HISTORY_RATE_RPS", 5),
			},
		},
	}

	if cfg.Security.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if len(cfg.Security.EncryptionKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
