package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Mode selects which security features are active. Modes are strict feature
// supersets along the validate -> audit -> authorize -> detect axis.
type Mode string

const (
	ModeBasic       Mode = "basic"
	ModePerformance Mode = "performance"
	ModeSecure      Mode = "secure"
	ModeEnterprise  Mode = "enterprise"
)

// RedisConfig captures go-redis client tuning.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config holds everything the subsystem consumes. All values are read once at
// startup; the subsystem never mutates configuration.
type Config struct {
	Addr       string
	AdminToken string // plaintext here, bcrypt-hashed before use

	Mode             Mode
	Sensitivity      int     // 1-10, scales detection emission thresholds
	AnomalyThreshold float64 // behavioral deviation above this is anomalous
	PatternWindow    time.Duration
	MaxTrackedEvents int
	AdaptiveLearning bool
	AutoResponse     bool
	RealTimeAlerts   bool
	AuditRetention   time.Duration
	MaskPII          bool

	SessionTimeout time.Duration

	AuditFilePath string
	AuditFlushInt time.Duration
	SigningKey    string // optional; resolved via the secret store when empty
	SecretsDir    string

	Redis        RedisConfig
	PostgresDSN  string
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("AEGIS_ADDR", ":8086"),
		AdminToken:       os.Getenv("AEGIS_ADMIN_TOKEN"),
		Mode:             parseMode(os.Getenv("AEGIS_MODE")),
		Sensitivity:      envInt("AEGIS_SENSITIVITY", 5),
		AnomalyThreshold: envFloat("AEGIS_ANOMALY_THRESHOLD", 2.0),
		PatternWindow:    time.Duration(envInt("AEGIS_PATTERN_WINDOW_MINUTES", 15)) * time.Minute,
		MaxTrackedEvents: envInt("AEGIS_MAX_TRACKED_EVENTS", 1000),
		AdaptiveLearning: envBool("AEGIS_ADAPTIVE_LEARNING", true),
		AutoResponse:     envBool("AEGIS_AUTO_RESPONSE", false),
		RealTimeAlerts:   envBool("AEGIS_REAL_TIME_ALERTS", true),
		AuditRetention:   time.Duration(envInt("AEGIS_AUDIT_RETENTION_DAYS", 90)) * 24 * time.Hour,
		MaskPII:          envBool("AEGIS_MASK_PII", true),
		SessionTimeout:   time.Duration(envInt("AEGIS_SESSION_TIMEOUT_MINUTES", 30)) * time.Minute,
		AuditFilePath:    envOr("AEGIS_AUDIT_FILE", "aegis-audit.jsonl"),
		AuditFlushInt:    time.Duration(envInt("AEGIS_AUDIT_FLUSH_SECONDS", 5)) * time.Second,
		SigningKey:       os.Getenv("AEGIS_SIGNING_KEY"),
		SecretsDir:       envOr("AEGIS_SECRETS_DIR", "secrets"),
		PostgresDSN:      os.Getenv("AEGIS_POSTGRES_DSN"),
		KafkaTopic:       envOr("AEGIS_KAFKA_TOPIC", "aegis.security.alerts"),
		Redis: RedisConfig{
			URL:          os.Getenv("AEGIS_REDIS_URL"),
			PoolSize:     envInt("AEGIS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("AEGIS_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if brokers := os.Getenv("AEGIS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func parseMode(raw string) Mode {
	switch Mode(strings.ToLower(raw)) {
	case ModeBasic, ModePerformance, ModeSecure, ModeEnterprise:
		return Mode(strings.ToLower(raw))
	default:
		return ModeSecure
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}
