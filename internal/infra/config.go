package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTTTL           time.Duration
	StoragePath      string
	StorageBaseURL   string
	GeoIPDBPath      string
	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	TrustProxy       bool
	DBMaxConns       int
	DBTxRetries      int
	MigrateOnStart   bool

	VoteQuorum          int
	VoteRequireDonation bool

	AutoPayout        bool
	WorkerPoll        time.Duration
	ReconcileInterval time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "3131")
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                port,
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTTTL:              time.Hour * time.Duration(getEnvInt("JWT_TTL_HOURS", 24)),
		StoragePath:         getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:      strings.TrimRight(getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"), "/"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		AllowedOrigins:      splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustProxy:          getEnvBool("TRUST_PROXY", false),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 10),
		DBTxRetries:         getEnvInt("DB_TX_RETRIES", 10),
		MigrateOnStart:      getEnvBool("MIGRATE_ON_START", true),
		VoteQuorum:          getEnvInt("VOTE_QUORUM", 1),
		VoteRequireDonation: getEnvBool("VOTE_REQUIRE_DONATION", true),
		AutoPayout:          getEnvBool("AUTO_PAYOUT", false),
		WorkerPoll:          time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 5)),
		ReconcileInterval:   time.Second * time.Duration(getEnvInt("RECONCILE_INTERVAL_SECONDS", 300)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.VoteQuorum < 1 {
		return nil, fmt.Errorf("VOTE_QUORUM must be at least 1, got %d", cfg.VoteQuorum)
	}
	if cfg.AppEnv != "development" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when APP_ENV is %q", cfg.AppEnv)
	}
	if cfg.DBTxRetries < 1 {
		cfg.DBTxRetries = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
