package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger backends accepted by LEDGER_BACKEND.
const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
	LedgerMemory   = "memory"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress       string
	DatabaseURI      string
	LedgerBackend    string
	RedisAddress     string
	RedisPassword    string
	JWTSecret        string
	TokenTTL         time.Duration
	WithdrawCode     string
	ReviewerLogin    string
	ReviewerPassword string
	AuditInterval    time.Duration
	WorkerPoolSize   int
	ShutdownTimeout  time.Duration
	BreakerFailures  int
	BreakerTimeout   time.Duration
	PayoutWebhookURL string
}

const (
	defaultRunAddress      = ":8080"
	defaultJWTSecret       = "change-me-in-production"
	defaultTokenTTL        = 24 * time.Hour
	defaultAuditInterval   = time.Minute
	defaultWorkerPoolSize  = 4
	defaultShutdownTimeout = 10 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:       getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:      getString(lookup, "DATABASE_URI", ""),
		LedgerBackend:    getString(lookup, "LEDGER_BACKEND", LedgerPostgres),
		RedisAddress:     getString(lookup, "REDIS_ADDRESS", ""),
		RedisPassword:    getString(lookup, "REDIS_PASSWORD", ""),
		JWTSecret:        getString(lookup, "JWT_SECRET", defaultJWTSecret),
		TokenTTL:         getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		WithdrawCode:     getString(lookup, "WITHDRAW_CODE", ""),
		ReviewerLogin:    getString(lookup, "REVIEWER_LOGIN", ""),
		ReviewerPassword: getString(lookup, "REVIEWER_PASSWORD", ""),
		AuditInterval:    getDuration(lookup, "AUDIT_INTERVAL", defaultAuditInterval),
		WorkerPoolSize:   getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		BreakerFailures:  getInt(lookup, "BREAKER_FAILURES", defaultBreakerFailures),
		BreakerTimeout:   getDuration(lookup, "BREAKER_TIMEOUT", defaultBreakerTimeout),
		PayoutWebhookURL: getString(lookup, "PAYOUT_WEBHOOK_URL", ""),
	}

	fs := flag.NewFlagSet("cashout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		auditIntervalStr   = cfg.AuditInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.LedgerBackend, "ledger", cfg.LedgerBackend, "Ledger backend: postgres, redis or memory")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for the redis ledger backend")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.PayoutWebhookURL, "payout-webhook", cfg.PayoutWebhookURL, "URL notified about reviewed withdrawals")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent audit workers")
	fs.StringVar(&auditIntervalStr, "audit-interval", auditIntervalStr, "Interval between ledger audits")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.AuditInterval, err = time.ParseDuration(auditIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid audit interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.AuditInterval <= 0 {
		cfg.AuditInterval = defaultAuditInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}

	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}

	cfg.LedgerBackend = strings.ToLower(strings.TrimSpace(cfg.LedgerBackend))
	switch cfg.LedgerBackend {
	case LedgerPostgres, LedgerMemory:
	case LedgerRedis:
		if cfg.RedisAddress == "" {
			return nil, fmt.Errorf("redis address must be provided for redis ledger")
		}
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if (cfg.ReviewerLogin == "") != (cfg.ReviewerPassword == "") {
		return nil, fmt.Errorf("reviewer login and password must be provided together")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
