// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting read by the cmd binaries
type Config struct {
	DatabaseURL string
	RabbitMQURL string
	RedisURL    string

	JWTPublicKeyPath string
	JWTIssuer        string

	HTTPAddr string

	MinBidIncrement  int64
	DBLockTimeout    time.Duration
	BidRetryAttempts uint64
	AuctionCacheTTL  time.Duration

	OutboxBatchSize int
	OutboxInterval  time.Duration

	RunMigrations bool
}

// Load reads .env.local and .env when present, then the process environment.
// Variables already set in the environment win over the files.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults for unset keys
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	p := parser{lookup: lookup}
	retryAttempts := p.int64("BID_RETRY_ATTEMPTS", 3)

	cfg := &Config{
		DatabaseURL:      p.str("DATABASE_URL", ""),
		RabbitMQURL:      p.str("RABBITMQ_URL", ""),
		RedisURL:         p.str("REDIS_URL", ""),
		JWTPublicKeyPath: p.str("JWT_PUBLIC_KEY_PATH", ""),
		JWTIssuer:        p.str("JWT_ISSUER", "auctionhouse-identity"),
		HTTPAddr:         p.str("HTTP_ADDR", ":8080"),
		MinBidIncrement:  p.int64("MIN_BID_INCREMENT", 10),
		DBLockTimeout:    p.duration("DB_LOCK_TIMEOUT", 3*time.Second),
		BidRetryAttempts: uint64(max(retryAttempts, 0)),
		AuctionCacheTTL:  p.duration("AUCTION_CACHE_TTL", 30*time.Second),
		OutboxBatchSize:  int(p.int64("OUTBOX_BATCH_SIZE", 10)),
		OutboxInterval:   p.duration("OUTBOX_INTERVAL", time.Second),
		RunMigrations:    p.bool("RUN_MIGRATIONS", false),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	if cfg.MinBidIncrement <= 0 {
		return nil, fmt.Errorf("MIN_BID_INCREMENT must be positive, got %d", cfg.MinBidIncrement)
	}
	if retryAttempts < 1 {
		return nil, fmt.Errorf("BID_RETRY_ATTEMPTS must be at least 1, got %d", retryAttempts)
	}
	if cfg.OutboxBatchSize <= 0 {
		return nil, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", cfg.OutboxBatchSize)
	}
	return cfg, nil
}

// parser keeps the first conversion error so Load reports it once
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) str(key, def string) string {
	if v, ok := p.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (p *parser) int64(key string, def int64) int64 {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) bool(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}
