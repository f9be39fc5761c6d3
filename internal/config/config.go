package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hotelstay/internal/domain/booking"
	"hotelstay/internal/pkg/roomlock"
	"hotelstay/internal/pkg/stayclock"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "hotel.db"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultUTCOffset      = "+07:00"
	defaultAnchorHour     = "12"
	defaultBillingBlock   = "30m"
	defaultTolerance      = "2h"
	defaultLenient        = "true"
	defaultCheckoutPolicy = "reject"
	defaultNoShowGrace    = "6h"
	defaultLockTTL        = "10s"
	defaultLockWait       = "3s"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	LogFormat   string

	Location          *time.Location
	AnchorHour        int
	BillingBlock      time.Duration
	AttachTolerance   time.Duration
	LenientAttachment bool
	CheckoutPolicy    booking.CheckoutPolicy
	NoShowGrace       time.Duration

	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration
	LockWait      time.Duration

	CORSAllowedOrigins []string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat)))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	cfg.LenientAttachment = parseBoolEnv("SERVICE_CHARGE_LENIENT", defaultLenient)
	cfg.CheckoutPolicy = booking.CheckoutPolicy(strings.ToLower(strings.TrimSpace(getEnv("CHECKOUT_POLICY", defaultCheckoutPolicy))))

	var err error
	cfg.Location, err = parseOffsetEnv("HOTEL_UTC_OFFSET", defaultUTCOffset)
	if err != nil {
		return nil, err
	}
	cfg.AnchorHour, err = parseIntEnv("NIGHT_ANCHOR_HOUR", defaultAnchorHour)
	if err != nil {
		return nil, err
	}
	if cfg.BillingBlock, err = parseDurationEnv("BILLING_BLOCK", defaultBillingBlock); err != nil {
		return nil, err
	}
	if cfg.AttachTolerance, err = parseDurationEnv("SERVICE_CHARGE_TOLERANCE", defaultTolerance); err != nil {
		return nil, err
	}
	if cfg.NoShowGrace, err = parseDurationEnv("NO_SHOW_GRACE", defaultNoShowGrace); err != nil {
		return nil, err
	}
	if cfg.LockTTL, err = parseDurationEnv("ROOM_LOCK_TTL", defaultLockTTL); err != nil {
		return nil, err
	}
	if cfg.LockWait, err = parseDurationEnv("ROOM_LOCK_WAIT", defaultLockWait); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.AnchorHour < 0 || cfg.AnchorHour > 23 {
		return fmt.Errorf("NIGHT_ANCHOR_HOUR must be within 0..23")
	}
	if cfg.BillingBlock <= 0 {
		return fmt.Errorf("BILLING_BLOCK must be > 0")
	}
	if cfg.AttachTolerance <= 0 {
		return fmt.Errorf("SERVICE_CHARGE_TOLERANCE must be > 0")
	}
	if cfg.NoShowGrace <= 0 {
		return fmt.Errorf("NO_SHOW_GRACE must be > 0")
	}
	if cfg.LockTTL <= 0 {
		return fmt.Errorf("ROOM_LOCK_TTL must be > 0")
	}
	if cfg.LockWait <= 0 {
		return fmt.Errorf("ROOM_LOCK_WAIT must be > 0")
	}
	switch cfg.CheckoutPolicy {
	case booking.CheckoutReject, booking.CheckoutCancel:
	default:
		return fmt.Errorf("CHECKOUT_POLICY must be one of: reject, cancel")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	if isProdLike(cfg.AppEnv) && cfg.DatabaseURL == "" {
		return fmt.Errorf("in prod/release DATABASE_URL must be set")
	}
	return nil
}

// Clock builds the hotel clock from the configured zone and anchor.
func (c *Config) Clock() *stayclock.Clock {
	return stayclock.New(c.Location, c.AnchorHour, stayclock.WithBillingBlock(c.BillingBlock))
}

func (c *Config) EngineOptions() booking.Options {
	return booking.Options{
		Clock:             c.Clock(),
		CheckoutPolicy:    c.CheckoutPolicy,
		AttachTolerance:   c.AttachTolerance,
		LenientAttachment: c.LenientAttachment,
		NoShowGrace:       c.NoShowGrace,
	}
}

func (c *Config) LockOptions() (ttl, wait time.Duration) {
	ttl, wait = c.LockTTL, c.LockWait
	if ttl <= 0 {
		ttl = roomlock.DefaultTTL
	}
	if wait <= 0 {
		wait = roomlock.DefaultWait
	}
	return ttl, wait
}

func (c *Config) IsProd() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

// parseOffsetEnv accepts "+07:00", "-05:30" or "UTC".
func parseOffsetEnv(name, fallback string) (*time.Location, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	if strings.EqualFold(value, "UTC") || value == "Z" {
		return time.UTC, nil
	}
	t, err := time.Parse("-07:00", value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	_, offset := t.Zone()
	return time.FixedZone("UTC"+value, offset), nil
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
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

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
