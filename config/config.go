package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application settings, loaded from the environment.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	TokenTTL     time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// RoundDuration is the play window a new round gets before its
	// deadline.
	RoundDuration time.Duration
	// DeadlineCheckInterval drives the deadline warning sweep.
	DeadlineCheckInterval time.Duration
	// AutoConfirmInterval drives the auto-confirmation sweep;
	// AutoConfirmWindow is how long a reported result may sit
	// unconfirmed before it is accepted.
	AutoConfirmInterval time.Duration
	AutoConfirmWindow   time.Duration
	// RitualWaitWindow is how long a dice ritual stays open before the
	// deterministic fallback kicks in.
	RitualWaitWindow time.Duration
}

// Load reads configuration from environment variables. A .env file is
// picked up when present, which is convenient for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RoundDuration, err = durationEnv("ROUND_DURATION", 2*time.Hour+30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DeadlineCheckInterval, err = durationEnv("DEADLINE_CHECK_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.AutoConfirmInterval, err = durationEnv("AUTO_CONFIRM_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AutoConfirmWindow, err = durationEnv("AUTO_CONFIRM_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RitualWaitWindow, err = durationEnv("RITUAL_WAIT_WINDOW", 10*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return value, nil
}
