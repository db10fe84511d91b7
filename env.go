package authcore

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ConfigFromEnv builds a Config from AUTH_* environment variables, falling
// back to defaults for everything but the signing secret. When loadDotEnv is
// true a .env file is loaded first (missing file is not an error).
func ConfigFromEnv(loadDotEnv bool) (Config, error) {
	if loadDotEnv {
		_ = godotenv.Load()
	}

	cfg := defaultConfig()

	secret, err := mustEnv("AUTH_JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	cfg.JWT.Secret = []byte(secret)
	cfg.JWT.Issuer = envOrDefault("AUTH_JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.Audience = envOrDefault("AUTH_JWT_AUDIENCE", cfg.JWT.Audience)
	cfg.JWT.AccessTTL = envMinutesOrDefault("AUTH_ACCESS_TOKEN_TTL_MINUTES", cfg.JWT.AccessTTL)
	cfg.RefreshTTL = envHoursOrDefault("AUTH_REFRESH_TOKEN_TTL_HOURS", cfg.RefreshTTL)

	cfg.LoginLockout.Threshold = envIntOrDefault("AUTH_LOGIN_MAX_ATTEMPTS", cfg.LoginLockout.Threshold)
	cfg.LoginLockout.Window = envMinutesOrDefault("AUTH_LOGIN_LOCK_MINUTES", cfg.LoginLockout.Window)
	cfg.OTPLockout.Threshold = envIntOrDefault("AUTH_OTP_MAX_ATTEMPTS", cfg.OTPLockout.Threshold)
	cfg.OTPLockout.Window = envMinutesOrDefault("AUTH_OTP_LOCK_MINUTES", cfg.OTPLockout.Window)

	cfg.OTP.ResetTTL = envMinutesOrDefault("AUTH_RESET_OTP_TTL_MINUTES", cfg.OTP.ResetTTL)
	cfg.OTP.VerificationTTL = envHoursOrDefault("AUTH_VERIFICATION_OTP_TTL_HOURS", cfg.OTP.VerificationTTL)

	cfg.DefaultRole = envOrDefault("AUTH_DEFAULT_ROLE", cfg.DefaultRole)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mustEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("missing required environment variable %s", key)
	}
	return value, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envMinutesOrDefault(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}

func envHoursOrDefault(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return fallback
	}
	return time.Duration(hours) * time.Hour
}
