package authcore

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValidWithSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.JWT.Secret = testSecret

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("expected 15m access TTL, got %v", cfg.JWT.AccessTTL)
	}
	if cfg.RefreshTTL != 24*time.Hour {
		t.Fatalf("expected 24h refresh TTL, got %v", cfg.RefreshTTL)
	}
	if cfg.LoginLockout.Threshold != 5 || cfg.OTPLockout.Threshold != 3 {
		t.Fatalf("unexpected lockout thresholds: %d/%d", cfg.LoginLockout.Threshold, cfg.OTPLockout.Threshold)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	base := func() Config {
		cfg := defaultConfig()
		cfg.JWT.Secret = testSecret
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(c *Config) { c.JWT.Secret = []byte("too short") }},
		{"missing issuer", func(c *Config) { c.JWT.Issuer = "" }},
		{"missing audience", func(c *Config) { c.JWT.Audience = "" }},
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }},
		{"zero refresh ttl", func(c *Config) { c.RefreshTTL = 0 }},
		{"refresh shorter than access", func(c *Config) { c.RefreshTTL = time.Minute }},
		{"zero login threshold", func(c *Config) { c.LoginLockout.Threshold = 0 }},
		{"zero login window", func(c *Config) { c.LoginLockout.Window = 0 }},
		{"zero otp threshold", func(c *Config) { c.OTPLockout.Threshold = 0 }},
		{"zero otp window", func(c *Config) { c.OTPLockout.Window = 0 }},
		{"zero reset ttl", func(c *Config) { c.OTP.ResetTTL = 0 }},
		{"zero verification ttl", func(c *Config) { c.OTP.VerificationTTL = 0 }},
		{"otp window outlives reset code", func(c *Config) { c.OTPLockout.Window = time.Hour }},
		{"missing default role", func(c *Config) { c.DefaultRole = "" }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestWithConfigClonesSecret(t *testing.T) {
	secret := append([]byte(nil), testSecret...)
	cfg := defaultConfig()
	cfg.JWT.Secret = secret

	b := New().WithConfig(cfg)

	// Caller mutation after WithConfig must not leak into the builder.
	secret[0] = 'X'
	if b.config.JWT.Secret[0] == 'X' {
		t.Fatal("builder must hold its own copy of the secret")
	}
}

func TestBuilderRequiresCollaborators(t *testing.T) {
	_, rdb := newTestRedis(t)

	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected error without redis")
	}
	if _, err := New().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected error without person repository")
	}
	if _, err := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithPersonRepository(newMockPersonRepository()).
		Build(); err == nil {
		t.Fatal("expected error without email sender")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)

	b := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithPersonRepository(newMockPersonRepository()).
		WithEmailSender(&mockEmailSender{})

	if _, err := b.Build(); err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("second Build must fail")
	}
}
