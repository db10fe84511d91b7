package authcore

import (
	"errors"
	"time"
)

// Config defines the engine's tunables. Instances are configured during
// initialization and treated as immutable afterwards.
type Config struct {
	JWT          JWTConfig
	RefreshTTL   time.Duration
	LoginLockout LockoutConfig
	OTPLockout   LockoutConfig
	OTP          OTPConfig
	DefaultRole  string
}

// JWTConfig holds access-token signing parameters. Signing is symmetric
// (HS256); Secret must be at least 32 bytes.
type JWTConfig struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
}

// LockoutConfig parameterizes one lockout guard instance: how many failures
// inside the rolling window trip the lock, and how long both the counter and
// the lock flag live.
type LockoutConfig struct {
	Threshold int
	Window    time.Duration
}

// OTPConfig holds one-time-code parameters. Codes are always 6 decimal digits;
// TTLs differ per purpose.
type OTPConfig struct {
	ResetTTL        time.Duration
	VerificationTTL time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Issuer:    "bookline",
			Audience:  "bookline-clients",
			AccessTTL: 15 * time.Minute,
		},
		// Documented in the legacy deployment as seven days but implemented
		// as one; the implemented value is the compatibility surface.
		RefreshTTL: 24 * time.Hour,
		LoginLockout: LockoutConfig{
			Threshold: 5,
			Window:    15 * time.Minute,
		},
		OTPLockout: LockoutConfig{
			Threshold: 3,
			Window:    15 * time.Minute,
		},
		OTP: OTPConfig{
			ResetTTL:        15 * time.Minute,
			VerificationTTL: 24 * time.Hour,
		},
		DefaultRole: "customer",
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found, or nil.
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be >= 32 bytes")
	}
	if c.JWT.Issuer == "" {
		return errors.New("JWT Issuer is required")
	}
	if c.JWT.Audience == "" {
		return errors.New("JWT Audience is required")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.RefreshTTL <= 0 {
		return errors.New("RefreshTTL must be > 0")
	}
	if c.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("RefreshTTL must be >= JWT AccessTTL")
	}

	if c.LoginLockout.Threshold <= 0 {
		return errors.New("LoginLockout Threshold must be > 0")
	}
	if c.LoginLockout.Window <= 0 {
		return errors.New("LoginLockout Window must be > 0")
	}
	if c.OTPLockout.Threshold <= 0 {
		return errors.New("OTPLockout Threshold must be > 0")
	}
	if c.OTPLockout.Window <= 0 {
		return errors.New("OTPLockout Window must be > 0")
	}

	if c.OTP.ResetTTL <= 0 {
		return errors.New("OTP ResetTTL must be > 0")
	}
	if c.OTP.VerificationTTL <= 0 {
		return errors.New("OTP VerificationTTL must be > 0")
	}
	// Lock state must never outlive the challenge it gates.
	if c.OTPLockout.Window > c.OTP.ResetTTL {
		return errors.New("OTPLockout Window must be <= OTP ResetTTL")
	}

	if c.DefaultRole == "" {
		return errors.New("DefaultRole is required")
	}

	return nil
}
