package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bookline/authcore/internal/kvstore"
	"github.com/bookline/authcore/internal/limiters"
	"github.com/bookline/authcore/internal/stores"
	"github.com/bookline/authcore/jwt"
	"github.com/bookline/authcore/password"
)

// Builder assembles an [Engine]. Construction is allocation-only until Build;
// no I/O happens before the first Engine method call.
type Builder struct {
	config  Config
	redis   redis.UniversalClient
	persons PersonRepository
	email   EmailSender
	logger  *zap.Logger

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the configuration. The config is cloned; later mutation
// of cfg by the caller does not affect the builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the credential-store connection.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPersonRepository sets the durable identity collaborator.
func (b *Builder) WithPersonRepository(repo PersonRepository) *Builder {
	b.persons = repo
	return b
}

// WithEmailSender sets the out-of-band code delivery collaborator.
func (b *Builder) WithEmailSender(sender EmailSender) *Builder {
	b.email = sender
	return b
}

// WithLogger sets the structured logger. Without one the engine logs nothing.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and wires the engine. A builder can be
// used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.persons == nil {
		return nil, errors.New("person repository is required")
	}
	if b.email == nil {
		return nil, errors.New("email sender is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:    b.config.JWT.Secret,
		Issuer:    b.config.JWT.Issuer,
		Audience:  b.config.JWT.Audience,
		AccessTTL: b.config.JWT.AccessTTL,
	})
	if err != nil {
		return nil, err
	}

	kv := kvstore.New(b.redis)
	metrics := NewMetrics()

	loginGuard := limiters.NewRedisLockoutGuard(kv, limiters.Config{
		CounterPrefix: "failed_login_attempts",
		LockPrefix:    "account_locked",
		Threshold:     b.config.LoginLockout.Threshold,
		Window:        b.config.LoginLockout.Window,
	})
	otpGuard := limiters.NewRedisLockoutGuard(kv, limiters.Config{
		CounterPrefix: "otp_failed_attempts",
		LockPrefix:    "otp_locked",
		Threshold:     b.config.OTPLockout.Threshold,
		Window:        b.config.OTPLockout.Window,
	})

	engine := &Engine{
		config:       b.config,
		logger:       logger,
		metrics:      metrics,
		tokens:       tokens,
		hasher:       password.New(),
		persons:      b.persons,
		refreshStore: stores.NewRefreshStore(kv),
		loginGuard:   loginGuard,
		otp: &otpManager{
			store:           stores.NewOTPStore(kv),
			guard:           otpGuard,
			sender:          b.email,
			logger:          logger,
			metrics:         metrics,
			resetTTL:        b.config.OTP.ResetTTL,
			verificationTTL: b.config.OTP.VerificationTTL,
		},
	}

	b.built = true
	return engine, nil
}
