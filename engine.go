package authcore

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bookline/authcore/internal/limiters"
	"github.com/bookline/authcore/internal/stores"
	"github.com/bookline/authcore/jwt"
	"github.com/bookline/authcore/password"
)

// Engine is the auth orchestrator. Construct it through [Builder.Build];
// afterwards it is immutable and safe for concurrent use.
//
// Every method that takes a context aborts before the next store mutation
// when the context is cancelled. A cancelled call may leave partial state
// behind (for example an access token issued but no refresh entry written);
// callers must treat the authentication state as unknown and retry the whole
// flow.
type Engine struct {
	config  Config
	logger  *zap.Logger
	metrics *Metrics

	tokens  *jwt.Manager
	hasher  *password.Hasher
	persons PersonRepository

	refreshStore *stores.RefreshStore
	loginGuard   limiters.LockoutGuard
	otp          *otpManager
}

func (e *Engine) ready() bool {
	return e != nil &&
		e.tokens != nil &&
		e.hasher != nil &&
		e.persons != nil &&
		e.refreshStore != nil &&
		e.loginGuard != nil &&
		e.otp != nil
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() map[MetricID]uint64 {
	if e == nil {
		return map[MetricID]uint64{}
	}
	return e.metrics.Snapshot()
}

// ValidateAccessToken verifies a bearer token and returns its claims. Expired
// and malformed tokens are kept apart in logs and metrics but both come back
// as [ErrUnauthenticated]: callers get no more than "not authenticated".
func (e *Engine) ValidateAccessToken(token string) (*jwt.AccessClaims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseAccess(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			e.metrics.Inc(MetricTokenExpired)
			e.logger.Debug("access token expired")
		} else {
			e.metrics.Inc(MetricTokenMalformed)
			e.logger.Debug("access token rejected", zap.Error(err))
		}
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

func identityClaims(identity Identity) jwt.Identity {
	return jwt.Identity{
		ID:       identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
		Name:     identity.Name,
		Email:    identity.Email,
		Phone:    identity.Phone,
		Address:  identity.Address,
	}
}

// storeErr wraps an infrastructure failure so transports can tell outages
// apart from denials.
func storeErr(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
