package authcore

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/bookline/authcore/jwt"
)

// Login authenticates a username/password pair and opens a session.
//
// Unknown usernames and wrong passwords are indistinguishable to the caller
// (both [ErrInvalidCredentials]) and both count toward the login lockout. An
// active lockout denies before the password hash is ever consulted. A new
// login overwrites the user's previous refresh token but does not blacklist
// it; the old token stays usable until its own TTL expires.
func (e *Engine) Login(ctx context.Context, username, pass string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return nil, ErrValidation
	}

	locked, err := e.loginGuard.Locked(ctx, username)
	if err != nil {
		return nil, storeErr(err)
	}
	if locked {
		e.metrics.Inc(MetricLoginLockout)
		e.logger.Info("login denied, account locked", zap.String("username", username))
		return nil, ErrAccountLocked
	}

	identity, err := e.persons.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, e.failLogin(ctx, username)
		}
		return nil, storeErr(err)
	}

	if !e.hasher.Verify(pass, identity.PasswordHash) {
		return nil, e.failLogin(ctx, username)
	}

	if err := e.loginGuard.Reset(ctx, username); err != nil {
		return nil, storeErr(err)
	}

	access, err := e.tokens.IssueAccess(identityClaims(identity))
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := e.refreshStore.Save(ctx, identity.ID, refresh, e.config.RefreshTTL); err != nil {
		return nil, storeErr(err)
	}

	e.metrics.Inc(MetricLoginSuccess)
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         summarize(identity),
	}, nil
}

func (e *Engine) failLogin(ctx context.Context, username string) error {
	tripped, err := e.loginGuard.RecordFailure(ctx, username)
	if err != nil {
		return storeErr(err)
	}
	e.metrics.Inc(MetricLoginFailure)
	if tripped {
		e.metrics.Inc(MetricLoginLockout)
		e.logger.Info("login lockout tripped", zap.String("username", username))
	}
	return ErrInvalidCredentials
}

// Refresh exchanges a live refresh token for a fresh access token. The
// refresh token itself is not rotated; the same opaque value stays valid
// until logout or its TTL. Blacklisted, unknown, and orphaned tokens all come
// back as [ErrInvalidCredentials].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if strings.TrimSpace(refreshToken) == "" {
		return "", ErrValidation
	}

	blacklisted, err := e.refreshStore.IsBlacklisted(ctx, refreshToken)
	if err != nil {
		return "", storeErr(err)
	}
	if blacklisted {
		e.metrics.Inc(MetricRefreshFailure)
		return "", ErrInvalidCredentials
	}

	userID, found, err := e.refreshStore.ResolveUser(ctx, refreshToken)
	if err != nil {
		return "", storeErr(err)
	}
	if !found {
		e.metrics.Inc(MetricRefreshFailure)
		return "", ErrInvalidCredentials
	}

	identity, err := e.persons.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.metrics.Inc(MetricRefreshFailure)
			return "", ErrInvalidCredentials
		}
		return "", storeErr(err)
	}

	access, err := e.tokens.IssueAccess(identityClaims(identity))
	if err != nil {
		return "", err
	}
	e.metrics.Inc(MetricRefreshSuccess)
	return access, nil
}

// Logout revokes a refresh token: the token is blacklisted for a full refresh
// lifetime and its reverse lookup removed. The forward refresh_token:{userId}
// pointer is left to expire on its own. Logging out an already-revoked or
// unknown token succeeds.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if strings.TrimSpace(refreshToken) == "" {
		return ErrValidation
	}

	if err := e.refreshStore.Blacklist(ctx, refreshToken, e.config.RefreshTTL); err != nil {
		return storeErr(err)
	}
	if err := e.refreshStore.DeleteReverse(ctx, refreshToken); err != nil {
		return storeErr(err)
	}

	e.metrics.Inc(MetricLogout)
	return nil
}
