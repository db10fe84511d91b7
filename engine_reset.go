package authcore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// RequestPasswordReset issues a reset code to the given address. Unknown
// emails return success without sending anything, so the endpoint cannot be
// used to enumerate accounts.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" {
		return ErrValidation
	}

	e.metrics.Inc(MetricPasswordResetRequest)

	if _, err := e.persons.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			e.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return storeErr(err)
	}

	if _, err := e.otp.generate(ctx, email, PurposePasswordReset); err != nil {
		return storeErr(err)
	}
	return nil
}

// ResetPassword consumes a reset code, replaces the stored password hash, and
// proactively blacklists the user's current refresh token so every device
// holding it must re-authenticate.
func (e *Engine) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || code == "" {
		return ErrValidation
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	if err := e.verifyAndConsumeOTP(ctx, email, code, PurposePasswordReset); err != nil {
		return err
	}

	identity, err := e.persons.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return storeErr(err)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := e.persons.UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
		return storeErr(err)
	}

	if err := e.revokeCurrentRefreshToken(ctx, identity.ID); err != nil {
		return err
	}

	e.metrics.Inc(MetricPasswordResetSuccess)
	e.logger.Info("password reset completed", zap.Int64("user_id", identity.ID))
	return nil
}

// revokeCurrentRefreshToken reads the user's forward pointer and, when a
// session exists, blacklists the token and drops its reverse mapping.
func (e *Engine) revokeCurrentRefreshToken(ctx context.Context, userID int64) error {
	token, found, err := e.refreshStore.CurrentToken(ctx, userID)
	if err != nil {
		return storeErr(err)
	}
	if !found {
		return nil
	}
	if err := e.refreshStore.Blacklist(ctx, token, e.config.RefreshTTL); err != nil {
		return storeErr(err)
	}
	if err := e.refreshStore.DeleteReverse(ctx, token); err != nil {
		return storeErr(err)
	}
	return nil
}
