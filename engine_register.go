package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const minPasswordLength = 8

// Register creates an account through the person repository and dispatches an
// email-verification code. The account starts unverified. Duplicate
// username/email surfaces as [ErrAccountExists].
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if input.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	identity, err := e.persons.Create(ctx, CreatePersonInput{
		Username:     input.Username,
		PasswordHash: hash,
		Role:         e.config.DefaultRole,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			return nil, ErrAccountExists
		}
		return nil, storeErr(err)
	}

	if _, err := e.otp.generate(ctx, identity.Email, PurposeVerification); err != nil {
		return nil, storeErr(err)
	}

	return &RegisterResult{User: summarize(identity)}, nil
}

// VerifyEmail consumes a verification code and marks the account's email as
// verified. The code is invalidated on success so it can never be replayed.
func (e *Engine) VerifyEmail(ctx context.Context, email, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || code == "" {
		return ErrValidation
	}

	if err := e.verifyAndConsumeOTP(ctx, email, code, PurposeVerification); err != nil {
		return err
	}

	identity, err := e.persons.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return storeErr(err)
	}
	if err := e.persons.MarkEmailVerified(ctx, identity.ID); err != nil {
		return storeErr(err)
	}

	e.metrics.Inc(MetricEmailVerified)
	return nil
}

// verifyAndConsumeOTP validates a code and, on success, performs the explicit
// invalidate step that makes the code unreachable for re-use. Validation
// alone never deletes the code, so the two calls must stay paired.
func (e *Engine) verifyAndConsumeOTP(ctx context.Context, email, code string, purpose OTPPurpose) error {
	if err := e.otp.validate(ctx, email, code, purpose); err != nil {
		if errors.Is(err, ErrOTPInvalid) || errors.Is(err, ErrOTPLocked) {
			return err
		}
		return storeErr(err)
	}
	if err := e.otp.invalidate(ctx, email, purpose); err != nil {
		return storeErr(err)
	}
	return nil
}
