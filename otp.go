package authcore

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bookline/authcore/internal/limiters"
	"github.com/bookline/authcore/internal/stores"
)

// otpManager generates, validates, and invalidates one-time codes for one
// (email, purpose) pair at a time. Validation never deletes the code; the
// orchestrator consumes it with an explicit invalidate after use.
type otpManager struct {
	store           *stores.OTPStore
	guard           limiters.LockoutGuard
	sender          EmailSender
	logger          *zap.Logger
	metrics         *Metrics
	resetTTL        time.Duration
	verificationTTL time.Duration
}

func (m *otpManager) ttlFor(purpose OTPPurpose) time.Duration {
	if purpose == PurposePasswordReset {
		return m.resetTTL
	}
	return m.verificationTTL
}

func guardSubject(email string, purpose OTPPurpose) string {
	return email + ":" + string(purpose)
}

// normalizeEmail lowercases the address before it becomes part of any key.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generate mints a six-digit code, overwrites any prior code for the pair,
// and hands the code to the email sender. Delivery is fire-and-forget: a send
// failure is logged and the code stays valid.
func (m *otpManager) generate(ctx context.Context, email string, purpose OTPPurpose) (string, error) {
	email = normalizeEmail(email)

	code, err := newOTPCode()
	if err != nil {
		return "", err
	}
	if err := m.store.Save(ctx, email, string(purpose), code, m.ttlFor(purpose)); err != nil {
		return "", err
	}
	m.metrics.Inc(MetricOTPIssued)

	subject, body := otpMessage(purpose, code)
	if err := m.sender.Send(ctx, email, subject, body); err != nil {
		m.logger.Warn("otp email dispatch failed",
			zap.String("purpose", string(purpose)),
			zap.Error(err))
	}
	return code, nil
}

// validate consults the lockout guard first; when locked it denies without
// touching the stored code. A mismatch against an existing code counts toward
// the lockout threshold; a match resets the guard. The code itself survives a
// successful validation until invalidate is called.
func (m *otpManager) validate(ctx context.Context, email, code string, purpose OTPPurpose) error {
	email = normalizeEmail(email)
	subject := guardSubject(email, purpose)

	locked, err := m.guard.Locked(ctx, subject)
	if err != nil {
		return err
	}
	if locked {
		m.metrics.Inc(MetricOTPLockout)
		return ErrOTPLocked
	}

	stored, found, err := m.store.Get(ctx, email, string(purpose))
	if err != nil {
		return err
	}
	if !found {
		m.metrics.Inc(MetricOTPFailure)
		return ErrOTPInvalid
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		tripped, err := m.guard.RecordFailure(ctx, subject)
		if err != nil {
			return err
		}
		m.metrics.Inc(MetricOTPFailure)
		if tripped {
			m.metrics.Inc(MetricOTPLockout)
			m.logger.Info("otp validation locked",
				zap.String("purpose", string(purpose)))
		}
		return ErrOTPInvalid
	}

	if err := m.guard.Reset(ctx, subject); err != nil {
		return err
	}
	return nil
}

// invalidate deletes the code, failure counter, and lock flag for the pair.
// Idempotent: invalidating an absent record succeeds.
func (m *otpManager) invalidate(ctx context.Context, email string, purpose OTPPurpose) error {
	email = normalizeEmail(email)
	if err := m.store.Delete(ctx, email, string(purpose)); err != nil {
		return err
	}
	return m.guard.Reset(ctx, guardSubject(email, purpose))
}

// newOTPCode draws a uniform six-digit code in [100000, 999999].
func newOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func otpMessage(purpose OTPPurpose, code string) (subject, body string) {
	switch purpose {
	case PurposePasswordReset:
		return "Your password reset code",
			fmt.Sprintf("Use code %s to reset your password. It expires shortly; ignore this email if you did not request it.", code)
	default:
		return "Verify your email address",
			fmt.Sprintf("Use code %s to verify your email address.", code)
	}
}
