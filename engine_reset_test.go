package authcore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPasswordResetFlow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	repo := newMockPersonRepository()
	seedAccount(t, repo, "alice", "old-password-123", "alice@example.com")
	sender := &mockEmailSender{}
	engine := newTestEngine(t, rdb, repo, sender)

	// An open session that the reset must revoke.
	session, err := engine.Login(ctx, "alice", "old-password-123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	code := otpFromRedis(t, mr, "alice@example.com", PurposePasswordReset)
	if ttl := mr.TTL("otp:alice@example.com:password-reset"); ttl != 15*time.Minute {
		t.Fatalf("expected 15m reset TTL, got %v", ttl)
	}
	mail := sender.last(t)
	if mail.To != "alice@example.com" {
		t.Fatalf("reset code sent to %q", mail.To)
	}

	if err := engine.ResetPassword(ctx, "alice@example.com", code, "new-password-456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	// Old password dead, new one works.
	if _, err := engine.Login(ctx, "alice", "old-password-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must be rejected, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice", "new-password-456"); err != nil {
		t.Fatalf("new password must log in, got %v", err)
	}

	// The pre-reset session is revoked.
	if _, err := engine.Refresh(ctx, session.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("pre-reset refresh token must be rejected, got %v", err)
	}

	// The code was consumed; it cannot reset twice.
	if err := engine.ResetPassword(ctx, "alice@example.com", code, "third-password-789"); !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("consumed code must be rejected, got %v", err)
	}
}

func TestRequestPasswordResetUnknownEmailStaysSilent(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	sender := &mockEmailSender{}
	engine := newTestEngine(t, rdb, newMockPersonRepository(), sender)

	if err := engine.RequestPasswordReset(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if sender.count() != 0 {
		t.Fatal("no email may be sent for an unknown address")
	}
	if mr.Exists("otp:ghost@example.com:password-reset") {
		t.Fatal("no code may be stored for an unknown address")
	}
}

func TestResetPasswordWrongCodeTripsLockout(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	repo := newMockPersonRepository()
	seedAccount(t, repo, "alice", "old-password-123", "alice@example.com")
	engine := newTestEngine(t, rdb, repo, &mockEmailSender{})

	// Seed a known code so the wrong guesses are deterministic.
	if err := rdb.Set(ctx, "otp:alice@example.com:password-reset", "482913", 15*time.Minute).Err(); err != nil {
		t.Fatalf("seed code failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := engine.ResetPassword(ctx, "alice@example.com", "000000", "new-password-456")
		if !errors.Is(err, ErrOTPInvalid) {
			t.Fatalf("guess %d: expected ErrOTPInvalid, got %v", i+1, err)
		}
	}

	// Third failure trips the lock: flag set, counter cleared.
	if exists := rdb.Exists(ctx, "otp_locked:alice@example.com:password-reset").Val(); exists != 1 {
		t.Fatal("expected otp lock flag")
	}
	if exists := rdb.Exists(ctx, "otp_failed_attempts:alice@example.com:password-reset").Val(); exists != 0 {
		t.Fatal("expected otp counter cleared at the threshold")
	}

	// Even the correct code is refused while locked, and the stored code
	// is untouched.
	if err := engine.ResetPassword(ctx, "alice@example.com", "482913", "new-password-456"); !errors.Is(err, ErrOTPLocked) {
		t.Fatalf("expected ErrOTPLocked, got %v", err)
	}
	if !mr.Exists("otp:alice@example.com:password-reset") {
		t.Fatal("lockout must not consume the stored code")
	}
}

func TestResetPasswordLockClearsBeforeCodeExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	repo := newMockPersonRepository()
	seedAccount(t, repo, "alice", "old-password-123", "alice@example.com")
	engine := newTestEngine(t, rdb, repo, &mockEmailSender{})

	// Code outlives the lockout window: 24h verification TTL, 15m window.
	if err := rdb.Set(ctx, "otp:alice@example.com:verification", "482913", 24*time.Hour).Err(); err != nil {
		t.Fatalf("seed code failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		engine.VerifyEmail(ctx, "alice@example.com", "000000")
	}
	if err := engine.VerifyEmail(ctx, "alice@example.com", "482913"); !errors.Is(err, ErrOTPLocked) {
		t.Fatalf("expected ErrOTPLocked, got %v", err)
	}

	mr.FastForward(15*time.Minute + time.Second)

	if err := engine.VerifyEmail(ctx, "alice@example.com", "482913"); err != nil {
		t.Fatalf("correct code after lock expiry must verify, got %v", err)
	}
}

func TestResetPasswordUnknownAccountAfterValidCode(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	engine := newTestEngine(t, rdb, newMockPersonRepository(), &mockEmailSender{})

	if err := rdb.Set(ctx, "otp:ghost@example.com:password-reset", "482913", 15*time.Minute).Err(); err != nil {
		t.Fatalf("seed code failed: %v", err)
	}
	err := engine.ResetPassword(ctx, "ghost@example.com", "482913", "new-password-456")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetPasswordValidation(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	engine := newTestEngine(t, rdb, newMockPersonRepository(), &mockEmailSender{})

	if err := engine.ResetPassword(ctx, "", "482913", "new-password-456"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty email, got %v", err)
	}
	if err := engine.ResetPassword(ctx, "a@b.com", "", "new-password-456"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty code, got %v", err)
	}
	if err := engine.ResetPassword(ctx, "a@b.com", "482913", "short"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for short password, got %v", err)
	}
}

func TestResetFlowsAreNamespacedByPurpose(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	repo := newMockPersonRepository()
	seedAccount(t, repo, "alice", "old-password-123", "alice@example.com")
	engine := newTestEngine(t, rdb, repo, &mockEmailSender{})

	// A verification code must not reset a password.
	if err := rdb.Set(ctx, "otp:alice@example.com:verification", "482913", 24*time.Hour).Err(); err != nil {
		t.Fatalf("seed code failed: %v", err)
	}
	err := engine.ResetPassword(ctx, "alice@example.com", "482913", "new-password-456")
	if !errors.Is(err, ErrOTPInvalid) {
		t.Fatalf("expected ErrOTPInvalid across purposes, got %v", err)
	}
}
