package authcore

import (
	"context"
	"time"
)

// Identity is the durable account record owned by the relational store.
// authcore reads it for claims assembly and password verification and only
// ever writes back the password hash and the email-verified flag.
type Identity struct {
	ID            int64
	Username      string
	PasswordHash  string
	Role          string
	Name          string
	Email         string
	Phone         string
	Address       string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreatePersonInput is the input for [PersonRepository.Create].
type CreatePersonInput struct {
	Username     string
	PasswordHash string
	Role         string
	Name         string
	Email        string
	Phone        string
	Address      string
}

// PersonRepository is the narrow interface the engine needs from the durable
// identity store. Implementations must return [ErrNotFound] when no record
// matches and [ErrAccountExists] on duplicate username/email during Create.
type PersonRepository interface {
	GetByUsername(ctx context.Context, username string) (Identity, error)
	GetByEmail(ctx context.Context, email string) (Identity, error)
	GetByID(ctx context.Context, id int64) (Identity, error)
	Create(ctx context.Context, input CreatePersonInput) (Identity, error)
	UpdatePasswordHash(ctx context.Context, id int64, newHash string) error
	MarkEmailVerified(ctx context.Context, id int64) error
}

// EmailSender delivers one-time codes out of band. The contract is
// fire-and-forget: the engine logs send failures but never fails an auth flow
// on them.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// OTPPurpose namespaces one-time codes so the registration/verification and
// password-reset flows cannot consume each other's codes.
type OTPPurpose string

const (
	// PurposeVerification is the OTP namespace for email verification after
	// registration.
	PurposeVerification OTPPurpose = "verification"
	// PurposePasswordReset is the OTP namespace for password-reset challenges.
	PurposePasswordReset OTPPurpose = "password-reset"
)

// UserSummary is the caller-facing slice of an identity returned after login.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserSummary `json:"user"`
}

// RegisterInput is the input for [Engine.Register].
type RegisterInput struct {
	Username string
	Password string
	Name     string
	Email    string
	Phone    string
	Address  string
}

// RegisterResult is returned by [Engine.Register]. The account starts
// unverified; a verification code is dispatched to the registered email.
type RegisterResult struct {
	User UserSummary `json:"user"`
}

func summarize(identity Identity) UserSummary {
	return UserSummary{
		ID:       identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
		Name:     identity.Name,
		Email:    identity.Email,
	}
}
