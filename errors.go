package authcore

import "errors"

var (
	// ErrInvalidCredentials covers bad username/password and unknown or
	// blacklisted refresh tokens. Deliberately undifferentiated so callers
	// cannot probe which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked means the login lockout window is active. Transports
	// must surface it as the same generic denial as ErrInvalidCredentials.
	ErrAccountLocked = errors.New("account locked")
	// ErrOTPInvalid covers a wrong, expired, or already-consumed one-time code.
	ErrOTPInvalid = errors.New("invalid or expired one-time code")
	// ErrOTPLocked means the OTP lockout window is active for the
	// (email, purpose) pair. Surfaced to callers exactly like ErrOTPInvalid.
	ErrOTPLocked = errors.New("one-time code attempts exceeded")
	// ErrUnauthenticated is the uniform outcome for any access-token failure,
	// expired and malformed alike.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation indicates missing or malformed input, rejected before any
	// store access.
	ErrValidation = errors.New("invalid request")
	// ErrNotFound indicates the identity record is absent.
	ErrNotFound = errors.New("account not found")
	// ErrAccountExists is returned by PersonRepository implementations on
	// duplicate username or email during registration.
	ErrAccountExists = errors.New("account already exists")
	// ErrStoreUnavailable wraps credential-store and repository infrastructure
	// failures. Never converted into an authentication denial.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrEngineNotReady is returned when an Engine is used before Build wired
	// its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
