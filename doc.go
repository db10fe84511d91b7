// Package authcore implements the credential and session lifecycle for the
// bookline platform: JWT access tokens, opaque refresh tokens with a Redis-backed
// blacklist, password verification with brute-force lockout, and one-time-code
// issuance/validation for email verification and password reset.
//
// The package is the public surface. It exposes [Engine], [Builder], [Config],
// the collaborator interfaces ([PersonRepository], [EmailSender]), and sentinel
// errors. Store and limiter plumbing lives under internal/ and is never exported.
//
// # Architecture boundaries
//
// Durable identity records (profiles, roles, password hashes at rest) belong to
// the relational store behind [PersonRepository]; everything authcore writes on
// its own lives in a single ephemeral Redis namespace and is garbage-collected
// solely by key TTLs. Engine methods are safe to call from multiple goroutines
// after construction through [Builder.Build].
//
// # Cache key compatibility
//
// The Redis key schema (refresh_token:*, refresh_token_user:*,
// refresh_token_blacklist:*, otp:*, otp_failed_attempts:*, otp_locked:*,
// failed_login_attempts:*, account_locked:*) is a compatibility surface shared
// with existing deployments. Prefixes and TTL relationships must not change.
package authcore
