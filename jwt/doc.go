// Package jwt mints and validates the engine's credentials: HS256-signed
// access tokens carrying identity claims, and opaque random refresh tokens
// with no embedded structure at all.
package jwt
