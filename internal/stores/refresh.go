// Package stores holds the Redis record layouts for refresh tokens and
// one-time codes. Key prefixes are a compatibility surface with existing
// deployments and must not change.
package stores

import (
	"context"
	"strconv"
	"time"

	"github.com/bookline/authcore/internal/kvstore"
)

// RefreshStore manages the three refresh-token namespaces:
//
//	refresh_token:{userId}            -> current token (one active session per user)
//	refresh_token_user:{token}        -> userId (reverse lookup)
//	refresh_token_blacklist:{token}   -> "true" (explicit revocation, own TTL)
//
// Forward and reverse entries always share one TTL. A new login overwrites
// the forward pointer; it does not blacklist the previous token.
type RefreshStore struct {
	kv *kvstore.Client
}

// NewRefreshStore creates a RefreshStore over kv.
func NewRefreshStore(kv *kvstore.Client) *RefreshStore {
	return &RefreshStore{kv: kv}
}

func forwardKey(userID int64) string {
	return "refresh_token:" + strconv.FormatInt(userID, 10)
}

func reverseKey(token string) string {
	return "refresh_token_user:" + token
}

func blacklistKey(token string) string {
	return "refresh_token_blacklist:" + token
}

// Save records token as the user's current session capability. Last writer
// wins on concurrent logins; that is the intended single-active-session
// semantic, not a linearizable one.
func (s *RefreshStore) Save(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	if err := s.kv.Set(ctx, forwardKey(userID), token, ttl); err != nil {
		return err
	}
	return s.kv.Set(ctx, reverseKey(token), strconv.FormatInt(userID, 10), ttl)
}

// ResolveUser maps token back to its user id via the reverse entry.
func (s *RefreshStore) ResolveUser(ctx context.Context, token string) (int64, bool, error) {
	raw, found, err := s.kv.Get(ctx, reverseKey(token))
	if err != nil || !found {
		return 0, false, err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Corrupt reverse entry; treat as absent.
		return 0, false, nil
	}
	return userID, true, nil
}

// CurrentToken returns the user's forward pointer, if any.
func (s *RefreshStore) CurrentToken(ctx context.Context, userID int64) (string, bool, error) {
	return s.kv.Get(ctx, forwardKey(userID))
}

// Blacklist revokes token for ttl, the lifetime a live token could still have.
func (s *RefreshStore) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	return s.kv.Set(ctx, blacklistKey(token), "true", ttl)
}

// IsBlacklisted reports whether token has been explicitly revoked.
func (s *RefreshStore) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.kv.Exists(ctx, blacklistKey(token))
}

// DeleteReverse drops the reverse lookup for token. Idempotent.
func (s *RefreshStore) DeleteReverse(ctx context.Context, token string) error {
	return s.kv.Delete(ctx, reverseKey(token))
}
