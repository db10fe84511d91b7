package stores

import (
	"context"
	"time"

	"github.com/bookline/authcore/internal/kvstore"
)

// OTPStore keeps one-time codes under otp:{email}:{purpose}. Callers pass the
// email already lowercased; the store does not normalize.
type OTPStore struct {
	kv *kvstore.Client
}

// NewOTPStore creates an OTPStore over kv.
func NewOTPStore(kv *kvstore.Client) *OTPStore {
	return &OTPStore{kv: kv}
}

func otpKey(email, purpose string) string {
	return "otp:" + email + ":" + purpose
}

// Save stores code for (email, purpose), destroying any prior code first so a
// superseded code can never validate.
func (s *OTPStore) Save(ctx context.Context, email, purpose, code string, ttl time.Duration) error {
	if err := s.kv.Delete(ctx, otpKey(email, purpose)); err != nil {
		return err
	}
	return s.kv.Set(ctx, otpKey(email, purpose), code, ttl)
}

// Get returns the stored code, if one exists.
func (s *OTPStore) Get(ctx context.Context, email, purpose string) (string, bool, error) {
	return s.kv.Get(ctx, otpKey(email, purpose))
}

// Delete removes the code. Idempotent.
func (s *OTPStore) Delete(ctx context.Context, email, purpose string) error {
	return s.kv.Delete(ctx, otpKey(email, purpose))
}
