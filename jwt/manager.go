package jwt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 512 bits of entropy per refresh token.
const refreshTokenRawSize = 64

var (
	// ErrTokenExpired marks a well-formed, correctly signed token past its
	// expiry. Kept distinct from ErrTokenMalformed for observability; callers
	// surface both as the same unauthenticated outcome.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed covers bad structure, wrong signature, wrong signing
	// algorithm, and issuer/audience mismatches.
	ErrTokenMalformed = errors.New("token malformed or signature invalid")
)

// Config holds signing parameters. Secret must be at least 32 bytes.
type Config struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
}

// Identity is the claim source for access-token issuance.
type Identity struct {
	ID       int64
	Username string
	Role     string
	Name     string
	Email    string
	Phone    string
	Address  string
}

// AccessClaims is the signed payload of an access token. Validity is purely
// cryptographic plus expiry; there is no server-side revocation list for
// access tokens.
type AccessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into the numeric identity id.
func (c *AccessClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenMalformed
	}
	return id, nil
}

// Manager is a pure function over its configuration: no I/O, safe for
// concurrent use.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("hs256 secret must be >= 32 bytes")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("access ttl must be > 0")
	}
	return &Manager{config: cfg, now: time.Now}, nil
}

// IssueAccess mints a signed access token for identity. Deterministic given
// identical input except for the timestamp-derived iat/exp and the jti.
func (m *Manager) IssueAccess(identity Identity) (string, error) {
	now := m.now()
	claims := AccessClaims{
		Username: identity.Username,
		Role:     identity.Role,
		Name:     identity.Name,
		Email:    identity.Email,
		Phone:    identity.Phone,
		Address:  identity.Address,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.ID, 10),
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.Secret)
}

// NewRefreshToken returns an opaque random capability token: 64 bytes of
// entropy, base64url, no embedded identity.
func NewRefreshToken() (string, error) {
	raw := make([]byte, refreshTokenRawSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// ParseAccess verifies signature, signing algorithm, issuer, audience, and
// expiry. Expiry failures come back as [ErrTokenExpired]; everything else as
// [ErrTokenMalformed].
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	return m.parse(tokenStr, false)
}

// ParseAccessAllowExpired verifies everything ParseAccess does except expiry.
// It exists solely for refresh-flow UX and must never gate access to a
// protected resource.
func (m *Manager) ParseAccessAllowExpired(tokenStr string) (*AccessClaims, error) {
	return m.parse(tokenStr, true)
}

func (m *Manager) parse(tokenStr string, allowExpired bool) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithIssuedAt(),
	}
	if allowExpired {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if allowExpired {
		// WithoutClaimsValidation skips iss/aud too; re-check them by hand.
		if claims.Issuer != m.config.Issuer {
			return nil, ErrTokenMalformed
		}
		if !containsAudience(claims.Audience, m.config.Audience) {
			return nil, ErrTokenMalformed
		}
	}
	return claims, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
