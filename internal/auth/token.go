package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keygate/keygate/internal/shared"
)

// TokenClass tags a token as short-lived access or long-lived refresh.
type TokenClass string

const (
	// TokenClassAccess is the short-lived class used on every API call.
	TokenClassAccess TokenClass = "access"
	// TokenClassRefresh is the long-lived class redeemed for new pairs.
	TokenClassRefresh TokenClass = "refresh"
)

// Claims is the payload carried inside every signed token.
type Claims struct {
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// CodecConfig carries the two independent signing secrets and TTLs.
type CodecConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs and verifies tokens. It is stateless; revocation lives in the
// ledger, not here.
type Codec struct {
	cfg CodecConfig
	now func() time.Time
}

// NewCodec constructs a Codec.
func NewCodec(cfg CodecConfig) *Codec {
	return &Codec{cfg: cfg, now: time.Now}
}

// WithClock overrides the codec clock, for tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

func (c *Codec) classParams(class TokenClass) ([]byte, time.Duration, error) {
	switch class {
	case TokenClassAccess:
		return c.cfg.AccessSecret, c.cfg.AccessTTL, nil
	case TokenClassRefresh:
		return c.cfg.RefreshSecret, c.cfg.RefreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("auth: unknown token class %q", class)
	}
}

// Issue produces a signed HS256 token for the given subject and class.
func (c *Codec) Issue(userID, email string, class TokenClass) (string, error) {
	secret, ttl, err := c.classParams(class)
	if err != nil {
		return "", err
	}
	now := c.now().UTC()
	claims := Claims{
		Email:     email,
		TokenType: string(class),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature, expiry and class tag. Failures map to the distinct
// token sentinels so callers can log them apart while presenting a uniform
// unauthorized response.
func (c *Codec) Verify(token string, class TokenClass) (*Claims, error) {
	secret, _, err := c.classParams(class)
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	_, err = jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, shared.ErrTokenExpired
	default:
		return nil, shared.ErrInvalidToken
	}
	if claims.TokenType != string(class) {
		return nil, shared.ErrWrongTokenType
	}
	return claims, nil
}
