package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is the lifetime of every issued access token.
const TokenValidity = 30 * 24 * time.Hour

// Identity is the public snapshot of an account frozen into a token at
// issuance. Later changes to the account are not reflected until a new
// token is issued.
type Identity struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Claims — the token payload: identity snapshot plus the registered
// iat/exp claims.
type Claims struct {
	User Identity `json:"user"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns the iat claim or the zero time.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the exp claim or the zero time.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenVerifier decodes a token string into verified claims.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// TokenCodec issues and verifies HS256 tokens with a single shared secret.
// It is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewTokenCodec returns a codec keyed by secret. An empty secret is accepted
// here but every Issue call will fail with ErrTokenCreation.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret:   []byte(secret),
		validity: TokenValidity,
		now:      time.Now,
	}
}

// Issue signs a new token for the identity, valid for TokenValidity from now.
func (c *TokenCodec) Issue(user Identity) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("%w: empty secret", ErrTokenCreation)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenCreation, err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// embedded claims. Every failure is reported as ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if len(c.secret) == 0 {
			return nil, errors.New("empty secret")
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
