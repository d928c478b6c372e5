package auth

import (
	"context"
	"strings"
)

const bearerScheme = "Bearer"

type ctxKey string

const claimsKey ctxKey = "claims"

// BearerToken extracts the token from an Authorization header value of the
// form "Bearer <token>". The scheme is matched case-insensitively.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", ErrInvalidToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	return token, nil
}

// ClaimsFromHeader turns the raw Authorization header of an inbound request
// into verified claims. A missing header, a non-bearer scheme and any decode
// failure all yield ErrInvalidToken. The account behind the token is not
// looked up.
func ClaimsFromHeader(header string, v TokenVerifier) (*Claims, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}

	return v.Verify(token)
}

// WithClaims returns a copy of ctx carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}
