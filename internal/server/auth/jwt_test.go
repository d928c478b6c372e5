package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var alice = Identity{ID: 7, Name: "alice", Email: "a@b.com"}

func codecAt(secret string, now time.Time) *TokenCodec {
	c := NewTokenCodec(secret)
	c.now = func() time.Time { return now }
	return c
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	codec := NewTokenCodec("super-secret")

	tok, err := codec.Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := codec.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.User != alice {
		t.Fatalf("identity mismatch: got %+v want %+v", claims.User, alice)
	}

	iat, exp := claims.IssuedAtTime(), claims.ExpiresAtTime()
	if !iat.Before(exp) {
		t.Fatalf("iat %v must be before exp %v", iat, exp)
	}
	if got := exp.Sub(iat); got != TokenValidity {
		t.Fatalf("validity window: got %v want %v", got, TokenValidity)
	}
}

func TestIssue_TimestampsAreWholeSeconds(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 987654321, time.UTC)
	codec := codecAt("k", now)

	tok, err := codec.Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := codec.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if want := now.Truncate(time.Second); !claims.IssuedAtTime().Equal(want) {
		t.Fatalf("iat: got %v want %v", claims.IssuedAtTime(), want)
	}
	if want := now.Truncate(time.Second).Add(TokenValidity); !claims.ExpiresAtTime().Equal(want) {
		t.Fatalf("exp: got %v want %v", claims.ExpiresAtTime(), want)
	}
}

func TestIssue_EmptySecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenCodec("").Issue(alice)
	if !errors.Is(err, ErrTokenCreation) {
		t.Fatalf("expected ErrTokenCreation, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenCodec("right-secret").Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewTokenCodec("wrong-secret").Verify(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Now().Add(-TokenValidity - time.Minute)
	tok, err := codecAt("secret", issuedAt).Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewTokenCodec("secret").Verify(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry detail in %v", err)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, err := codecAt("secret", issuedAt).Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := codecAt("secret", issuedAt.Add(TokenValidity-time.Second)).Verify(tok); err != nil {
		t.Fatalf("token must still be valid one second before expiry: %v", err)
	}
	if _, err := codecAt("secret", issuedAt.Add(TokenValidity+time.Second)).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token must be invalid after expiry, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenCodec("secret").Issue(alice)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	segments := strings.Split(tok, ".")
	if len(segments) != 3 {
		t.Fatalf("unexpected token shape: %q", tok)
	}

	// one position inside each segment, away from the last character whose
	// low bits may be padding
	positions := []int{
		len(segments[0]) / 2,
		len(segments[0]) + 1 + len(segments[1])/2,
		len(segments[0]) + 1 + len(segments[1]) + 1 + len(segments[2])/2,
	}

	for _, pos := range positions {
		b := []byte(tok)
		if b[pos] == 'A' {
			b[pos] = 'B'
		} else {
			b[pos] = 'A'
		}

		if _, err := NewTokenCodec("secret").Verify(string(b)); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("tampered at %d: expected ErrInvalidToken, got %v", pos, err)
		}
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b", "...."} {
		if _, err := NewTokenCodec("k").Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	now := time.Now()
	claims := Claims{
		User: alice,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign HS512: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	for _, tok := range []string{hs512, none} {
		if _, err := NewTokenCodec("secret").Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	}
}

func TestVerify_RequiresExpiry(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{User: alice}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenCodec("secret").Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for token without exp, got %v", err)
	}
}
