package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errReader = errors.New("entropy exhausted")

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errReader }

func newFastHasher() *PasswordHasher {
	return NewPasswordHasher(HasherParams{Memory: 8 * 1024, Iterations: 1})
}

func TestHash_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	h := newFastHasher()

	for _, pw := range []string{"correct", "", "пароль", strings.Repeat("x", 200)} {
		encoded, err := h.Hash(pw)
		require.NoError(t, err)

		ok, err := h.Verify(pw, encoded)
		require.NoError(t, err)
		assert.True(t, ok, "password %q must verify against its own hash", pw)
	}
}

func TestHash_DefaultParamsEncoding(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(HasherParams{})

	encoded, err := h.Hash("correct")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=19456,t=2,p=1$"), encoded)

	ok, err := h.Verify("correct", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHash_SaltIsRandom(t *testing.T) {
	t.Parallel()

	h := newFastHasher()

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)

	for _, encoded := range []string{a, b} {
		ok, err := h.Verify("same", encoded)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	t.Parallel()

	h := newFastHasher()
	encoded, err := h.Hash("correct")
	require.NoError(t, err)

	ok, err := h.Verify("incorrect", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_UsesEmbeddedParams(t *testing.T) {
	t.Parallel()

	encoded, err := newFastHasher().Hash("correct")
	require.NoError(t, err)

	// a hasher configured differently still verifies older records
	ok, err := NewPasswordHasher(HasherParams{}).Verify("correct", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_LegacyBase64Wrapped(t *testing.T) {
	t.Parallel()

	h := newFastHasher()
	encoded, err := h.Hash("correct")
	require.NoError(t, err)

	legacy := base64.StdEncoding.EncodeToString([]byte(encoded))

	ok, err := h.Verify("correct", legacy)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", legacy)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedHash(t *testing.T) {
	t.Parallel()

	h := newFastHasher()
	valid, err := h.Hash("correct")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	tests := []struct {
		name   string
		stored string
	}{
		{name: "empty", stored: ""},
		{name: "garbage", stored: "not a hash at all!"},
		{name: "bcrypt", stored: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{name: "argon2i", stored: strings.Replace(valid, "$argon2id$", "$argon2i$", 1)},
		{name: "missing version", stored: strings.Join([]string{"", "argon2id", "19", parts[3], parts[4], parts[5]}, "$")},
		{name: "wrong version", stored: strings.Replace(valid, "v=19", "v=16", 1)},
		{name: "unknown param", stored: strings.Join([]string{"", "argon2id", "v=19", "m=8192,t=1,x=1", parts[4], parts[5]}, "$")},
		{name: "missing param", stored: strings.Join([]string{"", "argon2id", "v=19", "m=8192,t=1", parts[4], parts[5]}, "$")},
		{name: "zero memory", stored: strings.Join([]string{"", "argon2id", "v=19", "m=0,t=1,p=1", parts[4], parts[5]}, "$")},
		{name: "huge memory", stored: strings.Join([]string{"", "argon2id", "v=19", "m=99999999,t=1,p=1", parts[4], parts[5]}, "$")},
		{name: "bad salt", stored: strings.Join([]string{"", "argon2id", "v=19", parts[3], "!!!", parts[5]}, "$")},
		{name: "short key", stored: strings.Join([]string{"", "argon2id", "v=19", parts[3], parts[4], "AAAA"}, "$")},
		{name: "extra segment", stored: valid + "$extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify("correct", tt.stored)
			assert.False(t, ok)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrHashBackend)
			assert.ErrorIs(t, err, ErrMalformedHash)
			assert.NotErrorIs(t, err, ErrWrongCredentials)
		})
	}
}

func TestHash_EntropyFailure(t *testing.T) {
	t.Parallel()

	h := newFastHasher()
	h.rand = failingReader{}

	_, err := h.Hash("correct")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHashBackend)
	assert.NotErrorIs(t, err, ErrMalformedHash)
}
