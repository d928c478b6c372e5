package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Upper cost bounds accepted from stored hashes and from operators.
const (
	MaxMemoryKiB  = 1 << 20
	MaxIterations = 64
)

const (
	algorithmID = "argon2id"

	minSaltLength   = 8
	minKeyLength    = 16
	maxRecordLength = 1024
)

// HasherParams holds the argon2id cost parameters.
type HasherParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHasherParams matches the argon2id defaults used by the accounts
// already stored in the database (m=19456, t=2, p=1, 32-byte output).
var DefaultHasherParams = HasherParams{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher derives and verifies argon2id password hashes encoded as
// PHC strings. It holds no mutable state and is safe for concurrent use.
type PasswordHasher struct {
	params HasherParams
	rand   io.Reader
}

// NewPasswordHasher returns a hasher with the given parameters. Zero fields
// fall back to DefaultHasherParams.
func NewPasswordHasher(p HasherParams) *PasswordHasher {
	if p.Memory == 0 {
		p.Memory = DefaultHasherParams.Memory
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultHasherParams.Iterations
	}
	if p.Parallelism == 0 {
		p.Parallelism = DefaultHasherParams.Parallelism
	}
	if p.SaltLength == 0 {
		p.SaltLength = DefaultHasherParams.SaltLength
	}
	if p.KeyLength == 0 {
		p.KeyLength = DefaultHasherParams.KeyLength
	}
	return &PasswordHasher{params: p, rand: rand.Reader}
}

// Hash generates a fresh salt and returns the encoded hash of plaintext:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<key>
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("%w: salt generation: %v", ErrHashBackend, err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash of plaintext with the parameters embedded in
// stored and compares the keys in constant time. A mismatch is reported as
// (false, nil); an unparseable stored value yields an error wrapping both
// ErrHashBackend and ErrMalformedHash.
func (h *PasswordHasher) Verify(plaintext, stored string) (bool, error) {
	rec, err := parsePHC(stored)
	if err != nil {
		return false, fmt.Errorf("%w: %w: %v", ErrHashBackend, ErrMalformedHash, err)
	}

	key := argon2.IDKey([]byte(plaintext), rec.salt, rec.iterations, rec.memory, rec.parallelism, uint32(len(rec.key)))

	return subtle.ConstantTimeCompare(key, rec.key) == 1, nil
}

type phcRecord struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// parsePHC decodes an argon2id PHC string. Records written by the previous
// implementation wrap the whole PHC string in an extra layer of standard
// base64; those are unwrapped first.
func parsePHC(encoded string) (*phcRecord, error) {
	if len(encoded) > maxRecordLength {
		return nil, fmt.Errorf("record too long")
	}
	if !strings.HasPrefix(encoded, "$") {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("not a PHC string")
		}
		encoded = string(raw)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	version, found := strings.CutPrefix(parts[2], "v=")
	if !found {
		return nil, fmt.Errorf("missing version")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, fmt.Errorf("unsupported version %q", version)
	}

	rec := &phcRecord{}
	if err := parseParams(parts[3], rec); err != nil {
		return nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minSaltLength {
		return nil, fmt.Errorf("invalid salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < minKeyLength {
		return nil, fmt.Errorf("invalid key")
	}
	rec.salt = salt
	rec.key = key

	return rec, nil
}

func parseParams(part string, rec *phcRecord) error {
	var seen int
	for _, pair := range strings.Split(part, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid parameter %q", pair)
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil || n == 0 {
			return fmt.Errorf("invalid parameter %q", pair)
		}
		switch name {
		case "m":
			if n > MaxMemoryKiB {
				return fmt.Errorf("memory parameter out of range")
			}
			rec.memory = uint32(n)
		case "t":
			if n > MaxIterations {
				return fmt.Errorf("time parameter out of range")
			}
			rec.iterations = uint32(n)
		case "p":
			if n > 255 {
				return fmt.Errorf("parallelism parameter out of range")
			}
			rec.parallelism = uint8(n)
		default:
			return fmt.Errorf("unknown parameter %q", name)
		}
		seen++
	}
	if seen != 3 || rec.memory == 0 || rec.iterations == 0 || rec.parallelism == 0 {
		return fmt.Errorf("incomplete parameters")
	}
	return nil
}
