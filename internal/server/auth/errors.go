package auth

import "errors"

// Error kinds produced by the authentication core. Callers match them with
// errors.Is; the HTTP layer owns the mapping to response codes.
var (
	// Login submitted with an empty email or password.
	ErrMissingCredentials = errors.New("missing credentials")

	// Account absent or password mismatch. Both cases share this value.
	ErrWrongCredentials = errors.New("wrong credentials")

	// Bearer token missing, malformed, badly signed or expired.
	ErrInvalidToken = errors.New("invalid token")

	// Signing failed during issuance.
	ErrTokenCreation = errors.New("token creation error")

	// The hashing primitive failed or a stored hash could not be parsed.
	ErrHashBackend = errors.New("hash password")

	// ErrMalformedHash is wrapped together with ErrHashBackend when the
	// stored record is not a valid argon2id PHC string.
	ErrMalformedHash = errors.New("malformed password hash")
)
