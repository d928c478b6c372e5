// Package auth is the stateless authentication core of the server.
//
// It provides three pieces that are composed explicitly by the transports:
//
//   - PasswordHasher derives argon2id hashes for storage and verifies
//     plaintext passwords against them in constant time.
//   - TokenCodec issues HS256 tokens carrying an Identity snapshot and
//     verifies them, rejecting bad signatures, malformed input and expired
//     tokens.
//   - ClaimsFromHeader turns an Authorization header into verified Claims
//     or ErrInvalidToken.
//
// Tokens are not revocable: a token stays valid until it expires or the
// shared secret changes.
package auth
