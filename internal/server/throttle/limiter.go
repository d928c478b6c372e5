// Package throttle counts login attempts per identifier in fixed
// windows. Two backends are provided: RedisLimiter for deployments with
// more than one server instance and MemoryLimiter for a single process.
package throttle

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrTooManyAttempts is returned by Reserve once the attempt budget of
	// the current window is spent.
	ErrTooManyAttempts = errors.New("too many login attempts")
	// ErrBackendUnavailable wraps failures of the counter store.
	ErrBackendUnavailable = errors.New("throttle backend unavailable")
)

// Limiter tracks login attempts for an identifier. An attempt is reserved
// before the credentials are checked, so concurrent requests cannot all
// slip under the budget; a successful login resets the counter.
type Limiter interface {
	// Reserve counts one attempt for key in a single atomic step and
	// returns ErrTooManyAttempts when the budget is already spent.
	Reserve(ctx context.Context, key string) error
	// Reset forgets all attempts for key.
	Reset(ctx context.Context, key string) error
}

// Normalize folds an identifier so "Alice@B.com " and "alice@b.com" share
// a counter.
func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Disabled never throttles.
type Disabled struct{}

func (Disabled) Reserve(context.Context, string) error { return nil }
func (Disabled) Reset(context.Context, string) error   { return nil }
