package throttle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func exhaust(t *testing.T, l Limiter, id string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, l.Reserve(context.Background(), id), "attempt %d", i+1)
	}
}

// burst fires n concurrent reservations for id and returns how many were
// admitted.
func burst(l Limiter, id string, n int) int64 {
	var admitted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if l.Reserve(context.Background(), id) == nil {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	return admitted.Load()
}

func TestRedisLimiter_BlocksAfterBudget(t *testing.T) {
	_, client := newTestRedis(t)
	l := NewRedisLimiter(client, 3, time.Minute)
	ctx := context.Background()

	exhaust(t, l, "a@b.com", 3)

	assert.ErrorIs(t, l.Reserve(ctx, "a@b.com"), ErrTooManyAttempts)
	assert.ErrorIs(t, l.Reserve(ctx, " A@B.COM "), ErrTooManyAttempts, "identifier must be normalized")
	assert.NoError(t, l.Reserve(ctx, "other@b.com"))
}

func TestRedisLimiter_ConcurrentBurst(t *testing.T) {
	_, client := newTestRedis(t)
	l := NewRedisLimiter(client, 3, time.Minute)

	assert.Equal(t, int64(3), burst(l, "a@b.com", 40))
}

func TestRedisLimiter_WindowExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, 2, time.Minute)
	ctx := context.Background()

	exhaust(t, l, "alice", 2)
	require.ErrorIs(t, l.Reserve(ctx, "alice"), ErrTooManyAttempts)

	ttl := mr.TTL(redisKeyPrefix + "alice")
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, l.Reserve(ctx, "alice"))
}

func TestRedisLimiter_TTLNotExtendedByLaterAttempts(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, 10, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Reserve(ctx, "alice"))
	mr.FastForward(40 * time.Second)
	require.NoError(t, l.Reserve(ctx, "alice"))

	assert.Equal(t, 20*time.Second, mr.TTL(redisKeyPrefix+"alice"))
}

func TestRedisLimiter_Reset(t *testing.T) {
	_, client := newTestRedis(t)
	l := NewRedisLimiter(client, 1, time.Minute)
	ctx := context.Background()

	exhaust(t, l, "alice", 1)
	require.ErrorIs(t, l.Reserve(ctx, "alice"), ErrTooManyAttempts)

	require.NoError(t, l.Reset(ctx, "alice"))
	assert.NoError(t, l.Reserve(ctx, "alice"))
}

func TestRedisLimiter_BackendDown(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, 1, time.Minute)
	mr.Close()

	ctx := context.Background()
	for _, err := range []error{l.Reserve(ctx, "x"), l.Reset(ctx, "x")} {
		assert.True(t, errors.Is(err, ErrBackendUnavailable), "got %v", err)
		assert.False(t, errors.Is(err, ErrTooManyAttempts))
	}
}

func TestNewRedisClient(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := NewRedisClient("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	_, err = NewRedisClient("http://nope")
	assert.Error(t, err)
}

func TestMemoryLimiter_BlocksAndExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	exhaust(t, l, "alice", 2)
	assert.ErrorIs(t, l.Reserve(ctx, "ALICE"), ErrTooManyAttempts)

	now = now.Add(time.Minute)
	assert.NoError(t, l.Reserve(ctx, "alice"))
}

func TestMemoryLimiter_ConcurrentBurst(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)

	assert.Equal(t, int64(3), burst(l, "a@b.com", 40))
}

func TestMemoryLimiter_ResetAndSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(1, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	exhaust(t, l, "alice", 1)
	require.NoError(t, l.Reset(ctx, "alice"))
	assert.NoError(t, l.Reserve(ctx, "alice"))

	require.NoError(t, l.Reserve(ctx, "bob"))
	require.NoError(t, l.Reserve(ctx, "carol"))
	now = now.Add(2 * time.Minute)
	l.Sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.entries)
}

func TestDisabled(t *testing.T) {
	var l Limiter = Disabled{}
	exhaust(t, l, "alice", 100)
	assert.NoError(t, l.Reserve(context.Background(), "alice"))
}
