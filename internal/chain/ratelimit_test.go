package chain_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/crossdrop/internal/chain"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := chain.NewRateLimiter(10, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow("test"), "request %d should be inside the burst", i)
	}
	assert.False(t, rl.Allow("test"), "burst should be exhausted")
}

func TestRateLimiter_Wait(t *testing.T) {
	rl := chain.NewRateLimiter(100, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, rl.Wait(ctx, "test"))

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "test"))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestRateLimiter_KeysByHost(t *testing.T) {
	rl := chain.NewRateLimiter(10, 2)

	assert.True(t, rl.Allow("https://rpc.example.com/v1/abc"))
	assert.True(t, rl.Allow("https://rpc.example.com/v2/def"))
	assert.False(t, rl.Allow("https://rpc.example.com/"), "same host shares a bucket")

	assert.True(t, rl.Allow("https://api.other.example"))
	assert.True(t, rl.Allow("plain-endpoint"))
	assert.Equal(t, 3, rl.Len())
}

func TestRateLimiter_ContextCancellation(t *testing.T) {
	rl := chain.NewRateLimiter(1, 1)
	require.NoError(t, rl.Wait(context.Background(), "test"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.Wait(ctx, "test")
	require.ErrorIs(t, err, chain.ErrRateLimited)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, chain.IsRetryable(err))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := chain.NewRateLimiter(100, 100)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("test") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, allowed.Load(), int32(90))
	assert.LessOrEqual(t, allowed.Load(), int32(110))
	assert.Equal(t, 1, rl.Len())
}
