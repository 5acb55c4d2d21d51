package airdrop

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	droperr "github.com/mrz1836/crossdrop/pkg/errors"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	t.Run("waiting for response", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		st, err := h.svc.Status(context.Background())
		require.NoError(t, err)
		assert.True(t, st.Waiting)
		assert.Equal(t, "0", st.FormatTotal())
		assert.Equal(t, "0", st.FormatPerRecipient())
		assert.Equal(t, 1, h.recorder.polls)
	})

	t.Run("split across recipients", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.dest.amount = big.NewInt(10_000_001)
		h.dest.recipients = []common.Address{alice, bob}

		st, err := h.svc.Status(context.Background())
		require.NoError(t, err)
		assert.False(t, st.Waiting)
		assert.Equal(t, "10.000001", st.FormatTotal())
		assert.Equal(t, big.NewInt(5_000_000), st.PerRecipient)
		assert.Equal(t, big.NewInt(1), st.Remainder)
		assert.Equal(t, "5", st.FormatPerRecipient())
		assert.Equal(t, "aUSDC", st.Symbol)
		assert.Len(t, st.Recipients, 2)
	})

	t.Run("read error", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.dest.err = droperr.ErrContractRead

		_, err := h.svc.Status(context.Background())
		require.ErrorIs(t, err, droperr.ErrContractRead)
		assert.Equal(t, 1, h.recorder.fails)
	})

	t.Run("no destination", func(t *testing.T) {
		t.Parallel()
		_, err := NewService(Options{}).Status(context.Background())
		require.ErrorIs(t, err, droperr.ErrContractRead)
	})
}

func TestWatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.dest.amount = big.NewInt(3_000_000)
	h.dest.recipients = []common.Address{alice}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []*Status
	)
	err := h.svc.Watch(ctx, time.Millisecond, func(st *Status) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st)
		if len(seen) == 3 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.Equal(t, "3", seen[0].FormatTotal())
}

func TestWatch_ErrorsAreNotFatal(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.dest.err = droperr.ErrNetworkError

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := h.svc.Watch(ctx, time.Millisecond, func(*Status) {
		t.Error("no status expected")
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, h.notes.errorCount(), 2)
	for _, msg := range h.notes.errors {
		assert.Equal(t, MsgStatusFailed, msg)
	}
}
