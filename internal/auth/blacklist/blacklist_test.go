package blacklist_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/talentboard/authcore/internal/auth/blacklist"
)

func TestMemoryAddAndContains(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := blacklist.NewMemory(time.Hour)

	ok, err := m.Contains(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Add(ctx, "tok-1"))

	ok, err = m.Contains(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, ok)

	// Idempotent.
	require.NoError(t, m.Add(ctx, "tok-1"))
	require.Equal(t, 1, m.Len())
}

func TestMemorySweepRespectsRetention(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := blacklist.NewMemory(time.Hour)
	require.NoError(t, m.Add(ctx, "tok-1"))
	require.NoError(t, m.Add(ctx, "tok-2"))

	// Within retention: nothing removed.
	removed, err := m.Sweep(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Zero(t, removed)
	require.Equal(t, 2, m.Len())

	// Pretend an hour and change has passed.
	removed, err = m.Sweep(ctx, time.Now().UTC().Add(time.Hour+time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, removed)
	require.Zero(t, m.Len())

	ok, err := m.Contains(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := blacklist.NewMemory(time.Hour)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				tok := fmt.Sprintf("tok-%d-%d", i, j)
				require.NoError(t, m.Add(ctx, tok))

				// An Add that completed must be observed.
				ok, err := m.Contains(ctx, tok)
				require.NoError(t, err)
				require.True(t, ok)
			}
		}()
	}

	// Sweep concurrently with the writers; retention is an hour so it
	// must not remove anything.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			_, err := m.Sweep(ctx, time.Now().UTC())
			require.NoError(t, err)
		}
	}()

	wg.Wait()
	require.Equal(t, 1600, m.Len())
}
