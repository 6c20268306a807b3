package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// The retention boundary cannot be pinned through Add, which timestamps
// entries itself, so this test seeds insertion times directly.
func TestMemorySweepBoundaryKeepsExactRetention(t *testing.T) {
	t.Parallel()

	m := NewMemory(time.Hour)
	at := time.Now().UTC().Add(-time.Hour)
	m.entries["tok-boundary"] = at
	m.entries["tok-older"] = at.Add(-time.Nanosecond)

	// Cutoff lands exactly on tok-boundary's insertion time: entries aged
	// exactly the retention window are kept, only strictly older ones go.
	removed, err := m.Sweep(context.Background(), at.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, ok := m.entries["tok-boundary"]
	require.True(t, ok)
	_, ok = m.entries["tok-older"]
	require.False(t, ok)
}
