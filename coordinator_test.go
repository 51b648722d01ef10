package txbench

import (
	"sync"
	"testing"

	"github.com/hhkbp2/testify/require"
)

func TestEpochStateJoin(t *testing.T) {
	es := NewEpochState()
	require.Equal(t, uint32(0), es.Joined())
	require.Equal(t, uint32(1), es.Join())
	require.Equal(t, uint32(2), es.Join())
	require.Equal(t, uint32(2), es.Joined())

	es.Reset()
	require.Equal(t, uint32(0), es.Joined())
	require.False(t, es.Stopped())
}

func TestEpochStateStopOnce(t *testing.T) {
	es := NewEpochState()
	require.False(t, es.Stopped())
	es.SignalStop()
	require.True(t, es.Stopped())
	// Setting it again is a no-op, not a toggle.
	es.SignalStop()
	require.True(t, es.Stopped())

	es.Reset()
	require.False(t, es.Stopped())
}

func TestEpochStateConcurrentJoin(t *testing.T) {
	es := NewEpochState()
	workers := 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			es.Join()
		}()
	}
	wg.Wait()
	require.Equal(t, uint32(workers), es.Joined())
}
