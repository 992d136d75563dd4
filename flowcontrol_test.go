package h2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlowWindowInitialSize(t *testing.T) {
	w := newFlowWindow(65535)
	require.Equal(t, int32(65535), w.size())
}

func TestFlowWindowDebit(t *testing.T) {
	w := newFlowWindow(1000)
	w.debit(400)
	require.Equal(t, int32(600), w.size())
}

func TestFlowWindowAdjustCanGoNegativeAfterWindowDecrease(t *testing.T) {
	// mirrors an INITIAL_WINDOW_SIZE decrease shrinking a window below
	// bytes already in flight; the scheduler must still track it.
	w := newFlowWindow(100)
	require.NoError(t, w.adjust(-150))
	require.Equal(t, int32(-50), w.size())
}

func TestFlowWindowCredit(t *testing.T) {
	w := newFlowWindow(0)
	require.NoError(t, w.credit(1000))
	require.Equal(t, int32(1000), w.size())
}

func TestFlowWindowCreditRejectsOverflow(t *testing.T) {
	w := newFlowWindow(maxWindowSize)
	err := w.credit(1)
	require.Error(t, err)
	require.Equal(t, int32(maxWindowSize), w.size(), "failed credit must not mutate the window")
}

func TestFlowWindowAdjustPositive(t *testing.T) {
	w := newFlowWindow(1000)
	require.NoError(t, w.adjust(500))
	require.Equal(t, int32(1500), w.size())
}

func TestFlowWindowAdjustRejectsOverflow(t *testing.T) {
	w := newFlowWindow(maxWindowSize)
	err := w.adjust(1)
	require.Error(t, err)
}

func TestFlowWindowAdjustRejectsUnderflow(t *testing.T) {
	w := newFlowWindow(0)
	err := w.adjust(-(maxWindowSize + 2))
	require.Error(t, err)
}

func TestFlowWindowConcurrentCredit(t *testing.T) {
	w := newFlowWindow(0)
	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		go func() {
			_ = w.credit(10)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 100; i++ {
		<-done
	}
	require.Equal(t, int32(1000), w.size())
}
