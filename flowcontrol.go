package h2

import (
	"errors"
	"sync/atomic"
)

// errWindowOverflow is returned by credit/adjust on overflow; callers
// know whether the window is connection- or stream-scoped and wrap it
// into the appropriately-scoped *Error.
var errWindowOverflow = errors.New("flow-control window overflow")

// flowWindow is a signed 32-bit flow-control window (RFC 7540 §6.9),
// stored as int64 so debit/credit math can be checked against the
// RFC's bounds before truncating back to int32 range.
type flowWindow struct {
	v int64 // atomic
}

func newFlowWindow(initial uint32) *flowWindow {
	return &flowWindow{v: int64(initial)}
}

// size returns the current window value, which may be negative after
// an INITIAL_WINDOW_SIZE decrease.
func (w *flowWindow) size() int32 {
	return int32(atomic.LoadInt64(&w.v))
}

// debit subtracts n (e.g. bytes of DATA sent) from the window. Callers
// must have already checked size() >= n via the writer scheduler's
// budget computation; debit itself does not block.
func (w *flowWindow) debit(n uint32) {
	atomic.AddInt64(&w.v, -int64(n))
}

// credit adds increment to the window per a received WINDOW_UPDATE,
// rejecting overflow past 2^31-1 per RFC 7540 §6.9.1.
func (w *flowWindow) credit(increment uint32) error {
	for {
		cur := atomic.LoadInt64(&w.v)
		next := cur + int64(increment)
		if next > maxWindowSize {
			return errWindowOverflow
		}
		if atomic.CompareAndSwapInt64(&w.v, cur, next) {
			return nil
		}
	}
}

// adjust shifts the window by delta (positive or negative), used when
// INITIAL_WINDOW_SIZE changes for every open stream at once. The
// result may go negative but must not overflow past 2^31-1 in
// magnitude in either direction.
func (w *flowWindow) adjust(delta int64) error {
	for {
		cur := atomic.LoadInt64(&w.v)
		next := cur + delta
		if next > maxWindowSize || next < -maxWindowSize-1 {
			return errWindowOverflow
		}
		if atomic.CompareAndSwapInt64(&w.v, cur, next) {
			return nil
		}
	}
}
