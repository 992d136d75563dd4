package h2

import "github.com/valyala/bytebufferpool"

// framePool hands out growable buffers for the writer's outbound DATA
// frames, each sized to the frame being built, bucketed by observed
// size instead of always starting from a fixed floor.
var framePool bytebufferpool.Pool

// acquirePayload returns a buffer with at least n bytes of capacity.
func acquirePayload(n int) *bytebufferpool.ByteBuffer {
	b := framePool.Get()
	if cap(b.B) < n {
		b.B = make([]byte, 0, n)
	}
	return b
}

// releasePayload returns b to the pool for reuse.
func releasePayload(b *bytebufferpool.ByteBuffer) {
	framePool.Put(b)
}
