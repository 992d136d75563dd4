package h2

import (
	"crypto/rand"

	"github.com/valyala/fastrand"
)

// randomPadLen picks a pad length in [0, max] for a single outbound
// HEADERS or DATA frame; always 0 when max is 0 (padding is opt-in via
// ConnOptions.MaxPaddingBytes).
func randomPadLen(max uint8) uint8 {
	if max == 0 {
		return 0
	}
	return uint8(fastrand.Uint32n(uint32(max) + 1))
}

// appendPadding appends padLen bytes of random fill after a frame's
// payload; padding content carries no semantics, only its length does
// (RFC 7540 §6.1/§6.2), but random fill avoids leaking whatever
// happened to be in the buffer.
func appendPadding(dst []byte, padLen uint8) []byte {
	if padLen == 0 {
		return dst
	}
	start := len(dst)
	dst = append(dst, make([]byte, padLen)...)
	rand.Read(dst[start:])
	return dst
}
