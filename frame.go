package h2

import (
	"bufio"
	"io"

	"github.com/nexthop-io/h2engine/wire"
)

// Frame type identifiers (RFC 7540 §6).
const (
	FrameData         uint8 = 0x0
	FrameHeaders      uint8 = 0x1
	FramePriority     uint8 = 0x2
	FrameRSTStream    uint8 = 0x3
	FrameSettings     uint8 = 0x4
	FramePushPromise  uint8 = 0x5
	FramePing         uint8 = 0x6
	FrameGoAway       uint8 = 0x7
	FrameWindowUpdate uint8 = 0x8
	FrameContinuation uint8 = 0x9
)

// Frame flags, shared across the types that define them.
const (
	FlagAck        uint8 = 0x1
	FlagEndStream  uint8 = 0x1
	FlagEndHeaders uint8 = 0x4
	FlagPadded     uint8 = 0x8
	FlagPriority   uint8 = 0x20
)

const frameHeaderLen = 9

// FrameHeader is the fixed 9-octet prefix of every frame (RFC 7540 §4.1).
type FrameHeader struct {
	Length uint32 // 24 bits: payload length, not counting this header
	Type   uint8
	Flags  uint8
	Stream uint32 // 31 bits, top bit always 0
}

func (h FrameHeader) Is(t uint8) bool  { return h.Type == t }
func (h FrameHeader) Has(f uint8) bool { return h.Flags&f == f }

func (h *FrameHeader) encode(b []byte) {
	_ = b[8]
	wire.Uint24ToBytes(b[0:3], h.Length)
	b[3] = h.Type
	b[4] = h.Flags
	wire.Uint32ToBytes(b[5:9], h.Stream&(1<<31-1))
}

func (h *FrameHeader) decode(b []byte) {
	_ = b[8]
	h.Length = wire.BytesToUint24(b[0:3])
	h.Type = b[3]
	h.Flags = b[4]
	h.Stream = wire.BytesToUint31(b[5:9])
}

// Frame is a decoded frame: header plus raw payload bytes. Typed views
// (DataFrame, HeadersFrame, ...) are parsed out of Payload on demand by
// the connection state machine, which knows which view a given Type
// calls for.
type Frame struct {
	FrameHeader
	Payload []byte
}

// readFrame reads one frame from br, enforcing maxFrameSize against the
// length field (RFC 7540 §4.2) before reading the payload into a
// freshly allocated slice the caller owns.
func readFrame(br *bufio.Reader, maxFrameSize uint32) (*FrameHeader, []byte, error) {
	var raw [frameHeaderLen]byte
	if _, err := io.ReadFull(br, raw[:]); err != nil {
		return nil, nil, err
	}

	h := &FrameHeader{}
	h.decode(raw[:])
	if h.Length > maxFrameSize {
		return nil, nil, connError(FrameSizeError, "frame length %d exceeds max %d", h.Length, maxFrameSize)
	}

	payload := make([]byte, h.Length)
	if h.Length > 0 {
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, nil, err
		}
	}
	return h, payload, nil
}

// writeFrameHeader appends the 9-octet encoding of h to dst.
func writeFrameHeader(dst []byte, h FrameHeader) []byte {
	var raw [frameHeaderLen]byte
	h.encode(raw[:])
	return append(dst, raw[:]...)
}
