package h2

import "github.com/nexthop-io/h2engine/wire"

// HeadersFrame is the parsed payload of a HEADERS frame (RFC 7540 §6.2).
// The 5-byte priority block, when present, is parsed only to be
// discarded: priority trees are out of scope.
type HeadersFrame struct {
	BlockFragment []byte
	Padded        bool
	PadLen        uint8
	EndStream     bool
	EndHeaders    bool
}

func parseHeadersFrame(h FrameHeader, payload []byte) (HeadersFrame, error) {
	f := HeadersFrame{
		EndStream:  h.Has(FlagEndStream),
		EndHeaders: h.Has(FlagEndHeaders),
	}

	if h.Has(FlagPadded) {
		if len(payload) == 0 {
			return f, streamError(h.Stream, ProtocolError, "HEADERS PADDED with empty payload")
		}
		f.Padded = true
		f.PadLen = payload[0]
		payload = payload[1:]
	}

	if h.Has(FlagPriority) {
		if len(payload) < 5 {
			return f, streamError(h.Stream, FrameSizeError, "HEADERS PRIORITY block truncated")
		}
		// priority block (31-bit dependency + exclusive bit, 8-bit
		// weight) is parsed then discarded: priority trees are
		// explicitly out of scope.
		payload = payload[5:]
	}

	if f.Padded {
		if int(f.PadLen) > len(payload) {
			return f, streamError(h.Stream, ProtocolError, "HEADERS pad length exceeds remaining payload")
		}
		payload = payload[:len(payload)-int(f.PadLen)]
	}

	f.BlockFragment = payload
	return f, nil
}

// appendHeadersFrame serializes a HEADERS frame carrying an already
// HPACK-encoded block, optionally padded (padLen 0 meaning none).
// Splitting across CONTINUATION frames when block exceeds maxFrameSize
// is the caller's job (see writer.go); CONTINUATION itself never
// carries padding (RFC 7540 §6.10).
func appendHeadersFrame(dst []byte, stream uint32, block []byte, endStream, endHeaders bool, padLen uint8) []byte {
	length := len(block) + int(padLen)
	h := FrameHeader{Length: uint32(length), Type: FrameHeaders, Stream: stream}
	if endStream {
		h.Flags |= FlagEndStream
	}
	if endHeaders {
		h.Flags |= FlagEndHeaders
	}
	if padLen > 0 {
		h.Flags |= FlagPadded
		h.Length++
	}
	dst = writeFrameHeader(dst, h)
	if padLen > 0 {
		dst = append(dst, padLen)
	}
	dst = append(dst, block...)
	return appendPadding(dst, padLen)
}

// ContinuationFrame is the parsed payload of a CONTINUATION frame
// (RFC 7540 §6.10): a raw HPACK block-fragment continuation, no flags
// of its own besides END_HEADERS.
type ContinuationFrame struct {
	BlockFragment []byte
	EndHeaders    bool
}

func parseContinuationFrame(h FrameHeader, payload []byte) ContinuationFrame {
	return ContinuationFrame{BlockFragment: payload, EndHeaders: h.Has(FlagEndHeaders)}
}

func appendContinuationFrame(dst []byte, stream uint32, block []byte, endHeaders bool) []byte {
	h := FrameHeader{Length: uint32(len(block)), Type: FrameContinuation, Stream: stream}
	if endHeaders {
		h.Flags |= FlagEndHeaders
	}
	dst = writeFrameHeader(dst, h)
	return append(dst, block...)
}

// PriorityFrame is parsed and discarded: the engine does not model
// priority trees (RFC 7540 §5.3 is out of scope).
type PriorityFrame struct {
	StreamDependency uint32
	Exclusive        bool
	Weight           uint8
}

func parsePriorityFrame(h FrameHeader, payload []byte) (PriorityFrame, error) {
	if h.Stream == 0 {
		return PriorityFrame{}, connError(ProtocolError, "PRIORITY on stream 0")
	}
	if len(payload) != 5 {
		return PriorityFrame{}, streamError(h.Stream, FrameSizeError, "PRIORITY length %d != 5", len(payload))
	}
	dep := wire.BytesToUint32(payload[0:4])
	return PriorityFrame{
		StreamDependency: dep & (1<<31 - 1),
		Exclusive:        dep&(1<<31) != 0,
		Weight:           payload[4],
	}, nil
}
