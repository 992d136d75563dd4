package h2

import "github.com/nexthop-io/h2engine/wire"

// GoAwayFrame is the parsed payload of a GOAWAY frame (RFC 7540 §6.8).
type GoAwayFrame struct {
	LastStreamID uint32
	Code         ErrorCode
	Debug        []byte
}

func parseGoAwayFrame(h FrameHeader, payload []byte) (GoAwayFrame, error) {
	if h.Stream != 0 {
		return GoAwayFrame{}, connError(ProtocolError, "GOAWAY on non-zero stream %d", h.Stream)
	}
	if len(payload) < 8 {
		return GoAwayFrame{}, connError(FrameSizeError, "GOAWAY length %d < 8", len(payload))
	}
	return GoAwayFrame{
		LastStreamID: wire.BytesToUint31(payload[0:4]),
		Code:         ErrorCode(wire.BytesToUint32(payload[4:8])),
		Debug:        append([]byte(nil), payload[8:]...),
	}, nil
}

func appendGoAwayFrame(dst []byte, lastStreamID uint32, code ErrorCode, debug []byte) []byte {
	h := FrameHeader{Length: uint32(8 + len(debug)), Type: FrameGoAway}
	dst = writeFrameHeader(dst, h)
	dst = wire.AppendUint32(dst, lastStreamID&(1<<31-1))
	dst = wire.AppendUint32(dst, uint32(code))
	return append(dst, debug...)
}
