package h2

import "github.com/nexthop-io/h2engine/wire"

func parseRSTStreamFrame(h FrameHeader, payload []byte) (ErrorCode, error) {
	if h.Stream == 0 {
		return 0, connError(ProtocolError, "RST_STREAM on stream 0")
	}
	if len(payload) != 4 {
		return 0, connError(FrameSizeError, "RST_STREAM length %d != 4", len(payload))
	}
	return ErrorCode(wire.BytesToUint32(payload)), nil
}

func appendRSTStreamFrame(dst []byte, stream uint32, code ErrorCode) []byte {
	h := FrameHeader{Length: 4, Type: FrameRSTStream, Stream: stream}
	dst = writeFrameHeader(dst, h)
	return wire.AppendUint32(dst, uint32(code))
}
