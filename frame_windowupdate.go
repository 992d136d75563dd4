package h2

import "github.com/nexthop-io/h2engine/wire"

func parseWindowUpdateFrame(h FrameHeader, payload []byte) (increment uint32, err error) {
	if len(payload) != 4 {
		return 0, connError(FrameSizeError, "WINDOW_UPDATE length %d != 4", len(payload))
	}
	increment = wire.BytesToUint31(payload)
	if increment == 0 {
		if h.Stream == 0 {
			return 0, connError(ProtocolError, "WINDOW_UPDATE connection increment 0")
		}
		return 0, streamError(h.Stream, ProtocolError, "WINDOW_UPDATE increment 0")
	}
	return increment, nil
}

func appendWindowUpdateFrame(dst []byte, stream uint32, increment uint32) []byte {
	h := FrameHeader{Length: 4, Type: FrameWindowUpdate, Stream: stream}
	dst = writeFrameHeader(dst, h)
	return wire.AppendUint32(dst, increment&(1<<31-1))
}
