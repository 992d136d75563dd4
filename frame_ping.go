package h2

func parsePingFrame(h FrameHeader, payload []byte) (data [8]byte, ack bool, err error) {
	if h.Stream != 0 {
		return data, false, connError(ProtocolError, "PING on non-zero stream %d", h.Stream)
	}
	if len(payload) != 8 {
		return data, false, connError(FrameSizeError, "PING length %d != 8", len(payload))
	}
	copy(data[:], payload)
	return data, h.Has(FlagAck), nil
}

func appendPingFrame(dst []byte, data [8]byte, ack bool) []byte {
	h := FrameHeader{Length: 8, Type: FramePing}
	if ack {
		h.Flags |= FlagAck
	}
	dst = writeFrameHeader(dst, h)
	return append(dst, data[:]...)
}
