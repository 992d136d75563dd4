package h2

// DataFrame is the parsed payload of a DATA frame (RFC 7540 §6.1).
type DataFrame struct {
	Data      []byte
	Padded    bool
	PadLen    uint8
	EndStream bool
}

// parseDataFrame validates and splits a DATA payload per flags.
func parseDataFrame(h FrameHeader, payload []byte) (DataFrame, error) {
	f := DataFrame{EndStream: h.Has(FlagEndStream)}

	if h.Has(FlagPadded) {
		if len(payload) == 0 {
			return f, streamError(h.Stream, ProtocolError, "DATA PADDED with empty payload")
		}
		f.Padded = true
		f.PadLen = payload[0]
		payload = payload[1:]
		if int(f.PadLen) > len(payload) {
			return f, streamError(h.Stream, ProtocolError, "DATA pad length exceeds remaining payload")
		}
		payload = payload[:len(payload)-int(f.PadLen)]
	}

	f.Data = payload
	return f, nil
}

// appendDataFrame serializes a DATA frame; stream is the owning stream
// id and padLen (0 meaning none) adds RFC 7540 §6.1 PADDED framing.
func appendDataFrame(dst []byte, stream uint32, data []byte, endStream bool, padLen uint8) []byte {
	length := len(data) + int(padLen)
	h := FrameHeader{Length: uint32(length), Type: FrameData, Stream: stream}
	if endStream {
		h.Flags |= FlagEndStream
	}
	if padLen > 0 {
		h.Flags |= FlagPadded
		h.Length++
	}
	dst = writeFrameHeader(dst, h)
	if padLen > 0 {
		dst = append(dst, padLen)
	}
	dst = append(dst, data...)
	return appendPadding(dst, padLen)
}
