package h2

import "github.com/nexthop-io/h2engine/wire"

// PushPromiseFrame is the parsed payload of a PUSH_PROMISE frame
// (RFC 7540 §6.6). Emitting PUSH_PROMISE is out of scope (server push
// is a non-goal); receiving one is only a conformance point for a
// client role with ENABLE_PUSH enabled, validated here and otherwise
// rejected.
type PushPromiseFrame struct {
	PromisedStreamID uint32
	BlockFragment    []byte
	EndHeaders       bool
}

func parsePushPromiseFrame(h FrameHeader, payload []byte, isServer bool, enablePush bool) (PushPromiseFrame, error) {
	if isServer {
		return PushPromiseFrame{}, connError(ProtocolError, "PUSH_PROMISE received by a server")
	}
	if !enablePush {
		return PushPromiseFrame{}, connError(ProtocolError, "PUSH_PROMISE received with ENABLE_PUSH=0")
	}

	f := PushPromiseFrame{EndHeaders: h.Has(FlagEndHeaders)}
	var padLen uint8
	if h.Has(FlagPadded) {
		if len(payload) == 0 {
			return f, streamError(h.Stream, ProtocolError, "PUSH_PROMISE PADDED with empty payload")
		}
		padLen = payload[0]
		payload = payload[1:]
	}
	if len(payload) < 4 {
		return f, connError(FrameSizeError, "PUSH_PROMISE payload too short for promised id")
	}
	f.PromisedStreamID = wire.BytesToUint31(payload[0:4])
	payload = payload[4:]
	if int(padLen) > len(payload) {
		return f, streamError(h.Stream, ProtocolError, "PUSH_PROMISE pad length exceeds remaining payload")
	}
	f.BlockFragment = payload[:len(payload)-int(padLen)]
	return f, nil
}
