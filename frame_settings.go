package h2

import "github.com/nexthop-io/h2engine/wire"

const settingEntryLen = 6 // 2-byte id + 4-byte value

// parseSettingsFrame validates shape and applies each entry to s in
// wire order, so a duplicate identifier's last occurrence wins
// (RFC 7540 §6.5).
func parseSettingsFrame(h FrameHeader, payload []byte, s *Settings) (ack bool, err error) {
	if h.Stream != 0 {
		return false, connError(ProtocolError, "SETTINGS on non-zero stream %d", h.Stream)
	}
	if h.Has(FlagAck) {
		if len(payload) != 0 {
			return false, connError(FrameSizeError, "SETTINGS ACK with non-empty payload")
		}
		return true, nil
	}
	if len(payload)%settingEntryLen != 0 {
		return false, connError(FrameSizeError, "SETTINGS length %d not a multiple of %d", len(payload), settingEntryLen)
	}

	for len(payload) > 0 {
		id := uint16(payload[0])<<8 | uint16(payload[1])
		value := wire.BytesToUint32(payload[2:6])
		if err := s.apply(id, value); err != nil {
			return false, err
		}
		payload = payload[settingEntryLen:]
	}
	return false, nil
}

// appendSettingsFrame serializes a non-ACK SETTINGS frame carrying the
// given entries, in id, value pairs.
func appendSettingsFrame(dst []byte, entries map[uint16]uint32) []byte {
	h := FrameHeader{Length: uint32(len(entries) * settingEntryLen), Type: FrameSettings}
	dst = writeFrameHeader(dst, h)
	for id, value := range entries {
		dst = append(dst, byte(id>>8), byte(id))
		dst = wire.AppendUint32(dst, value)
	}
	return dst
}

// appendSettingsAck serializes a zero-length SETTINGS frame with ACK set.
func appendSettingsAck(dst []byte) []byte {
	h := FrameHeader{Type: FrameSettings, Flags: FlagAck}
	return writeFrameHeader(dst, h)
}
