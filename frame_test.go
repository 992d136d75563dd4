package h2

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := FrameHeader{Length: 0x0a0b0c, Type: FrameHeaders, Flags: FlagEndHeaders | FlagEndStream, Stream: 0x7fffffff}
	var raw [frameHeaderLen]byte
	h.encode(raw[:])

	var got FrameHeader
	got.decode(raw[:])
	require.Equal(t, h, got)
}

func TestFrameHeaderStreamTopBitCleared(t *testing.T) {
	h := FrameHeader{Stream: 1<<31 | 5}
	var raw [frameHeaderLen]byte
	h.encode(raw[:])

	var got FrameHeader
	got.decode(raw[:])
	require.Equal(t, uint32(5), got.Stream)
}

func TestFrameHeaderHasAndIs(t *testing.T) {
	h := FrameHeader{Type: FrameData, Flags: FlagEndStream | FlagPadded}
	require.True(t, h.Is(FrameData))
	require.False(t, h.Is(FrameHeaders))
	require.True(t, h.Has(FlagEndStream))
	require.True(t, h.Has(FlagPadded))
	require.False(t, h.Has(FlagPriority))
}

func TestReadFrameRoundTrip(t *testing.T) {
	var buf []byte
	buf = appendDataFrame(buf, 3, []byte("hello"), true, 0)
	buf = append(buf, []byte("trailing garbage that must not be consumed")...)

	br := bufio.NewReader(bytes.NewReader(buf))
	h, payload, err := readFrame(br, defaultMaxFrameSize)
	require.NoError(t, err)
	require.Equal(t, FrameData, h.Type)
	require.Equal(t, uint32(3), h.Stream)
	require.Equal(t, []byte("hello"), payload)
}

func TestReadFrameRejectsOversizeLength(t *testing.T) {
	buf := appendDataFrame(nil, 1, make([]byte, 100), false, 0)
	br := bufio.NewReader(bytes.NewReader(buf))
	_, _, err := readFrame(br, 50)
	require.Error(t, err)
	require.True(t, IsConnError(err))
}

func TestDataFrameRoundTripNoPadding(t *testing.T) {
	buf := appendDataFrame(nil, 9, []byte("payload"), true, 0)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])
	f, err := parseDataFrame(h, buf[frameHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), f.Data)
	require.True(t, f.EndStream)
	require.False(t, f.Padded)
}

func TestDataFrameRoundTripWithPadding(t *testing.T) {
	buf := appendDataFrame(nil, 9, []byte("payload"), false, 16)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])
	require.True(t, h.Has(FlagPadded))
	require.Equal(t, uint32(1+7+16), h.Length)

	f, err := parseDataFrame(h, buf[frameHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), f.Data)
	require.True(t, f.Padded)
	require.Equal(t, uint8(16), f.PadLen)
}

func TestDataFramePadLenExceedsPayload(t *testing.T) {
	h := FrameHeader{Flags: FlagPadded}
	_, err := parseDataFrame(h, []byte{5, 'a', 'b'})
	require.Error(t, err)
}

func TestHeadersFrameRoundTripWithPadding(t *testing.T) {
	block := []byte{0x82, 0x86, 0x84}
	buf := appendHeadersFrame(nil, 1, block, true, true, 8)

	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])
	f, err := parseHeadersFrame(h, buf[frameHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, block, f.BlockFragment)
	require.True(t, f.EndStream)
	require.True(t, f.EndHeaders)
	require.True(t, f.Padded)
}

func TestHeadersFrameDiscardsPriorityBlock(t *testing.T) {
	var payload []byte
	payload = append(payload, 0, 0, 0, 5) // stream dependency
	payload = append(payload, 16)         // weight
	payload = append(payload, []byte{0x82}...)

	h := FrameHeader{Flags: FlagPriority | FlagEndHeaders}
	f, err := parseHeadersFrame(h, payload)
	require.NoError(t, err)
	require.Equal(t, []byte{0x82}, f.BlockFragment)
}

func TestContinuationFrameRoundTrip(t *testing.T) {
	buf := appendContinuationFrame(nil, 1, []byte{0x01, 0x02}, true)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])
	f := parseContinuationFrame(h, buf[frameHeaderLen:])
	require.Equal(t, []byte{0x01, 0x02}, f.BlockFragment)
	require.True(t, f.EndHeaders)
}

func TestPriorityFrameParse(t *testing.T) {
	payload := make([]byte, 5)
	payload[0] = 0x80 // exclusive bit set
	payload[3] = 7    // stream dependency = 7
	payload[4] = 200  // weight

	f, err := parsePriorityFrame(FrameHeader{Stream: 1}, payload)
	require.NoError(t, err)
	require.True(t, f.Exclusive)
	require.Equal(t, uint32(7), f.StreamDependency)
	require.Equal(t, uint8(200), f.Weight)
}

func TestPriorityFrameOnStreamZeroRejected(t *testing.T) {
	_, err := parsePriorityFrame(FrameHeader{Stream: 0}, make([]byte, 5))
	require.Error(t, err)
	require.True(t, IsConnError(err))
}

func TestRSTStreamFrameRoundTrip(t *testing.T) {
	buf := appendRSTStreamFrame(nil, 3, CancelError)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])
	code, err := parseRSTStreamFrame(h, buf[frameHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, CancelError, code)
}

func TestRSTStreamFrameOnStreamZeroRejected(t *testing.T) {
	_, err := parseRSTStreamFrame(FrameHeader{Stream: 0}, make([]byte, 4))
	require.Error(t, err)
}

func TestSettingsFrameRoundTrip(t *testing.T) {
	entries := map[uint16]uint32{
		SettingMaxConcurrentStreams: 100,
		SettingInitialWindowSize:    65535,
	}
	buf := appendSettingsFrame(nil, entries)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])

	var s Settings
	ack, err := parseSettingsFrame(h, buf[frameHeaderLen:], &s)
	require.NoError(t, err)
	require.False(t, ack)
	require.Equal(t, uint32(100), s.MaxConcurrentStreams)
	require.Equal(t, uint32(65535), s.InitialWindowSize)
}

func TestSettingsFrameAck(t *testing.T) {
	buf := appendSettingsAck(nil)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])

	var s Settings
	ack, err := parseSettingsFrame(h, buf[frameHeaderLen:], &s)
	require.NoError(t, err)
	require.True(t, ack)
}

func TestSettingsFrameAckWithPayloadRejected(t *testing.T) {
	h := FrameHeader{Type: FrameSettings, Flags: FlagAck}
	var s Settings
	_, err := parseSettingsFrame(h, []byte{0, 0, 0, 0}, &s)
	require.Error(t, err)
}

func TestSettingsFrameBadLengthRejected(t *testing.T) {
	h := FrameHeader{Type: FrameSettings}
	var s Settings
	_, err := parseSettingsFrame(h, []byte{0, 0, 0}, &s)
	require.Error(t, err)
}

func TestSettingsFrameDuplicateIDLastWins(t *testing.T) {
	var payload []byte
	payload = append(payload, 0, byte(SettingInitialWindowSize), 0, 0, 0, 1)
	payload = append(payload, 0, byte(SettingInitialWindowSize), 0, 0, 1, 0)

	var s Settings
	_, err := parseSettingsFrame(FrameHeader{Type: FrameSettings}, payload, &s)
	require.NoError(t, err)
	require.Equal(t, uint32(256), s.InitialWindowSize)
}

func TestPingFrameRoundTrip(t *testing.T) {
	data := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	buf := appendPingFrame(nil, data, true)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])

	got, ack, err := parsePingFrame(h, buf[frameHeaderLen:])
	require.NoError(t, err)
	require.True(t, ack)
	require.Equal(t, data, got)
}

func TestPingFrameBadLengthRejected(t *testing.T) {
	_, _, err := parsePingFrame(FrameHeader{}, make([]byte, 7))
	require.Error(t, err)
}

func TestGoAwayFrameRoundTrip(t *testing.T) {
	buf := appendGoAwayFrame(nil, 21, ProtocolError, []byte("bye"))
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])

	f, err := parseGoAwayFrame(h, buf[frameHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, uint32(21), f.LastStreamID)
	require.Equal(t, ProtocolError, f.Code)
	require.Equal(t, []byte("bye"), f.Debug)
}

func TestWindowUpdateFrameRoundTrip(t *testing.T) {
	buf := appendWindowUpdateFrame(nil, 5, 1000)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])

	inc, err := parseWindowUpdateFrame(h, buf[frameHeaderLen:])
	require.NoError(t, err)
	require.Equal(t, uint32(1000), inc)
}

func TestWindowUpdateFrameZeroIncrementRejected(t *testing.T) {
	buf := appendWindowUpdateFrame(nil, 5, 0)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])

	_, err := parseWindowUpdateFrame(h, buf[frameHeaderLen:])
	require.Error(t, err)
	require.True(t, IsStreamError(err))
}

func TestWindowUpdateFrameZeroIncrementOnConnectionRejected(t *testing.T) {
	buf := appendWindowUpdateFrame(nil, 0, 0)
	h := FrameHeader{}
	h.decode(buf[:frameHeaderLen])

	_, err := parseWindowUpdateFrame(h, buf[frameHeaderLen:])
	require.Error(t, err)
	require.True(t, IsConnError(err))
}

func TestPushPromiseFrameRejectedOnServer(t *testing.T) {
	_, err := parsePushPromiseFrame(FrameHeader{}, nil, true, true)
	require.Error(t, err)
}

func TestPushPromiseFrameRejectedWhenPushDisabled(t *testing.T) {
	_, err := parsePushPromiseFrame(FrameHeader{}, nil, false, false)
	require.Error(t, err)
}

func TestPushPromiseFrameParse(t *testing.T) {
	var payload []byte
	payload = append(payload, 0, 0, 0, 42) // promised stream id
	payload = append(payload, 0x82, 0x86)  // block fragment

	h := FrameHeader{Flags: FlagEndHeaders}
	f, err := parsePushPromiseFrame(h, payload, false, true)
	require.NoError(t, err)
	require.Equal(t, uint32(42), f.PromisedStreamID)
	require.Equal(t, []byte{0x82, 0x86}, f.BlockFragment)
	require.True(t, f.EndHeaders)
}
