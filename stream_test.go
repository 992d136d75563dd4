package h2

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newConnPair wires a client and server Connection together over an
// in-memory net.Pipe and starts both Serve loops, mirroring how a real
// caller would hand over an already-negotiated transport. accepted, if
// non-nil, receives every stream the server accepts.
func newConnPair(t *testing.T, accepted chan *Stream) (client, server *Connection) {
	t.Helper()
	c1, c2 := net.Pipe()

	client = NewConnection(ConnOptions{IsServer: false, Input: c1, Output: c1})
	server = NewConnection(ConnOptions{
		IsServer: true,
		Input:    c2,
		Output:   c2,
		StreamListener: func(s *Stream) StreamDecision {
			if accepted != nil {
				accepted <- s
			}
			return StreamAccept
		},
	})

	go func() { _ = server.Serve() }()
	go func() { _ = client.Serve() }()

	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func requireStream(t *testing.T, ch chan *Stream) *Stream {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream")
		return nil
	}
}

func TestStreamStateString(t *testing.T) {
	require.Equal(t, "idle", StreamIdle.String())
	require.Equal(t, "half_closed_remote", StreamHalfClosedRemote.String())
	require.Equal(t, "unknown", StreamState(99).String())
}

func TestStreamWriteHeadersRequiresNoPriorClose(t *testing.T) {
	accepted := make(chan *Stream, 1)
	client, _ := newConnPair(t, accepted)

	cs := client.OpenStream()
	require.NoError(t, cs.WriteHeaders([]HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "http"},
		{Name: ":path", Value: "/"},
		{Name: ":authority", Value: "example.com"},
	}, false))

	ss := requireStream(t, accepted)
	got, err := ss.ReadHeaders()
	require.NoError(t, err)
	require.Equal(t, "GET", got[0].Value)
}

func TestStreamWriteDataRoundTrip(t *testing.T) {
	accepted := make(chan *Stream, 1)
	client, _ := newConnPair(t, accepted)

	cs := client.OpenStream()
	require.NoError(t, cs.WriteHeaders([]HeaderField{
		{Name: ":method", Value: "POST"},
		{Name: ":scheme", Value: "http"},
		{Name: ":path", Value: "/"},
		{Name: ":authority", Value: "example.com"},
	}, false))
	ss := requireStream(t, accepted)
	_, err := ss.ReadHeaders()
	require.NoError(t, err)

	require.NoError(t, cs.WriteData([]byte("hello world"), true))

	buf := make([]byte, 64)
	var got []byte
	for {
		n, err := ss.ReadData(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got = append(got, buf[:n]...)
	}
	require.Equal(t, "hello world", string(got))
}

func TestStreamWriteDataBeforeHeadersRejected(t *testing.T) {
	client, _ := newConnPair(t, nil)
	cs := client.OpenStream()
	err := cs.WriteData([]byte("x"), false)
	require.Error(t, err)
	require.True(t, IsStreamError(err))
}

func TestStreamWriteTrailers(t *testing.T) {
	accepted := make(chan *Stream, 1)
	client, _ := newConnPair(t, accepted)

	cs := client.OpenStream()
	require.NoError(t, cs.WriteHeaders([]HeaderField{
		{Name: ":method", Value: "POST"},
		{Name: ":scheme", Value: "http"},
		{Name: ":path", Value: "/"},
		{Name: ":authority", Value: "example.com"},
	}, false))
	ss := requireStream(t, accepted)
	_, err := ss.ReadHeaders()
	require.NoError(t, err)

	require.NoError(t, cs.WriteData([]byte("body"), false))
	require.NoError(t, cs.WriteTrailers([]HeaderField{{Name: "x-checksum", Value: "abc"}}))

	buf := make([]byte, 64)
	for {
		n, err := ss.ReadData(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}
	trailers, err := ss.ReadTrailers()
	require.NoError(t, err)
	require.Equal(t, "x-checksum", trailers[0].Name)
}

func TestStreamCancelIsIdempotent(t *testing.T) {
	client, _ := newConnPair(t, nil)
	cs := client.OpenStream()
	require.NoError(t, cs.Cancel(CancelError))
	require.NoError(t, cs.Cancel(CancelError))
	require.Equal(t, StreamClosed, cs.State())
}

func TestStreamPeerCancelObservedAsReset(t *testing.T) {
	accepted := make(chan *Stream, 1)
	client, _ := newConnPair(t, accepted)

	cs := client.OpenStream()
	require.NoError(t, cs.WriteHeaders([]HeaderField{
		{Name: ":method", Value: "GET"},
		{Name: ":scheme", Value: "http"},
		{Name: ":path", Value: "/"},
		{Name: ":authority", Value: "example.com"},
	}, false))
	ss := requireStream(t, accepted)
	_, err := ss.ReadHeaders()
	require.NoError(t, err)

	require.NoError(t, ss.Cancel(CancelError))

	buf := make([]byte, 16)
	deadline := time.Now().Add(2 * time.Second)
	var readErr error
	for time.Now().Before(deadline) {
		_, readErr = cs.ReadData(buf)
		if readErr != nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Error(t, readErr)
	require.True(t, IsStreamError(readErr))
}

func TestStreamRecvDataOnIdleStreamIsConnError(t *testing.T) {
	s := newStream(1, &Connection{}, 65535, 65535)
	err := s.recvData([]byte("x"), false)
	require.Error(t, err)
	require.True(t, IsConnError(err))
}

func TestStreamRecvHeadersThenDataIsOrdinaryFlow(t *testing.T) {
	s := newStream(1, &Connection{}, 65535, 65535)
	require.NoError(t, s.recvHeaders([]HeaderField{{Name: ":status", Value: "200"}}, false))
	require.Equal(t, StreamOpen, s.State())
	require.NoError(t, s.recvData([]byte("payload"), true))
	require.Equal(t, StreamHalfClosedRemote, s.State())
}

func TestStreamFailConnUnblocksReaders(t *testing.T) {
	s := newStream(1, &Connection{}, 65535, 65535)
	done := make(chan error, 1)
	go func() {
		_, err := s.ReadHeaders()
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	s.failConn()
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("ReadHeaders did not unblock")
	}
}
