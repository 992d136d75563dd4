package h2

import "sync"

// StreamState is a node in the RFC 7540 §5.1 stream lifecycle.
type StreamState int8

const (
	StreamIdle StreamState = iota
	StreamReservedLocal
	StreamReservedRemote
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamReservedLocal:
		return "reserved_local"
	case StreamReservedRemote:
		return "reserved_remote"
	case StreamOpen:
		return "open"
	case StreamHalfClosedLocal:
		return "half_closed_local"
	case StreamHalfClosedRemote:
		return "half_closed_remote"
	case StreamClosed:
		return "closed"
	}
	return "unknown"
}

// dataChunk is one inbound DATA payload queued for the application to
// consume via ReadData. Receive-window credit is returned per byte as
// ReadData copies it out.
type dataChunk struct {
	b []byte
}

// Stream is one HTTP/2 stream multiplexed over a Connection. All
// mutable fields are guarded by mu; the reader and writer goroutines
// of the owning Connection, plus any number of application goroutines
// calling the public methods, may touch a Stream concurrently.
type Stream struct {
	id   uint32
	conn *Connection

	mu    sync.Mutex
	cond  *sync.Cond
	state StreamState

	sendWindow *flowWindow
	recvWindow *flowWindow

	headers     []HeaderField
	trailers    []HeaderField
	gotHeaders  bool
	gotTrailers bool
	pending     []dataChunk
	pendingLen  int

	recvEndStream bool
	sentEndStream bool

	resetCode   ErrorCode
	wasReset    bool
	localReset  bool
	connClosed  bool
	headersSent bool
}

func newStream(id uint32, conn *Connection, initialSendWindow, initialRecvWindow uint32) *Stream {
	s := &Stream{
		id:         id,
		conn:       conn,
		state:      StreamIdle,
		sendWindow: newFlowWindow(initialSendWindow),
		recvWindow: newFlowWindow(initialRecvWindow),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// ID returns the stream's identifier.
func (s *Stream) ID() uint32 { return s.id }

func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// isClosedLocked reports terminal state; caller must hold mu.
func (s *Stream) isClosedLocked() bool { return s.state == StreamClosed }

// recvHeaders transitions on an inbound HEADERS/CONTINUATION-complete
// block: the leading header list if gotHeaders is still false,
// trailers otherwise. Called by the connection's reader goroutine.
func (s *Stream) recvHeaders(fields []HeaderField, endStream bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosedLocked() {
		return streamError(s.id, StreamClosedError, "HEADERS on closed stream %d", s.id)
	}

	switch s.state {
	case StreamIdle:
		s.state = StreamOpen
	case StreamReservedRemote:
		s.state = StreamOpen
	}

	if !s.gotHeaders {
		s.gotHeaders = true
		s.headers = fields
	} else {
		s.gotTrailers = true
		s.trailers = fields
	}

	if endStream {
		s.applyRecvEndStreamLocked()
	}
	s.cond.Broadcast()
	return nil
}

// recvData appends an inbound DATA payload (the caller has already
// debited both the connection and the stream receive windows),
// enforcing that data only arrives on an open/half-closed-local
// stream.
func (s *Stream) recvData(data []byte, endStream bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StreamOpen && s.state != StreamHalfClosedLocal {
		if s.state == StreamHalfClosedRemote || s.state == StreamClosed {
			return streamError(s.id, StreamClosedError, "DATA after end-of-stream on stream %d", s.id)
		}
		return connError(ProtocolError, "DATA on stream %d in state %s", s.id, s.state)
	}

	if len(data) > 0 {
		s.pending = append(s.pending, dataChunk{b: data})
		s.pendingLen += len(data)
	}
	if endStream {
		s.applyRecvEndStreamLocked()
	}
	s.cond.Broadcast()
	return nil
}

// applyRecvEndStreamLocked marks the remote direction closed; caller
// holds mu.
func (s *Stream) applyRecvEndStreamLocked() {
	s.recvEndStream = true
	switch s.state {
	case StreamOpen:
		s.state = StreamHalfClosedRemote
	case StreamHalfClosedLocal:
		s.state = StreamClosed
	}
}

// applySendEndStreamLocked marks the local direction closed; caller
// holds mu.
func (s *Stream) applySendEndStreamLocked() {
	s.sentEndStream = true
	switch s.state {
	case StreamOpen:
		s.state = StreamHalfClosedLocal
	case StreamHalfClosedRemote:
		s.state = StreamClosed
	}
}

// recvRST marks the stream reset by the peer.
func (s *Stream) recvRST(code ErrorCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wasReset = true
	s.resetCode = code
	s.state = StreamClosed
	s.cond.Broadcast()
}

// failConn marks the stream as failed because the owning connection is
// shutting down; pending reads/writes unblock with a connection error.
func (s *Stream) failConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connClosed = true
	s.state = StreamClosed
	s.cond.Broadcast()
}

// ReadHeaders blocks until the stream's leading header list has
// arrived, or the stream terminates first.
func (s *Stream) ReadHeaders() ([]HeaderField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.gotHeaders {
		if err := s.terminalErrLocked(); err != nil {
			return nil, err
		}
		s.cond.Wait()
	}
	return s.headers, nil
}

// ReadData copies up to len(buf) bytes of buffered payload into buf,
// returning the number of bytes read. A zero-byte, nil-error result
// means end-of-stream was reached cleanly.
func (s *Stream) ReadData(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) == 0 {
		if s.recvEndStream {
			return 0, nil
		}
		if err := s.terminalErrLocked(); err != nil {
			return 0, err
		}
		s.cond.Wait()
	}

	chunk := &s.pending[0]
	n := copy(buf, chunk.b)
	chunk.b = chunk.b[n:]
	s.pendingLen -= n
	if len(chunk.b) == 0 {
		s.pending = s.pending[1:]
	}
	s.mu.Unlock()
	s.conn.creditRecvWindow(s, uint32(n))
	s.mu.Lock()
	return n, nil
}

// ReadTrailers blocks until end-of-stream has been observed and
// returns any trailing header list (nil if none were sent).
func (s *Stream) ReadTrailers() ([]HeaderField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.recvEndStream {
		if err := s.terminalErrLocked(); err != nil {
			return nil, err
		}
		s.cond.Wait()
	}
	return s.trailers, nil
}

func (s *Stream) terminalErrLocked() error {
	if s.wasReset {
		return streamError(s.id, s.resetCode, "stream %d reset", s.id)
	}
	if s.connClosed {
		return connError(InternalError, "connection closed")
	}
	return nil
}

// WriteHeaders enqueues the stream's leading (or trailing) header
// list onto the connection's writer. It is mandatory as the stream's
// first write.
func (s *Stream) WriteHeaders(fields []HeaderField, endStream bool) error {
	s.mu.Lock()
	if s.isClosedLocked() {
		s.mu.Unlock()
		return streamError(s.id, StreamClosedError, "WriteHeaders on closed stream %d", s.id)
	}
	isRequest := !s.conn.isServer
	s.mu.Unlock()

	if err := validateHeaderList(fields, isRequest); err != nil {
		return err
	}

	s.mu.Lock()
	s.headersSent = true
	if endStream {
		s.applySendEndStreamLocked()
	} else if s.state == StreamIdle {
		s.state = StreamOpen
	}
	s.mu.Unlock()

	return s.conn.writer.enqueueHeaders(s, fields, endStream)
}

// WriteData enqueues len(buf) bytes of payload, legal only once
// headers have gone out.
func (s *Stream) WriteData(buf []byte, endStream bool) error {
	s.mu.Lock()
	if !s.headersSent {
		s.mu.Unlock()
		return streamError(s.id, ProtocolError, "WriteData before WriteHeaders on stream %d", s.id)
	}
	if s.sentEndStream {
		s.mu.Unlock()
		return streamError(s.id, StreamClosedError, "WriteData after end-stream on stream %d", s.id)
	}
	if endStream {
		s.applySendEndStreamLocked()
	}
	s.mu.Unlock()

	return s.conn.writer.enqueueData(s, buf, endStream)
}

// WriteTrailers enqueues a trailing header list and implies end_stream.
func (s *Stream) WriteTrailers(fields []HeaderField) error {
	s.mu.Lock()
	if !s.headersSent {
		s.mu.Unlock()
		return streamError(s.id, ProtocolError, "WriteTrailers before any headers on stream %d", s.id)
	}
	s.mu.Unlock()
	return s.WriteHeaders(fields, true)
}

// Cancel enqueues RST_STREAM with code if the stream is not already
// closed, and transitions it to Closed. Idempotent.
func (s *Stream) Cancel(code ErrorCode) error {
	s.mu.Lock()
	if s.isClosedLocked() {
		s.mu.Unlock()
		return nil
	}
	s.localReset = true
	s.state = StreamClosed
	s.mu.Unlock()
	s.cond.Broadcast()
	return s.conn.writer.enqueueRSTStream(s.id, code)
}

// Dispose cancels the stream with CANCEL, per the contract that
// disposal implies Cancel(CANCEL).
func (s *Stream) Dispose() error {
	return s.Cancel(CancelError)
}
