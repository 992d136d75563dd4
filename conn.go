package h2

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// Connection is the connection-level HTTP/2 state machine: settings
// negotiation, flow control, stream dispatch, GOAWAY and PING
// handling. One Connection owns one reader goroutine (consuming
// opts.Input) and one writerScheduler goroutine (producing
// opts.Output); construction does not start either — call Serve.
type Connection struct {
	isServer bool
	opts     ConnOptions

	br *bufio.Reader
	bw *bufio.Writer

	settingsMu sync.RWMutex
	local      Settings
	remote     Settings

	dec *hpackDecoder
	enc *hpackEncoder

	connSendWindow *flowWindow
	connRecvWindow *flowWindow

	streamsMu sync.Mutex
	streams   *streamTable

	writer *writerScheduler

	goAwaySent     bool
	goAwayReceived bool
	remoteGoAway   GoAwayFrame

	// continuation tracking: while awaitingContinuation != 0, only a
	// CONTINUATION frame for that exact stream is legal; any other
	// frame is a connection-level PROTOCOL_ERROR (RFC 7540 §6.10).
	awaitingContinuation uint32
	headerAccum          []byte
	headerStreamEnd      bool
	headerIsTrailers     bool

	log Logger

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// NewConnection constructs a Connection from opts. Serve must be
// called to run the handshake and begin processing frames.
func NewConnection(opts ConnOptions) *Connection {
	local := opts.LocalSettings
	if local.HeaderTableSize == 0 {
		local.HeaderTableSize = defaultHeaderTableSize
	}
	if local.InitialWindowSize == 0 {
		local.InitialWindowSize = defaultInitialWindowSize
	}
	if local.MaxFrameSize == 0 {
		local.MaxFrameSize = defaultMaxFrameSize
	}

	c := &Connection{
		isServer:       opts.IsServer,
		opts:           opts,
		br:             bufio.NewReader(opts.Input),
		bw:             bufio.NewWriter(opts.Output),
		local:          local,
		remote:         defaultSettings(),
		dec:            newHPACKDecoder(int(local.HeaderTableSize)),
		enc:            newHPACKEncoder(int(defaultSettings().HeaderTableSize)),
		connSendWindow: newFlowWindow(defaultInitialWindowSize),
		// The connection-level window is fixed at the RFC 7540 §6.9.2
		// default and is never affected by SETTINGS_INITIAL_WINDOW_SIZE,
		// which governs only newly created streams.
		connRecvWindow: newFlowWindow(defaultInitialWindowSize),
		streams:        newStreamTable(),
		log:            opts.logger(),
		closed:         make(chan struct{}),
	}
	c.dec.maxHeaderListSize = int(opts.HeaderListSizeLimit)
	c.enc.huffman = opts.HuffmanStrategy
	c.writer = newWriterScheduler(c.bw, c.enc, c)
	return c
}

// Serve runs the preface/SETTINGS handshake and then the reader loop
// until the connection terminates. It blocks until then.
func (c *Connection) Serve() error {
	go c.writer.run()

	if c.isServer {
		if err := readPreface(c.br); err != nil {
			c.shutdown(err)
			return err
		}
	} else {
		if _, err := c.bw.WriteString(clientPreface); err != nil {
			c.shutdown(err)
			return err
		}
	}

	if err := c.writer.enqueueControl(appendSettingsFrame(nil, c.localSettingsEntries())); err != nil {
		c.shutdown(err)
		return err
	}

	err := c.readLoop()
	c.shutdown(err)
	return err
}

func (c *Connection) localSettingsEntries() map[uint16]uint32 {
	d := defaultSettings()
	entries := map[uint16]uint32{}
	if c.local.HeaderTableSize != d.HeaderTableSize {
		entries[SettingHeaderTableSize] = c.local.HeaderTableSize
	}
	if c.local.InitialWindowSize != d.InitialWindowSize {
		entries[SettingInitialWindowSize] = c.local.InitialWindowSize
	}
	if c.local.MaxFrameSize != d.MaxFrameSize {
		entries[SettingMaxFrameSize] = c.local.MaxFrameSize
	}
	if c.local.hasMaxConcurrentStreams || c.local.MaxConcurrentStreams != 0 {
		entries[SettingMaxConcurrentStreams] = c.local.MaxConcurrentStreams
	}
	if c.local.hasMaxHeaderListSize || c.local.MaxHeaderListSize != 0 {
		entries[SettingMaxHeaderListSize] = c.local.MaxHeaderListSize
	}
	if !c.local.EnablePush {
		entries[SettingEnablePush] = 0
	}
	return entries
}

// readLoop is the connection's single reader goroutine: reads one
// frame at a time and dispatches it.
func (c *Connection) readLoop() error {
	for {
		h, payload, err := readFrame(c.br, c.local.MaxFrameSize)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if IsConnError(err) {
				c.sendConnError(err)
			}
			return err
		}

		if c.awaitingContinuation != 0 {
			if h.Type != FrameContinuation || h.Stream != c.awaitingContinuation {
				err := connError(ProtocolError, "expected CONTINUATION for stream %d", c.awaitingContinuation)
				c.sendConnError(err)
				return err
			}
		}

		if err := c.dispatch(*h, payload); err != nil {
			if IsConnError(err) {
				c.sendConnError(err)
				return err
			}
			c.resetStream(h.Stream, err)
		}
	}
}

// sendConnError enqueues a closing GOAWAY carrying err's code and the
// highest remote stream id processed so far (RFC 7540 §6.8), so the
// peer learns which streams were and were not acted on before the
// connection tears down.
func (c *Connection) sendConnError(err error) {
	code := asError(err, InternalError)
	c.goAwaySent = true
	if c.opts.Debug {
		c.log.Printf("sending GOAWAY last=%d code=%s: %s", c.streams.highestRemote, code, err)
	}
	_ = c.writer.enqueueControl(appendGoAwayFrame(nil, c.streams.highestRemote, code, nil))
}

func (c *Connection) dispatch(h FrameHeader, payload []byte) error {
	switch h.Type {
	case FrameSettings:
		return c.handleSettings(h, payload)
	case FramePing:
		return c.handlePing(h, payload)
	case FrameGoAway:
		return c.handleGoAway(h, payload)
	case FrameWindowUpdate:
		return c.handleWindowUpdate(h, payload)
	case FrameHeaders:
		return c.handleHeaders(h, payload)
	case FrameContinuation:
		return c.handleContinuation(h, payload)
	case FrameData:
		return c.handleData(h, payload)
	case FrameRSTStream:
		return c.handleRSTStream(h, payload)
	case FramePriority:
		_, err := parsePriorityFrame(h, payload)
		return err
	case FramePushPromise:
		_, err := parsePushPromiseFrame(h, payload, c.isServer, c.local.EnablePush)
		return err
	default:
		return nil // unknown types are ignored per RFC 7540 §4.1
	}
}

// remoteMaxFrameSize returns the peer's advertised MAX_FRAME_SIZE,
// read under settingsMu since the writer goroutine consults it
// concurrently with the reader goroutine applying SETTINGS updates.
func (c *Connection) remoteMaxFrameSize() uint32 {
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()
	return c.remote.MaxFrameSize
}

func (c *Connection) handleSettings(h FrameHeader, payload []byte) error {
	c.settingsMu.Lock()
	prevInitialWindow := c.remote.InitialWindowSize
	ack, err := parseSettingsFrame(h, payload, &c.remote)
	headerTableSize := c.remote.HeaderTableSize
	c.settingsMu.Unlock()

	if err != nil {
		return err
	}
	if ack {
		return nil
	}

	c.writer.mu.Lock()
	c.enc.SetMaxTableSize(int(headerTableSize))
	c.writer.mu.Unlock()
	if err := c.applyInitialWindowDelta(prevInitialWindow); err != nil {
		return err
	}
	return c.writer.enqueueControl(appendSettingsAck(nil))
}

// applyInitialWindowDelta adjusts every open stream's send window when
// the peer's INITIAL_WINDOW_SIZE changes (RFC 7540 §6.9.2).
func (c *Connection) applyInitialWindowDelta(prev uint32) error {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	delta := int64(c.remote.InitialWindowSize) - int64(prev)
	if delta == 0 {
		return nil
	}
	for _, s := range c.streams.streams {
		if err := s.sendWindow.adjust(delta); err != nil {
			return connError(FlowControlError, "INITIAL_WINDOW_SIZE change overflowed stream %d window", s.id)
		}
	}
	c.writer.wake()
	return nil
}

func (c *Connection) handlePing(h FrameHeader, payload []byte) error {
	data, ack, err := parsePingFrame(h, payload)
	if err != nil {
		return err
	}
	if ack {
		return nil
	}
	return c.writer.enqueueControl(appendPingFrame(nil, data, true))
}

func (c *Connection) handleGoAway(h FrameHeader, payload []byte) error {
	ga, err := parseGoAwayFrame(h, payload)
	if err != nil {
		return err
	}
	c.goAwayReceived = true
	c.remoteGoAway = ga
	if ga.Code == NoError {
		return io.EOF
	}
	return connError(ga.Code, "peer sent GOAWAY: %s", ga.Code)
}

func (c *Connection) handleWindowUpdate(h FrameHeader, payload []byte) error {
	increment, err := parseWindowUpdateFrame(h, payload)
	if err != nil {
		return err
	}
	if h.Stream == 0 {
		if err := c.connSendWindow.credit(increment); err != nil {
			return connError(FlowControlError, "connection window overflow")
		}
		c.writer.wake()
		return nil
	}

	c.streamsMu.Lock()
	s, ok := c.streams.get(h.Stream)
	c.streamsMu.Unlock()
	if !ok {
		if c.streams.wasClosed(h.Stream) {
			return nil
		}
		return connError(ProtocolError, "WINDOW_UPDATE on unknown stream %d", h.Stream)
	}
	if err := s.sendWindow.credit(increment); err != nil {
		return streamError(h.Stream, FlowControlError, "stream window overflow")
	}
	c.writer.wake()
	return nil
}

func (c *Connection) handleRSTStream(h FrameHeader, payload []byte) error {
	code, err := parseRSTStreamFrame(h, payload)
	if err != nil {
		return err
	}
	c.streamsMu.Lock()
	s, ok := c.streams.get(h.Stream)
	if ok {
		c.streams.remove(h.Stream)
	}
	c.streamsMu.Unlock()
	if ok {
		if c.opts.Debug {
			c.log.Printf("stream %d destroyed (peer RST_STREAM code=%s)", h.Stream, code)
		}
		s.recvRST(code)
	}
	return nil
}

func (c *Connection) handleHeaders(h FrameHeader, payload []byte) error {
	f, err := parseHeadersFrame(h, payload)
	if err != nil {
		return err
	}
	if h.Stream == 0 {
		return connError(ProtocolError, "HEADERS on stream 0")
	}

	c.headerAccum = append([]byte(nil), f.BlockFragment...)
	c.headerStreamEnd = f.EndStream

	s, isTrailers, err := c.streamForHeaders(h.Stream)
	if err != nil {
		return err
	}
	c.headerIsTrailers = isTrailers

	if f.EndHeaders {
		return c.finishHeaderBlock(h.Stream, s)
	}
	c.awaitingContinuation = h.Stream
	return nil
}

func (c *Connection) handleContinuation(h FrameHeader, payload []byte) error {
	f := parseContinuationFrame(h, payload)
	c.headerAccum = append(c.headerAccum, f.BlockFragment...)
	if !f.EndHeaders {
		return nil
	}

	c.awaitingContinuation = 0
	c.streamsMu.Lock()
	s, ok := c.streams.get(h.Stream)
	c.streamsMu.Unlock()
	if !ok {
		return connError(ProtocolError, "CONTINUATION for unknown stream %d", h.Stream)
	}
	return c.finishHeaderBlock(h.Stream, s)
}

// streamForHeaders finds or creates the Stream a leading HEADERS frame
// belongs to, returning whether this block is trailers on an
// already-open stream.
func (c *Connection) streamForHeaders(id uint32) (*Stream, bool, error) {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	if s, ok := c.streams.get(id); ok {
		return s, true, nil
	}
	if c.streams.wasClosed(id) {
		return nil, false, streamError(id, StreamClosedError, "HEADERS on recently-closed stream %d", id)
	}
	if c.isServer && id%2 == 0 {
		return nil, false, connError(ProtocolError, "even stream id %d is not client-initiated", id)
	}
	if !c.isServer && id%2 != 0 {
		return nil, false, connError(ProtocolError, "odd stream id %d is not server-initiated", id)
	}
	if c.goAwaySent {
		return nil, false, streamError(id, RefusedStreamError, "GOAWAY already sent")
	}

	c.streams.recordRemote(id)
	s := newStream(id, c, c.remote.InitialWindowSize, c.local.InitialWindowSize)
	c.streams.add(s)
	if c.opts.Debug {
		c.log.Printf("stream %d created (remote-initiated)", id)
	}
	return s, false, nil
}

func (c *Connection) finishHeaderBlock(id uint32, s *Stream) error {
	block := c.headerAccum
	c.headerAccum = nil
	endStream := c.headerStreamEnd
	isTrailers := c.headerIsTrailers

	fields, err := c.dec.DecodeFull(block)
	if err != nil {
		return err
	}
	if err := validateHeaderList(fields, c.isServer); err != nil {
		return err
	}

	if !isTrailers && c.opts.StreamListener != nil {
		if c.opts.StreamListener(s) == StreamRefuse {
			c.streamsMu.Lock()
			c.streams.remove(id)
			c.streamsMu.Unlock()
			if c.opts.Debug {
				c.log.Printf("stream %d destroyed (refused, sending RST_STREAM REFUSED_STREAM)", id)
			}
			return c.writer.enqueueRSTStream(id, RefusedStreamError)
		}
	}

	return s.recvHeaders(fields, endStream)
}

func (c *Connection) handleData(h FrameHeader, payload []byte) error {
	if h.Stream == 0 {
		return connError(ProtocolError, "DATA on stream 0")
	}
	f, err := parseDataFrame(h, payload)
	if err != nil {
		return err
	}

	if err := c.connRecvWindow.adjust(-int64(h.Length)); err != nil {
		return connError(FlowControlError, "connection receive window underflow")
	}

	c.streamsMu.Lock()
	s, ok := c.streams.get(h.Stream)
	c.streamsMu.Unlock()
	if !ok {
		if c.streams.wasClosed(h.Stream) {
			return streamError(h.Stream, StreamClosedError, "DATA on closed stream %d", h.Stream)
		}
		return connError(ProtocolError, "DATA on unopened stream %d", h.Stream)
	}

	if err := s.recvWindow.adjust(-int64(h.Length)); err != nil {
		return streamError(h.Stream, FlowControlError, "stream %d receive window underflow", h.Stream)
	}

	// Padding (and its length octet) is framing overhead the application
	// never sees and so never drains via ReadData; credit it back to
	// both windows immediately instead of letting it leak (RFC 7540
	// §6.9.1 counts it against the window, but nothing downstream would
	// ever return it otherwise).
	if overhead := h.Length - uint32(len(f.Data)); overhead > 0 {
		c.creditRecvWindow(s, overhead)
	}

	return s.recvData(f.Data, f.EndStream)
}

// creditRecvWindow restores n bytes of receive-window credit to both
// the stream and the connection, announcing it back to the peer with
// WINDOW_UPDATE frames. Called as the application drains buffered DATA
// via Stream.ReadData (RFC 7540 §6.9: the receiver controls its own
// window, so credit for payload bytes is only returned once consumed,
// not merely received) and immediately by handleData for DATA framing
// overhead (the pad-length octet and padding itself), which the
// application never sees and so could never otherwise drain.
func (c *Connection) creditRecvWindow(s *Stream, n uint32) {
	if n == 0 {
		return
	}
	if err := s.recvWindow.credit(n); err == nil {
		_ = c.writer.enqueueControl(appendWindowUpdateFrame(nil, s.id, n))
	}
	if err := c.connRecvWindow.credit(n); err == nil {
		_ = c.writer.enqueueControl(appendWindowUpdateFrame(nil, 0, n))
	}
}

// resetStream handles a stream-scope error surfaced from dispatch by
// closing the stream and emitting RST_STREAM; connection-scope errors
// are handled by readLoop itself.
func (c *Connection) resetStream(id uint32, err error) {
	code := asError(err, InternalError)
	c.streamsMu.Lock()
	s, ok := c.streams.get(id)
	if ok {
		c.streams.remove(id)
	}
	c.streamsMu.Unlock()
	if ok {
		s.recvRST(code)
	}
	if c.opts.Debug {
		c.log.Printf("stream %d destroyed (sending RST_STREAM code=%s): %s", id, code, err)
	}
	_ = c.writer.enqueueRSTStream(id, code)
}

// OpenStream creates and registers a new local-initiated stream,
// returning it ready for WriteHeaders. This is the client-role entry
// point; server-role streams are created internally upon inbound
// HEADERS.
func (c *Connection) OpenStream() *Stream {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()
	id := c.streams.nextLocalID(c.isServer)
	s := newStream(id, c, c.remote.InitialWindowSize, c.local.InitialWindowSize)
	c.streams.add(s)
	if c.opts.Debug {
		c.log.Printf("stream %d created (local-initiated)", id)
	}
	return s
}

// Close sends GOAWAY(NO_ERROR) and terminates the connection.
func (c *Connection) Close() error {
	c.goAwaySent = true
	if c.opts.Debug {
		c.log.Printf("sending GOAWAY last=%d code=%s: connection closing", c.streams.highestRemote, NoError)
	}
	_ = c.writer.enqueueControl(appendGoAwayFrame(nil, c.streams.highestRemote, NoError, nil))
	c.shutdown(nil)
	return nil
}

// failAll fails every open stream with err; called by the writer
// scheduler when a transport write fails.
func (c *Connection) failAll(err error) {
	c.streamsMu.Lock()
	streams := make([]*Stream, 0, len(c.streams.streams))
	for _, s := range c.streams.streams {
		streams = append(streams, s)
	}
	c.streamsMu.Unlock()
	for _, s := range streams {
		s.failConn()
	}
}

func (c *Connection) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		close(c.closed)
		c.writer.close()
		// Give the writer goroutine a bounded chance to flush whatever
		// was already queued (a closing GOAWAY, a final RST_STREAM)
		// before the transport goes away underneath it.
		select {
		case <-c.writer.done:
		case <-time.After(2 * time.Second):
		}
		c.failAll(err)
		_ = c.opts.Input.Close()
		_ = c.opts.Output.Close()
	})
}
