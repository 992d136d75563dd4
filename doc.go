// Package h2 implements the core of an HTTP/2 + HPACK protocol engine:
// the connection-level state machine that multiplexes bidirectional
// streams over a single byte-duplex transport, and the header
// compression codec that binds frame payloads to structured header
// lists.
//
// The package is a library, not a server: it does not open sockets,
// terminate TLS, negotiate ALPN, or define request/response types.
// Callers supply a fully-connected duplex Transport and consume or
// produce per-stream header lists and payload bytes through the
// Stream API returned by Connection.OpenStream or delivered to a
// StreamListener.
package h2
