package h2

import (
	"errors"
	"fmt"
)

// ErrorCode is one of the HTTP/2 error codes defined by RFC 7540 §7.
type ErrorCode uint32

// Error codes (https://httpwg.org/specs/rfc7540.html#ErrorCodes).
const (
	NoError            ErrorCode = 0x0
	ProtocolError      ErrorCode = 0x1
	InternalError      ErrorCode = 0x2
	FlowControlError   ErrorCode = 0x3
	SettingsTimeout    ErrorCode = 0x4
	StreamClosedError  ErrorCode = 0x5
	FrameSizeError     ErrorCode = 0x6
	RefusedStreamError ErrorCode = 0x7
	CancelError        ErrorCode = 0x8
	CompressionError   ErrorCode = 0x9
	ConnectError       ErrorCode = 0xa
	EnhanceYourCalm    ErrorCode = 0xb
	InadequateSecurity ErrorCode = 0xc
	HTTP11Required     ErrorCode = 0xd
)

var errorCodeNames = [...]string{
	"NO_ERROR", "PROTOCOL_ERROR", "INTERNAL_ERROR", "FLOW_CONTROL_ERROR",
	"SETTINGS_TIMEOUT", "STREAM_CLOSED", "FRAME_SIZE_ERROR", "REFUSED_STREAM",
	"CANCEL", "COMPRESSION_ERROR", "CONNECT_ERROR", "ENHANCE_YOUR_CALM",
	"INADEQUATE_SECURITY", "HTTP_1_1_REQUIRED",
}

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return fmt.Sprintf("UNKNOWN_ERROR(0x%x)", uint32(c))
}

// scope distinguishes whether a fault should be surfaced as a
// connection-level GOAWAY or a stream-level RST_STREAM.
type scope uint8

const (
	scopeStream scope = iota
	scopeConnection
)

// Error is the error type raised internally for every protocol fault.
// It carries the error code to put on the wire and whether the fault
// is connection-fatal (GOAWAY) or confined to one stream (RST_STREAM).
type Error struct {
	Code    ErrorCode
	Scope   scope
	Stream  uint32
	Message string
}

func (e *Error) Error() string {
	if e.Scope == scopeConnection {
		return fmt.Sprintf("h2: connection error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("h2: stream %d error %s: %s", e.Stream, e.Code, e.Message)
}

// connError reports a fault handled by emitting GOAWAY and closing the
// connection: the default for compression and framing faults, which
// leave the HPACK dynamic table (and so every later stream) unreliable.
func connError(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Scope: scopeConnection, Message: fmt.Sprintf(format, args...)}
}

// streamError reports a fault confined to one stream, handled by
// emitting RST_STREAM and keeping the connection open.
func streamError(stream uint32, code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Scope: scopeStream, Stream: stream, Message: fmt.Sprintf(format, args...)}
}

// IsConnError reports whether err (or any error it wraps) is a
// connection-scope *Error.
func IsConnError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Scope == scopeConnection
}

// IsStreamError reports whether err (or any error it wraps) is a
// stream-scope *Error.
func IsStreamError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Scope == scopeStream
}

// asError returns the ErrorCode of the *Error in err (or in any error it
// wraps), falling back to code when there is none.
func asError(err error, code ErrorCode) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return code
}
