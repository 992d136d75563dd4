package h2

import "io"

// clientPreface is the 24-octet connection preface a client must send
// before any frame (RFC 7540 §3.5).
const clientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// readPreface reads and validates the client preface from r.
func readPreface(r io.Reader) error {
	buf := make([]byte, len(clientPreface))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	if string(buf) != clientPreface {
		return connError(ProtocolError, "invalid connection preface")
	}
	return nil
}
