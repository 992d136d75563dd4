package h2

import "errors"

var (
	errUnexpectedEOF    = errors.New("h2: hpack: unexpected end of header block")
	errVarintOverflow   = errors.New("h2: hpack: integer representation overflows")
	errHuffmanPadding   = errors.New("h2: hpack: invalid huffman padding")
	errHuffmanEOS       = errors.New("h2: hpack: huffman EOS symbol in encoded string")
	errIndexOutOfRange  = errors.New("h2: hpack: header field index out of range")
	errTableSizeUpdate  = errors.New("h2: hpack: dynamic table size update must precede header fields")
	errTableSizeExceeds = errors.New("h2: hpack: dynamic table size update exceeds advertised maximum")
)
