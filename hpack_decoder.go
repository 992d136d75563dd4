package h2

// hpackDecoder turns a concatenated header block into a header list,
// owning one dynamic table per RFC 7541 §2.2 (one per direction; the
// connection owns an encoder for the direction it sends and a decoder
// for the direction it receives). It implements all five representation
// types RFC 7541 §6 defines, including the dynamic table size update.
type hpackDecoder struct {
	table *dynamicTable

	// peerMaxTableSize is the most recent HEADER_TABLE_SIZE the local
	// side has advertised to the peer; a table-size-update in the
	// block must not exceed it (RFC 7541 §6.3).
	peerMaxTableSize int

	maxHeaderListSize int // 0 == unlimited
}

func newHPACKDecoder(initialMaxTableSize int) *hpackDecoder {
	return &hpackDecoder{
		table:            newDynamicTable(initialMaxTableSize),
		peerMaxTableSize: initialMaxTableSize,
	}
}

// setMaxTableSize updates the ceiling the decoder enforces against
// in-block size updates, called when the local side's own
// HEADER_TABLE_SIZE setting changes.
func (d *hpackDecoder) setMaxTableSize(n int) {
	d.peerMaxTableSize = n
	if d.table.maxSize > n {
		d.table.setMaxSize(n)
	}
}

// DecodeFull decodes an entire header block into a header list,
// enforcing maxHeaderListSize if non-zero. Table-size-update
// representations, if present, must be the leading representations in
// the block (RFC 7541 §4.2).
func (d *hpackDecoder) DecodeFull(block []byte) ([]HeaderField, error) {
	var out []HeaderField
	total := 0
	seenHeader := false

	for len(block) > 0 {
		var hf HeaderField
		var isSizeUpdate bool
		var err error

		block, hf, isSizeUpdate, err = d.next(block)
		if err != nil {
			return nil, err
		}

		if isSizeUpdate {
			if seenHeader {
				return nil, connError(CompressionError, "%v", errTableSizeUpdate)
			}
			continue
		}

		seenHeader = true
		total += hf.Size()
		if d.maxHeaderListSize > 0 && total > d.maxHeaderListSize {
			return nil, streamError(0, EnhanceYourCalm, "header list exceeds MAX_HEADER_LIST_SIZE")
		}

		out = append(out, hf)
	}

	return out, nil
}

// next decodes one representation from the front of b.
func (d *hpackDecoder) next(b []byte) (rest []byte, hf HeaderField, isSizeUpdate bool, err error) {
	if len(b) == 0 {
		return b, hf, false, errUnexpectedEOF
	}

	c := b[0]
	switch {
	case c&0x80 != 0: // 1xxxxxxx: indexed header field
		var idx uint64
		b, idx, err = readVarint(7, b)
		if err != nil {
			return b, hf, false, connError(CompressionError, "%v", err)
		}
		if idx == 0 {
			return b, hf, false, connError(CompressionError, "%v", errIndexOutOfRange)
		}
		hf, err = d.lookup(idx)
		return b, hf, false, err

	case c&0xc0 == 0x40: // 01xxxxxx: literal with incremental indexing
		b, hf, err = d.readLiteral(6, b)
		if err == nil {
			d.table.insert(hf)
		}
		return b, hf, false, err

	case c&0xe0 == 0x20: // 001xxxxx: dynamic table size update
		var n uint64
		b, n, err = readVarint(5, b)
		if err != nil {
			return b, hf, false, connError(CompressionError, "%v", err)
		}
		if int(n) > d.peerMaxTableSize {
			return b, hf, true, connError(CompressionError, "%v", errTableSizeExceeds)
		}
		d.table.setMaxSize(int(n))
		return b, hf, true, nil

	case c&0xf0 == 0x10: // 0001xxxx: literal never indexed
		b, hf, err = d.readLiteral(4, b)
		hf.Sensitive = true
		return b, hf, false, err

	default: // c&0xf0 == 0x00: 0000xxxx: literal without indexing
		b, hf, err = d.readLiteral(4, b)
		return b, hf, false, err
	}
}

func (d *hpackDecoder) lookup(idx uint64) (HeaderField, error) {
	if idx <= uint64(staticTableLen) {
		return staticTable[idx-1], nil
	}
	hf, ok := d.table.at(int(idx) - staticTableLen)
	if !ok {
		return HeaderField{}, connError(CompressionError, "%v", errIndexOutOfRange)
	}
	return hf, nil
}

// readLiteral decodes a literal representation (name possibly indexed,
// value always a string literal) whose index prefix is n bits wide.
func (d *hpackDecoder) readLiteral(n uint8, b []byte) (rest []byte, hf HeaderField, err error) {
	var idx uint64
	b, idx, err = readVarint(n, b)
	if err != nil {
		return b, hf, connError(CompressionError, "%v", err)
	}

	if idx == 0 {
		var name []byte
		b, name, err = d.readString(b)
		if err != nil {
			return b, hf, err
		}
		hf.Name = string(name)
	} else {
		existing, lerr := d.lookup(idx)
		if lerr != nil {
			return b, hf, lerr
		}
		hf.Name = existing.Name
	}

	var value []byte
	b, value, err = d.readString(b)
	if err != nil {
		return b, hf, err
	}
	hf.Value = string(value)

	return b, hf, nil
}

// readString decodes an RFC 7541 §5.2 string literal from the front of
// b, Huffman-decoding it if H==1.
func (d *hpackDecoder) readString(b []byte) (rest []byte, value []byte, err error) {
	if len(b) == 0 {
		return b, nil, errUnexpectedEOF
	}

	huff := b[0]&0x80 != 0
	var length uint64
	b, length, err = readVarint(7, b)
	if err != nil {
		return b, nil, connError(CompressionError, "%v", err)
	}
	if uint64(len(b)) < length {
		return b, nil, connError(CompressionError, "%v", errUnexpectedEOF)
	}

	raw := b[:length]
	b = b[length:]

	if !huff {
		return b, append([]byte(nil), raw...), nil
	}

	value, err = huffmanDecode(nil, raw)
	if err != nil {
		return b, nil, connError(CompressionError, "%v", err)
	}
	return b, value, nil
}
