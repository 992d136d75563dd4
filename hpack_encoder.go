package h2

// hpackEncoder turns a header list into a block, keeping a dynamic
// table that mirrors what the remote decoder will build as it
// processes what we emit (RFC 7541 §4).
type hpackEncoder struct {
	table   *dynamicTable
	maxSize int // ceiling imposed by the peer's HEADER_TABLE_SIZE

	pendingSizeUpdate bool // emit a table-size-update before the next field
	huffman           HuffmanStrategy
}

func newHPACKEncoder(initialMaxSize int) *hpackEncoder {
	return &hpackEncoder{
		table:   newDynamicTable(initialMaxSize),
		maxSize: initialMaxSize,
	}
}

// SetMaxTableSize applies a new ceiling, signalled either by the peer's
// HEADER_TABLE_SIZE setting (applied as soon as the peer's SETTINGS
// frame is processed) or by the caller wanting to shrink its own
// footprint. The
// change is carried to the peer as a dynamic-table-size-update
// representation prepended to the next encoded block.
func (e *hpackEncoder) SetMaxTableSize(n int) {
	e.maxSize = n
	if e.table.maxSize > n {
		e.table.setMaxSize(n)
	}
	e.pendingSizeUpdate = true
}

// EncodeList encodes an entire header list into a new block.
func (e *hpackEncoder) EncodeList(fields []HeaderField) []byte {
	var dst []byte
	if e.pendingSizeUpdate {
		dst = appendTableSizeUpdate(dst, e.table.maxSize)
		e.pendingSizeUpdate = false
	}
	for _, hf := range fields {
		dst = e.EncodeField(dst, hf)
	}
	return dst
}

// EncodeField appends one field's representation to dst, applying the
// indexing policy below and keeping the encoder's table synchronized
// with what a compliant decoder would build from the bytes just
// emitted.
func (e *hpackEncoder) EncodeField(dst []byte, hf HeaderField) []byte {
	hf.Name = lowercaseName(hf.Name)

	if hf.Sensitive {
		return e.appendLiteral(dst, hf, 0x10, 4, 0)
	}

	fullIdx, nameIdx := e.find(hf)
	if fullIdx > 0 {
		start := len(dst)
		dst = appendVarint(dst, 7, uint64(fullIdx))
		dst[start] |= 0x80
		return dst
	}

	if e.shouldIndex(hf, nameIdx) {
		e.table.insert(hf)
		return e.appendLiteral(dst, hf, 0x40, 6, nameIdx)
	}
	return e.appendLiteral(dst, hf, 0x00, 4, nameIdx)
}

// appendLiteral appends a literal representation: tag is the fixed
// high bits identifying the representation kind, prefixBits is the
// width of its index prefix, and nameIdx is the 1-based wire index of
// a name-only match (0 if the name itself must be written as a
// string).
func (e *hpackEncoder) appendLiteral(dst []byte, hf HeaderField, tag byte, prefixBits uint8, nameIdx int) []byte {
	start := len(dst)
	if nameIdx > 0 {
		dst = appendVarint(dst, prefixBits, uint64(nameIdx))
	} else {
		dst = appendVarint(dst, prefixBits, 0)
		dst = e.appendString(dst, hf.Name)
	}
	dst[start] |= tag
	dst = e.appendString(dst, hf.Value)
	return dst
}

// find reports whether hf matches an existing table entry exactly
// (fullIdx, 1-based wire index across static+dynamic) and, failing
// that, whether its name alone matches one (nameIdx).
func (e *hpackEncoder) find(hf HeaderField) (fullIdx, nameIdx int) {
	for i, s := range staticTable {
		if s.Name == hf.Name {
			if nameIdx == 0 {
				nameIdx = i + 1
			}
			if s.Value == hf.Value {
				return i + 1, nameIdx
			}
		}
	}
	for i, d := range e.table.entries {
		wireIdx := staticTableLen + i + 1
		if d.Name == hf.Name {
			if nameIdx == 0 {
				nameIdx = wireIdx
			}
			if d.Value == hf.Value {
				return wireIdx, nameIdx
			}
		}
	}
	return 0, nameIdx
}

// shouldIndex decides whether to add hf to the dynamic table via the
// incremental-indexing representation: only when the name already has
// a static or dynamic hit, and only when the entry is small relative
// to the table, so one-off large values (e.g. long :path values) don't
// evict everything useful.
func (e *hpackEncoder) shouldIndex(hf HeaderField, nameIdx int) bool {
	if nameIdx == 0 {
		return false
	}
	return hf.Size()*8 < e.table.maxSize
}

func appendTableSizeUpdate(dst []byte, n int) []byte {
	start := len(dst)
	dst = appendVarint(dst, 5, uint64(n))
	dst[start] |= 0x20
	return dst
}

// appendString appends an RFC 7541 §5.2 string literal, choosing
// Huffman coding per the encoder's HuffmanStrategy: always, never, or
// whichever representation is shorter for this particular string.
func (e *hpackEncoder) appendString(dst []byte, s string) []byte {
	huff := false
	switch e.huffman {
	case HuffmanAlways:
		huff = true
	case HuffmanNever:
		huff = false
	default:
		huff = huffmanEncodedLen([]byte(s)) < len(s)
	}

	if huff {
		start := len(dst)
		dst = appendVarint(dst, 7, uint64(huffmanEncodedLen([]byte(s))))
		dst[start] |= 0x80
		return huffmanAppend(dst, []byte(s))
	}
	dst = appendVarint(dst, 7, uint64(len(s)))
	return append(dst, s...)
}
