package h2

// HeaderField is a single (name, value) pair flowing through HPACK and
// the header-validation layer. Names are expected lowercase; Sensitive
// marks a field the encoder must never place in the dynamic table,
// using the literal-never-indexed representation instead.
type HeaderField struct {
	Name      string
	Value     string
	Sensitive bool
}

// Size is the RFC 7541 §4.1 accounting size of the field: name length
// plus value length plus 32 bytes of per-entry overhead.
func (hf HeaderField) Size() int {
	return len(hf.Name) + len(hf.Value) + 32
}

// IsPseudo reports whether the field is a pseudo-header (name begins
// with ':').
func (hf HeaderField) IsPseudo() bool {
	return len(hf.Name) > 0 && hf.Name[0] == ':'
}
