package h2

// staticTable is the fixed RFC 7541 Appendix A table (indices 1..61).
var staticTable = [61]HeaderField{
	{Name: ":authority"},
	{Name: ":method", Value: "GET"},
	{Name: ":method", Value: "POST"},
	{Name: ":path", Value: "/"},
	{Name: ":path", Value: "/index.html"},
	{Name: ":scheme", Value: "http"},
	{Name: ":scheme", Value: "https"},
	{Name: ":status", Value: "200"},
	{Name: ":status", Value: "204"},
	{Name: ":status", Value: "206"},
	{Name: ":status", Value: "304"},
	{Name: ":status", Value: "400"},
	{Name: ":status", Value: "404"},
	{Name: ":status", Value: "500"},
	{Name: "accept-charset"},
	{Name: "accept-encoding", Value: "gzip, deflate"},
	{Name: "accept-language"},
	{Name: "accept-ranges"},
	{Name: "accept"},
	{Name: "access-control-allow-origin"},
	{Name: "age"},
	{Name: "allow"},
	{Name: "authorization"},
	{Name: "cache-control"},
	{Name: "content-disposition"},
	{Name: "content-encoding"},
	{Name: "content-language"},
	{Name: "content-length"},
	{Name: "content-location"},
	{Name: "content-range"},
	{Name: "content-type"},
	{Name: "cookie"},
	{Name: "date"},
	{Name: "etag"},
	{Name: "expect"},
	{Name: "expires"},
	{Name: "from"},
	{Name: "host"},
	{Name: "if-match"},
	{Name: "if-modified-since"},
	{Name: "if-none-match"},
	{Name: "if-range"},
	{Name: "if-unmodified-since"},
	{Name: "last-modified"},
	{Name: "link"},
	{Name: "location"},
	{Name: "max-forwards"},
	{Name: "proxy-authenticate"},
	{Name: "proxy-authorization"},
	{Name: "range"},
	{Name: "referer"},
	{Name: "refresh"},
	{Name: "retry-after"},
	{Name: "server"},
	{Name: "set-cookie"},
	{Name: "strict-transport-security"},
	{Name: "transfer-encoding"},
	{Name: "user-agent"},
	{Name: "vary"},
	{Name: "via"},
	{Name: "www-authenticate"},
}

const staticTableLen = len(staticTable)

// dynamicTable is HPACK's per-direction bounded FIFO of recently-seen
// header fields, newest first, per RFC 7541 §2.3.2/§4.
type dynamicTable struct {
	entries []HeaderField // entries[0] is the newest
	size    int           // current accounted size
	maxSize int           // current negotiated maximum
}

func newDynamicTable(maxSize int) *dynamicTable {
	return &dynamicTable{maxSize: maxSize}
}

// Len returns the number of entries currently retained.
func (t *dynamicTable) Len() int {
	return len(t.entries)
}

// Size returns the current accounted size (sum of entry sizes).
func (t *dynamicTable) Size() int {
	return t.size
}

// at returns the entry at dynamic index i (1-based, 1 == newest).
func (t *dynamicTable) at(i int) (HeaderField, bool) {
	if i < 1 || i > len(t.entries) {
		return HeaderField{}, false
	}
	return t.entries[i-1], true
}

// insert adds hf as the newest entry, evicting from the oldest end
// until the table fits within maxSize. If hf alone is larger than
// maxSize, the table ends up empty and hf is not stored (RFC 7541
// §4.4).
func (t *dynamicTable) insert(hf HeaderField) {
	t.evictTo(t.maxSize - hf.Size())
	if hf.Size() > t.maxSize {
		return
	}
	t.entries = append([]HeaderField{hf}, t.entries...)
	t.size += hf.Size()
}

// evictTo evicts oldest entries until size <= target.
func (t *dynamicTable) evictTo(target int) {
	for t.size > target && len(t.entries) > 0 {
		last := t.entries[len(t.entries)-1]
		t.entries = t.entries[:len(t.entries)-1]
		t.size -= last.Size()
	}
}

// setMaxSize changes the table's maximum and evicts if necessary. Used
// both for the ceiling imposed by a peer's HEADER_TABLE_SIZE setting
// and for in-block dynamic-table-size-update signals.
func (t *dynamicTable) setMaxSize(n int) {
	t.maxSize = n
	t.evictTo(n)
}
