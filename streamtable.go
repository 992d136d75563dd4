package h2

import "container/list"

// closedStreamRetention bounds how many recently-closed stream ids a
// streamTable remembers in order to tell a late WINDOW_UPDATE, HEADERS
// or DATA for a recently-closed stream (ignored, or answered with
// STREAM_CLOSED, keeping the connection) from one for an id that never
// existed (PROTOCOL_ERROR). RFC 7540 leaves the exact duration
// unspecified; this engine uses a bounded LRU instead of a time
// window so memory use does not depend on traffic timing.
const closedStreamRetention = 128

// streamTable owns the map from stream id to *Stream for a Connection,
// plus a bounded LRU of ids that have closed recently.
type streamTable struct {
	streams map[uint32]*Stream

	closedOrder *list.List               // front = most recently closed
	closedElems map[uint32]*list.Element // id -> element in closedOrder

	highestRemote uint32 // highest remote-initiated id processed
	highestLocal  uint32 // highest local-initiated id used
}

func newStreamTable() *streamTable {
	return &streamTable{
		streams:     make(map[uint32]*Stream),
		closedOrder: list.New(),
		closedElems: make(map[uint32]*list.Element),
	}
}

func (t *streamTable) get(id uint32) (*Stream, bool) {
	s, ok := t.streams[id]
	return s, ok
}

func (t *streamTable) add(s *Stream) {
	t.streams[s.id] = s
}

// wasClosed reports whether id belongs to a retained closed-stream
// record (as opposed to an id that was never seen at all).
func (t *streamTable) wasClosed(id uint32) bool {
	_, ok := t.closedElems[id]
	return ok
}

// remove moves id from the live map into the closed LRU, evicting the
// oldest retained id if the LRU is now over capacity.
func (t *streamTable) remove(id uint32) {
	delete(t.streams, id)

	if elem, ok := t.closedElems[id]; ok {
		t.closedOrder.MoveToFront(elem)
		return
	}
	elem := t.closedOrder.PushFront(id)
	t.closedElems[id] = elem

	for t.closedOrder.Len() > closedStreamRetention {
		back := t.closedOrder.Back()
		if back == nil {
			break
		}
		t.closedOrder.Remove(back)
		delete(t.closedElems, back.Value.(uint32))
	}
}

// recordRemote updates the highest remote-initiated id processed, used
// for GOAWAY accuracy.
func (t *streamTable) recordRemote(id uint32) {
	if id > t.highestRemote {
		t.highestRemote = id
	}
}

func (t *streamTable) nextLocalID(isServer bool) uint32 {
	if t.highestLocal == 0 {
		if isServer {
			t.highestLocal = 2
		} else {
			t.highestLocal = 1
		}
		return t.highestLocal
	}
	t.highestLocal += 2
	return t.highestLocal
}
