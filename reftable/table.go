package reftable

// Table assigns encode-side reference indices keyed by value identity.
type Table[K comparable] struct {
	subscribers
	index map[K]Index
	next  Index
}

// NewTable creates an empty table.
func NewTable[K comparable]() *Table[K] {
	return &Table[K]{index: make(map[K]Index)}
}

// InternOrLookup returns the index for key. The first sight of key assigns
// the next sequential index and reports isNew.
func (t *Table[K]) InternOrLookup(key K) (idx Index, isNew bool) {
	if idx, ok := t.index[key]; ok {
		t.notify(Event{Type: EventLinked, Index: idx, Key: key})
		return idx, false
	}
	idx = t.next
	t.next++
	t.index[key] = idx
	t.notify(Event{Type: EventAssigned, Index: idx, Key: key})
	return idx, true
}

// Lookup returns the index for key without assigning one.
func (t *Table[K]) Lookup(key K) (Index, bool) {
	idx, ok := t.index[key]
	return idx, ok
}

// Next consumes an index for a value that has no identity and can never
// be the target of a back-reference.
func (t *Table[K]) Next() Index {
	idx := t.next
	t.next++
	t.notify(Event{Type: EventAssigned, Index: idx})
	return idx
}

// Len returns the number of indices assigned so far.
func (t *Table[K]) Len() int {
	return int(t.next)
}

// Reset forgets all assignments. Observers stay subscribed.
func (t *Table[K]) Reset() {
	clear(t.index)
	t.next = 0
}
