package reftable

type slot struct {
	value any
	ready bool
}

// Slots holds decode-side values by reference index.
type Slots struct {
	subscribers
	slots []slot
}

// NewSlots creates an empty slot table.
func NewSlots() *Slots {
	return &Slots{}
}

// Reserve assigns the next index. The slot is Pending until filled.
func (s *Slots) Reserve() Index {
	idx := Index(len(s.slots))
	s.slots = append(s.slots, slot{})
	s.notify(Event{Type: EventAssigned, Index: idx})
	return idx
}

// Fill materializes a reserved index. Filling an index twice replaces the
// value, which lets a rebuilt object supersede its placeholder.
func (s *Slots) Fill(idx Index, v any) bool {
	if uint64(idx) >= uint64(len(s.slots)) {
		return false
	}
	s.slots[idx] = slot{value: v, ready: true}
	return true
}

// Lookup resolves a back-reference. A Ready result notifies observers
// with EventLinked.
func (s *Slots) Lookup(idx Index) (any, State) {
	if uint64(idx) >= uint64(len(s.slots)) {
		return nil, Missing
	}
	sl := s.slots[idx]
	if !sl.ready {
		return nil, Pending
	}
	s.notify(Event{Type: EventLinked, Index: idx, Key: sl.value})
	return sl.value, Ready
}

// Len returns the number of reserved indices.
func (s *Slots) Len() int {
	return len(s.slots)
}

// Reset forgets all slots. Observers stay subscribed.
func (s *Slots) Reset() {
	clear(s.slots)
	s.slots = s.slots[:0]
}
