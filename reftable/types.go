package reftable

// Index is a position in the shared reference index space of a stream.
type Index uint64

// EventType identifies reference table notifications.
type EventType uint8

const (
	// EventAssigned reports a new index.
	EventAssigned EventType = iota
	// EventLinked reports a back-reference to an existing index.
	EventLinked
)

func (t EventType) String() string {
	switch t {
	case EventAssigned:
		return "assigned"
	case EventLinked:
		return "linked"
	default:
		return "unknown"
	}
}

// Event represents a reference table notification.
type Event struct {
	// Key is the identity key on the encode side and the slot value on
	// the decode side. It is nil for anonymous indices.
	Key   any
	Index Index
	Type  EventType
}

// Observer receives notifications about index assignment and linking.
type Observer interface {
	OnReferenceEvent(Event)
}

// State reports the decode-side status of an index.
type State uint8

const (
	// Missing means the index was never reserved.
	Missing State = iota
	// Pending means the index is reserved but its value is not built yet.
	Pending
	// Ready means the index holds a materialized value.
	Ready
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

type subscribers struct {
	observers []Observer
}

// Subscribe adds an observer for table events.
func (s *subscribers) Subscribe(o Observer) {
	if o == nil {
		return
	}
	s.observers = append(s.observers, o)
}

// Unsubscribe removes an observer.
func (s *subscribers) Unsubscribe(o Observer) {
	for i, obs := range s.observers {
		if obs == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *subscribers) notify(e Event) {
	for _, o := range s.observers {
		o.OnReferenceEvent(e)
	}
}
