package reftable

import (
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnReferenceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_InternOrLookup(t *testing.T) {
	table := NewTable[string]()

	idx, isNew := table.InternOrLookup("a")
	if !isNew || idx != 0 {
		t.Fatalf("first intern: got (%d, %v), want (0, true)", idx, isNew)
	}

	idx, isNew = table.InternOrLookup("b")
	if !isNew || idx != 1 {
		t.Fatalf("second intern: got (%d, %v), want (1, true)", idx, isNew)
	}

	idx, isNew = table.InternOrLookup("a")
	if isNew || idx != 0 {
		t.Fatalf("repeat intern: got (%d, %v), want (0, false)", idx, isNew)
	}

	if table.Len() != 2 {
		t.Fatalf("Expected Len() == 2, got %d", table.Len())
	}
}

func TestTable_Next(t *testing.T) {
	table := NewTable[int]()
	table.InternOrLookup(7)

	if idx := table.Next(); idx != 1 {
		t.Fatalf("Next: got %d, want 1", idx)
	}
	idx, isNew := table.InternOrLookup(8)
	if !isNew || idx != 2 {
		t.Fatalf("intern after Next: got (%d, %v), want (2, true)", idx, isNew)
	}
}

func TestTable_Reset(t *testing.T) {
	table := NewTable[string]()
	table.InternOrLookup("a")
	table.Next()
	table.Reset()

	if table.Len() != 0 {
		t.Fatalf("Expected Len() == 0 after Reset, got %d", table.Len())
	}
	if _, ok := table.Lookup("a"); ok {
		t.Fatal("Lookup should fail after Reset")
	}
	idx, isNew := table.InternOrLookup("a")
	if !isNew || idx != 0 {
		t.Fatalf("intern after Reset: got (%d, %v), want (0, true)", idx, isNew)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable[string]()
	obs := &testObserver{}
	table.Subscribe(obs)

	table.InternOrLookup("x")
	table.InternOrLookup("x")
	table.Next()

	if len(obs.events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(obs.events))
	}
	want := []EventType{EventAssigned, EventLinked, EventAssigned}
	for i, e := range obs.events {
		if e.Type != want[i] {
			t.Errorf("event %d: got %v, want %v", i, e.Type, want[i])
		}
	}
	if obs.events[1].Key != "x" || obs.events[1].Index != 0 {
		t.Errorf("linked event: got %+v", obs.events[1])
	}
	if obs.events[2].Key != nil {
		t.Errorf("anonymous index should carry no key, got %v", obs.events[2].Key)
	}

	table.Unsubscribe(obs)
	table.InternOrLookup("y")
	if len(obs.events) != 3 {
		t.Fatal("Unsubscribed observer should not receive events")
	}
}

func TestSlots_Lifecycle(t *testing.T) {
	s := NewSlots()

	if _, state := s.Lookup(0); state != Missing {
		t.Fatalf("empty table: got %v, want missing", state)
	}

	idx := s.Reserve()
	if idx != 0 {
		t.Fatalf("Reserve: got %d, want 0", idx)
	}
	if _, state := s.Lookup(idx); state != Pending {
		t.Fatalf("reserved slot: got %v, want pending", state)
	}

	if !s.Fill(idx, "shell") {
		t.Fatal("Fill of reserved slot failed")
	}
	v, state := s.Lookup(idx)
	if state != Ready || v != "shell" {
		t.Fatalf("filled slot: got (%v, %v), want (shell, ready)", v, state)
	}

	// Replace placeholder
	s.Fill(idx, "rebuilt")
	if v, _ := s.Lookup(idx); v != "rebuilt" {
		t.Fatalf("refill: got %v, want rebuilt", v)
	}

	if s.Fill(5, "x") {
		t.Fatal("Fill of unreserved slot should fail")
	}
}

func TestSlots_NilIsReady(t *testing.T) {
	s := NewSlots()
	idx := s.Reserve()
	s.Fill(idx, nil)
	if _, state := s.Lookup(idx); state != Ready {
		t.Fatalf("nil value: got %v, want ready", state)
	}
}

func TestSlots_Observer(t *testing.T) {
	s := NewSlots()
	obs := &testObserver{}
	s.Subscribe(obs)

	idx := s.Reserve()
	s.Lookup(idx) // pending, no event
	s.Fill(idx, 42)
	s.Lookup(idx)

	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventAssigned {
		t.Error("Expected EventAssigned")
	}
	if obs.events[1].Type != EventLinked || obs.events[1].Key != 42 {
		t.Errorf("Expected EventLinked with value, got %+v", obs.events[1])
	}
}

func TestSlots_Reset(t *testing.T) {
	s := NewSlots()
	s.Reserve()
	s.Reserve()
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("Expected Len() == 0 after Reset, got %d", s.Len())
	}
	if idx := s.Reserve(); idx != 0 {
		t.Fatalf("Reserve after Reset: got %d, want 0", idx)
	}
}
