// Package reftable provides the reference index tables shared by the
// encoder and the decoder.
//
// Every tracked value in a stream (symbols, strings, bytes, sequences,
// mappings and objects) receives a sequential index the first time it is
// written. A later occurrence of the same value is written as a
// back-reference to that index, which is how shared and cyclic graphs
// survive a round trip.
//
// # Encode Side
//
// Table maps an identity key to the index assigned at first sight:
//
//	t := reftable.NewTable[key]()
//
//	idx, isNew := t.InternOrLookup(k)
//	if !isNew {
//		// write a back-reference to idx
//	}
//
// Composites without an identity (empty strings, struct values) still
// consume an index through Next so both sides stay aligned.
//
// # Decode Side
//
// Slots holds the values materialized so far. An index is reserved before
// the children of a composite are read and filled once the value exists:
//
//	s := reftable.NewSlots()
//	idx := s.Reserve()
//	s.Fill(idx, shell)
//
//	v, state := s.Lookup(idx)
//
// A back-reference to a Pending slot means the value is not constructed
// yet; a reference to a Missing slot was never assigned. Both are
// dangling references to the decoder.
//
// # Observers
//
// Both tables notify subscribed observers when indices are assigned and
// when back-references are linked:
//
//	type counter struct{ links int }
//
//	func (c *counter) OnReferenceEvent(e reftable.Event) {
//		if e.Type == reftable.EventLinked {
//			c.links++
//		}
//	}
//
// Tables are created per encode or decode call and are not safe for
// concurrent use.
package reftable
