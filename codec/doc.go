// Package codec implements the object graph encoder and decoder.
//
// The encoder walks a Go value depth first. Primitives are written inline;
// strings, bytes, symbols, sequences, mappings and objects are assigned a
// reference index on first sight and written as back-references after
// that. Shared substructure is therefore written once, and cycles
// terminate at the back-reference to the value under construction.
//
//	reg := registry.New()
//	_ = registry.RegisterType[Node](reg, "Node")
//
//	n := &Node{Name: "root"}
//	n.Self = n
//
//	data, err := codec.NewEncoder(reg, codec.DefaultOptions()).Encode(n)
//	v, err := codec.NewDecoder(reg, codec.DefaultOptions()).Decode(data)
//	m := v.(*Node) // m.Self == m
//
// # Decoded Representation
//
// Decode returns int64, float64, string, []byte, value.Symbol, []any,
// *value.Map, value.TypeRef and registered objects. Sequences are
// allocated at full length and filled in place, so a sequence that
// contains itself decodes to a slice whose element shares its backing
// array. Plain objects come from the registered constructor and are filled
// field by field with range checks on numeric fields.
//
// # Limits
//
// Options bounds nesting depth, string length and element counts. Counts
// that cannot fit in the remaining input fail before allocation.
//
// Encoders and decoders hold no per-call state and are safe for
// concurrent use.
package codec
