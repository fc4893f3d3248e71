// Package marshal serializes arbitrary Go object graphs, including shared
// and cyclic references, into a compact tagged binary stream and restores
// them with identity preserved.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	marshal/             Root package with Dump, Load and the Marshaler
//	├── codec/           Graph encoder and decoder
//	├── registry/        Type name registry with reduce/rebuild hooks
//	├── reftable/        Reference index tables shared by both directions
//	├── wire/            Tags, LEB128 and stream primitives
//	├── value/           Symbol, TypeRef, ordered Map and structural Equal
//	├── inspect/         Registry-free stream disassembler
//	├── config/          TOML configuration for limits and logging
//	├── errors/          Structured error types for debugging
//	└── cmd/marshal/     Command line inspector, browser and exerciser
//
// # Quick Start
//
// Register the types that appear in the graph, then dump and load:
//
//	type Node struct {
//		Name string
//		Next *Node
//	}
//
//	_ = marshal.RegisterType("Node", func() any { return new(Node) })
//
//	n := &Node{Name: "loop"}
//	n.Next = n
//
//	data, err := marshal.Dump(n)
//	v, err := marshal.Load(data)
//	m := v.(*Node) // m.Next == m
//
// Load returns the generic representation: int64, float64, string,
// []byte, value.Symbol, []any, *value.Map, value.TypeRef and registered
// objects. LoadInto assigns the root into a typed destination:
//
//	var out Node
//	err = marshal.LoadInto(data, &out)
//
// # Custom Representations
//
// A type controls its encoded form through hooks or interfaces:
//
//	func (a *Account) MarshalGraph() (any, error)    { return []any{a.owner, a.cents}, nil }
//	func (a *Account) UnmarshalGraph(rep any) error { ... }
//
// UnmarshalGraph runs on a constructor-allocated instance, so graphs that
// refer back to the object from inside its own representation restore
// correctly.
//
// # Error Handling
//
// All errors are *errors.Error values with phase, kind, path and stream
// offset. Use errors.Is with the exported sentinels:
//
//	if errors.Is(err, merrors.ErrUnknownType) {
//		// register the missing type
//	}
package marshal
