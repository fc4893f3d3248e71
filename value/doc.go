// Package value defines the value model carried by a marshal stream.
//
// The model is a closed set of kinds represented by ordinary Go values,
// the way encoding/json represents JSON documents with any:
//
//	Kind       Go representation
//	─────────────────────────────────────────────
//	null       nil
//	bool       bool
//	int        any integer kind (int64 range)
//	float      float32, float64
//	string     string
//	bytes      []byte
//	symbol     Symbol
//	sequence   []any, or any slice or array
//	mapping    *Map
//	object     instance of a registered type
//	typeref    TypeRef
//
// Sequences, mappings and objects have identity. A []any backing array
// or a *Map referenced from two places is one object in a stream, and
// decodes back to one object.
package value
