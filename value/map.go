package value

import (
	"math"
	"reflect"
)

// Pair is one key/value entry of a Map.
type Pair struct {
	Key   any
	Value any
}

// Map is an ordered key/value mapping. Iteration order is insertion
// order. Keys are compared by structural equality, so Int(1) stored as an
// int and looked up as an int64 is the same key.
//
// A Map has pointer identity: two references to the same *Map are one
// object in an encoded stream.
type Map struct {
	pairs []Pair
	index map[any]int // hashable keys only
}

// NewMap returns an empty map with room for capacity pairs.
func NewMap(capacity int) *Map {
	return &Map{
		pairs: make([]Pair, 0, capacity),
	}
}

// MapOf builds a map from alternating keys and values. A trailing key
// without a value maps to nil.
func MapOf(kv ...any) *Map {
	m := NewMap((len(kv) + 1) / 2)
	for i := 0; i < len(kv); i += 2 {
		var v any
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		m.Set(kv[i], v)
	}
	return m
}

// Len returns the number of pairs.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Set stores v under k, replacing the value of an equal key in place.
func (m *Map) Set(k, v any) {
	if i, ok := m.find(k); ok {
		m.pairs[i].Value = v
		return
	}
	if hk, ok := hashKey(k); ok {
		if m.index == nil {
			m.index = make(map[any]int)
		}
		m.index[hk] = len(m.pairs)
	}
	m.pairs = append(m.pairs, Pair{Key: k, Value: v})
}

// Get returns the value stored under k.
func (m *Map) Get(k any) (any, bool) {
	if m == nil {
		return nil, false
	}
	if i, ok := m.find(k); ok {
		return m.pairs[i].Value, true
	}
	return nil, false
}

// Delete removes k and reports whether it was present.
func (m *Map) Delete(k any) bool {
	i, ok := m.find(k)
	if !ok {
		return false
	}
	m.pairs = append(m.pairs[:i], m.pairs[i+1:]...)
	m.reindex()
	return true
}

// Pairs returns the pairs in order. The slice is shared with the map and
// must not be modified.
func (m *Map) Pairs() []Pair {
	if m == nil {
		return nil
	}
	return m.pairs
}

// Keys returns the keys in order.
func (m *Map) Keys() []any {
	keys := make([]any, m.Len())
	for i, p := range m.Pairs() {
		keys[i] = p.Key
	}
	return keys
}

// Range calls fn for each pair in order until fn returns false.
func (m *Map) Range(fn func(k, v any) bool) {
	for _, p := range m.Pairs() {
		if !fn(p.Key, p.Value) {
			return
		}
	}
}

func (m *Map) find(k any) (int, bool) {
	if hk, ok := hashKey(k); ok {
		i, found := m.index[hk]
		return i, found
	}
	for i, p := range m.pairs {
		if _, hashable := hashKey(p.Key); hashable {
			continue
		}
		if Equal(p.Key, k) {
			return i, true
		}
	}
	return 0, false
}

func (m *Map) reindex() {
	m.index = nil
	for i, p := range m.pairs {
		if hk, ok := hashKey(p.Key); ok {
			if m.index == nil {
				m.index = make(map[any]int)
			}
			m.index[hk] = i
		}
	}
}

type nullKey struct{}

// hashKey normalizes primitive keys so that structurally equal keys hash
// alike. Composite keys and NaN are not hashable and fall back to a scan.
func hashKey(k any) (any, bool) {
	switch x := k.(type) {
	case nil:
		return nullKey{}, true
	case bool, string, Symbol, TypeRef:
		return x, true
	case int:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		if math.IsNaN(x) {
			return nil, false
		}
		return x, true
	}

	rv := reflect.ValueOf(k)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return u, true
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) {
			return nil, false
		}
		return f, true
	case reflect.String:
		if rv.Type() == symbolType {
			return Symbol(rv.String()), true
		}
		return rv.String(), true
	case reflect.Bool:
		return rv.Bool(), true
	}
	return nil, false
}
