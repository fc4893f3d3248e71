package value

import (
	"bytes"
	"math"
	"reflect"
)

// Equal reports whether a and b are structurally equal in the value
// model: same primitive values, same container contents in the same
// order, same object types with equal fields. All integer kinds compare
// as Int and all float kinds as Float; NaN equals NaN. Unexported struct
// fields take part in the comparison. Cycles are handled: a pair of
// containers already being compared is assumed equal.
func Equal(a, b any) bool {
	c := comparer{seen: make(map[visit]bool)}
	return c.equal(reflect.ValueOf(a), reflect.ValueOf(b))
}

type visit struct {
	a, b uintptr
	n    int
	typ  reflect.Type
}

type comparer struct {
	seen map[visit]bool
}

func (c *comparer) equal(a, b reflect.Value) bool {
	a, b = unwrap(a), unwrap(b)
	ka, kb := kindOfValue(a), kindOfValue(b)
	if ka != kb {
		return false
	}

	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.Bool() == b.Bool()
	case KindInt:
		return intEqual(a, b)
	case KindFloat:
		fa, fb := a.Float(), b.Float()
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	case KindString, KindSymbol:
		return a.String() == b.String()
	case KindBytes:
		return bytes.Equal(a.Bytes(), b.Bytes())
	case KindTypeRef:
		return a.Field(0).String() == b.Field(0).String()
	case KindSequence:
		return c.sequenceEqual(a, b)
	case KindMapping:
		return c.mapEqual(a, b)
	case KindObject:
		return c.objectEqual(a, b)
	default:
		return false
	}
}

func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func intEqual(a, b reflect.Value) bool {
	ai, aNeg, aBig := intParts(a)
	bi, bNeg, bBig := intParts(b)
	return ai == bi && aNeg == bNeg && aBig == bBig
}

// intParts splits an integer into magnitude bits and sign so signed and
// unsigned kinds compare by numeric value.
func intParts(v reflect.Value) (uint64, bool, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := v.Int()
		if i < 0 {
			return uint64(-(i + 1)), true, false
		}
		return uint64(i), false, false
	default:
		u := v.Uint()
		return u, false, u > math.MaxInt64
	}
}

// enter records a pair of containers; it reports false when the pair is
// already on the comparison path.
func (c *comparer) enter(a, b uintptr, n int, t reflect.Type) bool {
	k := visit{a: a, b: b, n: n, typ: t}
	if c.seen[k] {
		return false
	}
	c.seen[k] = true
	return true
}

func (c *comparer) sequenceEqual(a, b reflect.Value) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice && a.Len() > 0 {
		if !c.enter(a.Pointer(), b.Pointer(), a.Len(), a.Type()) {
			return true
		}
	}
	for i := 0; i < a.Len(); i++ {
		if !c.equal(a.Index(i), b.Index(i)) {
			return false
		}
	}
	return true
}

func (c *comparer) mapEqual(a, b reflect.Value) bool {
	if !c.enter(a.Pointer(), b.Pointer(), 0, mapPtrType) {
		return true
	}
	ma := (*Map)(a.UnsafePointer())
	mb := (*Map)(b.UnsafePointer())
	if ma.Len() != mb.Len() {
		return false
	}
	pa, pb := ma.Pairs(), mb.Pairs()
	for i := range pa {
		if !c.equal(reflect.ValueOf(pa[i].Key), reflect.ValueOf(pb[i].Key)) {
			return false
		}
		if !c.equal(reflect.ValueOf(pa[i].Value), reflect.ValueOf(pb[i].Value)) {
			return false
		}
	}
	return true
}

func (c *comparer) objectEqual(a, b reflect.Value) bool {
	if a.Kind() == reflect.Pointer && b.Kind() == reflect.Pointer {
		if a.Pointer() == b.Pointer() {
			return a.Type() == b.Type()
		}
		if !c.enter(a.Pointer(), b.Pointer(), 0, a.Type()) {
			return true
		}
	}
	if a.Kind() == reflect.Pointer {
		a = a.Elem()
	}
	if b.Kind() == reflect.Pointer {
		b = b.Elem()
	}
	if a.Type() != b.Type() {
		return false
	}
	for i := 0; i < a.NumField(); i++ {
		if !c.equal(a.Field(i), b.Field(i)) {
			return false
		}
	}
	return true
}
