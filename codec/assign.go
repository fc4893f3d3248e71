package codec

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/wippyai/marshal/errors"
)

// convKey identifies one decoded sequence converted to one Go type.
type convKey struct {
	typ  reflect.Type
	data unsafe.Pointer
	n    int
}

// converter assigns decoded values into typed Go values. A decoded
// sequence converted twice to the same type yields the same slice or
// pointer, so sharing survives the conversion.
type converter struct {
	path *pathStack
	seen map[convKey]reflect.Value
}

func newConverter(path *pathStack) *converter {
	return &converter{path: path}
}

// cached returns the conversion of items to t recorded earlier. Empty
// sequences carry no identity and are never cached.
func (c *converter) cached(items []any, t reflect.Type) (reflect.Value, convKey, bool) {
	if len(items) == 0 {
		return reflect.Value{}, convKey{}, false
	}
	k := convKey{typ: t, data: unsafe.Pointer(unsafe.SliceData(items)), n: len(items)}
	v, ok := c.seen[k]
	return v, k, ok
}

func (c *converter) remember(k convKey, v reflect.Value) {
	if k.n == 0 {
		return
	}
	if c.seen == nil {
		c.seen = make(map[convKey]reflect.Value)
	}
	c.seen[k] = v
}

// assign stores a decoded value into dst, converting between the decoded
// representation and the declared Go type.
func (c *converter) assign(dst reflect.Value, v any) error {
	path := c.path
	if v == nil {
		dst.SetZero()
		return nil
	}
	rv := reflect.ValueOf(v)
	dt := dst.Type()

	if rv.Type().AssignableTo(dt) {
		dst.Set(rv)
		return nil
	}

	switch dt.Kind() {
	case reflect.Bool:
		if b, ok := v.(bool); ok {
			dst.SetBool(b)
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, ok := v.(int64); ok {
			if dst.OverflowInt(n) {
				return errors.Overflow(errors.PhaseDecode, path.strings(), n, dt.String())
			}
			dst.SetInt(n)
			return nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n, ok := v.(int64); ok {
			if n < 0 || dst.OverflowUint(uint64(n)) {
				return errors.Overflow(errors.PhaseDecode, path.strings(), n, dt.String())
			}
			dst.SetUint(uint64(n))
			return nil
		}

	case reflect.Float32, reflect.Float64:
		if f, ok := v.(float64); ok {
			if dst.OverflowFloat(f) {
				return errors.Overflow(errors.PhaseDecode, path.strings(), f, dt.String())
			}
			dst.SetFloat(f)
			return nil
		}

	case reflect.String:
		if str, ok := v.(string); ok && dt != symbolType {
			dst.SetString(str)
			return nil
		}

	case reflect.Slice:
		if b, ok := v.([]byte); ok && dt.Elem().Kind() == reflect.Uint8 {
			dst.Set(reflect.ValueOf(b).Convert(dt))
			return nil
		}
		if items, ok := v.([]any); ok {
			out, k, ok := c.cached(items, dt)
			if ok {
				dst.Set(out)
				return nil
			}
			// Recorded before the elements so self-containing sequences
			// resolve to the slice being filled.
			out = reflect.MakeSlice(dt, len(items), len(items))
			c.remember(k, out)
			if err := c.assignElems(out, items); err != nil {
				return err
			}
			dst.Set(out)
			return nil
		}

	case reflect.Array:
		if items, ok := v.([]any); ok && len(items) == dt.Len() {
			out := reflect.New(dt).Elem()
			if err := c.assignElems(out, items); err != nil {
				return err
			}
			dst.Set(out)
			return nil
		}

	case reflect.Struct:
		// A plain object decodes as a pointer, copied into a value field.
		if rv.Kind() == reflect.Pointer && rv.Type().Elem() == dt && !rv.IsNil() {
			dst.Set(rv.Elem())
			return nil
		}

	case reflect.Pointer:
		if dt.Elem().Kind() != reflect.Struct {
			var k convKey
			if items, ok := v.([]any); ok {
				prev, key, hit := c.cached(items, dt)
				if hit {
					dst.Set(prev)
					return nil
				}
				k = key
			}
			p := reflect.New(dt.Elem())
			c.remember(k, p)
			if err := c.assign(p.Elem(), v); err != nil {
				return err
			}
			dst.Set(p)
			return nil
		}
	}

	return errors.TypeMismatch(errors.PhaseDecode, path.strings(), dt.String(), fmt.Sprintf("%T", v))
}

// maxAssignDepth bounds conversion of self-containing sequences into
// recursive slice types.
const maxAssignDepth = 2 * DefaultMaxDepth

func (c *converter) assignElems(out reflect.Value, items []any) error {
	if len(*c.path) > maxAssignDepth {
		return errors.DepthExceeded(errors.PhaseDecode, c.path.strings(), maxAssignDepth)
	}
	for i, item := range items {
		c.path.pushIndex(i)
		if err := c.assign(out.Index(i), item); err != nil {
			return err
		}
		c.path.pop()
	}
	return nil
}
