package codec

import (
	"math"
	"reflect"
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/marshal/errors"
	"github.com/wippyai/marshal/reftable"
	"github.com/wippyai/marshal/registry"
	"github.com/wippyai/marshal/value"
	"github.com/wippyai/marshal/wire"
)

var (
	symbolType  = reflect.TypeFor[value.Symbol]()
	typeRefType = reflect.TypeFor[value.TypeRef]()
	mapPtrType  = reflect.TypeFor[*value.Map]()
)

// refKey is the identity surrogate of a tracked value.
type refKey struct {
	typ  reflect.Type
	ptr  unsafe.Pointer
	name string
	n    int
	kind value.Kind
}

// Encoder writes Go object graphs as streams.
type Encoder struct {
	reg  *registry.Registry
	opts Options
}

// NewEncoder creates an encoder resolving object types through reg.
func NewEncoder(reg *registry.Registry, opts Options) *Encoder {
	return &Encoder{reg: reg, opts: opts.Normalize()}
}

// Encode serializes v. The returned stream is owned by the caller.
func (e *Encoder) Encode(v any) ([]byte, error) {
	w := getWriter()
	defer putWriter(w)

	s := &encodeState{
		reg:      e.reg,
		w:        w,
		refs:     reftable.NewTable[refKey](),
		maxDepth: e.opts.MaxDepth,
	}
	s.refs.Subscribe(e.opts.Observer)

	w.Header()
	if err := s.encode(v); err != nil {
		return nil, err
	}

	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out, nil
}

type encodeState struct {
	reg      *registry.Registry
	w        *wire.Writer
	refs     *reftable.Table[refKey]
	path     pathStack
	depth    int
	maxDepth int
}

func (s *encodeState) encode(v any) error {
	switch v := v.(type) {
	case nil:
		s.w.Byte(wire.TagNull)
		return nil
	case bool:
		s.writeBool(v)
		return nil
	case int:
		s.writeInt(int64(v))
		return nil
	case int64:
		s.writeInt(v)
		return nil
	case int32:
		s.writeInt(int64(v))
		return nil
	case float64:
		s.writeFloat(v)
		return nil
	case string:
		return s.writeString(v)
	case value.Symbol:
		return s.writeSymbol(string(v))
	case value.TypeRef:
		return s.writeTypeRef(v.Name)
	case *value.Map:
		return s.writeMap(v)
	case []any:
		if v == nil {
			s.w.Byte(wire.TagNull)
			return nil
		}
		return s.writeSequence(reflect.ValueOf(v))
	case []byte:
		if v == nil {
			s.w.Byte(wire.TagNull)
			return nil
		}
		return s.writeBytes(v)
	}
	return s.encodeReflect(reflect.ValueOf(v))
}

func (s *encodeState) encodeReflect(rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Invalid:
		s.w.Byte(wire.TagNull)
		return nil

	case reflect.Interface:
		if rv.IsNil() {
			s.w.Byte(wire.TagNull)
			return nil
		}
		return s.encodeReflect(rv.Elem())

	case reflect.Pointer:
		if rv.IsNil() {
			s.w.Byte(wire.TagNull)
			return nil
		}
		if rv.Type() == mapPtrType {
			return s.writeMap((*value.Map)(rv.UnsafePointer()))
		}
		elem := rv.Type().Elem()
		if d, ok := s.reg.Lookup(elem); ok && elem.Kind() != reflect.Pointer {
			return s.writeObject(rv, d)
		}
		if elem.Kind() == reflect.Struct {
			return errors.UnknownGoType(errors.PhaseEncode, s.path.strings(), rv.Type().String())
		}
		return errors.Unsupported(errors.PhaseEncode, s.path.strings(), rv.Type().String())
	}

	t := rv.Type()
	switch t {
	case symbolType:
		return s.writeSymbol(rv.String())
	case typeRefType:
		return s.writeTypeRef(rv.Interface().(value.TypeRef).Name)
	}
	if t.PkgPath() != "" {
		if d, ok := s.reg.Lookup(t); ok {
			return s.writeObject(rv, d)
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		s.writeBool(rv.Bool())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.writeInt(rv.Int())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return errors.Overflow(errors.PhaseEncode, s.path.strings(), u, "int64")
		}
		s.writeInt(int64(u))
		return nil
	case reflect.Float32, reflect.Float64:
		s.writeFloat(rv.Float())
		return nil
	case reflect.String:
		return s.writeString(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			s.w.Byte(wire.TagNull)
			return nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return s.writeBytes(rv.Bytes())
		}
		return s.writeSequence(rv)
	case reflect.Array:
		return s.writeSequence(rv)
	case reflect.Struct:
		return errors.UnknownGoType(errors.PhaseEncode, s.path.strings(), t.String())
	}
	return errors.Unsupported(errors.PhaseEncode, s.path.strings(), t.String())
}

func (s *encodeState) writeBool(b bool) {
	s.w.Byte(wire.TagBool)
	if b {
		s.w.Byte(1)
	} else {
		s.w.Byte(0)
	}
}

func (s *encodeState) writeInt(v int64) {
	s.w.Byte(wire.TagInt)
	s.w.WriteS64(v)
}

func (s *encodeState) writeFloat(v float64) {
	s.w.Byte(wire.TagFloat)
	s.w.WriteF64(v)
}

func (s *encodeState) writeBackref(idx reftable.Index) {
	s.w.Byte(wire.TagBackref)
	s.w.WriteU64(uint64(idx))
}

func (s *encodeState) writeSymbol(name string) error {
	idx, isNew := s.refs.InternOrLookup(refKey{kind: value.KindSymbol, name: name})
	if !isNew {
		s.writeBackref(idx)
		return nil
	}
	if !utf8.ValidString(name) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Path(s.path.strings()...).
			Detail("symbol name is not valid UTF-8").
			Build()
	}
	s.w.Byte(wire.TagSymbol)
	s.w.WriteString(name)
	return nil
}

func (s *encodeState) writeString(str string) error {
	if len(str) == 0 {
		s.refs.Next()
	} else {
		key := refKey{kind: value.KindString, ptr: unsafe.Pointer(unsafe.StringData(str)), n: len(str)}
		idx, isNew := s.refs.InternOrLookup(key)
		if !isNew {
			s.writeBackref(idx)
			return nil
		}
	}
	if !utf8.ValidString(str) {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Path(s.path.strings()...).
			Detail("string is not valid UTF-8, encode it as []byte").
			Build()
	}
	s.w.Byte(wire.TagString)
	s.w.WriteString(str)
	return nil
}

func (s *encodeState) writeBytes(b []byte) error {
	if len(b) == 0 {
		s.refs.Next()
	} else {
		key := refKey{kind: value.KindBytes, ptr: unsafe.Pointer(unsafe.SliceData(b)), n: len(b)}
		idx, isNew := s.refs.InternOrLookup(key)
		if !isNew {
			s.writeBackref(idx)
			return nil
		}
	}
	s.w.Byte(wire.TagBytes)
	s.w.WriteSeq(b)
	return nil
}

func (s *encodeState) writeTypeRef(name string) error {
	if _, err := s.reg.Resolve(name); err != nil {
		return errors.UnknownType(errors.PhaseEncode, s.path.strings(), name)
	}
	s.w.Byte(wire.TagTypeRef)
	return s.writeSymbol(name)
}

func (s *encodeState) enter() error {
	s.depth++
	if s.depth > s.maxDepth {
		return errors.DepthExceeded(errors.PhaseEncode, s.path.strings(), s.maxDepth)
	}
	return nil
}

func (s *encodeState) leave() {
	s.depth--
}

// writeSequence writes a slice or array. Only non-empty slices have an
// identity; arrays are values.
func (s *encodeState) writeSequence(rv reflect.Value) error {
	n := rv.Len()
	if rv.Kind() == reflect.Slice && n > 0 {
		key := refKey{kind: value.KindSequence, typ: rv.Type(), ptr: rv.UnsafePointer(), n: n}
		idx, isNew := s.refs.InternOrLookup(key)
		if !isNew {
			s.writeBackref(idx)
			return nil
		}
	} else {
		s.refs.Next()
	}

	if err := s.enter(); err != nil {
		return err
	}
	defer s.leave()

	s.w.Byte(wire.TagSequence)
	s.w.WriteU64(uint64(n))

	if items, ok := rv.Interface().([]any); ok {
		for i, item := range items {
			s.path.pushIndex(i)
			if err := s.encode(item); err != nil {
				return err
			}
			s.path.pop()
		}
		return nil
	}
	for i := 0; i < n; i++ {
		s.path.pushIndex(i)
		if err := s.encodeReflect(rv.Index(i)); err != nil {
			return err
		}
		s.path.pop()
	}
	return nil
}

func (s *encodeState) writeMap(m *value.Map) error {
	if m == nil {
		s.w.Byte(wire.TagNull)
		return nil
	}
	idx, isNew := s.refs.InternOrLookup(refKey{kind: value.KindMapping, typ: mapPtrType, ptr: unsafe.Pointer(m)})
	if !isNew {
		s.writeBackref(idx)
		return nil
	}

	if err := s.enter(); err != nil {
		return err
	}
	defer s.leave()

	s.w.Byte(wire.TagMapping)
	s.w.WriteU64(uint64(m.Len()))

	for _, p := range m.Pairs() {
		s.path.pushKey(p.Key)
		if err := s.encode(p.Key); err != nil {
			return err
		}
		if err := s.encode(p.Value); err != nil {
			return err
		}
		s.path.pop()
	}
	return nil
}

func (s *encodeState) writeObject(rv reflect.Value, d *registry.Descriptor) error {
	if rv.Kind() == reflect.Pointer {
		key := refKey{kind: value.KindObject, typ: d.Type, ptr: rv.UnsafePointer()}
		idx, isNew := s.refs.InternOrLookup(key)
		if !isNew {
			s.writeBackref(idx)
			return nil
		}
	} else {
		s.refs.Next()
	}

	if err := s.enter(); err != nil {
		return err
	}
	defer s.leave()

	if d.HasReduce() {
		rep, err := d.Reduce(instanceFor(rv, d))
		if err != nil {
			return errors.New(errors.PhaseEncode, errors.KindHookFailed).
				Path(s.path.strings()...).
				GoType(rv.Type().String()).
				TypeName(d.Name).
				Cause(err).
				Detail("reduce failed").
				Build()
		}
		s.w.Byte(wire.TagObjectCustom)
		if err := s.writeSymbol(d.Name); err != nil {
			return err
		}
		return s.encode(rep)
	}

	sv := rv
	if sv.Kind() == reflect.Pointer {
		sv = sv.Elem()
	}
	if sv.Kind() != reflect.Struct {
		return errors.Unsupported(errors.PhaseEncode, s.path.strings(), rv.Type().String())
	}

	s.w.Byte(wire.TagObjectPlain)
	if err := s.writeSymbol(d.Name); err != nil {
		return err
	}

	fields := d.Fields()
	s.w.Byte(wire.TagMapping)
	s.w.WriteU64(uint64(len(fields)))
	for i := range fields {
		f := &fields[i]
		s.path.pushField(f.Name)
		if err := s.writeSymbol(f.Name); err != nil {
			return err
		}
		if err := s.encodeReflect(sv.Field(f.Index)); err != nil {
			return err
		}
		s.path.pop()
	}
	return nil
}

// instanceFor returns rv in the shape the constructor produces, so hooks
// always receive the registered form.
func instanceFor(rv reflect.Value, d *registry.Descriptor) any {
	switch {
	case d.Pointer() && rv.Kind() != reflect.Pointer:
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		return p.Interface()
	case !d.Pointer() && rv.Kind() == reflect.Pointer:
		return rv.Elem().Interface()
	}
	return rv.Interface()
}
