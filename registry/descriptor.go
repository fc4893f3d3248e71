package registry

import (
	"reflect"
)

// ReduceFunc converts an instance into a serializable representation.
type ReduceFunc func(instance any) (any, error)

// RebuildFunc reconstructs an instance from its representation.
type RebuildFunc func(rep any) (any, error)

// GraphMarshaler is implemented by types that provide their own reduced
// representation.
type GraphMarshaler interface {
	MarshalGraph() (any, error)
}

// GraphUnmarshaler is implemented by types that restore themselves from a
// reduced representation. The receiver is a fresh constructor instance.
type GraphUnmarshaler interface {
	UnmarshalGraph(rep any) error
}

var (
	marshalerType   = reflect.TypeFor[GraphMarshaler]()
	unmarshalerType = reflect.TypeFor[GraphUnmarshaler]()
)

// Descriptor holds the registration of one type.
type Descriptor struct {
	// Type is the registered Go type with any pointer stripped.
	Type reflect.Type
	ctor func() any

	reduce  ReduceFunc
	rebuild RebuildFunc

	fieldIndex map[string]int
	Name       string
	fields     []Field

	marshaler   bool
	unmarshaler bool
	pointer     bool
}

// New returns a fresh instance from the constructor.
func (d *Descriptor) New() any {
	return d.ctor()
}

// Pointer reports whether the constructor returns a pointer.
func (d *Descriptor) Pointer() bool {
	return d.pointer
}

// HasReduce reports whether instances are written as custom objects.
func (d *Descriptor) HasReduce() bool {
	return d.reduce != nil || d.marshaler
}

// HasRebuild reports whether custom payloads can be read back.
func (d *Descriptor) HasRebuild() bool {
	return d.rebuild != nil || d.unmarshaler
}

// InPlace reports whether rebuilding happens on a constructor-allocated
// shell through GraphUnmarshaler.
func (d *Descriptor) InPlace() bool {
	return d.rebuild == nil && d.unmarshaler
}

// Reduce converts instance to its representation.
func (d *Descriptor) Reduce(instance any) (any, error) {
	if d.reduce != nil {
		return d.reduce(instance)
	}
	if m, ok := asMarshaler(instance); ok {
		return m.MarshalGraph()
	}
	return nil, nil
}

// Rebuild reconstructs an instance from rep using the rebuild hook.
func (d *Descriptor) Rebuild(rep any) (any, error) {
	if d.rebuild != nil {
		return d.rebuild(rep)
	}
	shell := d.New()
	if err := d.Load(shell, rep); err != nil {
		return nil, err
	}
	return shell, nil
}

// Load restores shell in place from rep. Shell must come from New.
func (d *Descriptor) Load(shell any, rep any) error {
	u, ok := shell.(GraphUnmarshaler)
	if !ok {
		return nil
	}
	return u.UnmarshalGraph(rep)
}

// Fields returns the declared field plan. Nil for non-struct types.
func (d *Descriptor) Fields() []Field {
	return d.fields
}

// Field returns the field matching name: exact, then case-insensitive.
func (d *Descriptor) Field(name string) (*Field, bool) {
	return findField(d.fields, d.fieldIndex, name)
}

func asMarshaler(v any) (GraphMarshaler, bool) {
	if m, ok := v.(GraphMarshaler); ok {
		return m, true
	}
	// Pointer receiver on a value instance
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Kind() != reflect.Pointer {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		m, ok := p.Interface().(GraphMarshaler)
		return m, ok
	}
	return nil, false
}

func funcPointer(fn any) uintptr {
	rv := reflect.ValueOf(fn)
	if !rv.IsValid() || rv.IsNil() {
		return 0
	}
	return rv.Pointer()
}
