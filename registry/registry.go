package registry

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/marshal/errors"
	"github.com/wippyai/marshal/internal/logging"
)

// Option configures a registration.
type Option func(*options)

type options struct {
	reduce  ReduceFunc
	rebuild RebuildFunc
}

// WithReduce sets an explicit reduce hook.
func WithReduce(fn ReduceFunc) Option {
	return func(o *options) {
		o.reduce = fn
	}
}

// WithRebuild sets an explicit rebuild hook.
func WithRebuild(fn RebuildFunc) Option {
	return func(o *options) {
		o.rebuild = fn
	}
}

// Registry maps type names to descriptors.
type Registry struct {
	byName map[string]*Descriptor
	byType map[reflect.Type]*Descriptor
	mu     sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*Descriptor),
		byType: make(map[reflect.Type]*Descriptor),
	}
}

var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// RegisterType registers T under name with new(T) as the constructor.
func RegisterType[T any](r *Registry, name string, opts ...Option) error {
	return r.Register(name, func() any { return new(T) }, opts...)
}

// Register associates name with the type produced by ctor.
func (r *Registry) Register(name string, ctor func() any, opts ...Option) error {
	d, err := newDescriptor(name, ctor, opts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[name]; ok {
		if sameRegistration(existing, d) {
			return nil
		}
		if existing.Type != d.Type {
			return errors.Duplicate(name, "already registered for Go type %s, not %s", existing.Type, d.Type)
		}
		return errors.Duplicate(name, "already registered for %s with different hooks", d.Type)
	}
	if existing, ok := r.byType[d.Type]; ok {
		return errors.Duplicate(name, "Go type %s already registered as %q", d.Type, existing.Name)
	}

	r.byName[name] = d
	r.byType[d.Type] = d

	log := logging.Named("registry")
	if d.HasReduce() != d.HasRebuild() {
		log.Warn("asymmetric hooks",
			zap.String("name", name),
			zap.Stringer("type", d.Type),
			zap.Bool("reduce", d.HasReduce()),
			zap.Bool("rebuild", d.HasRebuild()))
	}
	log.Debug("registered",
		zap.String("name", name),
		zap.Stringer("type", d.Type),
		zap.Int("fields", len(d.fields)))
	return nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	r.mu.RLock()
	d, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownType(errors.PhaseDecode, nil, name)
	}
	return d, nil
}

// Describe returns the descriptor for the runtime type of instance.
func (r *Registry) Describe(instance any) (*Descriptor, error) {
	t := reflect.TypeOf(instance)
	if t == nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindNilPointer).
			Detail("cannot describe nil").
			Build()
	}
	if d, ok := r.Lookup(t); ok {
		return d, nil
	}
	return nil, errors.UnknownGoType(errors.PhaseEncode, nil, t.String())
}

// Lookup returns the descriptor for t. Pointer types are stripped.
func (r *Registry) Lookup(t reflect.Type) (*Descriptor, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	d, ok := r.byType[t]
	r.mu.RUnlock()
	return d, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

func newDescriptor(name string, ctor func() any, opts []Option) (*Descriptor, error) {
	if name == "" {
		return nil, invalid(name, "type name cannot be empty")
	}
	if ctor == nil {
		return nil, invalid(name, "constructor cannot be nil")
	}
	sample := ctor()
	if sample == nil {
		return nil, invalid(name, "constructor returned nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	t := reflect.TypeOf(sample)
	d := &Descriptor{
		Name:    name,
		ctor:    ctor,
		reduce:  o.reduce,
		rebuild: o.rebuild,
		pointer: t.Kind() == reflect.Pointer,
	}
	if d.pointer {
		if reflect.ValueOf(sample).IsNil() {
			return nil, invalid(name, "constructor returned a nil pointer")
		}
		t = t.Elem()
	}
	d.Type = t

	switch t.Kind() {
	case reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Interface, reflect.Pointer:
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidRegistration).
			TypeName(name).
			GoType(t.String()).
			Detail("kind %s cannot be registered", t.Kind()).
			Build()
	}

	d.marshaler = t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType)
	// In-place rebuild needs an addressable shell from the constructor.
	d.unmarshaler = d.pointer && reflect.PointerTo(t).Implements(unmarshalerType)

	if t.Kind() != reflect.Struct && !(d.HasReduce() && d.HasRebuild()) {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidRegistration).
			TypeName(name).
			GoType(t.String()).
			Detail("non-struct types need both reduce and rebuild hooks").
			Build()
	}
	if !d.pointer && !d.HasReduce() {
		return nil, errors.New(errors.PhaseRegister, errors.KindInvalidRegistration).
			TypeName(name).
			GoType(t.String()).
			Detail("constructor must return a pointer unless hooks are given").
			Build()
	}

	fields, index, err := compileFields(name, t)
	if err != nil {
		return nil, err
	}
	d.fields = fields
	d.fieldIndex = index
	return d, nil
}

func sameRegistration(a, b *Descriptor) bool {
	return a.Type == b.Type &&
		a.pointer == b.pointer &&
		funcPointer(a.reduce) == funcPointer(b.reduce) &&
		funcPointer(a.rebuild) == funcPointer(b.rebuild)
}

func invalid(name, detail string) *errors.Error {
	return errors.New(errors.PhaseRegister, errors.KindInvalidRegistration).
		TypeName(name).
		Detail("%s", detail).
		Build()
}
