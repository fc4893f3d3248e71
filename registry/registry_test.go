package registry

import (
	"errors"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	merrors "github.com/wippyai/marshal/errors"
	"github.com/wippyai/marshal/internal/logging"
)

type Point struct {
	X, Y int
}

type Tagged struct {
	ID      int    `marshal:"id"`
	Label   string `marshal:"label,omitempty"`
	Skipped string `marshal:"-"`
	hidden  int
	Plain   bool
}

type Clash struct {
	A int `marshal:"x"`
	B int `marshal:"x"`
}

type Counter struct {
	n int
}

func (c *Counter) MarshalGraph() (any, error) { return int64(c.n), nil }

func (c *Counter) UnmarshalGraph(rep any) error {
	c.n = int(rep.(int64))
	return nil
}

type WriteOnly struct{ v string }

func (w WriteOnly) MarshalGraph() (any, error) { return w.v, nil }

type Celsius float64

func reduceCelsius(v any) (any, error) { return float64(v.(Celsius)), nil }

func rebuildCelsius(rep any) (any, error) { return Celsius(rep.(float64)), nil }

func otherReduce(v any) (any, error) { return nil, nil }

func TestRegister_Basic(t *testing.T) {
	r := New()
	if err := RegisterType[Point](r, "Point"); err != nil {
		t.Fatalf("RegisterType: %v", err)
	}

	d, err := r.Resolve("Point")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.Name != "Point" || d.Type != reflect.TypeFor[Point]() {
		t.Errorf("descriptor = %s/%v", d.Name, d.Type)
	}
	if d.HasReduce() || d.HasRebuild() || d.InPlace() {
		t.Error("plain struct should have no hooks")
	}
	if _, ok := d.New().(*Point); !ok {
		t.Errorf("New() returned %T, want *Point", d.New())
	}

	for _, instance := range []any{&Point{}, Point{}} {
		got, err := r.Describe(instance)
		if err != nil || got != d {
			t.Errorf("Describe(%T) = %v, %v", instance, got, err)
		}
	}

	if r.Len() != 1 || r.Names()[0] != "Point" {
		t.Errorf("Names() = %v", r.Names())
	}
}

func TestRegister_Unknown(t *testing.T) {
	r := New()
	if _, err := r.Resolve("Nope"); !errors.Is(err, merrors.ErrUnknownType) {
		t.Errorf("Resolve: expected unknown type, got %v", err)
	}
	if _, err := r.Describe(&Point{}); !errors.Is(err, merrors.ErrUnknownType) {
		t.Errorf("Describe: expected unknown type, got %v", err)
	}
	if _, ok := r.Lookup(nil); ok {
		t.Error("Lookup(nil) should fail")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	tests := []struct {
		name   string
		second func(r *Registry) error
	}{
		{
			name:   "name bound to another type",
			second: func(r *Registry) error { return RegisterType[Tagged](r, "Celsius") },
		},
		{
			name: "same name different hooks",
			second: func(r *Registry) error {
				return r.Register("Celsius", func() any { return Celsius(0) },
					WithReduce(otherReduce), WithRebuild(rebuildCelsius))
			},
		},
		{
			name: "type under a second name",
			second: func(r *Registry) error {
				return r.Register("Temp", func() any { return Celsius(0) },
					WithReduce(reduceCelsius), WithRebuild(rebuildCelsius))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			err := r.Register("Celsius", func() any { return Celsius(0) },
				WithReduce(reduceCelsius), WithRebuild(rebuildCelsius))
			if err != nil {
				t.Fatalf("first Register: %v", err)
			}
			if err := tt.second(r); !errors.Is(err, merrors.ErrDuplicateType) {
				t.Errorf("expected duplicate type, got %v", err)
			}
		})
	}
}

func TestRegister_Idempotent(t *testing.T) {
	r := New()
	for i := 0; i < 2; i++ {
		err := r.Register("Celsius", func() any { return Celsius(0) },
			WithReduce(reduceCelsius), WithRebuild(rebuildCelsius))
		if err != nil {
			t.Fatalf("Register #%d: %v", i, err)
		}
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegister_Invalid(t *testing.T) {
	tests := []struct {
		name string
		reg  func(r *Registry) error
	}{
		{"empty name", func(r *Registry) error { return RegisterType[Point](r, "") }},
		{"nil ctor", func(r *Registry) error { return r.Register("X", nil) }},
		{"nil instance", func(r *Registry) error { return r.Register("X", func() any { return nil }) }},
		{"nil pointer", func(r *Registry) error { return r.Register("X", func() any { return (*Point)(nil) }) }},
		{"map kind", func(r *Registry) error { return RegisterType[map[string]int](r, "M") }},
		{"non-struct without hooks", func(r *Registry) error { return RegisterType[Celsius](r, "C") }},
		{"struct value without hooks", func(r *Registry) error { return r.Register("P", func() any { return Point{} }) }},
		{"duplicate field name", func(r *Registry) error { return RegisterType[Clash](r, "Clash") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg(New())
			var me *merrors.Error
			if !errors.As(err, &me) || me.Kind != merrors.KindInvalidRegistration {
				t.Errorf("expected invalid registration, got %v", err)
			}
		})
	}
}

func TestInvalid_DetailVerbatim(t *testing.T) {
	err := invalid("Rate%d", "width 100%s")
	if err.Detail != "width 100%s" {
		t.Errorf("Detail = %q, want the text unformatted", err.Detail)
	}
	if err.TypeName != "Rate%d" {
		t.Errorf("TypeName = %q", err.TypeName)
	}
}

func TestDescriptor_Fields(t *testing.T) {
	r := New()
	if err := RegisterType[Tagged](r, "Tagged"); err != nil {
		t.Fatalf("RegisterType: %v", err)
	}
	d, _ := r.Resolve("Tagged")

	var names []string
	for _, f := range d.Fields() {
		names = append(names, f.Name)
	}
	want := []string{"id", "label", "Plain"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("Fields() = %v, want %v", names, want)
	}

	tests := []struct {
		lookup string
		goName string
		found  bool
	}{
		{"id", "ID", true},
		{"ID", "ID", true},
		{"LABEL", "Label", true},
		{"plain", "Plain", true},
		{"Skipped", "", false},
		{"hidden", "", false},
	}
	for _, tt := range tests {
		f, ok := d.Field(tt.lookup)
		if ok != tt.found {
			t.Errorf("Field(%q) found = %v, want %v", tt.lookup, ok, tt.found)
			continue
		}
		if ok && f.GoName != tt.goName {
			t.Errorf("Field(%q) = %s, want %s", tt.lookup, f.GoName, tt.goName)
		}
	}
}

func TestDescriptor_InterfaceHooks(t *testing.T) {
	r := New()
	if err := RegisterType[Counter](r, "Counter"); err != nil {
		t.Fatalf("RegisterType: %v", err)
	}
	d, _ := r.Resolve("Counter")
	if !d.HasReduce() || !d.HasRebuild() || !d.InPlace() {
		t.Fatalf("hooks: reduce=%v rebuild=%v inplace=%v", d.HasReduce(), d.HasRebuild(), d.InPlace())
	}

	rep, err := d.Reduce(&Counter{n: 7})
	if err != nil || rep != int64(7) {
		t.Fatalf("Reduce = %v, %v", rep, err)
	}

	shell := d.New()
	if err := d.Load(shell, int64(9)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if shell.(*Counter).n != 9 {
		t.Errorf("Load restored n = %d, want 9", shell.(*Counter).n)
	}

	rebuilt, err := d.Rebuild(int64(3))
	if err != nil || rebuilt.(*Counter).n != 3 {
		t.Errorf("Rebuild = %v, %v", rebuilt, err)
	}
}

func TestDescriptor_ExplicitHooks(t *testing.T) {
	r := New()
	err := r.Register("Celsius", func() any { return Celsius(0) },
		WithReduce(reduceCelsius), WithRebuild(rebuildCelsius))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	d, _ := r.Resolve("Celsius")
	if d.InPlace() || d.Pointer() {
		t.Error("explicit rebuild on a value type is not in place")
	}
	rep, _ := d.Reduce(Celsius(21.5))
	back, _ := d.Rebuild(rep)
	if back != Celsius(21.5) {
		t.Errorf("round trip = %v", back)
	}
}

func TestRegister_AsymmetricWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	r := New()
	if err := RegisterType[WriteOnly](r, "WriteOnly"); err != nil {
		t.Fatalf("RegisterType: %v", err)
	}

	entries := logs.FilterMessage("asymmetric hooks").All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings, want 1", len(entries))
	}
	if entries[0].ContextMap()["name"] != "WriteOnly" {
		t.Errorf("warning context = %v", entries[0].ContextMap())
	}

	d, _ := r.Resolve("WriteOnly")
	rep, err := d.Reduce(WriteOnly{v: "x"})
	if err != nil || rep != "x" {
		t.Errorf("Reduce = %v, %v", rep, err)
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = RegisterType[Point](r, "Point")
			_, _ = r.Resolve("Point")
			_, _ = r.Resolve("missing-" + strconv.Itoa(i))
			_ = r.Names()
		}(i)
	}
	wg.Wait()
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}
