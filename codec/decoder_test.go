package codec

import (
	"errors"
	"testing"

	merrors "github.com/wippyai/marshal/errors"
	"github.com/wippyai/marshal/registry"
	"github.com/wippyai/marshal/value"
)

type Point3 struct {
	X, Y, Z int
}

func sampleGraph() any {
	shared := []any{"shared", value.Symbol("sym"), 2.5}
	n := &Node{Name: "n", Items: []any{shared, []byte{1, 2}}}
	n.Next = n
	return []any{
		n,
		shared,
		value.MapOf(value.Symbol("k"), int64(-300), "s", nil),
		&Account{owner: "o", balance: 7},
		&Box{v: true},
		value.TypeRef{Name: "Point"},
		Celsius(1),
	}
}

func TestDecode_TruncatedEveryPrefix(t *testing.T) {
	reg := newRegistry(t)
	data, err := NewEncoder(reg, DefaultOptions()).Encode(sampleGraph())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec := NewDecoder(reg, DefaultOptions())
	if _, err := dec.Decode(data); err != nil {
		t.Fatalf("Decode full stream: %v", err)
	}

	for i := 0; i < len(data); i++ {
		_, err := dec.Decode(data[:i])
		if !errors.Is(err, merrors.ErrTruncatedStream) {
			t.Fatalf("prefix %d/%d: expected truncated stream, got %v", i, len(data), err)
		}
	}
}

func TestDecode_UnknownType(t *testing.T) {
	data, err := NewEncoder(newRegistry(t), DefaultOptions()).Encode([]any{&Point{X: 1}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, err = NewDecoder(registry.New(), DefaultOptions()).Decode(data)
	if !errors.Is(err, merrors.ErrUnknownType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
	var me *merrors.Error
	if errors.As(err, &me) && me.TypeName != "Point" {
		t.Errorf("TypeName = %q, want Point", me.TypeName)
	}
}

func TestDecode_UnknownField(t *testing.T) {
	wide := registry.New()
	if err := registry.RegisterType[Point3](wide, "Point"); err != nil {
		t.Fatalf("register: %v", err)
	}
	data, err := NewEncoder(wide, DefaultOptions()).Encode(&Point3{X: 1, Y: 2, Z: 3})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	_, err = NewDecoder(newRegistry(t), DefaultOptions()).Decode(data)
	if !errors.Is(err, merrors.ErrUnknownField) {
		t.Errorf("expected unknown field, got %v", err)
	}
}

func TestDecode_FieldNameCaseInsensitive(t *testing.T) {
	// Point with fields written as "x" and "y"
	data := []byte{
		4, 8, 'o', ':', 5, 'P', 'o', 'i', 'n', 't',
		'{', 2,
		':', 1, 'x', 'i', 0x0a,
		':', 1, 'y', 'i', 0x14,
	}
	v, err := NewDecoder(newRegistry(t), DefaultOptions()).Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p := v.(*Point); p.X != 10 || p.Y != 20 {
		t.Errorf("point = %+v", p)
	}
}

func TestDecode_Malformed(t *testing.T) {
	reg := newRegistry(t)
	tests := []struct {
		name string
		data []byte
		want *merrors.Error
	}{
		{"empty", nil, merrors.ErrTruncatedStream},
		{"version", []byte{4, 7, '0'}, merrors.ErrFormatVersion},
		{"major version", []byte{3, 8, '0'}, merrors.ErrFormatVersion},
		{"missing root", []byte{4, 8}, merrors.ErrTruncatedStream},
		{"dangling", []byte{4, 8, '[', 2, 'i', 0, '@', 5}, merrors.ErrDanglingReference},
		{"huge count", []byte{4, 8, '[', 0xff, 0xff, 0xff, 0x07}, merrors.ErrTruncatedStream},
		{"huge string", []byte{4, 8, '"', 0xff, 0xff, 0x03, 'a'}, merrors.ErrTruncatedStream},
		{"unknown typeref", []byte{4, 8, 'c', ':', 1, 'Q'}, merrors.ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(reg, DefaultOptions()).Decode(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want.Kind, err)
			}
		})
	}
}

func TestDecode_InvalidData(t *testing.T) {
	reg := newRegistry(t)
	tests := []struct {
		name string
		data []byte
	}{
		{"trailing bytes", []byte{4, 8, '0', '0'}},
		{"unknown tag", []byte{4, 8, 'Z'}},
		{"bad bool", []byte{4, 8, 'b', 2}},
		{"bad utf8", []byte{4, 8, '"', 1, 0xff}},
		{"symref not symbol", []byte{4, 8, '[', 2, 'i', 0, 'c', '@', 0}},
		{"symref wrong tag", []byte{4, 8, 'c', 'i', 0}},
		{"fields not mapping", []byte{4, 8, 'o', ':', 5, 'P', 'o', 'i', 'n', 't', '['}},
		{"custom without rebuild", []byte{4, 8, 'U', ':', 5, 'P', 'o', 'i', 'n', 't', '0'}},
		{"plain for value type", []byte{4, 8, 'o', ':', 7, 'C', 'e', 'l', 's', 'i', 'u', 's', '{', 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(reg, DefaultOptions()).Decode(tt.data)
			var me *merrors.Error
			if !errors.As(err, &me) || me.Kind != merrors.KindInvalidData {
				t.Errorf("expected invalid data, got %v", err)
			}
			if me != nil && !me.HasOffset() {
				t.Errorf("error carries no offset: %v", me)
			}
		})
	}
}

func TestDecode_SelfReferenceByBackref(t *testing.T) {
	// A sequence whose only element refers back to the sequence
	v, err := NewDecoder(registry.New(), DefaultOptions()).Decode([]byte{4, 8, '[', 1, '@', 0})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	seq := v.([]any)
	if inner := seq[0].([]any); &inner[0] != &seq[0] {
		t.Error("backref did not resolve to the enclosing sequence")
	}
}

func TestDecode_Limits(t *testing.T) {
	reg := registry.New()
	opts := Options{MaxDepth: 3, MaxStringSize: 4, MaxSequenceLength: 2}

	deep, err := NewEncoder(reg, DefaultOptions()).Encode(nestedSequence(4))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := NewDecoder(reg, opts).Decode(deep); !errors.Is(err, merrors.ErrDepthExceeded) {
		t.Errorf("depth: expected depth exceeded, got %v", err)
	}

	tests := []struct {
		name string
		in   any
	}{
		{"string", "too long"},
		{"bytes", []byte("12345")},
		{"symbol", value.Symbol("lengthy")},
		{"sequence", []any{1, 2, 3}},
		{"mapping", value.MapOf(1, 1, 2, 2, 3, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewEncoder(reg, DefaultOptions()).Encode(tt.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			_, err = NewDecoder(reg, opts).Decode(data)
			var me *merrors.Error
			if !errors.As(err, &me) || me.Kind != merrors.KindInvalidData {
				t.Errorf("expected invalid data, got %v", err)
			}
		})
	}
}

func TestDecode_RebuildFailure(t *testing.T) {
	reg := newRegistry(t)
	data := []byte{4, 8, 'U', ':', 7, 'C', 'e', 'l', 's', 'i', 'u', 's', '"', 1, 'x'}
	_, err := NewDecoder(reg, DefaultOptions()).Decode(data)
	var me *merrors.Error
	if !errors.As(err, &me) || me.Kind != merrors.KindHookFailed {
		t.Errorf("expected hook failure, got %v", err)
	}
}

func TestDecodeInto(t *testing.T) {
	reg := newRegistry(t)
	enc := NewEncoder(reg, DefaultOptions())
	dec := NewDecoder(reg, DefaultOptions())

	t.Run("typed slice", func(t *testing.T) {
		data, _ := enc.Encode([]any{1, 2, 3})
		var got []int
		if err := dec.DecodeInto(data, &got); err != nil {
			t.Fatalf("DecodeInto: %v", err)
		}
		if len(got) != 3 || got[2] != 3 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("object value", func(t *testing.T) {
		data, _ := enc.Encode(&Point{X: 4, Y: 5})
		var got Point
		if err := dec.DecodeInto(data, &got); err != nil {
			t.Fatalf("DecodeInto: %v", err)
		}
		if got != (Point{X: 4, Y: 5}) {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("object pointer", func(t *testing.T) {
		data, _ := enc.Encode(&Point{X: 1})
		var got *Point
		if err := dec.DecodeInto(data, &got); err != nil {
			t.Fatalf("DecodeInto: %v", err)
		}
		if got == nil || got.X != 1 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("pointer to int", func(t *testing.T) {
		data, _ := enc.Encode(12)
		var got *int
		if err := dec.DecodeInto(data, &got); err != nil {
			t.Fatalf("DecodeInto: %v", err)
		}
		if got == nil || *got != 12 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("overflow", func(t *testing.T) {
		data, _ := enc.Encode(300)
		var got uint8
		err := dec.DecodeInto(data, &got)
		var me *merrors.Error
		if !errors.As(err, &me) || me.Kind != merrors.KindOverflow {
			t.Errorf("expected overflow, got %v", err)
		}
	})

	t.Run("negative into unsigned", func(t *testing.T) {
		data, _ := enc.Encode(-1)
		var got uint
		err := dec.DecodeInto(data, &got)
		var me *merrors.Error
		if !errors.As(err, &me) || me.Kind != merrors.KindOverflow {
			t.Errorf("expected overflow, got %v", err)
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		data, _ := enc.Encode("text")
		var got int
		err := dec.DecodeInto(data, &got)
		var me *merrors.Error
		if !errors.As(err, &me) || me.Kind != merrors.KindTypeMismatch {
			t.Errorf("expected type mismatch, got %v", err)
		}
	})

	t.Run("array length", func(t *testing.T) {
		data, _ := enc.Encode([]any{1, 2})
		var got [3]int
		err := dec.DecodeInto(data, &got)
		var me *merrors.Error
		if !errors.As(err, &me) || me.Kind != merrors.KindTypeMismatch {
			t.Errorf("expected type mismatch, got %v", err)
		}
	})

	t.Run("nil destination", func(t *testing.T) {
		data, _ := enc.Encode(1)
		for _, dst := range []any{nil, 3, (*int)(nil)} {
			err := dec.DecodeInto(data, dst)
			var me *merrors.Error
			if !errors.As(err, &me) || me.Kind != merrors.KindNilPointer {
				t.Errorf("DecodeInto(%T): expected nil pointer error, got %v", dst, err)
			}
		}
	})
}

func TestDecode_FieldOverflowPath(t *testing.T) {
	// Holder.Small is a uint8; write 300 into it by hand
	data := []byte{
		4, 8, 'o', ':', 6, 'H', 'o', 'l', 'd', 'e', 'r',
		'{', 1,
		':', 5, 'S', 'm', 'a', 'l', 'l', 'i', 0xac, 0x02,
	}
	_, err := NewDecoder(newRegistry(t), DefaultOptions()).Decode(data)
	var me *merrors.Error
	if !errors.As(err, &me) || me.Kind != merrors.KindOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
	if merrors.JoinPath(me.Path) != "Small" {
		t.Errorf("path = %v, want Small", me.Path)
	}
}
