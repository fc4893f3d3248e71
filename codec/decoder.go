package codec

import (
	"fmt"
	"reflect"

	"github.com/wippyai/marshal/errors"
	"github.com/wippyai/marshal/reftable"
	"github.com/wippyai/marshal/registry"
	"github.com/wippyai/marshal/value"
	"github.com/wippyai/marshal/wire"
)

// Decoder rebuilds Go object graphs from streams.
type Decoder struct {
	reg  *registry.Registry
	opts Options
}

// NewDecoder creates a decoder resolving type names through reg.
func NewDecoder(reg *registry.Registry, opts Options) *Decoder {
	return &Decoder{reg: reg, opts: opts.Normalize()}
}

// Decode parses a complete stream and returns its root value.
func (d *Decoder) Decode(data []byte) (any, error) {
	_, root, err := d.decode(data)
	return root, err
}

func (d *Decoder) decode(data []byte) (*decodeState, any, error) {
	s := &decodeState{
		reg:   d.reg,
		r:     wire.NewReader(data, errors.PhaseDecode),
		slots: reftable.NewSlots(),
		opts:  d.opts,
	}
	s.conv = newConverter(&s.path)
	s.slots.Subscribe(d.opts.Observer)

	if err := s.r.ReadHeader(); err != nil {
		return nil, nil, err
	}
	root, err := s.decode()
	if err != nil {
		return nil, nil, err
	}
	if s.r.Remaining() > 0 {
		return nil, nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Offset(s.r.Position()).
			Detail("%d trailing byte(s) after root value", s.r.Remaining()).
			Build()
	}
	return s, root, nil
}

// DecodeInto decodes data and assigns the root value to the value pointed
// to by dst.
func (d *Decoder) DecodeInto(data []byte, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New(errors.PhaseDecode, errors.KindNilPointer).
			GoType(fmt.Sprintf("%T", dst)).
			Detail("destination must be a non-nil pointer").
			Build()
	}
	s, root, err := d.decode(data)
	if err != nil {
		return err
	}
	return s.conv.assign(rv.Elem(), root)
}

type decodeState struct {
	reg   *registry.Registry
	r     *wire.Reader
	slots *reftable.Slots
	conv  *converter
	path  pathStack
	opts  Options
	depth int
}

func (s *decodeState) decode() (any, error) {
	start := s.r.Position()
	tag, err := s.r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch tag {
	case wire.TagNull:
		return nil, nil

	case wire.TagBool:
		b, err := s.r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, s.invalid(start, "bool payload 0x%02x", b)

	case wire.TagInt:
		return s.r.ReadS64()

	case wire.TagFloat:
		return s.r.ReadF64()

	case wire.TagString:
		idx := s.slots.Reserve()
		str, err := s.r.ReadString(s.opts.MaxStringSize)
		if err != nil {
			return nil, err
		}
		s.slots.Fill(idx, str)
		return str, nil

	case wire.TagBytes:
		idx := s.slots.Reserve()
		b, err := s.r.ReadSeq(s.opts.MaxStringSize)
		if err != nil {
			return nil, err
		}
		s.slots.Fill(idx, b)
		return b, nil

	case wire.TagSymbol:
		name, err := s.readSymbolBody()
		if err != nil {
			return nil, err
		}
		return value.Symbol(name), nil

	case wire.TagSequence:
		return s.readSequence()

	case wire.TagMapping:
		return s.readMapping()

	case wire.TagObjectCustom:
		return s.readCustom(start)

	case wire.TagObjectPlain:
		return s.readPlain(start)

	case wire.TagTypeRef:
		name, err := s.readSymref()
		if err != nil {
			return nil, err
		}
		if _, err := s.resolve(name); err != nil {
			return nil, err
		}
		return value.TypeRef{Name: name}, nil

	case wire.TagBackref:
		return s.readBackref(start)
	}

	return nil, s.invalid(start, "unknown tag 0x%02x", tag)
}

func (s *decodeState) readBackref(start int) (any, error) {
	n, err := s.r.ReadU64()
	if err != nil {
		return nil, err
	}
	v, state := s.slots.Lookup(reftable.Index(n))
	switch state {
	case reftable.Missing:
		return nil, errors.Dangling(errors.PhaseDecode, start, n, "was never assigned")
	case reftable.Pending:
		return nil, errors.Dangling(errors.PhaseDecode, start, n, "refers to a value still under construction")
	}
	return v, nil
}

// readSymbolBody reads a symbol after its tag and assigns its index.
func (s *decodeState) readSymbolBody() (string, error) {
	idx := s.slots.Reserve()
	name, err := s.r.ReadString(s.opts.MaxStringSize)
	if err != nil {
		return "", err
	}
	s.slots.Fill(idx, value.Symbol(name))
	return name, nil
}

// readSymref reads a symbol or a back-reference to one.
func (s *decodeState) readSymref() (string, error) {
	start := s.r.Position()
	tag, err := s.r.ReadByte()
	if err != nil {
		return "", err
	}
	switch tag {
	case wire.TagSymbol:
		return s.readSymbolBody()
	case wire.TagBackref:
		v, err := s.readBackref(start)
		if err != nil {
			return "", err
		}
		sym, ok := v.(value.Symbol)
		if !ok {
			return "", s.invalid(start, "back-reference does not name a symbol")
		}
		return string(sym), nil
	}
	return "", s.invalid(start, "expected symbol, found tag 0x%02x", tag)
}

func (s *decodeState) resolve(name string) (*registry.Descriptor, error) {
	d, err := s.reg.Resolve(name)
	if err != nil {
		return nil, errors.UnknownType(errors.PhaseDecode, s.path.strings(), name)
	}
	return d, nil
}

func (s *decodeState) enter() error {
	s.depth++
	if s.depth > s.opts.MaxDepth {
		return errors.DepthExceeded(errors.PhaseDecode, s.path.strings(), s.opts.MaxDepth)
	}
	return nil
}

func (s *decodeState) leave() {
	s.depth--
}

// readCount reads an element count, rejecting counts the remaining input
// cannot hold before anything is allocated.
func (s *decodeState) readCount(minUnit int) (int, error) {
	start := s.r.Position()
	n, err := s.r.ReadLen(minUnit)
	if err != nil {
		return 0, err
	}
	if n > s.opts.MaxSequenceLength {
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(s.path.strings()...).
			Offset(start).
			Value(n).
			Detail("count %d exceeds limit %d", n, s.opts.MaxSequenceLength).
			Build()
	}
	return n, nil
}

func (s *decodeState) readSequence() (any, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	idx := s.slots.Reserve()
	n, err := s.readCount(1)
	if err != nil {
		return nil, err
	}
	seq := make([]any, n)
	s.slots.Fill(idx, seq)

	for i := range seq {
		s.path.pushIndex(i)
		if seq[i], err = s.decode(); err != nil {
			return nil, err
		}
		s.path.pop()
	}
	return seq, nil
}

func (s *decodeState) readMapping() (any, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	idx := s.slots.Reserve()
	n, err := s.readCount(2)
	if err != nil {
		return nil, err
	}
	m := value.NewMap(n)
	s.slots.Fill(idx, m)

	for i := 0; i < n; i++ {
		s.path.pushIndex(i)
		k, err := s.decode()
		if err != nil {
			return nil, err
		}
		s.path.pop()
		s.path.pushKey(k)
		v, err := s.decode()
		if err != nil {
			return nil, err
		}
		s.path.pop()
		m.Set(k, v)
	}
	return m, nil
}

func (s *decodeState) readCustom(start int) (any, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	idx := s.slots.Reserve()
	name, err := s.readSymref()
	if err != nil {
		return nil, err
	}
	d, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	if !d.HasRebuild() {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(s.path.strings()...).
			Offset(start).
			TypeName(name).
			Detail("type has no rebuild hook for a custom payload").
			Build()
	}

	if d.InPlace() {
		shell := d.New()
		s.slots.Fill(idx, shell)
		rep, err := s.decode()
		if err != nil {
			return nil, err
		}
		if err := d.Load(shell, rep); err != nil {
			return nil, s.hookFailed(start, d, err)
		}
		return shell, nil
	}

	rep, err := s.decode()
	if err != nil {
		return nil, err
	}
	obj, err := d.Rebuild(rep)
	if err != nil {
		return nil, s.hookFailed(start, d, err)
	}
	s.slots.Fill(idx, obj)
	return obj, nil
}

func (s *decodeState) readPlain(start int) (any, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	idx := s.slots.Reserve()
	name, err := s.readSymref()
	if err != nil {
		return nil, err
	}
	d, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	if d.Type.Kind() != reflect.Struct || !d.Pointer() {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(s.path.strings()...).
			Offset(start).
			TypeName(name).
			GoType(d.Type.String()).
			Detail("type cannot be filled field by field").
			Build()
	}

	shell := d.New()
	s.slots.Fill(idx, shell)

	fieldsAt := s.r.Position()
	tag, err := s.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag != wire.TagMapping {
		return nil, s.invalid(fieldsAt, "expected field block, found tag 0x%02x", tag)
	}
	n, err := s.readCount(2)
	if err != nil {
		return nil, err
	}

	sv := reflect.ValueOf(shell).Elem()
	for i := 0; i < n; i++ {
		fname, err := s.readSymref()
		if err != nil {
			return nil, err
		}
		f, ok := d.Field(fname)
		if !ok {
			return nil, errors.UnknownField(s.path.strings(), name, fname)
		}
		s.path.pushField(f.Name)
		v, err := s.decode()
		if err != nil {
			return nil, err
		}
		if err := s.conv.assign(sv.Field(f.Index), v); err != nil {
			return nil, err
		}
		s.path.pop()
	}
	return shell, nil
}

func (s *decodeState) hookFailed(offset int, d *registry.Descriptor, cause error) error {
	return errors.New(errors.PhaseDecode, errors.KindHookFailed).
		Path(s.path.strings()...).
		Offset(offset).
		TypeName(d.Name).
		GoType(d.Type.String()).
		Cause(cause).
		Detail("rebuild failed").
		Build()
}

func (s *decodeState) invalid(offset int, msg string, args ...any) error {
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Path(s.path.strings()...).
		Offset(offset).
		Detail(msg, args...).
		Build()
}
