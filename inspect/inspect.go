// Package inspect disassembles streams into a node tree without a type
// registry. Back-references are resolved against the indices seen so far.
package inspect

import (
	"encoding/hex"
	"strconv"

	"github.com/wippyai/marshal/codec"
	"github.com/wippyai/marshal/errors"
	"github.com/wippyai/marshal/value"
	"github.com/wippyai/marshal/wire"
)

// Untracked marks a node that holds no reference index.
const Untracked = -1

// maxText bounds the preview length of strings and bytes.
const maxText = 64

// Node is one value of a disassembled stream.
type Node struct {
	// Target is the node a back-reference resolves to.
	Target *Node

	// Field is the field name when the node is a plain object field.
	Field string

	// Text is a printable rendering of the scalar payload, symbol name or
	// object type name.
	Text string

	Children []*Node

	Offset int
	Index  int // reference index, or Untracked
	Ref    int // back-reference target index, or Untracked
	Kind   value.Kind
	Tag    byte
}

// IsBackref reports whether the node is a back-reference.
func (n *Node) IsBackref() bool {
	return n.Tag == wire.TagBackref
}

// Label returns a one-line description of the node.
func (n *Node) Label() string {
	var s string
	if n.Index != Untracked {
		s = "#" + strconv.Itoa(n.Index) + " "
	}
	if n.Field != "" {
		s += n.Field + ": "
	}
	switch n.Tag {
	case wire.TagBackref:
		s += "@" + strconv.Itoa(n.Ref)
		if n.Target != nil {
			s += " -> " + n.Target.Kind.String()
			if n.Target.Text != "" {
				s += " " + n.Target.Text
			}
		}
		return s
	case wire.TagSequence:
		return s + n.Kind.String() + " (" + strconv.Itoa(len(n.Children)) + ")"
	case wire.TagMapping:
		return s + n.Kind.String() + " (" + strconv.Itoa(len(n.Children)/2) + ")"
	}
	s += n.Kind.String()
	if n.Text != "" {
		s += " " + n.Text
	}
	return s
}

type disassembler struct {
	r     *wire.Reader
	nodes []*Node
	opts  codec.Options
	depth int
}

// Disassemble parses data into a node tree under the default limits.
func Disassemble(data []byte) (*Node, error) {
	return DisassembleWith(data, codec.DefaultOptions())
}

// DisassembleWith parses data into a node tree, enforcing the depth,
// string size and count limits of opts. The observer is not used.
func DisassembleWith(data []byte, opts codec.Options) (*Node, error) {
	d := &disassembler{
		r:    wire.NewReader(data, errors.PhaseInspect),
		opts: opts.Normalize(),
	}
	if err := d.r.ReadHeader(); err != nil {
		return nil, err
	}
	root, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.r.Remaining() > 0 {
		return nil, errors.New(errors.PhaseInspect, errors.KindInvalidData).
			Offset(d.r.Position()).
			Detail("%d trailing byte(s) after root value", d.r.Remaining()).
			Build()
	}
	return root, nil
}

func (d *disassembler) track(n *Node) {
	n.Index = len(d.nodes)
	d.nodes = append(d.nodes, n)
}

func (d *disassembler) invalid(offset int, msg string, args ...any) error {
	return errors.New(errors.PhaseInspect, errors.KindInvalidData).
		Offset(offset).
		Detail(msg, args...).
		Build()
}

func (d *disassembler) enter(offset int) error {
	d.depth++
	if d.depth > d.opts.MaxDepth {
		return errors.New(errors.PhaseInspect, errors.KindDepthExceeded).
			Offset(offset).
			Value(d.opts.MaxDepth).
			Detail("nesting exceeds maximum depth %d", d.opts.MaxDepth).
			Build()
	}
	return nil
}

func (d *disassembler) count(unit int) (int, error) {
	at := d.r.Position()
	n, err := d.r.ReadLen(unit)
	if err != nil {
		return 0, err
	}
	if n > d.opts.MaxSequenceLength {
		return 0, errors.New(errors.PhaseInspect, errors.KindInvalidData).
			Offset(at).
			Value(n).
			Detail("count %d exceeds limit %d", n, d.opts.MaxSequenceLength).
			Build()
	}
	return n, nil
}

func (d *disassembler) value() (*Node, error) {
	n := &Node{Offset: d.r.Position(), Index: Untracked, Ref: Untracked}
	tag, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	n.Tag = tag

	switch tag {
	case wire.TagNull:
		n.Kind = value.KindNull

	case wire.TagBool:
		n.Kind = value.KindBool
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b > 1 {
			return nil, d.invalid(n.Offset, "bool payload 0x%02x", b)
		}
		n.Text = strconv.FormatBool(b == 1)

	case wire.TagInt:
		n.Kind = value.KindInt
		v, err := d.r.ReadS64()
		if err != nil {
			return nil, err
		}
		n.Text = strconv.FormatInt(v, 10)

	case wire.TagFloat:
		n.Kind = value.KindFloat
		v, err := d.r.ReadF64()
		if err != nil {
			return nil, err
		}
		n.Text = strconv.FormatFloat(v, 'g', -1, 64)

	case wire.TagString:
		n.Kind = value.KindString
		d.track(n)
		s, err := d.r.ReadString(d.opts.MaxStringSize)
		if err != nil {
			return nil, err
		}
		n.Text = preview(strconv.Quote(s))

	case wire.TagBytes:
		n.Kind = value.KindBytes
		d.track(n)
		b, err := d.r.ReadSeq(d.opts.MaxStringSize)
		if err != nil {
			return nil, err
		}
		n.Text = preview(hex.EncodeToString(b))

	case wire.TagSymbol:
		if err := d.symbolBody(n); err != nil {
			return nil, err
		}

	case wire.TagSequence, wire.TagMapping:
		if err := d.container(n); err != nil {
			return nil, err
		}

	case wire.TagObjectCustom, wire.TagObjectPlain:
		if err := d.object(n); err != nil {
			return nil, err
		}

	case wire.TagTypeRef:
		n.Kind = value.KindTypeRef
		name, err := d.symref()
		if err != nil {
			return nil, err
		}
		n.Text = name

	case wire.TagBackref:
		if err := d.backref(n); err != nil {
			return nil, err
		}

	default:
		return nil, d.invalid(n.Offset, "unknown tag 0x%02x", tag)
	}
	return n, nil
}

func (d *disassembler) symbolBody(n *Node) error {
	n.Kind = value.KindSymbol
	d.track(n)
	name, err := d.r.ReadString(d.opts.MaxStringSize)
	if err != nil {
		return err
	}
	n.Text = value.Symbol(name).String()
	return nil
}

func (d *disassembler) backref(n *Node) error {
	idx, err := d.r.ReadU64()
	if err != nil {
		return err
	}
	if idx >= uint64(len(d.nodes)) {
		return errors.Dangling(errors.PhaseInspect, n.Offset, idx, "was never assigned")
	}
	n.Ref = int(idx)
	n.Target = d.nodes[idx]
	n.Kind = n.Target.Kind
	return nil
}

func (d *disassembler) symref() (string, error) {
	n := &Node{Offset: d.r.Position(), Index: Untracked, Ref: Untracked}
	tag, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	n.Tag = tag
	switch tag {
	case wire.TagSymbol:
		if err := d.symbolBody(n); err != nil {
			return "", err
		}
		return n.Text[1:], nil
	case wire.TagBackref:
		if err := d.backref(n); err != nil {
			return "", err
		}
		if n.Target.Tag != wire.TagSymbol {
			return "", d.invalid(n.Offset, "back-reference does not name a symbol")
		}
		return n.Target.Text[1:], nil
	}
	return "", d.invalid(n.Offset, "expected symbol, found tag 0x%02x", tag)
}

func (d *disassembler) container(n *Node) error {
	if err := d.enter(n.Offset); err != nil {
		return err
	}
	defer func() { d.depth-- }()

	unit := 1
	n.Kind = value.KindSequence
	if n.Tag == wire.TagMapping {
		unit = 2
		n.Kind = value.KindMapping
	}
	d.track(n)
	count, err := d.count(unit)
	if err != nil {
		return err
	}
	for i := 0; i < count*unit; i++ {
		child, err := d.value()
		if err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

func (d *disassembler) object(n *Node) error {
	if err := d.enter(n.Offset); err != nil {
		return err
	}
	defer func() { d.depth-- }()

	n.Kind = value.KindObject
	d.track(n)
	name, err := d.symref()
	if err != nil {
		return err
	}
	n.Text = name

	if n.Tag == wire.TagObjectCustom {
		payload, err := d.value()
		if err != nil {
			return err
		}
		n.Children = []*Node{payload}
		return nil
	}

	at := d.r.Position()
	tag, err := d.r.ReadByte()
	if err != nil {
		return err
	}
	if tag != wire.TagMapping {
		return d.invalid(at, "expected field block, found tag 0x%02x", tag)
	}
	count, err := d.count(2)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		field, err := d.symref()
		if err != nil {
			return err
		}
		child, err := d.value()
		if err != nil {
			return err
		}
		child.Field = field
		n.Children = append(n.Children, child)
	}
	return nil
}

func preview(s string) string {
	if len(s) <= maxText {
		return s
	}
	r := []rune(s)
	if len(r) <= maxText {
		return s
	}
	return string(r[:maxText]) + "..."
}
