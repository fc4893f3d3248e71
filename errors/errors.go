package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // type registration
	PhaseEncode   Phase = "encode"   // Go graph to stream
	PhaseDecode   Phase = "decode"   // stream to Go graph
	PhaseInspect  Phase = "inspect"  // stream disassembly
	PhaseConfig   Phase = "config"   // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupportedValue    Kind = "unsupported_value"
	KindFormatVersion       Kind = "format_version"
	KindTruncatedStream     Kind = "truncated_stream"
	KindDanglingReference   Kind = "dangling_reference"
	KindUnknownType         Kind = "unknown_type"
	KindUnknownField        Kind = "unknown_field"
	KindDuplicateType       Kind = "duplicate_type"
	KindDepthExceeded       Kind = "depth_exceeded"
	KindTypeMismatch        Kind = "type_mismatch"
	KindOverflow            Kind = "overflow"
	KindInvalidData         Kind = "invalid_data"
	KindInvalidInput        Kind = "invalid_input"
	KindNilPointer          Kind = "nil_pointer"
	KindHookFailed          Kind = "hook_failed"
	KindInvalidRegistration Kind = "invalid_registration"
)

// Sentinels for errors.Is. They carry no phase, so they match an error
// of the same kind raised in any phase.
var (
	ErrUnsupportedValue  = &Error{Kind: KindUnsupportedValue}
	ErrFormatVersion     = &Error{Kind: KindFormatVersion}
	ErrTruncatedStream   = &Error{Kind: KindTruncatedStream}
	ErrDanglingReference = &Error{Kind: KindDanglingReference}
	ErrUnknownType       = &Error{Kind: KindUnknownType}
	ErrUnknownField      = &Error{Kind: KindUnknownField}
	ErrDuplicateType     = &Error{Kind: KindDuplicateType}
	ErrDepthExceeded     = &Error{Kind: KindDepthExceeded}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	GoType    string
	TypeName  string
	Detail    string
	Path      []string
	Offset    int
	hasOffset bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.hasOffset {
		b.WriteString(" (offset ")
		b.WriteString(strconv.Itoa(e.Offset))
		b.WriteByte(')')
	}

	if e.GoType != "" || e.TypeName != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.TypeName != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", registered as ")
			b.WriteString(e.TypeName)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("type ")
			b.WriteString(e.TypeName)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.TypeName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. An empty target phase
// matches every phase.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase != "" && e.Phase != t.Phase {
			return false
		}
		return e.Kind == t.Kind
	}
	return false
}

// HasOffset reports whether the error carries a stream offset.
func (e *Error) HasOffset() bool {
	return e.hasOffset
}

// JoinPath renders a traversal path, gluing index segments ("[3]") to the
// segment before them.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, seg := range path {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the traversal path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// TypeName sets the registered type name
func (b *Builder) TypeName(name string) *Builder {
	b.err.TypeName = name
	return b
}

// Offset sets the stream offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	b.err.hasOffset = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unsupported creates an unsupported value error
func Unsupported(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedValue,
		Path:   path,
		GoType: goType,
		Detail: "value kind is not serializable",
	}
}

// UnknownType creates an unknown type error for a registered name
func UnknownType(phase Phase, path []string, name string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnknownType,
		Path:     path,
		TypeName: name,
		Detail:   "type is not registered",
	}
}

// UnknownGoType creates an unknown type error for an unregistered Go type
func UnknownGoType(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownType,
		Path:   path,
		GoType: goType,
		Detail: "Go type is not registered",
	}
}

// UnknownField creates an unknown field error
func UnknownField(path []string, typeName, field string) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindUnknownField,
		Path:     path,
		TypeName: typeName,
		Detail:   fmt.Sprintf("field %q is not declared", field),
	}
}

// Truncated creates a truncated stream error at the given offset
func Truncated(phase Phase, offset, need int) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindTruncatedStream,
		Offset:    offset,
		hasOffset: true,
		Detail:    fmt.Sprintf("stream ends, %d more byte(s) needed", need),
	}
}

// Dangling creates a dangling back-reference error
func Dangling(phase Phase, offset int, index uint64, detail string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindDanglingReference,
		Offset:    offset,
		hasOffset: true,
		Value:     index,
		Detail:    fmt.Sprintf("back-reference #%d %s", index, detail),
	}
}

// DepthExceeded creates a depth limit error
func DepthExceeded(phase Phase, path []string, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDepthExceeded,
		Path:   path,
		Value:  limit,
		Detail: fmt.Sprintf("nesting exceeds maximum depth %d", limit),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Detail: "cannot hold " + want,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// Duplicate creates a duplicate registration error
func Duplicate(name string, detail string, args ...any) *Error {
	return &Error{
		Phase:    PhaseRegister,
		Kind:     KindDuplicateType,
		TypeName: name,
		Detail:   fmt.Sprintf(detail, args...),
	}
}
