package value

import "reflect"

// Kind identifies which variant of the value model a Go value belongs to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindSymbol
	KindSequence
	KindMapping
	KindObject
	KindTypeRef
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindNull:     "null",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindBytes:    "bytes",
	KindSymbol:   "symbol",
	KindSequence: "sequence",
	KindMapping:  "mapping",
	KindObject:   "object",
	KindTypeRef:  "typeref",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether values of the kind are emitted inline and
// never reference tracked.
func (k Kind) IsPrimitive() bool {
	return (k >= KindNull && k <= KindFloat) || k == KindTypeRef
}

var (
	symbolType  = reflect.TypeOf(Symbol(""))
	typeRefType = reflect.TypeOf(TypeRef{})
	mapPtrType  = reflect.TypeOf((*Map)(nil))
)

// KindOf classifies v without consulting a type registry. Structs and
// pointers to structs report KindObject whether or not they are
// registered.
func KindOf(v any) Kind {
	if v == nil {
		return KindNull
	}
	return kindOfValue(reflect.ValueOf(v))
}

func kindOfValue(rv reflect.Value) Kind {
	if !rv.IsValid() {
		return KindNull
	}
	switch rv.Type() {
	case symbolType:
		return KindSymbol
	case typeRefType:
		return KindTypeRef
	case mapPtrType:
		if rv.IsNil() {
			return KindNull
		}
		return KindMapping
	}

	switch rv.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.String:
		return KindString
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return KindBytes
		}
		return KindSequence
	case reflect.Array:
		return KindSequence
	case reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
		return kindOfValue(rv.Elem())
	case reflect.Pointer:
		if rv.IsNil() {
			return KindNull
		}
		if rv.Elem().Kind() == reflect.Struct {
			return KindObject
		}
		return KindInvalid
	case reflect.Struct:
		return KindObject
	default:
		return KindInvalid
	}
}
