package wire

// Stream format version. A stream starts with these two bytes.
const (
	VersionMajor byte = 4
	VersionMinor byte = 8

	// HeaderSize is the length of the version header.
	HeaderSize = 2
)

// Value tags. Each value in a stream starts with one tag byte.
const (
	TagNull         byte = '0' // no payload
	TagBool         byte = 'b' // 1 byte: 0 or 1
	TagInt          byte = 'i' // signed LEB128
	TagFloat        byte = 'f' // 8 bytes IEEE-754, little-endian
	TagString       byte = '"' // uLEB128 length + UTF-8 bytes
	TagBytes        byte = 'u' // uLEB128 length + raw bytes
	TagSymbol       byte = ':' // uLEB128 length + name bytes
	TagSequence     byte = '[' // uLEB128 count + values
	TagMapping      byte = '{' // uLEB128 count + key/value pairs
	TagObjectCustom byte = 'U' // type symbol + reduced payload value
	TagObjectPlain  byte = 'o' // type symbol + field block
	TagTypeRef      byte = 'c' // type symbol
	TagBackref      byte = '@' // uLEB128 reference index
)

// Tracked reports whether a value introduced by tag is assigned a
// reference index.
func Tracked(tag byte) bool {
	switch tag {
	case TagSymbol, TagString, TagBytes, TagSequence, TagMapping, TagObjectCustom, TagObjectPlain:
		return true
	}
	return false
}

// TagName returns a readable name for tag.
func TagName(tag byte) string {
	switch tag {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagBytes:
		return "bytes"
	case TagSymbol:
		return "symbol"
	case TagSequence:
		return "sequence"
	case TagMapping:
		return "mapping"
	case TagObjectCustom:
		return "object-custom"
	case TagObjectPlain:
		return "object-plain"
	case TagTypeRef:
		return "typeref"
	case TagBackref:
		return "backref"
	default:
		return "unknown"
	}
}
