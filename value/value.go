package value

// Symbol is an interned atomic name. Symbols are deduplicated by name
// within one stream.
type Symbol string

// String returns the symbol in its ":name" form.
func (s Symbol) String() string {
	return ":" + string(s)
}

// TypeRef names a registered type without being an instance of it.
type TypeRef struct {
	Name string
}

// String returns the referenced type name.
func (t TypeRef) String() string {
	return t.Name
}
