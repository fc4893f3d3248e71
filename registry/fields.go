package registry

import (
	"reflect"
	"strings"

	"github.com/wippyai/marshal/errors"
)

// Field describes one serialized struct field.
type Field struct {
	Type   reflect.Type
	Name   string // name written to the stream
	GoName string
	Index  int
}

// compileFields builds the field plan of a struct type, exported fields in
// declaration order.
func compileFields(name string, t reflect.Type) ([]Field, map[string]int, error) {
	if t.Kind() != reflect.Struct {
		return nil, nil, nil
	}

	var fields []Field
	index := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		wireName := sf.Name
		if tag, ok := sf.Tag.Lookup("marshal"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				wireName = tag
			}
		}

		if _, dup := index[wireName]; dup {
			return nil, nil, errors.New(errors.PhaseRegister, errors.KindInvalidRegistration).
				TypeName(name).
				GoType(t.String()).
				Detail("field name %q declared twice", wireName).
				Build()
		}

		index[wireName] = len(fields)
		fields = append(fields, Field{
			Name:   wireName,
			GoName: sf.Name,
			Index:  i,
			Type:   sf.Type,
		})
	}
	return fields, index, nil
}

// findField matches by: 1) exact wire name, 2) case-insensitive.
func findField(fields []Field, index map[string]int, name string) (*Field, bool) {
	if i, ok := index[name]; ok {
		return &fields[i], true
	}
	for i := range fields {
		if strings.EqualFold(fields[i].Name, name) || strings.EqualFold(fields[i].GoName, name) {
			return &fields[i], true
		}
	}
	return nil, false
}
