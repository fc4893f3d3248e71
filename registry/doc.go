// Package registry maps stable type names to Go types and their optional
// reduce/rebuild hooks.
//
// A registered type is written as an object carrying its name. Types with
// a reduce hook are written as custom objects (the hook's result is the
// payload); all others are written field by field from their declared
// field plan.
//
//	reg := registry.New()
//	err := registry.RegisterType[Point](reg, "Point")
//
//	err = reg.Register("Money", func() any { return new(Money) },
//		registry.WithReduce(reduceMoney),
//		registry.WithRebuild(rebuildMoney))
//
// Types implementing GraphMarshaler and GraphUnmarshaler are detected
// automatically. GraphUnmarshaler rebuilds in place on a shell allocated by
// the constructor, so cycles through the object resolve to the shell.
//
// Struct fields are matched by a marshal:"name" tag, then by exact name,
// then case-insensitively. A marshal:"-" tag skips the field.
//
// A Registry is safe for concurrent use.
package registry
