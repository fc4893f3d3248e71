// Package errors provides structured error types for the marshal engine.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: traversal path, Go type, registered type name,
// stream offset, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidData).
//		Path("[2]", "Next").
//		TypeName("Point").
//		Offset(41).
//		Detail("bool payload must be 0 or 1, got %d", b).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownType(errors.PhaseDecode, path, "Foo")
//	err := errors.Truncated(errors.PhaseDecode, offset, 8)
//
// Every failure mode of Dump and Load has a sentinel that matches regardless
// of phase:
//
//	if errors.Is(err, errors.ErrTruncatedStream) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
