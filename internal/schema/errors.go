package schema

import "fmt"

// UnknownFieldError is returned when a requested field is not declared for a
// table kind. It indicates a configuration error.
type UnknownFieldError struct {
	Field string
	Kind  TableKind
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q for %s table", e.Field, e.Kind)
}

// ArityMismatchError is returned when a fixed-arity field holds more values
// than declared.
type ArityMismatchError struct {
	Field    string
	Declared Arity
	Got      int
	Chrom    string
	Pos      int64
}

func (e *ArityMismatchError) Error() string {
	if e.Chrom == "" {
		return fmt.Sprintf("field %s: declared arity %s, got %d values", e.Field, e.Declared, e.Got)
	}
	return fmt.Sprintf("field %s at %s:%d: declared arity %s, got %d values",
		e.Field, e.Chrom, e.Pos, e.Declared, e.Got)
}

// FieldCoercionError is returned when a raw value cannot be converted to the
// declared type or count of its field.
type FieldCoercionError struct {
	Field string
	Raw   string
	Chrom string
	Pos   int64
	Err   error
}

func (e *FieldCoercionError) Error() string {
	return fmt.Sprintf("field %s at %s:%d: cannot coerce %q: %v", e.Field, e.Chrom, e.Pos, e.Raw, e.Err)
}

func (e *FieldCoercionError) Unwrap() error {
	return e.Err
}
