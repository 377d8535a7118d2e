package expr

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when an integer is divided by zero.
var ErrDivisionByZero = errors.New("division by zero")

type TypeMismatchError struct {
	Found Ty
	// Expected is nil when any non-record type would have done.
	Expected *Ty
}

func (e *TypeMismatchError) Error() string {
	if e.Expected == nil {
		return fmt.Sprintf("mismatched types: found %v", e.Found)
	}
	return fmt.Sprintf("mismatched types: found %v, expected %v", e.Found, *e.Expected)
}

type BinaryOpError struct {
	Op BinaryOp
	A  Ty
	B  Ty
}

func (e *BinaryOpError) Error() string {
	return fmt.Sprintf("binary op '%v' does not work with types a:%v, b:%v", e.Op, e.A, e.B)
}

type UnaryOpError struct {
	Op UnaryOp
	Ty Ty
}

func (e *UnaryOpError) Error() string {
	return fmt.Sprintf("unary op '%v' does not work with type %v", e.Op, e.Ty)
}

// Hint suggests what the author of an unresolved name may have meant.
type Hint struct {
	Table string
	Field string
}

func (h Hint) IsZero() bool {
	return h.Table == ""
}

func (h Hint) String() string {
	switch {
	case h.Table == "":
		return ""
	case h.Field == "":
		return fmt.Sprintf(" Did you mean '%s'", h.Table)
	default:
		return fmt.Sprintf(" Did you mean '%s.%s'", h.Table, h.Field)
	}
}

type UnknownTableError struct {
	Name string
	Hint Hint
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table '%s'%v", e.Name, e.Hint)
}

type UnknownFieldError struct {
	Name  string
	Table string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field '%s' on table '%s'", e.Name, e.Table)
}

type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown function '%s'", e.Name)
}

type ArgCountError struct {
	Name     string
	Found    int
	Expected int
}

func (e *ArgCountError) Error() string {
	return fmt.Sprintf("invalid arg count for function '%s': found: %d, expected: %d", e.Name, e.Found, e.Expected)
}

// FieldDecodeError wraps a failure to decode a field out of stored record bytes.
type FieldDecodeError struct {
	Table string
	Field string
	Err   error
}

func (e *FieldDecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s.%s: %v", e.Table, e.Field, e.Err)
}

func (e *FieldDecodeError) Unwrap() error {
	return e.Err
}
