package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongType is matched by *WrongTypeError.
	ErrWrongType = errors.New("wrong type")

	// ErrInvalidDef is matched by errors returned from TableDef.Validate.
	ErrInvalidDef = errors.New("invalid table definition")
)

// WrongTypeError reports a value whose kind does not match the field it is
// stored into or compared against.
type WrongTypeError struct {
	Expected FieldTy
	Actual   Kind
}

func (e *WrongTypeError) Error() string {
	if e.Actual == KindInvalid {
		return fmt.Sprintf("wrong type, expected %v", e.Expected)
	}
	return fmt.Sprintf("wrong type, expected %v, got %v", e.Expected, e.Actual)
}

func (e *WrongTypeError) Is(target error) bool {
	return target == ErrWrongType
}

type DefError struct {
	Table string
	Field string
	Msg   string
}

func defErrf(field string, format string, args ...any) error {
	return &DefError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

func (e *DefError) Error() string {
	prefix := e.Table
	if e.Field != "" {
		if prefix != "" {
			prefix += "."
		}
		prefix += e.Field
	}
	if prefix == "" {
		return e.Msg
	}
	return prefix + ": " + e.Msg
}

func (e *DefError) Unwrap() error {
	return ErrInvalidDef
}
