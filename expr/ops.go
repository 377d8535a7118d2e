package expr

import (
	"fmt"

	"github.com/andreyvit/packdb/schema"
)

type UnaryOp uint8

const (
	Negate UnaryOp = iota + 1
	LogicNot
)

func (op UnaryOp) String() string {
	switch op {
	case Negate:
		return "-"
	case LogicNot:
		return "!"
	default:
		return fmt.Sprintf("UnaryOp(%d)", uint8(op))
	}
}

// Ty returns the result type of op applied to a, or false if the operand
// type is not supported.
func (op UnaryOp) Ty(a Ty) (Ty, bool) {
	switch {
	case op == Negate && a.Is(schema.IntI32):
		return tyInt, true
	case op == LogicNot && a.Is(schema.Bool):
		return tyBool, true
	default:
		return Ty{}, false
	}
}

func (op UnaryOp) Eval(a Value) (Value, error) {
	if a.IsRecord() {
		return Value{}, &UnaryOpError{Op: op, Ty: a.Ty()}
	}
	switch {
	case op == Negate && a.Field.Kind() == schema.IntI32:
		return FieldVal(schema.IntValue(-a.Field.Int())), nil
	case op == LogicNot && a.Field.Kind() == schema.Bool:
		return FieldVal(schema.BoolValue(!a.Field.Bool())), nil
	default:
		return Value{}, &UnaryOpError{Op: op, Ty: a.Ty()}
	}
}

type BinaryOp uint8

const (
	Add BinaryOp = iota + 1
	Sub
	Mul
	Div
	And
	Or
	Less
	LessEq
	Greater
	GreaterEq
	Eq
	Neq
)

// OpClass groups binary operators that share typing rules.
type OpClass uint8

const (
	ClassMath OpClass = iota + 1
	ClassLogic
	ClassCompare
	ClassEq
)

func (op BinaryOp) Class() OpClass {
	switch op {
	case Add, Sub, Mul, Div:
		return ClassMath
	case And, Or:
		return ClassLogic
	case Less, LessEq, Greater, GreaterEq:
		return ClassCompare
	case Eq, Neq:
		return ClassEq
	default:
		panic(fmt.Errorf("invalid binary op %d", uint8(op)))
	}
}

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case And:
		return "&&"
	case Or:
		return "||"
	case Less:
		return "<"
	case LessEq:
		return "<="
	case Greater:
		return ">"
	case GreaterEq:
		return ">="
	case Eq:
		return "=="
	case Neq:
		return "!="
	default:
		return fmt.Sprintf("BinaryOp(%d)", uint8(op))
	}
}

// Ty returns the result type of op applied to a and b, or false if the
// operand types are not supported.
func (op BinaryOp) Ty(a, b Ty) (Ty, bool) {
	if a.IsTable() || b.IsTable() {
		return Ty{}, false
	}
	switch op.Class() {
	case ClassMath:
		if a.Is(schema.IntI32) && b.Is(schema.IntI32) {
			return tyInt, true
		}
	case ClassLogic:
		if a.Is(schema.Bool) && b.Is(schema.Bool) {
			return tyBool, true
		}
	case ClassCompare:
		if (a.Is(schema.IntI32) && b.Is(schema.IntI32)) || (a.Is(schema.Timestamp) && b.Is(schema.Timestamp)) {
			return tyBool, true
		}
	case ClassEq:
		if a.Equal(b) {
			return tyBool, true
		}
	}
	return Ty{}, false
}

// Eval applies op. Integer arithmetic wraps on overflow; division by zero is
// an error.
func (op BinaryOp) Eval(a, b Value) (Value, error) {
	if a.IsRecord() || b.IsRecord() {
		return Value{}, &BinaryOpError{Op: op, A: a.Ty(), B: b.Ty()}
	}
	x, y := a.Field, b.Field
	fail := func() (Value, error) {
		return Value{}, &BinaryOpError{Op: op, A: a.Ty(), B: b.Ty()}
	}

	switch op.Class() {
	case ClassMath:
		if x.Kind() != schema.IntI32 || y.Kind() != schema.IntI32 {
			return fail()
		}
		i, j := x.Int(), y.Int()
		var r int32
		switch op {
		case Add:
			r = i + j
		case Sub:
			r = i - j
		case Mul:
			r = i * j
		case Div:
			if j == 0 {
				return Value{}, ErrDivisionByZero
			}
			r = i / j
		}
		return FieldVal(schema.IntValue(r)), nil

	case ClassLogic:
		if x.Kind() != schema.Bool || y.Kind() != schema.Bool {
			return fail()
		}
		if op == And {
			return FieldVal(schema.BoolValue(x.Bool() && y.Bool())), nil
		}
		return FieldVal(schema.BoolValue(x.Bool() || y.Bool())), nil

	case ClassCompare:
		var i, j int64
		switch {
		case x.Kind() == schema.IntI32 && y.Kind() == schema.IntI32:
			i, j = int64(x.Int()), int64(y.Int())
		case x.Kind() == schema.Timestamp && y.Kind() == schema.Timestamp:
			i, j = x.Unix(), y.Unix()
		default:
			return fail()
		}
		var r bool
		switch op {
		case Less:
			r = i < j
		case LessEq:
			r = i <= j
		case Greater:
			r = i > j
		case GreaterEq:
			r = i >= j
		}
		return FieldVal(schema.BoolValue(r)), nil

	case ClassEq:
		if x.Kind() != y.Kind() || !x.IsValid() {
			return fail()
		}
		if op == Eq {
			return FieldVal(schema.BoolValue(x == y)), nil
		}
		return FieldVal(schema.BoolValue(x != y)), nil
	}
	return fail()
}
