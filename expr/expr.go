package expr

import (
	"slices"
	"strings"
	"time"

	"github.com/andreyvit/packdb/schema"
)

// Expr is a node of an expression tree.
type Expr interface {
	// Ty infers the static type, or returns false if it cannot be determined.
	// A false result does not imply that Eval will fail.
	Ty(ctx *TyCtx) (Ty, bool)
	Eval(ctx *EvalCtx) (Value, error)
	String() string
}

// TyCtx holds the tables visible to type inference. Bound lists the tables
// whose records will be in scope during evaluation; bare field names resolve
// against them.
type TyCtx struct {
	Tables map[string]*schema.Table
	Bound  []string
}

// EvalCtx binds table names to the records being evaluated. Now is the
// instant returned by now(), captured once per query.
type EvalCtx struct {
	Tables  map[string]*schema.Table
	Records map[string]schema.Record
	Now     time.Time
}

func NewEvalCtx(tables map[string]*schema.Table, now time.Time) *EvalCtx {
	return &EvalCtx{
		Tables:  tables,
		Records: make(map[string]schema.Record),
		Now:     now,
	}
}

// Bind makes rec the current record of tbl.
func (ctx *EvalCtx) Bind(tbl *schema.Table, rec schema.Record) {
	ctx.Records[tbl.Name] = rec
}

func (ctx *EvalCtx) bound() []string {
	return schema.SortedNames(ctx.Records)
}

type Literal struct {
	Value schema.FieldValue
}

func (e *Literal) Ty(ctx *TyCtx) (Ty, bool) {
	return FieldType(schema.FieldTy{Kind: e.Value.Kind()}), true
}

func (e *Literal) Eval(ctx *EvalCtx) (Value, error) {
	return FieldVal(e.Value), nil
}

func (e *Literal) String() string {
	return e.Value.String()
}

type Binary struct {
	A  Expr
	Op BinaryOp
	B  Expr
}

func (e *Binary) Ty(ctx *TyCtx) (Ty, bool) {
	a, ok := e.A.Ty(ctx)
	if !ok {
		return Ty{}, false
	}
	b, ok := e.B.Ty(ctx)
	if !ok {
		return Ty{}, false
	}
	return e.Op.Ty(a, b)
}

func (e *Binary) Eval(ctx *EvalCtx) (Value, error) {
	a, err := e.A.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	b, err := e.B.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return e.Op.Eval(a, b)
}

func (e *Binary) String() string {
	return "(" + e.A.String() + " " + e.Op.String() + " " + e.B.String() + ")"
}

type Unary struct {
	Op    UnaryOp
	Value Expr
}

func (e *Unary) Ty(ctx *TyCtx) (Ty, bool) {
	a, ok := e.Value.Ty(ctx)
	if !ok {
		return Ty{}, false
	}
	return e.Op.Ty(a)
}

func (e *Unary) Eval(ctx *EvalCtx) (Value, error) {
	a, err := e.Value.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return e.Op.Eval(a)
}

func (e *Unary) String() string {
	return e.Op.String() + e.Value.String()
}

// FieldAccess reads a field of a record-valued expression.
type FieldAccess struct {
	Value Expr
	Field string
}

func (e *FieldAccess) Ty(ctx *TyCtx) (Ty, bool) {
	v, ok := e.Value.Ty(ctx)
	if !ok || !v.IsTable() {
		return Ty{}, false
	}
	f := v.Table.Field(e.Field)
	if f == nil {
		return Ty{}, false
	}
	return FieldType(f.Ty), true
}

func (e *FieldAccess) Eval(ctx *EvalCtx) (Value, error) {
	v, err := e.Value.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if !v.IsRecord() {
		return Value{}, &TypeMismatchError{Found: v.Ty()}
	}
	tbl := v.Record.Table
	f := tbl.Field(e.Field)
	if f == nil {
		return Value{}, &UnknownFieldError{Name: e.Field, Table: tbl.Name}
	}
	fv, err := v.Record.Record.Field(tbl, f)
	if err != nil {
		return Value{}, &FieldDecodeError{Table: tbl.Name, Field: f.Name, Err: err}
	}
	return FieldVal(fv), nil
}

func (e *FieldAccess) String() string {
	return e.Value.String() + "." + e.Field
}

// TableAccess is a bare name. It evaluates to the record bound to the table
// of that name, or else to the field of that name on a bound record, trying
// bound tables in name order.
type TableAccess struct {
	Name string
}

func (e *TableAccess) Ty(ctx *TyCtx) (Ty, bool) {
	if tbl := ctx.Tables[e.Name]; tbl != nil && (len(ctx.Bound) == 0 || slices.Contains(ctx.Bound, e.Name)) {
		return TableType(tbl), true
	}
	if _, f := resolveField(ctx.Tables, ctx.Bound, e.Name); f != nil {
		return FieldType(f.Ty), true
	}
	return Ty{}, false
}

func (e *TableAccess) Eval(ctx *EvalCtx) (Value, error) {
	rec, bound := ctx.Records[e.Name]
	if tbl := ctx.Tables[e.Name]; bound && tbl != nil {
		return RecordVal(tbl, rec), nil
	}
	tbl, f := resolveField(ctx.Tables, ctx.bound(), e.Name)
	if f == nil {
		return Value{}, &UnknownTableError{Name: e.Name, Hint: ctx.hint(e.Name)}
	}
	fv, err := ctx.Records[tbl.Name].Field(tbl, f)
	if err != nil {
		return Value{}, &FieldDecodeError{Table: tbl.Name, Field: f.Name, Err: err}
	}
	return FieldVal(fv), nil
}

func (e *TableAccess) String() string {
	return e.Name
}

// resolveField finds the first table in bound that has a field called name.
func resolveField(tables map[string]*schema.Table, bound []string, name string) (*schema.Table, *schema.FieldData) {
	for _, tableName := range bound {
		if tbl := tables[tableName]; tbl != nil {
			if f := tbl.Field(name); f != nil {
				return tbl, f
			}
		}
	}
	return nil, nil
}

// hint looks for a field of a bound table, then for a bound table, whose
// name differs only in case.
func (ctx *EvalCtx) hint(name string) Hint {
	bound := ctx.bound()
	for _, tableName := range bound {
		tbl := ctx.Tables[tableName]
		if tbl == nil {
			continue
		}
		for _, f := range tbl.Fields {
			if strings.EqualFold(f.Name, name) {
				return Hint{Table: tableName, Field: f.Name}
			}
		}
	}
	for _, tableName := range bound {
		if strings.EqualFold(tableName, name) {
			return Hint{Table: tableName}
		}
	}
	return Hint{}
}

type FnCall struct {
	Name string
	Args []Expr
}

func (e *FnCall) Ty(ctx *TyCtx) (Ty, bool) {
	fn := builtins[e.Name]
	if fn == nil || len(e.Args) != len(fn.params) {
		return Ty{}, false
	}
	for i, arg := range e.Args {
		t, ok := arg.Ty(ctx)
		if !ok || !t.Equal(fn.params[i]) {
			return Ty{}, false
		}
	}
	return fn.result, true
}

func (e *FnCall) Eval(ctx *EvalCtx) (Value, error) {
	fn := builtins[e.Name]
	if fn == nil {
		return Value{}, &UnknownFunctionError{Name: e.Name}
	}
	if len(e.Args) != len(fn.params) {
		return Value{}, &ArgCountError{Name: e.Name, Found: len(e.Args), Expected: len(fn.params)}
	}
	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := arg.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		if want := fn.params[i]; !v.Ty().Equal(want) {
			return Value{}, &TypeMismatchError{Found: v.Ty(), Expected: &want}
		}
		args[i] = v
	}
	return fn.eval(ctx, args), nil
}

func (e *FnCall) String() string {
	var buf strings.Builder
	buf.WriteString(e.Name)
	buf.WriteByte('(')
	for i, arg := range e.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(arg.String())
	}
	buf.WriteByte(')')
	return buf.String()
}
