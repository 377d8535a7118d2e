package queryparse

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/andreyvit/packdb/expr"
	"github.com/andreyvit/packdb/schema"
)

func TestLexer(t *testing.T) {
	lex := NewLexer(`query users where users.age >= -3 && !x || "a\"b" != str_len(y, 2)`)
	var types []TokenType
	var values []string
	for {
		tok, err := lex.NextToken()
		if err != nil {
			t.Fatal(err)
		}
		types = append(types, tok.Type)
		values = append(values, tok.Value)
		if tok.Type == EOF {
			break
		}
	}
	deepEqual(t, types, []TokenType{
		QUERY, IDENT, WHERE, IDENT, DOT, IDENT, GTE, MINUS, NUMBER, AND, BANG, IDENT, OR,
		STRING, NEQ, IDENT, LPAREN, IDENT, COMMA, NUMBER, RPAREN, EOF,
	})
	deepEqual(t, values[13], `a"b`)
	deepEqual(t, values[15], "str_len")
}

func TestLexerPositions(t *testing.T) {
	lex := NewLexer("  a <b")
	tok := must(lex.NextToken())
	deepEqual(t, tok, Token{Type: IDENT, Value: "a", Position: 2})
	tok = must(lex.NextToken())
	deepEqual(t, tok, Token{Type: LT, Value: "<", Position: 4})
	tok = must(lex.NextToken())
	deepEqual(t, tok, Token{Type: IDENT, Value: "b", Position: 5})
	tok = must(lex.NextToken())
	deepEqual(t, tok, Token{Type: EOF, Position: 6})
	tok = must(lex.NextToken())
	deepEqual(t, tok.Type, EOF)
}

func TestLexerErrors(t *testing.T) {
	fails := func(input string, pos int) {
		t.Helper()
		lex := NewLexer(input)
		for {
			tok, err := lex.NextToken()
			if err != nil {
				var se *SyntaxError
				if !errors.As(err, &se) {
					t.Fatalf("** %q: got %T %v, wanted *SyntaxError", input, err, err)
				}
				if se.Pos != pos {
					t.Errorf("** %q: error at %d, wanted %d: %v", input, se.Pos, pos, err)
				}
				return
			}
			if tok.Type == EOF {
				t.Fatalf("** %q: no error", input)
			}
		}
	}
	fails(`a # b`, 2)
	fails(`"abc`, 0)
	fails(`x "a\nb"`, 4)
	fails(`"a\`, 2)
	fails(`a = b`, 2)
	fails(`a & b`, 2)
}

func TestParseExprPrecedence(t *testing.T) {
	ok := func(input, e string) {
		t.Helper()
		a, err := ParseExpr(input)
		if err != nil {
			t.Fatalf("** ParseExpr(%q): %v", input, err)
		}
		if a.String() != e {
			t.Errorf("** ParseExpr(%q) = %s, wanted %s", input, a.String(), e)
		}
	}
	ok("1", "1")
	ok(`"hi"`, `"hi"`)
	ok("true", "true")
	ok("1 + 2 * 3", "(1 + (2 * 3))")
	ok("1 * 2 + 3", "((1 * 2) + 3)")
	ok("1 - 2 - 3", "((1 - 2) - 3)")
	ok("8 / 4 / 2", "((8 / 4) / 2)")
	ok("(1 - 2) * 3", "((1 - 2) * 3)")
	ok("1 + 2 < 4", "((1 + 2) < 4)")
	ok("1 < 2 == true", "((1 < 2) == true)")
	ok("a == b && c != d", "((a == b) && (c != d))")
	ok("a && b || c", "((a && b) || c)")
	ok("-users.age", "-users.age")
	ok("--1", "--1")
	ok("!a.b && c", "(!a.b && c)")
	ok("users.group.title", "users.group.title")
	ok("now()", "now()")
	ok(`str_len(users.name) > 3`, "(str_len(users.name) > 3)")
	ok("f(1, 2 + 3)", "f(1, (2 + 3))")
}

func TestParseExprNodes(t *testing.T) {
	e := must(ParseExpr("users.age"))
	fa, ok := e.(*expr.FieldAccess)
	if !ok {
		t.Fatalf("** got %T", e)
	}
	deepEqual(t, fa.Field, "age")
	deepEqual(t, fa.Value, expr.Expr(&expr.TableAccess{Name: "users"}))

	e = must(ParseExpr("-5"))
	deepEqual(t, e, expr.Expr(&expr.Literal{Value: schema.IntValue(-5)}))

	e = must(ParseExpr("-2147483648"))
	deepEqual(t, e, expr.Expr(&expr.Literal{Value: schema.IntValue(math.MinInt32)}))

	e = must(ParseExpr("-(5)"))
	deepEqual(t, e, expr.Expr(&expr.Unary{Op: expr.Negate, Value: &expr.Literal{Value: schema.IntValue(5)}}))

	e = must(ParseExpr("-age"))
	deepEqual(t, e, expr.Expr(&expr.Unary{Op: expr.Negate, Value: &expr.TableAccess{Name: "age"}}))

	e = must(ParseExpr(`"x"`))
	deepEqual(t, e, expr.Expr(&expr.Literal{Value: schema.TextValue("x")}))

	e = must(ParseExpr("now()"))
	deepEqual(t, e, expr.Expr(&expr.FnCall{Name: "now"}))
}

func TestParseExprErrors(t *testing.T) {
	fails := func(input string, pos int) {
		t.Helper()
		_, err := ParseExpr(input)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("** ParseExpr(%q): got %v, wanted *SyntaxError", input, err)
		}
		if se.Pos != pos {
			t.Errorf("** ParseExpr(%q): error at %d, wanted %d: %v", input, se.Pos, pos, err)
		}
	}
	fails("", 0)
	fails("1 +", 3)
	fails("(1", 2)
	fails("1)", 1)
	fails("a.", 2)
	fails("a.1", 2)
	fails("a:b", 1)
	fails("f(1,)", 4)
	fails("f(1 2)", 4)
	fails("2147483648", 0)
	fails("-2147483649", 1)
	fails("3000000000", 0)
	fails("1 2", 2)
}

func TestParseQuery(t *testing.T) {
	q := must(Parse("query users"))
	deepEqual(t, q.Table, "users")
	isnil(t, q.Filter)
	isnil(t, q.GroupBy)

	q = must(Parse(`query users where users.name == "Ann" group_by users.age`))
	deepEqual(t, q.String(), `query users where (users.name == "Ann") group_by users.age`)

	q = must(Parse("query items group_by items.group"))
	isnil(t, q.Filter)
	deepEqual(t, q.GroupBy.String(), "items.group")
}

func TestParseQueryErrors(t *testing.T) {
	fails := func(input, msg string) {
		t.Helper()
		_, err := Parse(input)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("** Parse(%q): got %v, wanted *SyntaxError", input, err)
		}
		if msg != "" && err.Error() != msg {
			t.Errorf("** Parse(%q): got %q, wanted %q", input, err.Error(), msg)
		}
	}
	fails("", "syntax error at 0: unexpected end of input, wanted 'query'")
	fails("users", `syntax error at 0: unexpected identifier "users", wanted 'query'`)
	fails("query", "syntax error at 5: unexpected end of input, wanted identifier")
	fails("query where", `syntax error at 6: unexpected 'where' "where", wanted identifier`)
	fails("query users where", "")
	fails("query users group_by x where y", "")
	fails("query users users.age", "")
}

func TestParseAndEval(t *testing.T) {
	users := must(schema.Compile("users", schema.NewTableDef(
		schema.FieldDef("name", schema.TyText),
		schema.FieldDef("age", schema.TyIntI32),
	)))
	tables := map[string]*schema.Table{"users": users}

	q := must(Parse(`query users where users.age * 2 > 60 && str_len(users.name) == 3`))
	isnil(t, q.CheckFilter(&expr.TyCtx{Tables: tables}))

	match := func(name string, age int32) bool {
		t.Helper()
		rec := must(schema.NewRecord(users, map[string]schema.FieldValue{
			"name": schema.TextValue(name),
			"age":  schema.IntValue(age),
		}))
		ctx := expr.NewEvalCtx(tables, time.Unix(0, 0))
		ctx.Bind(users, rec)
		v := must(q.Filter.Eval(ctx))
		return v.Field.Bool()
	}
	deepEqual(t, match("Ann", 31), true)
	deepEqual(t, match("Ann", 30), false)
	deepEqual(t, match("Anna", 31), false)

	q = must(Parse(`query users where age > 10 && age < 20`))
	isnil(t, q.CheckFilter(&expr.TyCtx{Tables: tables, Bound: []string{"users"}}))
	deepEqual(t, match("Ann", 15), true)
	deepEqual(t, match("Ann", 25), false)

	q = must(Parse(`query users where users.age + 1`))
	var tm *expr.TypeMismatchError
	if err := q.CheckFilter(&expr.TyCtx{Tables: tables}); !errors.As(err, &tm) {
		t.Fatalf("** CheckFilter: got %v, wanted *TypeMismatchError", err)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isnil(t testing.TB, a any) {
	if a != nil && !reflect.ValueOf(a).IsNil() {
		t.Helper()
		t.Errorf("** got %v, wanted nil", a)
	}
}
