package queryparse

import (
	"strconv"

	"github.com/andreyvit/packdb/expr"
	"github.com/andreyvit/packdb/schema"
)

// Parse parses "query <table> [where <expr>] [group_by <expr>]".
func Parse(input string) (*expr.Query, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}

	if err := p.expect(QUERY); err != nil {
		return nil, err
	}
	name := p.tok
	if err := p.expect(IDENT); err != nil {
		return nil, err
	}
	q := &expr.Query{Table: name.Value}

	if p.tok.Type == WHERE {
		if err := p.advance(); err != nil {
			return nil, err
		}
		q.Filter, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if p.tok.Type == GROUP_BY {
		if err := p.advance(); err != nil {
			return nil, err
		}
		q.GroupBy, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(EOF); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseExpr parses a standalone expression.
func ParseExpr(input string) (expr.Expr, error) {
	p, err := newParser(input)
	if err != nil {
		return nil, err
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(EOF); err != nil {
		return nil, err
	}
	return e, nil
}

type parser struct {
	lex *Lexer
	tok Token
}

func newParser(input string) (*parser, error) {
	p := &parser{lex: NewLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.NextToken()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(tt TokenType) error {
	if p.tok.Type != tt {
		return p.unexpected(tt.String())
	}
	return p.advance()
}

func (p *parser) unexpected(wanted string) error {
	if p.tok.Type == EOF {
		return syntaxErrf(p.tok.Position, "unexpected end of input, wanted %s", wanted)
	}
	return syntaxErrf(p.tok.Position, "unexpected %s %q, wanted %s", p.tok.Type, p.tok.Value, wanted)
}

// Binary operator precedence, higher binds tighter.
var binaryOps = map[TokenType]struct {
	op   expr.BinaryOp
	prec int
}{
	AND:      {expr.And, 1},
	OR:       {expr.Or, 1},
	EQ:       {expr.Eq, 2},
	NEQ:      {expr.Neq, 2},
	LT:       {expr.Less, 3},
	LTE:      {expr.LessEq, 3},
	GT:       {expr.Greater, 3},
	GTE:      {expr.GreaterEq, 3},
	PLUS:     {expr.Add, 4},
	MINUS:    {expr.Sub, 4},
	ASTERISK: {expr.Mul, 5},
	SLASH:    {expr.Div, 5},
}

// parseExpr parses operators of precedence >= minPrec, left-associatively.
func (p *parser) parseExpr(minPrec int) (expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		bop, ok := binaryOps[p.tok.Type]
		if !ok || bop.prec < minPrec {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseExpr(bop.prec + 1)
		if err != nil {
			return nil, err
		}
		left = &expr.Binary{A: left, Op: bop.op, B: right}
	}
}

func (p *parser) parseUnary() (expr.Expr, error) {
	var op expr.UnaryOp
	switch p.tok.Type {
	case MINUS:
		op = expr.Negate
	case BANG:
		op = expr.LogicNot
	default:
		return p.parsePostfix()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	// A negated number is a single literal, so that math.MinInt32 is expressible.
	if op == expr.Negate && p.tok.Type == NUMBER {
		return p.intLiteral("-" + p.tok.Value)
	}
	v, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &expr.Unary{Op: op, Value: v}, nil
}

func (p *parser) parsePostfix() (expr.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == DOT {
		if err := p.advance(); err != nil {
			return nil, err
		}
		name := p.tok
		if err := p.expect(IDENT); err != nil {
			return nil, err
		}
		e = &expr.FieldAccess{Value: e, Field: name.Value}
	}
	return e, nil
}

func (p *parser) parsePrimary() (expr.Expr, error) {
	tok := p.tok
	switch tok.Type {
	case NUMBER:
		return p.intLiteral(tok.Value)
	case STRING:
		return p.literal(schema.TextValue(tok.Value))
	case TRUE:
		return p.literal(schema.BoolValue(true))
	case FALSE:
		return p.literal(schema.BoolValue(false))
	case LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case IDENT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Type == LPAREN {
			return p.parseCall(tok.Value)
		}
		return &expr.TableAccess{Name: tok.Value}, nil
	default:
		return nil, p.unexpected("expression")
	}
}

func (p *parser) intLiteral(text string) (expr.Expr, error) {
	v, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return nil, syntaxErrf(p.tok.Position, "invalid integer %s", text)
	}
	return p.literal(schema.IntValue(int32(v)))
}

func (p *parser) literal(v schema.FieldValue) (expr.Expr, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &expr.Literal{Value: v}, nil
}

func (p *parser) parseCall(name string) (expr.Expr, error) {
	if err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	call := &expr.FnCall{Name: name}
	if p.tok.Type == RPAREN {
		return call, p.advance()
	}
	for {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.tok.Type != COMMA {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}
