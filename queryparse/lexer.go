package queryparse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	EOF TokenType = iota
	IDENT
	NUMBER
	STRING

	QUERY
	WHERE
	GROUP_BY
	TRUE
	FALSE

	PLUS
	MINUS
	ASTERISK
	SLASH
	BANG
	EQ
	NEQ
	LT
	LTE
	GT
	GTE
	AND
	OR

	DOT
	COMMA
	COLON
	LPAREN
	RPAREN
)

var keywords = map[string]TokenType{
	"query":    QUERY,
	"where":    WHERE,
	"group_by": GROUP_BY,
	"true":     TRUE,
	"false":    FALSE,
}

var singleCharTokens = map[byte]TokenType{
	'+': PLUS,
	'-': MINUS,
	'*': ASTERISK,
	'/': SLASH,
	'.': DOT,
	',': COMMA,
	':': COLON,
	'(': LPAREN,
	')': RPAREN,
}

// twoCharTokens are tried before single-character ones.
var twoCharTokens = map[string]TokenType{
	"==": EQ,
	"!=": NEQ,
	"<=": LTE,
	">=": GTE,
	"&&": AND,
	"||": OR,
}

var tokenNames = map[TokenType]string{
	EOF:      "end of input",
	IDENT:    "identifier",
	NUMBER:   "number",
	STRING:   "string",
	QUERY:    "'query'",
	WHERE:    "'where'",
	GROUP_BY: "'group_by'",
	TRUE:     "'true'",
	FALSE:    "'false'",
	PLUS:     "'+'",
	MINUS:    "'-'",
	ASTERISK: "'*'",
	SLASH:    "'/'",
	BANG:     "'!'",
	EQ:       "'=='",
	NEQ:      "'!='",
	LT:       "'<'",
	LTE:      "'<='",
	GT:       "'>'",
	GTE:      "'>='",
	AND:      "'&&'",
	OR:       "'||'",
	DOT:      "'.'",
	COMMA:    "','",
	COLON:    "':'",
	LPAREN:   "'('",
	RPAREN:   "')'",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a lexeme. Value holds the identifier, the digits of a number or
// the unescaped contents of a string literal.
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

// SyntaxError reports the byte offset in the input where lexing or parsing failed.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

func syntaxErrf(pos int, format string, args ...any) error {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Lexer splits query text into tokens. Keywords are case-sensitive.
type Lexer struct {
	input string
	pos   int
}

func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken scans the next token. Once the input is exhausted it keeps
// returning EOF.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Position: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	if l.pos+1 < len(l.input) {
		if tt, ok := twoCharTokens[l.input[l.pos:l.pos+2]]; ok {
			l.pos += 2
			return Token{Type: tt, Value: l.input[start:l.pos], Position: start}, nil
		}
	}
	if tt, ok := singleCharTokens[ch]; ok {
		l.pos++
		return Token{Type: tt, Value: string(ch), Position: start}, nil
	}

	switch {
	case ch == '<':
		l.pos++
		return Token{Type: LT, Value: "<", Position: start}, nil
	case ch == '>':
		l.pos++
		return Token{Type: GT, Value: ">", Position: start}, nil
	case ch == '!':
		l.pos++
		return Token{Type: BANG, Value: "!", Position: start}, nil
	case ch == '"':
		return l.readString(start)
	case ch >= '0' && ch <= '9':
		return l.readNumber(start), nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	if unicode.IsLetter(r) || r == '_' {
		return l.readIdentifier(start), nil
	}
	return Token{}, syntaxErrf(start, "unexpected character %q", r)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *Lexer) readIdentifier(start int) Token {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.pos += size
	}
	value := l.input[start:l.pos]
	if tt, ok := keywords[value]; ok {
		return Token{Type: tt, Value: value, Position: start}
	}
	return Token{Type: IDENT, Value: value, Position: start}
}

func (l *Lexer) readNumber(start int) Token {
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
	}
	return Token{Type: NUMBER, Value: l.input[start:l.pos], Position: start}
}

// readString reads a double-quoted literal. Only \\ and \" escapes are recognized.
func (l *Lexer) readString(start int) (Token, error) {
	l.pos++ // opening quote
	var buf strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch ch {
		case '"':
			l.pos++
			return Token{Type: STRING, Value: buf.String(), Position: start}, nil
		case '\\':
			if l.pos+1 >= len(l.input) {
				return Token{}, syntaxErrf(l.pos, "unterminated escape")
			}
			next := l.input[l.pos+1]
			if next != '\\' && next != '"' {
				return Token{}, syntaxErrf(l.pos, "invalid escape \\%c", next)
			}
			buf.WriteByte(next)
			l.pos += 2
		default:
			buf.WriteByte(ch)
			l.pos++
		}
	}
	return Token{}, syntaxErrf(start, "unterminated string")
}
