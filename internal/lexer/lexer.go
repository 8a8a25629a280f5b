// Package lexer implements the deterministic token producer that the
// parser driver consumes. Spec §1 treats the real lexer as an external,
// generated black box; this is a hand-written stand-in that honours the
// same contract (a stream of tokens carrying a zero-based byte offset)
// so the rest of the pipeline is runnable end to end.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/token"
)

// Lexer tokenizes a UniScript source buffer.
type Lexer struct {
	src []byte
	cur rune
	off int // byte offset of cur
	roff int // offset just past cur

	err func(pos, length int, msg string)
}

// New returns a Lexer ready to scan src. errHandler is called for every
// ill-formed token encountered (unclosed string, unknown character).
func New(src []byte, errHandler func(pos, length int, msg string)) *Lexer {
	l := &Lexer{src: src, err: errHandler}
	l.cur = ' '
	l.advance()
	return l
}

func (l *Lexer) advance() {
	if l.roff >= len(l.src) {
		l.off = len(l.src)
		l.cur = -1
		return
	}
	l.off = l.roff
	r, w := rune(l.src[l.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(l.src[l.roff:])
	}
	l.roff += w
	l.cur = r
}

func (l *Lexer) peek() byte {
	if l.roff < len(l.src) {
		return l.src[l.roff]
	}
	return 0
}

func (l *Lexer) advanceIf(b byte) bool {
	if byte(l.cur) == b && l.cur >= 0 {
		l.advance()
		return true
	}
	return false
}

func (l *Lexer) errorf(pos, length int, format string, args ...any) {
	if l.err != nil {
		l.err(pos, length, fmt.Sprintf(format, args...))
	}
}

// Scan returns the next token in the source.
func (l *Lexer) Scan() token.Token {
	l.skipWhitespaceAndComments()

	start := l.off
	cur := l.cur

	switch {
	case cur == -1:
		return token.Token{Kind: token.EOF, Position: start}

	case isLetter(cur):
		lit := l.ident()
		return token.Token{Kind: token.Lookup(lit), Lexeme: lit, Position: start}

	case isDigit(cur) || (cur == '.' && isDigit(rune(l.peek()))):
		kind, lit := l.number()
		return token.Token{Kind: kind, Lexeme: lit, Position: start}

	case cur == '"':
		lit := l.stringLiteral()
		return token.Token{Kind: token.STRING, Lexeme: lit, Position: start}
	}

	l.advance()
	switch cur {
	case '+':
		if l.advanceIf('+') {
			return l.tok(token.INC, start)
		}
		return l.tok(token.PLUS, start)
	case '-':
		if l.advanceIf('-') {
			return l.tok(token.DEC, start)
		}
		return l.tok(token.MINUS, start)
	case '*':
		if l.advanceIf('*') {
			return l.tok(token.STARSTAR, start)
		}
		return l.tok(token.STAR, start)
	case '/':
		return l.tok(token.SLASH, start)
	case '%':
		return l.tok(token.PERCENT, start)
	case '&':
		if l.advanceIf('&') {
			return l.tok(token.ANDAND, start)
		}
		return l.tok(token.AMP, start)
	case '|':
		if l.advanceIf('|') {
			return l.tok(token.OROR, start)
		}
		return l.tok(token.PIPE, start)
	case '^':
		return l.tok(token.CARET, start)
	case '~':
		return l.tok(token.TILDE, start)
	case '!':
		if l.advanceIf('=') {
			return l.tok(token.NEQ, start)
		}
		return l.tok(token.BANG, start)
	case '=':
		if l.advanceIf('=') {
			return l.tok(token.EQL, start)
		}
		return l.tok(token.ASSIGN, start)
	case '<':
		if l.advanceIf('<') {
			return l.tok(token.SHL, start)
		}
		if l.advanceIf('=') {
			return l.tok(token.LE, start)
		}
		return l.tok(token.LT, start)
	case '>':
		if l.advanceIf('>') {
			return l.tok(token.SHR, start)
		}
		if l.advanceIf('=') {
			return l.tok(token.GE, start)
		}
		return l.tok(token.GT, start)
	case '(':
		return l.tok(token.LPAREN, start)
	case ')':
		return l.tok(token.RPAREN, start)
	case '[':
		return l.tok(token.LBRACK, start)
	case ']':
		return l.tok(token.RBRACK, start)
	case '{':
		return l.tok(token.LBRACE, start)
	case '}':
		return l.tok(token.RBRACE, start)
	case ',':
		return l.tok(token.COMMA, start)
	case ';':
		return l.tok(token.SEMI, start)
	case ':':
		return l.tok(token.COLON, start)
	default:
		l.errorf(start, 1, "illegal character %#U", cur)
		return token.Token{Kind: token.ILLEGAL, Lexeme: string(cur), Position: start}
	}
}

func (l *Lexer) tok(kind token.Kind, start int) token.Token {
	return token.Token{Kind: kind, Lexeme: kind.String(), Position: start}
}

func (l *Lexer) ident() string {
	start := l.off
	for isLetter(l.cur) || isDigit(l.cur) {
		l.advance()
	}
	return string(l.src[start:l.off])
}

func (l *Lexer) number() (token.Kind, string) {
	start := l.off
	kind := token.INT
	for isDigit(l.cur) {
		l.advance()
	}
	if l.cur == '.' && isDigit(rune(l.peek())) {
		kind = token.FLOAT
		l.advance()
		for isDigit(l.cur) {
			l.advance()
		}
	}
	if l.cur == 'e' || l.cur == 'E' {
		kind = token.FLOAT
		l.advance()
		if l.cur == '+' || l.cur == '-' {
			l.advance()
		}
		for isDigit(l.cur) {
			l.advance()
		}
	}
	return kind, string(l.src[start:l.off])
}

func (l *Lexer) stringLiteral() string {
	start := l.off
	l.advance() // opening quote
	var sb strings.Builder
	sb.WriteByte('"')
	for l.cur != '"' {
		if l.cur == -1 || l.cur == '\n' {
			l.errorf(start, l.off-start, "unclosed string literal")
			break
		}
		if l.cur == '\\' {
			sb.WriteRune(l.cur)
			l.advance()
		}
		if l.cur != -1 {
			sb.WriteRune(l.cur)
			l.advance()
		}
	}
	if l.cur == '"' {
		l.advance()
	}
	return sb.String()
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case isWhitespace(l.cur):
			l.advance()
		case l.cur == '/' && l.peek() == '/':
			for l.cur != '\n' && l.cur != -1 {
				l.advance()
			}
		case l.cur == '/' && l.peek() == '*':
			l.advance()
			l.advance()
			for !(l.cur == '*' && l.peek() == '/') && l.cur != -1 {
				l.advance()
			}
			if l.cur != -1 {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func isWhitespace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_' ||
		r >= utf8.RuneSelf && unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9' || r >= utf8.RuneSelf && unicode.IsDigit(r)
}

// ScanAll tokenizes the full source, returning every token up to and
// including EOF. On a lexical fault the returned slice holds whatever was
// produced before the fault and the fault itself is non-nil.
func ScanAll(src []byte) ([]token.Token, *diag.Fault) {
	var fault *diag.Fault
	l := New(src, func(pos, length int, msg string) {
		if fault == nil {
			fault = diag.NewLexicalFault(msg, pos, length)
		}
	})

	var toks []token.Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
		if fault != nil {
			break
		}
	}
	return toks, fault
}
