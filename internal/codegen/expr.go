package codegen

import (
	"strconv"

	"github.com/DanielAraldiEDU/uniscript/internal/token"
)

// opMnemonic maps a binary operator token to its BIP memory-form mnemonic;
// the immediate form is the same string with an "I" suffix. ** has no BIP
// opcode (the instruction set in §4.6 has no exponentiation primitive) and
// is left unlowered: the generic emitter falls through without applying it,
// keeping the left operand's value rather than fabricating a wrong one.
func opMnemonic(k token.Kind) (string, bool) {
	switch k {
	case token.PLUS:
		return "ADD", true
	case token.MINUS:
		return "SUB", true
	case token.STAR:
		return "MUL", true
	case token.SLASH:
		return "DIV", true
	case token.PERCENT:
		return "MOD", true
	case token.AMP, token.ANDAND:
		return "AND", true
	case token.PIPE, token.OROR:
		return "OR", true
	case token.CARET:
		return "XOR", true
	case token.SHL:
		return "SLL", true
	case token.SHR:
		return "SRL", true
	}
	return "", false
}

func relBranch(k token.Kind, invert bool) string {
	// invert selects the negated comparison, used to jump around a
	// true-branch; the non-inverted form is used for a do-while back edge.
	pairs := map[token.Kind][2]string{
		token.LT:  {"BLT", "BGE"},
		token.GT:  {"BGT", "BLE"},
		token.LE:  {"BLE", "BGT"},
		token.GE:  {"BGE", "BLT"},
		token.EQL: {"BEQ", "BNE"},
		token.NEQ: {"BNE", "BEQ"},
	}
	p, ok := pairs[k]
	if !ok {
		return "BEQ"
	}
	if invert {
		return p[1]
	}
	return p[0]
}

// exprEmitter emits BIP code for a single bounded token span (e.g. one
// statement's right-hand side, one loop condition). It walks the same
// precedence order as the parser's grammar, but directly produces
// instructions instead of driving the dispatcher, since the code generator
// works from its own re-scan rather than from parse actions (§4.6,
// "Source re-scanning in the code generator").
type exprEmitter struct {
	g    *Generator
	toks []token.Token // the bounded span
	pos  int
}

func (g *Generator) newExprEmitter(toks []token.Token) *exprEmitter {
	return &exprEmitter{g: g, toks: toks}
}

func (e *exprEmitter) cur() token.Token {
	if e.pos >= len(e.toks) {
		return token.Token{Kind: token.EOF}
	}
	return e.toks[e.pos]
}

func (e *exprEmitter) at(k token.Kind) bool { return e.cur().Kind == k }

func (e *exprEmitter) advance() token.Token {
	t := e.cur()
	e.pos++
	return t
}

// emit compiles the whole bounded span as one expression, leaving its value
// in the accumulator.
func (e *exprEmitter) emit() { e.orExpr() }

func (e *exprEmitter) orExpr() {
	e.andExpr()
	for e.at(token.OROR) {
		op := e.advance()
		e.applyBinaryGeneric(op.Kind, e.andExpr)
	}
}

func (e *exprEmitter) andExpr() {
	e.bitOrExpr()
	for e.at(token.ANDAND) {
		op := e.advance()
		e.applyBinaryGeneric(op.Kind, e.bitOrExpr)
	}
}

func (e *exprEmitter) bitOrExpr() {
	e.powExpr()
	for e.at(token.PIPE) {
		op := e.advance()
		e.applyBinaryGeneric(op.Kind, e.powExpr)
	}
}

func (e *exprEmitter) powExpr() {
	e.bitAndExpr()
	for e.at(token.STARSTAR) {
		e.advance()
		t := e.g.nextTemp()
		e.g.emitf("STO %d", t)
		e.bitAndExpr() // evaluated for side effects only; ** has no BIP opcode
		e.g.emitf("LD %d", t)
	}
}

func (e *exprEmitter) bitAndExpr() {
	e.relExpr()
	for e.at(token.AMP) {
		op := e.advance()
		e.applyBinaryGeneric(op.Kind, e.relExpr)
	}
}

func (e *exprEmitter) relExpr() {
	e.bitXorShiftExpr()
	for e.atRel() {
		op := e.advance()
		e.applyRelGeneric(op.Kind, e.bitXorShiftExpr)
	}
}

func (e *exprEmitter) atRel() bool {
	switch e.cur().Kind {
	case token.LT, token.GT, token.LE, token.GE, token.EQL, token.NEQ:
		return true
	}
	return false
}

func (e *exprEmitter) bitXorShiftExpr() {
	e.arithLowExpr()
	for e.at(token.CARET) || e.at(token.SHL) || e.at(token.SHR) {
		op := e.advance()
		e.applyBinaryGeneric(op.Kind, e.arithLowExpr)
	}
}

func (e *exprEmitter) arithLowExpr() {
	e.arithHighExpr()
	for e.at(token.PLUS) || e.at(token.MINUS) {
		op := e.advance()
		e.applyBinaryGeneric(op.Kind, e.arithHighExpr)
	}
}

func (e *exprEmitter) arithHighExpr() {
	e.unaryExpr()
	for e.at(token.STAR) || e.at(token.SLASH) || e.at(token.PERCENT) {
		op := e.advance()
		e.applyBinaryGeneric(op.Kind, e.unaryExpr)
	}
}

func (e *exprEmitter) unaryExpr() {
	if e.at(token.BANG) || e.at(token.TILDE) || e.at(token.MINUS) {
		op := e.advance()
		e.unaryExpr() // operand now in the accumulator
		t := e.g.nextTemp()
		e.g.emitf("STO %d", t)
		switch op.Kind {
		case token.MINUS:
			e.g.emit("LDI 0")
			e.g.emitf("SUB %d", t)
		case token.TILDE:
			e.g.emitf("LD %d", t)
			e.g.emit("XORI -1")
		case token.BANG:
			// boolean operand is 0/1: logical not is 1 - operand.
			e.g.emit("LDI 1")
			e.g.emitf("SUB %d", t)
		}
		return
	}
	e.primary()
}

// applyBinaryGeneric evaluates rhs with a uniform, always-correct temp
// discipline (store lhs, evaluate rhs, swap through a second temp) rather
// than the fast-path/chain optimisations the spec reserves for simple
// scalar assignment right-hand sides.
func (e *exprEmitter) applyBinaryGeneric(opKind token.Kind, rhs func()) {
	mnem, ok := opMnemonic(opKind)
	if !ok {
		rhs()
		return
	}
	lhsTemp := e.g.nextTemp()
	e.g.emitf("STO %d", lhsTemp)
	rhs()
	rhsTemp := e.g.nextTemp()
	e.g.emitf("STO %d", rhsTemp)
	e.g.emitf("LD %d", lhsTemp)
	e.g.emitf("%s %d", mnem, rhsTemp)
}

func (e *exprEmitter) applyRelGeneric(opKind token.Kind, rhs func()) {
	lhsTemp := e.g.nextTemp()
	e.g.emitf("STO %d", lhsTemp)
	rhs()
	rhsTemp := e.g.nextTemp()
	e.g.emitf("STO %d", rhsTemp)
	e.g.emitf("LD %d", lhsTemp)
	e.g.emitf("SUB %d", rhsTemp)
	// materialise the comparison as a 0/1 int so it composes as an operand
	// of an enclosing expression, using the non-inverted branch mnemonic.
	trueLbl := e.g.newLabel()
	endLbl := e.g.newLabel()
	e.g.emit(relBranch(opKind, false) + " " + trueLbl)
	e.g.emit("LDI 0")
	e.g.emit("JMP " + endLbl)
	e.g.label(trueLbl)
	e.g.emit("LDI 1")
	e.g.label(endLbl)
}

func (e *exprEmitter) primary() {
	t := e.cur()
	switch t.Kind {
	case token.INT:
		e.advance()
		e.g.emitf("LDI %s", t.Lexeme)
	case token.TRUE:
		e.advance()
		e.g.emit("LDI 1")
	case token.FALSE:
		e.advance()
		e.g.emit("LDI 0")
	case token.LPAREN:
		e.advance()
		depth := 1
		start := e.pos
		for e.pos < len(e.toks) && depth > 0 {
			switch e.toks[e.pos].Kind {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
			}
			if depth > 0 {
				e.pos++
			}
		}
		inner := e.g.newExprEmitter(e.toks[start:e.pos])
		inner.emit()
		if e.at(token.RPAREN) {
			e.advance()
		}
	case token.IDENT:
		e.advance()
		if e.at(token.LBRACK) {
			e.advance()
			start := e.pos
			depth := 1
			for e.pos < len(e.toks) && depth > 0 {
				switch e.toks[e.pos].Kind {
				case token.LBRACK:
					depth++
				case token.RBRACK:
					depth--
				}
				if depth > 0 {
					e.pos++
				}
			}
			idx := e.g.newExprEmitter(e.toks[start:e.pos])
			idx.emit()
			if e.at(token.RBRACK) {
				e.advance()
			}
			e.g.emit("STO $indr")
			e.g.emitf("LDV %s", e.g.aliasAt(t.Lexeme, t.Position))
			return
		}
		if e.at(token.LPAREN) {
			// call expression: BIP has no call opcode; best-effort, skip args.
			e.advance()
			depth := 1
			for e.pos < len(e.toks) && depth > 0 {
				switch e.toks[e.pos].Kind {
				case token.LPAREN:
					depth++
				case token.RPAREN:
					depth--
				}
				e.pos++
			}
			e.g.emit("LDI 0")
			return
		}
		e.g.emitf("LD %s", e.g.aliasAt(t.Lexeme, t.Position))
	default:
		e.advance()
	}
}

// atomSpan reports whether toks[start:] begins with a simple atom (int
// literal, bare identifier, or single-level indexed identifier) and returns
// the index just past it, for the assignment fast paths in codegen.go.
func atomSpan(toks []token.Token, start int) (end int, ok bool) {
	if start >= len(toks) {
		return start, false
	}
	switch toks[start].Kind {
	case token.INT, token.TRUE, token.FALSE:
		return start + 1, true
	case token.IDENT:
		i := start + 1
		if i < len(toks) && toks[i].Kind == token.LBRACK {
			depth := 1
			i++
			for i < len(toks) && depth > 0 {
				switch toks[i].Kind {
				case token.LBRACK:
					depth++
				case token.RBRACK:
					depth--
				}
				i++
			}
		}
		return i, true
	}
	return start, false
}

func isLiteralInt(t token.Token) (int, bool) {
	if t.Kind != token.INT {
		return 0, false
	}
	n, err := strconv.Atoi(t.Lexeme)
	return n, err == nil
}
