// Package codegen implements the BIP code generator (C6): an independent
// second pass over the same token stream the parser consumed, driven by the
// final symbol table. Generate accepts the declaration/assignment events C5
// registered through dispatcher.Listener but does not consult them. It does
// not build or consume an AST (§4.6,
// "Source re-scanning in the code generator"): control flow is
// reconstructed by brace/paren tracking, exactly as the teacher's asm.go
// dasm builds its textual form by walking a decoded instruction list rather
// than an expression tree.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DanielAraldiEDU/uniscript/internal/symtab"
	"github.com/DanielAraldiEDU/uniscript/internal/token"
	"github.com/DanielAraldiEDU/uniscript/internal/types"
)

// Program is the generated BIP assembly text, kept as separate .data/.text
// line buffers until Render joins them, mirroring the teacher's dasm buffer
// discipline (accumulate, then serialize once).
type Program struct {
	Data []string
	Text []string
}

// Render serializes the program in the stable format described by §4.6:
// ASCII, .data then .text, one instruction per line indented four spaces,
// labels flush-left with a trailing colon, terminated by HLT 0.
func (p *Program) Render() string {
	var b strings.Builder
	b.WriteString(".data\n")
	for _, l := range p.Data {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("\n.text\n")
	b.WriteString("JMP main\n")
	b.WriteString("main:\n")
	for _, l := range p.Text {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("    HLT 0\n")
	return b.String()
}

type loopLabels struct {
	continueLbl, breakLbl string
}

// Generator drives the re-scan and emits BIP assembly.
type Generator struct {
	toks []token.Token

	matchBrace, matchParen map[int]int
	depthAt                []int
	pos2tok                map[int]int

	aliases *AliasTable

	data []string
	text []string

	labelN  int
	tempN   int
	loops   []loopLabels
	symByPos map[int]*symtab.Symbol // declaration position -> its symbol, for type gating
}

// Generate runs the code generator over src/toks using the final symbol
// table produced by semantic analysis. events is accepted for the
// cooperation point §4.6 names (declarations/assignments registered by C5)
// but the generator primarily drives its own re-scan; events are consulted
// only where the re-scan alone cannot recover semantic facts unavailable
// from tokens (currently: none, kept for API fidelity and future use).
func Generate(toks []token.Token, symbols []*symtab.Symbol, _ []Event) *Program {
	g := &Generator{
		toks:    toks,
		aliases: NewAliasTable(),
		pos2tok:  make(map[int]int, len(toks)),
		symByPos: make(map[int]*symtab.Symbol),
	}
	g.matchBrace, g.matchParen = matchBrackets(toks)
	g.depthAt = buildBraceDepth(toks)
	for i, t := range toks {
		g.pos2tok[t.Position] = i
	}

	ordered := make([]*symtab.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if !s.IsFunction {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })
	for _, s := range ordered {
		g.aliases.Register(s)
		g.symByPos[s.Position] = s
	}

	root := newScanner(toks).buildRoot()
	g.emitBlockBody(root)

	return &Program{Data: g.data, Text: g.text}
}

func (g *Generator) emit(s string)              { g.text = append(g.text, "    "+s) }
func (g *Generator) emitf(f string, a ...any)    { g.emit(fmt.Sprintf(f, a...)) }
func (g *Generator) label(name string)           { g.text = append(g.text, name+":") }
func (g *Generator) newLabel() string            { g.labelN++; return fmt.Sprintf("R%d", g.labelN) }
func (g *Generator) pushLoopLabels(cont, brk string) { g.loops = append(g.loops, loopLabels{cont, brk}) }
func (g *Generator) popLoopLabels()              { g.loops = g.loops[:len(g.loops)-1] }

// nextTemp allocates the next address in the per-expression scratch pool
// (900-999, §4.6 "Temporaries"), cycling back to 900 if exhausted.
func (g *Generator) nextTemp() int {
	addr := 900 + g.tempN%100
	g.tempN++
	return addr
}

func (g *Generator) aliasAt(name string, pos int) string {
	depth := 0
	if idx, ok := g.pos2tok[pos]; ok {
		depth = g.depthAt[idx]
	}
	if _, alias, ok := g.aliases.Resolve(name, pos, depth); ok {
		return alias
	}
	return name
}

func (g *Generator) aliasOf(sym *symtab.Symbol) string {
	if alias, ok := g.aliases.AliasOf(sym); ok {
		return alias
	}
	return sym.Name
}

// emitBlockBody walks one ctrlBlock's body token-by-token, interleaving its
// nested control constructs (already discovered by the scanner, in source
// order) with the plain statements found directly inside it.
func (g *Generator) emitBlockBody(blk *ctrlBlock) {
	i, ci := blk.bodyStart, 0
	for i < blk.bodyEnd {
		if ci < len(blk.children) && i == blk.children[ci].headTok {
			g.emitControl(blk.children[ci])
			i = blk.children[ci].endTok
			ci++
			continue
		}
		i = g.emitStatement(i)
	}
}

func (g *Generator) emitControl(blk *ctrlBlock) {
	switch blk.kind {
	case blockIf:
		g.emitIf(blk)
	case blockWhile:
		g.emitWhile(blk)
	case blockDo:
		g.emitDo(blk)
	case blockFor:
		g.emitFor(blk)
	}
}

func (g *Generator) emitIf(blk *ctrlBlock) {
	elseLbl := g.newLabel()
	g.emitCondition(blk.condStart, blk.condEnd, elseLbl, true)
	g.emitBlockBody(blk)
	if blk.elseBlock != nil {
		endLbl := g.newLabel()
		g.emit("JMP " + endLbl)
		g.label(elseLbl)
		g.emitBlockBody(blk.elseBlock)
		g.label(endLbl)
	} else {
		g.label(elseLbl)
	}
}

func (g *Generator) emitWhile(blk *ctrlBlock) {
	startLbl := g.newLabel()
	endLbl := g.newLabel()
	g.label(startLbl)
	g.emitCondition(blk.condStart, blk.condEnd, endLbl, true)
	g.pushLoopLabels(startLbl, endLbl)
	g.emitBlockBody(blk)
	g.popLoopLabels()
	g.emit("JMP " + startLbl)
	g.label(endLbl)
}

func (g *Generator) emitDo(blk *ctrlBlock) {
	startLbl := g.newLabel()
	condLbl := g.newLabel()
	endLbl := g.newLabel()
	g.label(startLbl)
	g.pushLoopLabels(condLbl, endLbl)
	g.emitBlockBody(blk)
	g.popLoopLabels()
	g.label(condLbl)
	g.emitCondition(blk.condStart, blk.condEnd, startLbl, false)
	g.label(endLbl)
}

func (g *Generator) emitFor(blk *ctrlBlock) {
	if blk.forInitEnd > blk.forInitStart {
		g.emitStatementSpan(blk.forInitStart, blk.forInitEnd)
	}
	startLbl := g.newLabel()
	updateLbl := g.newLabel()
	endLbl := g.newLabel()
	g.label(startLbl)
	if blk.forCondEnd > blk.forCondStart {
		g.emitCondition(blk.forCondStart, blk.forCondEnd, endLbl, true)
	}
	g.pushLoopLabels(updateLbl, endLbl)
	g.emitBlockBody(blk)
	g.popLoopLabels()
	g.label(updateLbl)
	if blk.forUpdateEnd > blk.forUpdateStart {
		g.emitStatementSpan(blk.forUpdateStart, blk.forUpdateEnd)
	}
	g.emit("JMP " + startLbl)
	g.label(endLbl)
}

// emitCondition lowers a relational test: the common case (atom REL atom,
// §4.6's named shape) loads each side directly, using temporaries only when
// the right side is an indexed access; any
// other boolean expression falls back to evaluating it generically and
// testing the result against zero.
func (g *Generator) emitCondition(start, end int, target string, invert bool) {
	span := g.toks[start:end]
	if relPos := findTopLevelRel(span); relPos >= 0 {
		lhs, rhsStart := span[:relPos], relPos+1
		rhsKind := span[relPos].Kind
		rhs := span[rhsStart:]
		if lEnd, ok := atomSpan(lhs, 0); ok && lEnd == len(lhs) {
			if rEnd, ok := atomSpan(rhs, 0); ok && rEnd == len(rhs) {
				g.loadAtomInto(lhs, 0)
				g.subAtom(rhs, 0)
				g.emit(relBranch(rhsKind, invert) + " " + target)
				return
			}
		}
	}
	// generic fallback: evaluate as a boolean expression, then test for zero.
	e := g.newExprEmitter(span)
	e.emit()
	if invert {
		g.emit("SUBI 0")
		g.emit("BEQ " + target)
	} else {
		g.emit("SUBI 0")
		g.emit("BNE " + target)
	}
}

// findTopLevelRel finds a relational operator not nested inside parens or
// brackets, the shape the front end always produces for a loop condition.
func findTopLevelRel(toks []token.Token) int {
	depth := 0
	for i, t := range toks {
		switch t.Kind {
		case token.LPAREN, token.LBRACK:
			depth++
		case token.RPAREN, token.RBRACK:
			depth--
		case token.LT, token.GT, token.LE, token.GE, token.EQL, token.NEQ:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// loadAtomInto emits LD/LDI/LDV for a single atom (literal, identifier, or
// indexed identifier) at toks[start].
func (g *Generator) loadAtomInto(toks []token.Token, start int) {
	t := toks[start]
	switch t.Kind {
	case token.INT:
		g.emitf("LDI %s", t.Lexeme)
	case token.TRUE:
		g.emit("LDI 1")
	case token.FALSE:
		g.emit("LDI 0")
	case token.IDENT:
		if start+1 < len(toks) && toks[start+1].Kind == token.LBRACK {
			idxEnd, _ := atomSpan(toks, start+1)
			idxToks := toks[start+2 : idxEnd-1]
			g.newExprEmitter(idxToks).emit()
			g.emit("STO $indr")
			g.emitf("LDV %s", g.aliasAt(t.Lexeme, t.Position))
			return
		}
		g.emitf("LD %s", g.aliasAt(t.Lexeme, t.Position))
	}
}

// subAtom emits SUB/SUBI for a single atom, against the value already in
// the accumulator.
func (g *Generator) subAtom(toks []token.Token, start int) {
	t := toks[start]
	switch t.Kind {
	case token.INT:
		g.emitf("SUBI %s", t.Lexeme)
	case token.TRUE:
		g.emit("SUBI 1")
	case token.FALSE:
		g.emit("SUBI 0")
	case token.IDENT:
		if start+1 < len(toks) && toks[start+1].Kind == token.LBRACK {
			lhsTmp := g.nextTemp()
			g.emitf("STO %d", lhsTmp) // the caller's lhs value, currently in the accumulator
			idxEnd, _ := atomSpan(toks, start+1)
			idxToks := toks[start+2 : idxEnd-1]
			g.newExprEmitter(idxToks).emit()
			g.emit("STO $indr")
			g.emitf("LDV %s", g.aliasAt(t.Lexeme, t.Position))
			rhsTmp := g.nextTemp()
			g.emitf("STO %d", rhsTmp)
			g.emitf("LD %d", lhsTmp)
			g.emitf("SUB %d", rhsTmp)
			return
		}
		g.emitf("SUB %s", g.aliasAt(t.Lexeme, t.Position))
	}
}

// emitStatement recognises one statement starting at token index i (a
// declaration, assignment, indexed assignment, inc/dec, read, print,
// break/continue, or a statement this generator does not lower) and
// returns the index just past it.
func (g *Generator) emitStatement(i int) int {
	t := g.toks[i]
	switch t.Kind {
	case token.VAR, token.CONST:
		return g.emitDecl(i)
	case token.READ:
		return g.emitReadStmt(i)
	case token.PRINT:
		return g.emitPrintStmt(i)
	case token.BREAK:
		if n := len(g.loops); n > 0 {
			g.emit("JMP " + g.loops[n-1].breakLbl)
		}
		return skipToSemi(g.toks, i) + 1
	case token.CONTINUE:
		if n := len(g.loops); n > 0 {
			g.emit("JMP " + g.loops[n-1].continueLbl)
		}
		return skipToSemi(g.toks, i) + 1
	case token.RETURN:
		// no BIP opcode models a function return; skip (functions are not
		// part of the generated instruction stream at all, see scan.go).
		return skipToSemi(g.toks, i) + 1
	case token.FUNCTION:
		lparen := nextOf(g.toks, i, token.LPAREN)
		rparen := g.matchParen[lparen]
		lbrace := nextOf(g.toks, rparen, token.LBRACE)
		return g.matchBrace[lbrace] + 1
	case token.SWITCH:
		lparen := nextOf(g.toks, i, token.LPAREN)
		rparen := g.matchParen[lparen]
		lbrace := nextOf(g.toks, rparen, token.LBRACE)
		return g.matchBrace[lbrace] + 1
	case token.LBRACE:
		return i + 1
	case token.IDENT:
		semi := skipToSemi(g.toks, i)
		g.emitStatementSpan(i, semi)
		return semi + 1
	case token.INC, token.DEC:
		semi := skipToSemi(g.toks, i)
		g.emitStatementSpan(i, semi)
		return semi + 1
	case token.SEMI:
		return i + 1
	default:
		return i + 1
	}
}

func skipToSemi(toks []token.Token, i int) int {
	for i < len(toks) && toks[i].Kind != token.SEMI {
		i++
	}
	return i
}

func nextOf(toks []token.Token, from int, kind token.Kind) int {
	for i := from; i < len(toks); i++ {
		if toks[i].Kind == kind {
			return i
		}
	}
	return len(toks) - 1
}

// emitStatementSpan emits an assignment, indexed assignment, or inc/dec
// statement bounded by [start, end) (end is exclusive and, for a for-header
// clause, is not itself a ';').
func (g *Generator) emitStatementSpan(start, end int) {
	if start >= end {
		return
	}
	toks := g.toks
	if toks[start].Kind == token.VAR || toks[start].Kind == token.CONST {
		g.emitDeclSpan(start, end)
		return
	}
	name := toks[start]
	if start+1 < end && (toks[start+1].Kind == token.INC || toks[start+1].Kind == token.DEC) {
		op := "ADDI 1"
		if toks[start+1].Kind == token.DEC {
			op = "SUBI 1"
		}
		alias := g.aliasAt(name.Lexeme, name.Position)
		g.emitf("LD %s", alias)
		g.emit(op)
		g.emitf("STO %s", alias)
		return
	}
	if start+1 < end && toks[start+1].Kind == token.LBRACK {
		g.emitIndexedAssign(start, end)
		return
	}
	if start+1 < end && toks[start+1].Kind == token.ASSIGN {
		g.emitScalarAssign(start, end)
		return
	}
}

func (g *Generator) emitScalarAssign(start, end int) {
	toks := g.toks
	name := toks[start]
	alias := g.aliasAt(name.Lexeme, name.Position)
	rhs := toks[start+2 : end]
	g.emitAssignRHS(alias, rhs)
}

// emitAssignRHS implements the fast paths and add/sub chain optimisation
// named in §4.6 for the common assignment right-hand-side shapes, falling
// back to the generic recursive emitter otherwise.
func (g *Generator) emitAssignRHS(dstAlias string, rhs []token.Token) {
	if end, ok := atomSpan(rhs, 0); ok && end == len(rhs) {
		g.loadAtomInto(rhs, 0)
		g.emitf("STO %s", dstAlias)
		return
	}
	if terms, ok := flattenAddSubChain(rhs); ok {
		g.emitAddSubChain(terms, dstAlias)
		return
	}
	if lEnd, ok := atomSpan(rhs, 0); ok && lEnd < len(rhs) && isBinOpKind(rhs[lEnd].Kind) {
		rEnd, ok2 := atomSpan(rhs, lEnd+1)
		if ok2 && rEnd == len(rhs) {
			mnem, ok3 := opMnemonic(rhs[lEnd].Kind)
			if ok3 {
				g.loadAtomInto(rhs, 0)
				g.applyAtomOp(mnem, rhs, lEnd+1)
				g.emitf("STO %s", dstAlias)
				return
			}
		}
	}
	e := g.newExprEmitter(rhs)
	e.emit()
	g.emitf("STO %s", dstAlias)
}

func isBinOpKind(k token.Kind) bool {
	_, ok := opMnemonic(k)
	return ok
}

// applyAtomOp applies OP/OPI for the rhs atom at toks[start] against the
// value already in the accumulator.
func (g *Generator) applyAtomOp(mnem string, toks []token.Token, start int) {
	t := toks[start]
	switch t.Kind {
	case token.INT:
		g.emitf("%sI %s", mnem, t.Lexeme)
	case token.IDENT:
		if start+1 < len(toks) && toks[start+1].Kind == token.LBRACK {
			tmp := g.nextTemp()
			g.emitf("STO %d", tmp)
			idxEnd, _ := atomSpan(toks, start+1)
			idxToks := toks[start+2 : idxEnd-1]
			g.newExprEmitter(idxToks).emit()
			g.emit("STO $indr")
			g.emitf("LDV %s", g.aliasAt(t.Lexeme, t.Position))
			rtmp := g.nextTemp()
			g.emitf("STO %d", rtmp)
			g.emitf("LD %d", tmp)
			g.emitf("%s %d", mnem, rtmp)
			return
		}
		g.emitf("%s %s", mnem, g.aliasAt(t.Lexeme, t.Position))
	}
}

// term is one signed element of a flattened add/sub chain.
type term struct {
	neg  bool
	toks []token.Token
}

// flattenAddSubChain recognises a top-level sequence of atoms joined only
// by '+'/'-' (no other operator at the top level), per §4.6's "Add/sub
// chain optimisation".
func flattenAddSubChain(toks []token.Token) ([]term, bool) {
	if len(toks) == 0 {
		return nil, false
	}
	var terms []term
	neg := false
	i := 0
	if toks[0].Kind == token.MINUS {
		neg = true
		i = 1
	}
	for i < len(toks) {
		end, ok := atomSpan(toks, i)
		if !ok {
			return nil, false
		}
		terms = append(terms, term{neg: neg, toks: toks[i:end]})
		i = end
		if i == len(toks) {
			break
		}
		switch toks[i].Kind {
		case token.PLUS:
			neg = false
		case token.MINUS:
			neg = true
		default:
			return nil, false
		}
		i++
	}
	if len(terms) < 2 {
		return nil, false
	}
	return terms, true
}

func (g *Generator) emitAddSubChain(terms []term, dstAlias string) {
	first := terms[0]
	g.loadAtomInto(first.toks, 0)
	if first.neg {
		tmp := g.nextTemp()
		g.emitf("STO %d", tmp)
		g.emit("LDI 0")
		g.emitf("SUB %d", tmp)
	}
	g.emitf("STO 1000")
	for _, tm := range terms[1:] {
		mnem := "ADD"
		if tm.neg {
			mnem = "SUB"
		}
		g.emitf("LD 1000")
		g.applyAtomOp(mnem, tm.toks, 0)
		g.emitf("STO 1000")
	}
	g.emitf("LD 1000")
	g.emitf("STO %s", dstAlias)
}

// emitIndexedAssign lowers `name[idx] = expr;` per §4.6's "Array element
// stores": index through 1002, value through 1000, then the indexed store.
func (g *Generator) emitIndexedAssign(start, end int) {
	toks := g.toks
	name := toks[start]
	idxEnd, _ := atomSpan(toks, start)
	idxToks := toks[start+2 : idxEnd-1]
	assignIdx := idxEnd
	if assignIdx >= end || toks[assignIdx].Kind != token.ASSIGN {
		return
	}
	rhs := toks[assignIdx+1 : end]

	g.newExprEmitter(idxToks).emit()
	g.emit("STO 1002")
	g.newExprEmitter(rhs).emit()
	g.emit("STO 1000")
	g.emit("LD 1002")
	g.emit("STO $indr")
	g.emit("LD 1000")
	g.emitf("STOV %s", g.aliasAt(name.Lexeme, name.Position))
}

func (g *Generator) emitReadStmt(i int) int {
	toks := g.toks
	lparen := nextOf(toks, i, token.LPAREN)
	rparen := g.matchParen[lparen]
	semi := skipToSemi(toks, rparen)

	g.emit("LD $in_port")
	target := lparen + 1
	if target < rparen {
		if end, ok := atomSpan(toks, target); ok && end <= rparen {
			name := toks[target]
			if end > target+1 && toks[target+1].Kind == token.LBRACK {
				idxToks := toks[target+2 : end-1]
				tmp := g.nextTemp()
				g.emitf("STO %d", tmp)
				g.newExprEmitter(idxToks).emit()
				g.emit("STO $indr")
				g.emitf("LD %d", tmp)
				g.emitf("STOV %s", g.aliasAt(name.Lexeme, name.Position))
			} else {
				g.emitf("STO %s", g.aliasAt(name.Lexeme, name.Position))
			}
		}
	}
	return semi + 1
}

func (g *Generator) emitPrintStmt(i int) int {
	toks := g.toks
	lparen := nextOf(toks, i, token.LPAREN)
	rparen := g.matchParen[lparen]
	semi := skipToSemi(toks, rparen)

	argStart := lparen + 1
	if argStart < rparen {
		g.loadAtomInto(toks, argStart)
	}
	g.emit("STO $out_port")
	return semi + 1
}

// emitDecl emits one `var`/`const` declaration statement starting at the
// keyword token, registering its .data entry and any initialising stores
// at the point in the instruction stream where the declaration occurs.
func (g *Generator) emitDecl(kwIdx int) int {
	semi := skipToSemi(g.toks, kwIdx)
	g.emitDeclSpan(kwIdx, semi)
	return semi + 1
}

func (g *Generator) emitDeclSpan(kwIdx, end int) {
	toks := g.toks
	nameIdx := kwIdx + 1
	if nameIdx >= end || toks[nameIdx].Kind != token.IDENT {
		return
	}
	name := toks[nameIdx]
	if sym := g.symByPos[name.Position]; sym != nil && sym.Type != types.Int && sym.Type != types.Bool {
		// BIP is an integer accumulator machine; float/string declarations
		// have no representation in the generated instruction stream.
		return
	}
	alias := g.aliasAt(name.Lexeme, name.Position)

	i := nameIdx + 1
	if i < end && toks[i].Kind == token.COLON {
		i++
	}
	if i < end && toks[i].Kind.IsKeyword() {
		i++ // type keyword
	}
	isArray := false
	if i+1 < end && toks[i].Kind == token.LBRACK && toks[i+1].Kind == token.RBRACK {
		isArray = true
		i += 2
	}

	if i >= end || toks[i].Kind != token.ASSIGN {
		g.data = append(g.data, alias+": 0")
		return
	}
	i++ // skip '='

	if isArray {
		g.emitArrayDecl(alias, toks[i:end])
		return
	}

	if v, ok := isLiteralInt(toks[i]); ok && i+1 == end {
		g.data = append(g.data, alias+": 0")
		g.emitf("LDI %d", v)
		g.emit("STO " + alias)
		return
	}
	g.data = append(g.data, alias+": 0")
	g.emitAssignRHS(alias, toks[i:end])
}

// emitArrayDecl handles an integer array literal initialiser, per §4.6's
// declaration rule: data gets the element count as zeros, code stores each
// literal element through the index register.
func (g *Generator) emitArrayDecl(alias string, rhs []token.Token) {
	if len(rhs) == 0 || rhs[0].Kind != token.LBRACK {
		g.data = append(g.data, alias+": 0")
		return
	}
	var vals []int
	i := 1
	for i < len(rhs) && rhs[i].Kind != token.RBRACK {
		if v, ok := isLiteralInt(rhs[i]); ok {
			vals = append(vals, v)
		}
		i++
	}
	if len(vals) == 0 {
		g.data = append(g.data, alias+": 0")
		return
	}
	zeros := make([]string, len(vals))
	for i := range zeros {
		zeros[i] = "0"
	}
	g.data = append(g.data, fmt.Sprintf("%s: %s", alias, strings.Join(zeros, ",")))
	for idx, v := range vals {
		g.emitf("LDI %d", idx)
		g.emit("STO $indr")
		g.emitf("LDI %d", v)
		g.emitf("STOV %s", alias)
	}
}
