package dispatcher

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/symtab"
	"github.com/DanielAraldiEDU/uniscript/internal/token"
	"github.com/DanielAraldiEDU/uniscript/internal/typer"
	"github.com/DanielAraldiEDU/uniscript/internal/types"
)

// scopeKind records which control-flow construct opened a given symtab
// frame. The branch-close actions (44-51) use it only to keep the for-header
// stack in lockstep; they do not check it against the closing construct.
type scopeKind int8

const (
	scopeIf scopeKind = iota
	scopeWhile
	scopeDo
	scopeFor
	scopeSwitch
	scopeCase
)

// Dispatcher implements the action dispatcher (C5). It owns the transient
// declaration builder, the control-flow scope stack, the active `for`
// headers and the in-progress array literal, and drives the symbol table
// and expression typer in response to Execute calls.
type Dispatcher struct {
	Sink     *diag.Sink
	Symbols  *symtab.Table
	Typer    *typer.Typer
	Listener Listener
	Stdin    *bufio.Reader

	cur        *builder
	scopeStack []scopeKind
	forStack   []*forHeader
	arrayStack []*arrayLiteralState

	paramMode    bool // true while parsing a function's parameter list
	inFuncHeader bool // true between a function declaration header and its body
}

// New returns a ready-to-use Dispatcher. If listener is nil, a no-op
// listener is used (diagnostics-only compiles never need C6 hooks).
func New(sink *diag.Sink, symbols *symtab.Table, typr *typer.Typer, listener Listener) *Dispatcher {
	if listener == nil {
		listener = NopListener{}
	}
	return &Dispatcher{
		Sink:     sink,
		Symbols:  symbols,
		Typer:    typr,
		Listener: listener,
		Stdin:    bufio.NewReader(os.Stdin),
		cur:      &builder{},
	}
}

// SetStdinSource lets the host (or a test) replace stdin for the `read`
// action's blocking line read.
func (d *Dispatcher) SetStdinSource(r io.Reader) { d.Stdin = bufio.NewReader(r) }

// Execute dispatches one (action_id, token) event, per the table in §4.5.
func (d *Dispatcher) Execute(id int, tok token.Token) *diag.Fault {
	switch id {
	case ActionValue:
		return d.actionValue(tok)
	case ActionOr:
		d.Typer.NoteBinary(types.Or, tok.Position)
		return nil
	case ActionAnd:
		d.Typer.NoteBinary(types.And, tok.Position)
		return nil
	case ActionBitOr:
		d.Typer.NoteBinary(types.BitOr, tok.Position)
		return nil
	case ActionPow:
		d.Typer.NoteBinary(types.Pow, tok.Position)
		return nil
	case ActionBitAnd:
		d.Typer.NoteBinary(types.BitAnd, tok.Position)
		return nil
	case ActionRel:
		// The grammar reduces all six relational tokens through one action
		// ID (§4.5), but §4.4's Exp table treats ordered comparison and
		// equality as distinct operators — ordered comparison rejects
		// non-numeric operands that equality accepts (e.g. "abc" < "def" is
		// an error, "abc" == "def" is not). Recover the distinction from the
		// token that drove this reduction.
		op := types.RelOrd
		if tok.Kind == token.EQL || tok.Kind == token.NEQ {
			op = types.RelEq
		}
		d.Typer.NoteBinary(op, tok.Position)
		return nil
	case ActionBitXorShift:
		return d.actionBitXorShift(tok)
	case ActionArithLow:
		return d.actionArithLow(tok)
	case ActionArithHigh:
		return d.actionArithHigh(tok)
	case ActionUnaryPrefix:
		return d.actionUnaryPrefix(tok)
	case ActionLParen:
		d.Typer.Push()
		if len(d.forStack) > 0 {
			d.topFor().parenDepth++
		}
		return nil
	case ActionRParen:
		return d.actionRParen(tok)
	case ActionCall:
		return d.Symbols.MarkUsed(tok.Lexeme, tok.Position, len(tok.Lexeme), false)
	case ActionIndexedValue:
		return d.actionIndexedValue(tok)
	case ActionPrint:
		return d.Symbols.MarkUsed(tok.Lexeme, tok.Position, len(tok.Lexeme), false)
	case ActionRead:
		return d.actionRead(tok)
	case ActionTypeKeyword:
		return d.actionTypeKeyword(tok)
	case ActionIdentBinding:
		return d.actionIdentBinding(tok)
	case ActionFuncDeclHeader:
		d.cur.name = tok.Lexeme
		d.cur.position = tok.Position
		d.cur.isFunction = true
		d.inFuncHeader = true
		return nil
	case ActionIncDecValue:
		d.cur.name = tok.Lexeme
		return d.Symbols.MarkUsed(tok.Lexeme, tok.Position, len(tok.Lexeme), false)
	case ActionConstVar:
		d.cur.isConstant = tok.Kind == token.CONST
		return nil
	case ActionIncDecAssign:
		return d.actionIncDecAssign(tok)
	case ActionFuncTypeDecoration:
		d.cur.isFunction = true
		return nil
	case ActionReturn:
		d.Typer.Discard()
		d.cur.reset()
		return nil
	case ActionIf:
		d.Symbols.EnterScope()
		d.scopeStack = append(d.scopeStack, scopeIf)
		return nil
	case ActionDo:
		d.Symbols.EnterScope()
		d.scopeStack = append(d.scopeStack, scopeDo)
		return nil
	case ActionWhile:
		d.Symbols.EnterScope()
		d.scopeStack = append(d.scopeStack, scopeWhile)
		return nil
	case ActionFor:
		d.Symbols.EnterScope()
		d.scopeStack = append(d.scopeStack, scopeFor)
		d.forStack = append(d.forStack, &forHeader{phase: forInit})
		return nil
	case ActionForInitVarName:
		d.cur.name = tok.Lexeme
		d.cur.position = tok.Position
		return nil
	case ActionForInitVarType:
		d.cur.typ = keywordType(tok.Kind)
		d.cur.hasExplicitType = true
		return nil
	case ActionForInitValue:
		if len(d.forStack) > 0 && d.topFor().phase == forInit {
			d.cur.pushValue(tok.Lexeme, tok.Position)
		}
		return nil
	case ActionSwitchCaseDefault:
		return d.actionSwitchCaseDefault(tok)
	case ActionSemi:
		return d.actionSemi()
	case ActionFuncBodyClosed:
		d.Symbols.MaybeCloseFunction()
		d.inFuncHeader = false
		return nil
	case ActionBranchCloseIf, ActionBranchCloseWhile, ActionBranchCloseDo,
		ActionBranchCloseFor, ActionBranchCloseSwitch, ActionBranchCloseCase,
		ActionBranchCloseCase2, ActionBranchCloseCase3:
		d.actionBranchClose()
		return nil
	case ActionProgramEnd:
		d.Symbols.CloseAll()
		return nil
	default:
		return nil
	}
}

func (d *Dispatcher) topFor() *forHeader { return d.forStack[len(d.forStack)-1] }

func (d *Dispatcher) topArray() *arrayLiteralState {
	if len(d.arrayStack) == 0 {
		return nil
	}
	return d.arrayStack[len(d.arrayStack)-1]
}

// BeginArrayLiteral opens array-literal tracking for a `[e1, e2, ...]`
// construct, recording the declared element type if the builder already
// carries one.
func (d *Dispatcher) BeginArrayLiteral() {
	st := &arrayLiteralState{}
	if d.cur.hasExplicitType {
		st.hasDeclaredElemType = true
		st.declaredElemType = d.cur.typ
	}
	d.arrayStack = append(d.arrayStack, st)
}

// EndArrayLiteral closes array-literal tracking on `]`, publishing the
// element type as the pending expression type of the enclosing context. An
// empty literal with no declared type is an error.
func (d *Dispatcher) EndArrayLiteral(pos int) *diag.Fault {
	st := d.arrayStack[len(d.arrayStack)-1]
	d.arrayStack = d.arrayStack[:len(d.arrayStack)-1]
	d.cur.literalIsArray = true

	elem := st.elemType
	if st.count == 0 {
		if !st.hasDeclaredElemType {
			return d.Sink.Error("literal de vetor vazio requer um tipo de elemento declarado", pos, 1)
		}
		elem = st.declaredElemType
	}
	if st.divergent {
		return d.Sink.Error("elementos do literal de vetor devem ter o mesmo tipo", pos, 1)
	}
	return d.Typer.NoteOperand(elem, pos)
}

func (d *Dispatcher) noteArrayElement(st *arrayLiteralState, typ types.Type, pos int) *diag.Fault {
	st.count++
	if st.hasDeclaredElemType && typ != st.declaredElemType {
		return d.Sink.Error("tipo do elemento não corresponde ao tipo de elemento declarado", pos, 1)
	}
	if !st.elemTypeSet {
		st.elemType = typ
		st.elemTypeSet = true
		return nil
	}
	if st.elemType != typ {
		st.divergent = true
	}
	return nil
}

func (d *Dispatcher) actionValue(tok token.Token) *diag.Fault {
	typ, fault := d.literalType(tok)
	if fault != nil {
		return fault
	}
	d.cur.pushValue(tok.Lexeme, tok.Position)

	if arr := d.topArray(); arr != nil {
		return d.noteArrayElement(arr, typ, tok.Position)
	}
	return d.Typer.NoteOperand(typ, tok.Position)
}

func (d *Dispatcher) literalType(tok token.Token) (types.Type, *diag.Fault) {
	switch tok.Kind {
	case token.INT:
		return types.Int, nil
	case token.FLOAT:
		return types.Float, nil
	case token.STRING:
		return types.String, nil
	case token.TRUE, token.FALSE:
		return types.Bool, nil
	case token.IDENT:
		sym, _ := d.Symbols.Lookup(tok.Lexeme)
		if fault := d.Symbols.MarkUsed(tok.Lexeme, tok.Position, len(tok.Lexeme), false); fault != nil {
			return types.Error, fault
		}
		return sym.Type, nil
	default:
		return types.Error, nil
	}
}

func (d *Dispatcher) actionBitXorShift(tok token.Token) *diag.Fault {
	var op types.Operator
	switch tok.Kind {
	case token.CARET:
		op = types.BitXor
	case token.SHL:
		op = types.Shl
	case token.SHR:
		op = types.Shr
	default:
		return d.Sink.Error(fmt.Sprintf("operador inesperado %q", tok.Lexeme), tok.Position, len(tok.Lexeme))
	}
	d.Typer.NoteBinary(op, tok.Position)
	return nil
}

func (d *Dispatcher) actionArithLow(tok token.Token) *diag.Fault {
	var op types.Operator
	switch tok.Kind {
	case token.PLUS:
		op = types.Sum
	case token.MINUS:
		op = types.Sub
	default:
		return d.Sink.Error(fmt.Sprintf("operador inesperado %q", tok.Lexeme), tok.Position, len(tok.Lexeme))
	}
	d.Typer.NoteBinary(op, tok.Position)
	return nil
}

func (d *Dispatcher) actionArithHigh(tok token.Token) *diag.Fault {
	var op types.Operator
	switch tok.Kind {
	case token.STAR:
		op = types.Mul
	case token.SLASH:
		op = types.Div
	case token.PERCENT:
		op = types.Mod
	default:
		return d.Sink.Error(fmt.Sprintf("operador inesperado %q", tok.Lexeme), tok.Position, len(tok.Lexeme))
	}
	d.Typer.NoteBinary(op, tok.Position)
	return nil
}

func (d *Dispatcher) actionUnaryPrefix(tok token.Token) *diag.Fault {
	var op typer.UnaryOp
	switch tok.Kind {
	case token.BANG:
		op = typer.Not
	case token.TILDE:
		op = typer.BNot
	case token.MINUS:
		op = typer.Neg
	default:
		return d.Sink.Error(fmt.Sprintf("operador unário inesperado %q", tok.Lexeme), tok.Position, len(tok.Lexeme))
	}
	d.Typer.NoteUnary(op, tok.Position)
	return nil
}

func (d *Dispatcher) actionRParen(tok token.Token) *diag.Fault {
	fault := d.Typer.PopAndFeed(tok.Position)

	if len(d.forStack) > 0 {
		fh := d.topFor()
		fh.parenDepth--
		if fh.parenDepth == 0 && fh.phase != forBody {
			fh.phase = forBody
			d.Typer.Discard()
		}
	}
	return fault
}

func (d *Dispatcher) actionIndexedValue(tok token.Token) *diag.Fault {
	sym, _ := d.Symbols.Lookup(tok.Lexeme)
	if fault := d.Symbols.MarkUsed(tok.Lexeme, tok.Position, len(tok.Lexeme), true); fault != nil {
		return fault
	}
	d.cur.pushValue(tok.Lexeme, tok.Position)

	elemType := types.Int
	if sym != nil {
		elemType = sym.Type
	}
	if arr := d.topArray(); arr != nil {
		return d.noteArrayElement(arr, elemType, tok.Position)
	}
	return d.Typer.NoteOperand(elemType, tok.Position)
}

func (d *Dispatcher) actionRead(tok token.Token) *diag.Fault {
	d.cur.valueTokens = nil
	d.cur.valuePositions = nil
	d.cur.valueLengths = nil

	sym, ok := d.Symbols.Lookup(tok.Lexeme)
	if !ok {
		return d.Sink.Error(fmt.Sprintf("identificador '%s' não declarado", tok.Lexeme), tok.Position, len(tok.Lexeme))
	}

	line, _ := d.Stdin.ReadString('\n')
	_ = line

	sym.Initialised = true
	sym.Used = true
	d.Listener.Assigned(tok.Lexeme, tok.Position)
	return d.Typer.NoteOperand(types.Int, tok.Position)
}

func (d *Dispatcher) actionTypeKeyword(tok token.Token) *diag.Fault {
	typ := keywordType(tok.Kind)

	if d.paramMode && len(d.cur.params) > 0 {
		last := d.cur.params[len(d.cur.params)-1]
		last.typ = typ
		last.hasExplicitType = true
		return nil
	}

	d.cur.typ = typ
	d.cur.hasExplicitType = true

	if d.inFuncHeader && !d.paramMode {
		return d.commitFunctionHeader(tok.Position)
	}
	return nil
}

func keywordType(kind token.Kind) types.Type {
	switch kind {
	case token.INT_KW:
		return types.Int
	case token.FLOAT_KW:
		return types.Float
	case token.STRING_KW:
		return types.String
	case token.BOOL_KW:
		return types.Bool
	case token.VOID_KW:
		return types.Void
	default:
		return types.Nullable
	}
}

func (d *Dispatcher) commitFunctionHeader(pos int) *diag.Fault {
	params := make([]*symtab.Symbol, 0, len(d.cur.params))
	for _, p := range d.cur.params {
		params = append(params, &symtab.Symbol{
			Name: p.name, Type: p.typ, HasExplicitType: true,
			IsArray: p.isArray, Position: p.position,
		})
	}
	fault := d.Symbols.BeginFunction(d.cur.name, d.cur.typ, d.cur.position, params)
	d.cur.reset()
	_ = pos
	return fault
}

func (d *Dispatcher) actionIdentBinding(tok token.Token) *diag.Fault {
	if d.paramMode {
		p := &builder{name: tok.Lexeme, position: tok.Position, isParameter: true}
		d.cur.params = append(d.cur.params, p)
		return nil
	}
	d.cur.name = tok.Lexeme
	d.cur.position = tok.Position
	return nil
}

func (d *Dispatcher) actionIncDecAssign(tok token.Token) *diag.Fault {
	sym, ok := d.Symbols.Lookup(tok.Lexeme)
	if !ok {
		return d.Sink.Error(fmt.Sprintf("identificador '%s' não declarado", tok.Lexeme), tok.Position, len(tok.Lexeme))
	}
	sym.Initialised = true
	sym.Used = true
	d.Listener.Assigned(tok.Lexeme, tok.Position)
	return nil
}

func (d *Dispatcher) actionSwitchCaseDefault(tok token.Token) *diag.Fault {
	d.Symbols.EnterScope()
	if tok.Kind == token.SWITCH {
		d.scopeStack = append(d.scopeStack, scopeSwitch)
	} else {
		d.scopeStack = append(d.scopeStack, scopeCase)
	}
	return nil
}

// actionSemi finalises a statement, or, inside an active for-header,
// transitions its phase without committing (except leaving the Init
// phase, which does commit: it is a full declaration/assignment
// statement).
func (d *Dispatcher) actionSemi() *diag.Fault {
	if len(d.forStack) > 0 && d.topFor().phase != forBody {
		fh := d.topFor()
		switch fh.phase {
		case forInit:
			fault := d.commitCurrentStatement()
			fh.phase = forCondition
			fh.initialiserCommitted = true
			d.Typer.Discard()
			d.cur.reset()
			return fault
		case forCondition:
			fh.phase = forUpdate
			d.Typer.Discard()
			return nil
		}
	}
	fault := d.commitCurrentStatement()
	d.Typer.Discard()
	d.cur.reset()
	return fault
}

func (d *Dispatcher) commitCurrentStatement() *diag.Fault {
	if d.cur.name == "" {
		return nil
	}

	pending, has := d.Typer.Pending()
	if d.cur.literalIsArray && !d.cur.isArray {
		return d.Sink.Error("variable not declared as array", d.cur.position, len(d.cur.name))
	}

	typ := d.cur.typ
	if !d.cur.hasExplicitType {
		typ = types.Nullable
	}

	sym := &symtab.Symbol{
		Name: d.cur.name, Type: typ, HasExplicitType: d.cur.hasExplicitType,
		IsConstant: d.cur.isConstant, IsArray: d.cur.isArray || d.cur.literalIsArray,
		IsFunction: d.cur.isFunction, IsParameter: d.cur.isParameter,
		Position: d.cur.position,
	}
	if sym.Type == types.Nullable {
		sym.Type = types.Int
	}

	before := len(d.Symbols.Symbols())
	fault := d.Symbols.CommitStatement(sym, pending, has)

	isNewDecl := len(d.Symbols.Symbols()) > before
	if isNewDecl {
		d.Listener.Declared(sym)
	} else {
		d.Listener.Assigned(d.cur.name, d.cur.position)
	}
	return fault
}

func (d *Dispatcher) actionBranchClose() {
	if len(d.scopeStack) == 0 {
		d.Symbols.ExitScope()
		d.Typer.Discard()
		return
	}
	kind := d.scopeStack[len(d.scopeStack)-1]
	d.scopeStack = d.scopeStack[:len(d.scopeStack)-1]
	d.Symbols.ExitScope()
	d.Typer.Discard()
	if kind == scopeFor && len(d.forStack) > 0 {
		d.forStack = d.forStack[:len(d.forStack)-1]
	}
}

// BeginParamList marks the start of a function's parameter list: identifier
// actions inside it create new parameter builders instead of naming the
// enclosing declaration.
func (d *Dispatcher) BeginParamList() { d.paramMode = true }

// EndParamList marks the end of a function's parameter list.
func (d *Dispatcher) EndParamList() { d.paramMode = false }

// MarkArray flags the current declaration builder as an array type.
func (d *Dispatcher) MarkArray() { d.cur.isArray = true }

// BeginBlock opens a new lexical scope for a free-standing `{ }` block
// statement — one that is not itself the body of an if/while/do/for/switch,
// which already manage their own scope via the construct's own action.
func (d *Dispatcher) BeginBlock() { d.Symbols.EnterScope() }

// EndBlock closes the scope opened by BeginBlock, warning on any symbol
// declared in it that went unused, exactly as a construct's own
// branch-close action does.
func (d *Dispatcher) EndBlock() {
	d.Symbols.ExitScope()
	d.Typer.Discard()
}

// DiscardBuilder clears the in-progress declaration/assignment builder
// without committing it. The parser calls this after a bare call statement
// (`f();`): ActionIdentBinding already named the builder before the parser
// knew the statement was a call rather than an assignment, and a call
// target is never itself declared or assigned by the statement that calls
// it.
func (d *Dispatcher) DiscardBuilder() { d.cur.reset() }
