package dispatcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/symtab"
	"github.com/DanielAraldiEDU/uniscript/internal/token"
	"github.com/DanielAraldiEDU/uniscript/internal/typer"
)

// recordingListener captures every Declared/Assigned call, so tests can
// assert the dispatcher notified C6 the way a real code generator expects.
type recordingListener struct {
	declared []string
	assigned []string
}

func (r *recordingListener) Declared(sym *symtab.Symbol) { r.declared = append(r.declared, sym.Name) }
func (r *recordingListener) Assigned(name string, pos int) {
	r.assigned = append(r.assigned, name)
}

func newHarness(listener Listener) *Dispatcher {
	sink := diag.NewSink(nil)
	symbols := symtab.New(sink)
	ty := typer.New(sink)
	return New(sink, symbols, ty, listener)
}

func tok(kind token.Kind, lexeme string, pos int) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Position: pos}
}

// declareScalar drives the (ident, type, value, semi) action sequence for
// `var name: int = 1;` and returns any fault from the commit.
func declareScalar(d *Dispatcher, name string, pos int) *diag.Fault {
	_ = d.Execute(ActionIdentBinding, tok(token.IDENT, name, pos))
	_ = d.Execute(ActionTypeKeyword, tok(token.INT_KW, "int", pos))
	_ = d.Execute(ActionValue, tok(token.INT, "1", pos))
	return d.Execute(ActionSemi, token.Token{})
}

func TestDeclarationNotifiesListenerDeclared(t *testing.T) {
	l := &recordingListener{}
	d := newHarness(l)

	fault := declareScalar(d, "x", 0)
	require.Nil(t, fault)
	assert.Equal(t, []string{"x"}, l.declared)
	assert.Empty(t, l.assigned)
}

func TestAssignmentNotifiesListenerAssigned(t *testing.T) {
	l := &recordingListener{}
	d := newHarness(l)
	require.Nil(t, declareScalar(d, "x", 0))

	_ = d.Execute(ActionIdentBinding, tok(token.IDENT, "x", 20))
	_ = d.Execute(ActionValue, tok(token.INT, "2", 22))
	fault := d.Execute(ActionSemi, token.Token{})

	require.Nil(t, fault)
	assert.Equal(t, []string{"x"}, l.assigned)
}

func TestUndeclaredIncDecAssignIsAnError(t *testing.T) {
	d := newHarness(nil)
	fault := d.Execute(ActionIncDecAssign, tok(token.IDENT, "missing", 5))
	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "missing")
}

func TestIncDecValueMarksUsedAndFailsOnUndeclared(t *testing.T) {
	d := newHarness(nil)
	fault := d.Execute(ActionIncDecValue, tok(token.IDENT, "missing", 5))
	require.NotNil(t, fault)
	assert.Equal(t, diag.KindSemantic, fault.Kind)
}

func TestParamListBuildsFunctionHeaderParams(t *testing.T) {
	l := &recordingListener{}
	d := newHarness(l)

	d.Execute(ActionFuncDeclHeader, tok(token.IDENT, "f", 0))
	d.BeginParamList()
	d.Execute(ActionIdentBinding, tok(token.IDENT, "a", 2))
	d.Execute(ActionTypeKeyword, tok(token.INT_KW, "int", 3))
	d.EndParamList()
	fault := d.Execute(ActionTypeKeyword, tok(token.VOID_KW, "void", 10))

	require.Nil(t, fault)
	// function declarations go through BeginFunction directly, bypassing
	// the commit path that notifies the listener (C6 never generates code
	// for function bodies), so only the symbol table sees "f" and "a".
	_, fnOk := d.Symbols.Lookup("f")
	assert.True(t, fnOk)
	assert.Empty(t, l.declared)
}

func TestArrayLiteralWithDivergentElementTypesErrors(t *testing.T) {
	d := newHarness(nil)
	d.Execute(ActionIdentBinding, tok(token.IDENT, "a", 0))

	// no declared element type yet: divergence is only caught when the
	// literal closes, not element-by-element.
	d.BeginArrayLiteral()
	require.Nil(t, d.Execute(ActionValue, tok(token.INT, "1", 5)))
	require.Nil(t, d.Execute(ActionValue, tok(token.STRING, `"oops"`, 7)))
	fault := d.EndArrayLiteral(9)

	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "mesmo tipo")
}

func TestArrayLiteralRejectsElementNotMatchingDeclaredType(t *testing.T) {
	d := newHarness(nil)
	d.Execute(ActionIdentBinding, tok(token.IDENT, "a", 0))
	d.Execute(ActionTypeKeyword, tok(token.INT_KW, "int", 1))
	d.MarkArray()

	d.BeginArrayLiteral()
	require.Nil(t, d.Execute(ActionValue, tok(token.INT, "1", 5)))
	fault := d.Execute(ActionValue, tok(token.STRING, `"oops"`, 7))

	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "não corresponde ao tipo de elemento declarado")
}

func TestEmptyArrayLiteralWithoutDeclaredTypeErrors(t *testing.T) {
	d := newHarness(nil)
	d.Execute(ActionIdentBinding, tok(token.IDENT, "a", 0))

	d.BeginArrayLiteral()
	fault := d.EndArrayLiteral(5)
	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "vazio")
}

func TestSwitchAndCaseOpenNestedScopes(t *testing.T) {
	d := newHarness(nil)
	d.Execute(ActionSwitchCaseDefault, tok(token.SWITCH, "switch", 0))
	d.Execute(ActionSwitchCaseDefault, tok(token.CASE, "case", 10))
	assert.Equal(t, 2, d.Symbols.Depth())

	d.actionBranchClose()
	assert.Equal(t, 1, d.Symbols.Depth())
	d.actionBranchClose()
	assert.Equal(t, 0, d.Symbols.Depth())
}

func TestReadRequiresPriorDeclaration(t *testing.T) {
	d := newHarness(&recordingListener{})
	fault := d.actionRead(tok(token.IDENT, "missing", 3))
	require.NotNil(t, fault)
	assert.True(t, strings.Contains(fault.Message, "não declarado"))
}

func TestReadMarksExistingSymbolInitialisedAndUsed(t *testing.T) {
	l := &recordingListener{}
	d := newHarness(l)
	require.Nil(t, declareScalar(d, "x", 0))
	d.SetStdinSource(strings.NewReader("42\n"))

	sym, ok := d.Symbols.Lookup("x")
	require.True(t, ok)
	require.False(t, sym.Used, "a plain initialising declaration must not itself count as a use")

	fault := d.actionRead(tok(token.IDENT, "x", 30))
	require.Nil(t, fault)
	assert.True(t, sym.Used)
	assert.True(t, sym.Initialised)
	assert.Equal(t, []string{"x"}, l.assigned)
}

func TestDiscardBuilderPreventsSpuriousCommit(t *testing.T) {
	l := &recordingListener{}
	d := newHarness(l)

	// mimics the parser's bare-call-statement path: the identifier looked
	// like it might be an assignment target, but turned out to name a call.
	d.Execute(ActionIdentBinding, tok(token.IDENT, "f", 0))
	d.DiscardBuilder()
	fault := d.Execute(ActionSemi, token.Token{})

	require.Nil(t, fault)
	assert.Empty(t, l.declared)
	assert.Empty(t, l.assigned)
}

// declareBoolFromStringRel drives `var ok: bool = "abc" <rel> "def";` for the
// given relational token kind, returning the fault raised when the right
// operand is folded in, or else any fault from the commit.
func declareBoolFromStringRel(d *Dispatcher, kind token.Kind, lexeme string) *diag.Fault {
	d.Execute(ActionIdentBinding, tok(token.IDENT, "ok", 0))
	d.Execute(ActionTypeKeyword, tok(token.BOOL_KW, "bool", 1))
	_ = d.Execute(ActionValue, tok(token.STRING, `"abc"`, 10))
	_ = d.Execute(ActionRel, tok(kind, lexeme, 14))
	if fault := d.Execute(ActionValue, tok(token.STRING, `"def"`, 16)); fault != nil {
		return fault
	}
	return d.Execute(ActionSemi, token.Token{})
}

func TestActionRelOrderedComparisonOnStringsIsAnError(t *testing.T) {
	d := newHarness(nil)
	fault := declareBoolFromStringRel(d, token.LT, "<")
	require.NotNil(t, fault, "ordered comparison (<) on non-numeric operands must be an error")
}

func TestActionRelEqualityComparisonOnStringsIsOk(t *testing.T) {
	d := newHarness(nil)
	fault := declareBoolFromStringRel(d, token.EQL, "==")
	require.Nil(t, fault, "equality (==) on same-type operands must be allowed")
}

func TestConstVarFlagCarriesToCommittedSymbol(t *testing.T) {
	l := &recordingListener{}
	d := newHarness(l)
	d.Execute(ActionIdentBinding, tok(token.IDENT, "pi", 0))
	d.Execute(ActionConstVar, tok(token.CONST, "const", 0))
	d.Execute(ActionTypeKeyword, tok(token.FLOAT_KW, "float", 5))
	d.Execute(ActionValue, tok(token.FLOAT, "3.14", 10))
	fault := d.Execute(ActionSemi, token.Token{})
	require.Nil(t, fault)

	sym, ok := d.Symbols.Lookup("pi")
	require.True(t, ok)
	assert.True(t, sym.IsConstant)
}
