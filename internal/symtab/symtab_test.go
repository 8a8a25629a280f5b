package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/symtab"
	"github.com/DanielAraldiEDU/uniscript/internal/types"
)

func TestDeclareAndLookup(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	sym := &symtab.Symbol{Name: "x", Type: types.Int, HasExplicitType: true, Position: 4}
	require.Nil(t, table.Declare(sym))
	assert.Equal(t, 0, sym.ScopeDepth)

	got, ok := table.Lookup("x")
	require.True(t, ok)
	assert.Same(t, sym, got)
}

func TestDuplicateDeclarationInSameFrameErrors(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	require.Nil(t, table.Declare(&symtab.Symbol{Name: "x", Position: 0}))
	fault := table.Declare(&symtab.Symbol{Name: "x", Position: 10})
	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "x")
}

func TestShadowingAcrossFrames(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	outer := &symtab.Symbol{Name: "x", Type: types.Int, Position: 0}
	require.Nil(t, table.Declare(outer))

	table.EnterScope()
	inner := &symtab.Symbol{Name: "x", Type: types.Float, Position: 20}
	require.Nil(t, table.Declare(inner))
	assert.Equal(t, 1, inner.ScopeDepth)

	got, _ := table.Lookup("x")
	assert.Same(t, inner, got, "lookup must resolve to the nearest enclosing binding")

	table.ExitScope()
	got, _ = table.Lookup("x")
	assert.Same(t, outer, got, "exiting the inner frame must uncover the outer binding again")
}

func TestExitScopeWarnsOnUnusedSymbol(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	table.EnterScope()
	require.Nil(t, table.Declare(&symtab.Symbol{Name: "unused", Position: 3}))
	table.ExitScope()

	require.Len(t, sink.Entries(), 1)
	assert.Equal(t, diag.Warning, sink.Entries()[0].Severity)
	assert.Contains(t, sink.Entries()[0].Message, "unused")
}

func TestExitScopeDoesNotWarnWhenMarkedUsed(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	table.EnterScope()
	require.Nil(t, table.Declare(&symtab.Symbol{Name: "x", Position: 0}))
	require.Nil(t, table.MarkUsed("x", 5, 1, false))
	table.ExitScope()

	assert.Empty(t, sink.Entries())
}

func TestMarkUsedUndeclaredIdentifierErrors(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	fault := table.MarkUsed("nope", 7, 4, false)
	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "nope")
}

func TestMarkUsedRequireArray(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	require.Nil(t, table.Declare(&symtab.Symbol{Name: "a", Type: types.Int, Position: 0}))
	fault := table.MarkUsed("a", 2, 1, true)
	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "vetor")
}

func TestFunctionFrameIsolatesOuterLocals(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	require.Nil(t, table.Declare(&symtab.Symbol{Name: "outer", Type: types.Int, Position: 0}))

	fault := table.BeginFunction("f", types.Void, 10, nil)
	require.Nil(t, fault)

	fault = table.MarkUsed("outer", 20, 5, false)
	require.NotNil(t, fault, "a function body must not see bindings from its enclosing lexical scope")

	table.MaybeCloseFunction()
	fault = table.MarkUsed("outer", 30, 5, false)
	assert.Nil(t, fault, "after the function frame closes, the outer binding is visible again")
}

func TestBeginFunctionDeclaresParamsAsInitialised(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	param := &symtab.Symbol{Name: "n", Type: types.Int, HasExplicitType: true, Position: 5}
	require.Nil(t, table.BeginFunction("f", types.Int, 0, []*symtab.Symbol{param}))

	assert.True(t, param.Initialised)
	assert.True(t, param.IsParameter)
	got, ok := table.Lookup("n")
	require.True(t, ok)
	assert.Same(t, param, got)
}

func TestCommitStatementDeclaresThenAssigns(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	decl := &symtab.Symbol{Name: "x", Type: types.Int, HasExplicitType: true, Position: 0}
	fault := table.CommitStatement(decl, types.Int, true)
	require.Nil(t, fault)
	assert.True(t, decl.Initialised)

	assign := &symtab.Symbol{Name: "x", Position: 20}
	fault = table.CommitStatement(assign, types.Int, true)
	require.Nil(t, fault)

	assert.Len(t, table.Symbols(), 1, "an assignment to an existing binding must not add a second symbol")
}

func TestCommitStatementShadowsOuterBindingWithExplicitType(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	outer := &symtab.Symbol{Name: "x", Type: types.Int, HasExplicitType: true, Position: 0}
	require.Nil(t, table.CommitStatement(outer, types.Int, true))

	table.EnterScope()
	inner := &symtab.Symbol{Name: "x", Type: types.Float, HasExplicitType: true, Position: 20}
	fault := table.CommitStatement(inner, types.Float, true)
	require.Nil(t, fault)

	assert.Len(t, table.Symbols(), 2, "a nested explicitly-typed declaration must shadow, not reuse, the outer binding")
	got, _ := table.Lookup("x")
	assert.Same(t, inner, got)

	table.ExitScope()
	got, _ = table.Lookup("x")
	assert.Same(t, outer, got, "the outer binding must be untouched by the inner shadow")
}

func TestCommitStatementRejectsConstantReassignment(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	decl := &symtab.Symbol{Name: "pi", Type: types.Float, HasExplicitType: true, IsConstant: true, Position: 0}
	require.Nil(t, table.CommitStatement(decl, types.Float, true))

	assign := &symtab.Symbol{Name: "pi", Position: 20}
	fault := table.CommitStatement(assign, types.Float, true)
	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "constante")
	assert.Contains(t, fault.Message, "pi")
}

func TestCommitStatementWarnsOnImplicitNarrowing(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	decl := &symtab.Symbol{Name: "x", Type: types.Int, HasExplicitType: true, Position: 0}
	fault := table.CommitStatement(decl, types.Float, true)
	require.Nil(t, fault)

	require.Len(t, sink.Entries(), 1)
	assert.Equal(t, diag.Warning, sink.Entries()[0].Severity)
	assert.Contains(t, sink.Entries()[0].Message, "x")
}

func TestCloseAllWarnsForEveryOpenFrame(t *testing.T) {
	sink := diag.NewSink(nil)
	table := symtab.New(sink)

	table.EnterScope()
	require.Nil(t, table.Declare(&symtab.Symbol{Name: "inner", Position: 0}))
	require.Nil(t, table.Declare(&symtab.Symbol{Name: "global", Position: 0}))
	// "inner" and "global" are both declared in the first nested scope;
	// "another" is left in a second nested scope for CloseAll to unwind.
	table.ExitScope()
	table.EnterScope()
	require.Nil(t, table.Declare(&symtab.Symbol{Name: "another", Position: 0}))

	table.CloseAll()
	warned := 0
	for _, e := range sink.Entries() {
		if e.Severity == diag.Warning {
			warned++
		}
	}
	assert.GreaterOrEqual(t, warned, 1)
}
