package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielAraldiEDU/uniscript/internal/compiler"
	"github.com/DanielAraldiEDU/uniscript/internal/diag"
)

func parse(src string) *compiler.Result {
	return compiler.Compile([]byte(src))
}

func TestMissingSemicolonIsSyntacticFault(t *testing.T) {
	res := parse(`var x: int = 1`)
	require.False(t, res.Snapshot.Ok)
	assert.Equal(t, "syntactic", res.Snapshot.Kind)
}

func TestUnmatchedParenIsSyntacticFault(t *testing.T) {
	res := parse(`var x: int = 0; if (x < 1 { print(x); }`)
	require.False(t, res.Snapshot.Ok)
	assert.Equal(t, "syntactic", res.Snapshot.Kind)
}

func TestMissingTypeAfterColonIsSyntacticFault(t *testing.T) {
	res := parse(`var x: 1;`)
	require.False(t, res.Snapshot.Ok)
	assert.Equal(t, "syntactic", res.Snapshot.Kind)
}

func TestBlockStatementOpensAndClosesOwnScope(t *testing.T) {
	res := parse(`{ var x: int = 1; }`)
	require.True(t, res.Snapshot.Ok)
	require.Len(t, res.Snapshot.SymbolTable, 1)
	assert.Equal(t, 1, res.Snapshot.SymbolTable[0].Scope)
}

func TestDoWhileParsesAndCompiles(t *testing.T) {
	res := parse(`var x: int = 0; do { x = x + 1; } while (x < 3);`)
	require.True(t, res.Snapshot.Ok)
	require.NotNil(t, res.Program)
}

func TestForStatementHeaderIsFullyParsed(t *testing.T) {
	res := parse(`for (var i: int = 0; i < 3; i = i + 1) { print(i); }`)
	require.True(t, res.Snapshot.Ok)
}

func TestSwitchWithCasesParses(t *testing.T) {
	res := parse(`var x: int = 1; switch (x) { case 1: print(x); break; default: print(x); }`)
	require.True(t, res.Snapshot.Ok)
}

func TestBareCallStatementParses(t *testing.T) {
	res := parse(`function f(): void { return; } f();`)
	require.True(t, res.Snapshot.Ok)
}

func TestPrefixIncDecStatementParses(t *testing.T) {
	res := parse(`var x: int = 0; ++x;`)
	require.True(t, res.Snapshot.Ok)
}

func TestPostfixIncDecStatementParses(t *testing.T) {
	res := parse(`var x: int = 0; x++;`)
	require.True(t, res.Snapshot.Ok)

	require.Len(t, res.Snapshot.SymbolTable, 1)
	assert.True(t, res.Snapshot.SymbolTable[0].Used)
}

func TestIndexedAssignmentParsesAndRequiresArray(t *testing.T) {
	res := parse(`var a: int[] = [1,2,3]; a[0] = 9;`)
	require.True(t, res.Snapshot.Ok)
}

func TestIndexingNonArrayIsSemanticFault(t *testing.T) {
	res := parse(`var a: int = 1; a[0] = 9;`)
	require.False(t, res.Snapshot.Ok)
	assert.Equal(t, "semantic", res.Snapshot.Kind)
}

func TestEmptyProgramCompilesCleanly(t *testing.T) {
	res := parse(``)
	require.True(t, res.Snapshot.Ok)
	assert.Empty(t, res.Snapshot.SymbolTable)
}

func TestStraySemicolonsAreSkippedStatements(t *testing.T) {
	res := parse(`;;; print("ok");`)
	require.True(t, res.Snapshot.Ok)
}

func TestParseStopsAtFirstFault(t *testing.T) {
	res := parse(`var x: int = 1; var x: int = 2;`)
	require.False(t, res.Snapshot.Ok)
	assert.Equal(t, diag.KindSemantic.String(), res.Snapshot.Kind)
	assert.Contains(t, res.Snapshot.Message, "já declarado")
}
