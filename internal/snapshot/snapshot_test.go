package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/snapshot"
	"github.com/DanielAraldiEDU/uniscript/internal/symtab"
	"github.com/DanielAraldiEDU/uniscript/internal/token"
	"github.com/DanielAraldiEDU/uniscript/internal/types"
)

func TestBuildOkWithNoFault(t *testing.T) {
	res := snapshot.Build(token.NewFile([]byte("var x: int = 1;")), nil, nil, nil)
	assert.True(t, res.Ok)
	assert.Empty(t, res.Kind)
	assert.Empty(t, res.SymbolTable)
	assert.Empty(t, res.Diagnostics)
}

func TestBuildCarriesFaultDetails(t *testing.T) {
	f := diag.NewSemanticFault("bad thing", 5, 3)
	res := snapshot.Build(token.NewFile([]byte("source")), nil, nil, f)
	assert.False(t, res.Ok)
	assert.Equal(t, "semantic", res.Kind)
	assert.Equal(t, "bad thing", res.Message)
	assert.Equal(t, 5, res.Position)
	assert.Equal(t, 3, res.Length)
}

func TestBuildResolvesLineAndColumn(t *testing.T) {
	src := "line one\nline two\nline three"
	sym := &symtab.Symbol{Name: "x", Type: types.Int, Position: len("line one\n") + 5}
	res := snapshot.Build(token.NewFile([]byte(src)), []*symtab.Symbol{sym}, nil, nil)

	require.Len(t, res.SymbolTable, 1)
	rec := res.SymbolTable[0]
	assert.Equal(t, "x", rec.Name)
	assert.Equal(t, 2, rec.Line)
	assert.Equal(t, 6, rec.Column)
}

func TestBuildMapsSymbolFieldsVerbatim(t *testing.T) {
	sym := &symtab.Symbol{
		Name: "a", Type: types.Int, Initialised: true, Used: false,
		ScopeDepth: 1, IsParameter: true, IsArray: true, IsFunction: false,
		IsConstant: true, Position: 0,
	}
	res := snapshot.Build(token.NewFile(nil), []*symtab.Symbol{sym}, nil, nil)
	require.Len(t, res.SymbolTable, 1)
	rec := res.SymbolTable[0]
	assert.Equal(t, "int", rec.Type)
	assert.True(t, rec.Initialized)
	assert.False(t, rec.Used)
	assert.Equal(t, 1, rec.Scope)
	assert.True(t, rec.IsParameter)
	assert.True(t, rec.IsArray)
	assert.True(t, rec.IsConstant)
}

func TestBuildMapsDiagnosticsVerbatim(t *testing.T) {
	entries := []diag.Diagnostic{
		{Severity: diag.Warning, Message: "heads up", Position: 1, Length: 2},
		{Severity: diag.Error, Message: "bad", Position: 3, Length: 4},
	}
	res := snapshot.Build(token.NewFile(nil), nil, entries, nil)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, "warning", res.Diagnostics[0].Severity)
	assert.Equal(t, "error", res.Diagnostics[1].Severity)
}

func TestJSONShape(t *testing.T) {
	res := snapshot.Build(token.NewFile([]byte("print(1);")), nil, nil, nil)
	b, err := res.JSON()
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, `"ok":true`)
	assert.Contains(t, s, `"symbolTable":[]`)
	assert.Contains(t, s, `"diagnostics":[]`)
	assert.NotContains(t, s, `"kind"`, "omitempty fields must be absent on the success path")
}
