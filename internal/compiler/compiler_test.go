package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielAraldiEDU/uniscript/internal/compiler"
)

// These mirror the worked examples in §8 of the specification (E1-E6).

func TestE1HelloWorldHasNoSymbolsOrDiagnostics(t *testing.T) {
	res := compiler.Compile([]byte(`print("Hello, World!");`))
	require.True(t, res.Snapshot.Ok)
	assert.Empty(t, res.Snapshot.SymbolTable)
	assert.Empty(t, res.Snapshot.Diagnostics)
}

func TestE2AssignmentDoesNotCountAsUse(t *testing.T) {
	res := compiler.Compile([]byte(`var x: int = 1; x = 2;`))
	require.True(t, res.Snapshot.Ok)

	require.Len(t, res.Snapshot.SymbolTable, 1)
	x := res.Snapshot.SymbolTable[0]
	assert.Equal(t, "x", x.Name)
	assert.Equal(t, "int", x.Type)
	assert.Equal(t, 0, x.Scope)
	assert.True(t, x.Initialized)
	assert.False(t, x.Used)
	assert.False(t, x.IsConstant)

	require.Len(t, res.Snapshot.Diagnostics, 1)
	assert.Equal(t, "warning", res.Snapshot.Diagnostics[0].Severity)
	assert.Contains(t, res.Snapshot.Diagnostics[0].Message, "unused identifier 'x' (scope 0)")
}

func TestE3ConstantReassignmentFails(t *testing.T) {
	res := compiler.Compile([]byte(`const pi: float = 3.14; pi = 1.0;`))
	require.False(t, res.Snapshot.Ok)
	assert.Equal(t, "semantic", res.Snapshot.Kind)
	assert.Contains(t, res.Snapshot.Message, "modificar constante")
	assert.Contains(t, res.Snapshot.Message, "pi")

	require.Len(t, res.Snapshot.SymbolTable, 1)
	assert.True(t, res.Snapshot.SymbolTable[0].IsConstant)
}

func TestE4ImplicitNarrowingWarns(t *testing.T) {
	res := compiler.Compile([]byte(`var x: int = 1.5;`))
	require.True(t, res.Snapshot.Ok)

	require.Len(t, res.Snapshot.Diagnostics, 2)
	assert.Contains(t, res.Snapshot.Diagnostics[0].Message, "Conversão implícita na inicialização de 'x'")

	require.Len(t, res.Snapshot.SymbolTable, 1)
	assert.Equal(t, "int", res.Snapshot.SymbolTable[0].Type)
	assert.True(t, res.Snapshot.SymbolTable[0].Initialized)
}

func TestE5ArrayDeclarationAndIndexedStore(t *testing.T) {
	res := compiler.Compile([]byte(`var a: int[] = [1,2,3]; a[1] = 10;`))
	require.True(t, res.Snapshot.Ok)

	require.Len(t, res.Snapshot.SymbolTable, 1)
	assert.True(t, res.Snapshot.SymbolTable[0].IsArray)

	require.NotNil(t, res.Program)
	rendered := res.Program.Render()
	assert.Contains(t, rendered, "STOV")
	assert.Contains(t, rendered, "$indr")
	assert.Contains(t, rendered, "LDI 10")
}

func TestE6UndeclaredIdentifierFails(t *testing.T) {
	src := `if (x < 10) { print(x); }`
	res := compiler.Compile([]byte(src))
	require.False(t, res.Snapshot.Ok)
	assert.Equal(t, "semantic", res.Snapshot.Kind)
	assert.Contains(t, res.Snapshot.Message, "não declarado")
	assert.Contains(t, res.Snapshot.Message, "x")
	assert.Equal(t, strings.Index(src, "x"), res.Snapshot.Position)
}

func TestCompileWritesNoProgramOnFault(t *testing.T) {
	res := compiler.Compile([]byte(`var y: int = "oops";`))
	require.False(t, res.Snapshot.Ok)
	assert.Nil(t, res.Program)
}

func TestCoreResetsStateBetweenCompiles(t *testing.T) {
	c := compiler.New()

	c.SetSource([]byte(`var x: int = 1; x = 2;`))
	c.Parse()
	c.Finalise()
	first := c.Snapshot()
	require.True(t, first.Ok)
	require.Len(t, first.SymbolTable, 1)

	c.SetSource([]byte(`print("ok");`))
	c.Parse()
	c.Finalise()
	second := c.Snapshot()
	require.True(t, second.Ok)
	assert.Empty(t, second.SymbolTable, "a fresh SetSource must not carry over symbols from the prior compile")
}
