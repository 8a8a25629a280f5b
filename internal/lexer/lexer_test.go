package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielAraldiEDU/uniscript/internal/lexer"
	"github.com/DanielAraldiEDU/uniscript/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScanAllBasicProgram(t *testing.T) {
	toks, fault := lexer.ScanAll([]byte(`var x: int = 1;`))
	require.Nil(t, fault)
	assert.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.COLON, token.INT_KW, token.ASSIGN, token.INT, token.SEMI, token.EOF,
	}, kinds(toks))
	assert.Equal(t, "x", toks[1].Lexeme)
	assert.Equal(t, "1", toks[5].Lexeme)
}

func TestScanAllOperators(t *testing.T) {
	toks, fault := lexer.ScanAll([]byte(`a++ b-- c<<1 d>>1 e<=f g>=h i==j k!=l m&&n o||p`))
	require.Nil(t, fault)
	want := []token.Kind{
		token.IDENT, token.INC,
		token.IDENT, token.DEC,
		token.IDENT, token.SHL, token.INT,
		token.IDENT, token.SHR, token.INT,
		token.IDENT, token.LE, token.IDENT,
		token.IDENT, token.GE, token.IDENT,
		token.IDENT, token.EQL, token.IDENT,
		token.IDENT, token.NEQ, token.IDENT,
		token.IDENT, token.ANDAND, token.IDENT,
		token.IDENT, token.OROR, token.IDENT,
		token.EOF,
	}
	assert.Equal(t, want, kinds(toks))
}

func TestScanAllSkipsCommentsAndWhitespace(t *testing.T) {
	toks, fault := lexer.ScanAll([]byte("// a line comment\nvar /* inline */ x;\n"))
	require.Nil(t, fault)
	assert.Equal(t, []token.Kind{token.VAR, token.IDENT, token.SEMI, token.EOF}, kinds(toks))
}

func TestScanAllKeywordsVsIdentifiers(t *testing.T) {
	toks, fault := lexer.ScanAll([]byte(`if else while variableName`))
	require.Nil(t, fault)
	assert.Equal(t, []token.Kind{token.IF, token.ELSE, token.WHILE, token.IDENT, token.EOF}, kinds(toks))
}

func TestScanAllFloatLiteral(t *testing.T) {
	toks, fault := lexer.ScanAll([]byte(`3.14 1e10 2.5e-3`))
	require.Nil(t, fault)
	require.Len(t, toks, 4)
	for _, tok := range toks[:3] {
		assert.Equal(t, token.FLOAT, tok.Kind)
	}
}

func TestScanAllUnclosedStringProducesLexicalFault(t *testing.T) {
	_, fault := lexer.ScanAll([]byte(`"unterminated`))
	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "unclosed string")
}

func TestScanAllIllegalCharacterProducesLexicalFault(t *testing.T) {
	_, fault := lexer.ScanAll([]byte("var x = @;"))
	require.NotNil(t, fault)
	assert.Contains(t, fault.Message, "illegal character")
}

func TestTokenPositionsAreByteOffsets(t *testing.T) {
	src := `var x: int = 1;`
	toks, fault := lexer.ScanAll([]byte(src))
	require.Nil(t, fault)
	// the IDENT "x" is the second token; verify its recorded offset matches
	// where it actually occurs in the source.
	assert.Equal(t, 4, toks[1].Position)
	assert.Equal(t, src[4], byte('x'))
}
