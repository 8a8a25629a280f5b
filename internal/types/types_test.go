package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DanielAraldiEDU/uniscript/internal/types"
)

func TestExp(t *testing.T) {
	cases := []struct {
		desc string
		l, r types.Type
		op   types.Operator
		want types.Type
	}{
		{"int+int", types.Int, types.Int, types.Sum, types.Int},
		{"int+float widens", types.Int, types.Float, types.Sum, types.Float},
		{"float+int widens", types.Float, types.Int, types.Sum, types.Float},
		{"string+string concatenates", types.String, types.String, types.Sum, types.String},
		{"string+int is an error", types.String, types.Int, types.Sum, types.Error},
		{"int/int widens to float", types.Int, types.Int, types.Div, types.Float},
		{"int%int stays int", types.Int, types.Int, types.Mod, types.Int},
		{"float%float is an error", types.Float, types.Float, types.Mod, types.Error},
		{"int&int is bitwise int", types.Int, types.Int, types.BitAnd, types.Int},
		{"float&int is an error", types.Float, types.Int, types.BitAnd, types.Error},
		{"numeric ordered comparison yields bool", types.Int, types.Float, types.RelOrd, types.Bool},
		{"string ordered comparison is an error", types.String, types.String, types.RelOrd, types.Error},
		{"bool ordered comparison is an error", types.Bool, types.Bool, types.RelOrd, types.Error},
		{"mixed numeric/non-numeric ordered comparison is an error", types.Int, types.String, types.RelOrd, types.Error},
		{"numeric equality yields bool", types.Int, types.Float, types.RelEq, types.Bool},
		{"same-type non-numeric equality yields bool", types.String, types.String, types.RelEq, types.Bool},
		{"mixed numeric/non-numeric equality is an error", types.Int, types.String, types.RelEq, types.Error},
		{"bool&&bool yields bool", types.Bool, types.Bool, types.And, types.Bool},
		{"non-truth-coercible && is an error", types.Bool, types.Void, types.And, types.Error},
		{"error operand poisons the result", types.Error, types.Int, types.Sum, types.Error},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			assert.Equal(t, c.want, types.Exp(c.l, c.r, c.op))
		})
	}
}

func TestAssign(t *testing.T) {
	cases := []struct {
		desc     string
		dst, src types.Type
		want     types.AssignResult
	}{
		{"same type is ok", types.Int, types.Int, types.OK},
		{"int dst, float src warns", types.Int, types.Float, types.WAR},
		{"float dst, int src warns", types.Float, types.Int, types.WAR},
		{"string dst, int src is an error", types.String, types.Int, types.ERR},
		{"error src never errors further", types.Int, types.Error, types.OK},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			assert.Equal(t, c.want, types.Assign(c.dst, c.src))
		})
	}
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, types.Int.IsNumeric())
	assert.True(t, types.Float.IsNumeric())
	assert.False(t, types.String.IsNumeric())
	assert.True(t, types.Bool.TruthCoercible())
	assert.False(t, types.Void.TruthCoercible())
}
