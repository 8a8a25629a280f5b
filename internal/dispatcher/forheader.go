package dispatcher

import "github.com/DanielAraldiEDU/uniscript/internal/types"

// forPhase is the three-part `for` header's current phase.
type forPhase int8

const (
	forInit forPhase = iota
	forCondition
	forUpdate
	forBody
)

// forHeader tracks one active `for` loop's header state, per §3.
type forHeader struct {
	phase                forPhase
	parenDepth           int
	initialiserCommitted bool
}

// arrayLiteralState tracks an in-progress `[e1, e2, ...]` array literal,
// checking each element's inferred type against the declared element type
// (if any) and against the running element type (§4.5).
type arrayLiteralState struct {
	hasDeclaredElemType bool
	declaredElemType    types.Type
	elemType            types.Type
	elemTypeSet         bool
	count               int
	divergent           bool
}
