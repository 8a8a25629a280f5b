// Package typer implements the expression typer (C4): a stack of
// expression contexts that folds operand and operator types through the
// compatibility tables (internal/types) into a single pending expression
// type, consumed by the next statement commit.
package typer

import (
	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/types"
)

// UnaryOp is one of the three unary operators the language supports.
type UnaryOp int8

const (
	Not  UnaryOp = iota // !
	BNot                // ~
	Neg                 // -
)

type pendingUnary struct {
	op  UnaryOp
	pos int
}

// context is one frame of the expression stack: it accumulates operand
// types through pending operators until a statement boundary or an
// enclosing ')' consumes it.
type context struct {
	hasAccumulated   bool
	accumulatedType  types.Type
	pendingBinaryOp  types.Operator
	hasPendingBinary bool
	binaryPos        int
	pendingUnaries   []pendingUnary
}

// Typer is the per-expression operand/operator stack described by §4.4.
type Typer struct {
	sink  *diag.Sink
	stack []*context
}

// New returns a Typer with a single open context, ready to type a
// top-level expression.
func New(sink *diag.Sink) *Typer {
	t := &Typer{sink: sink}
	t.stack = append(t.stack, &context{})
	return t
}

// Push opens a new context on '('.
func (t *Typer) Push() { t.stack = append(t.stack, &context{}) }

// PopAndFeed closes the innermost context on ')': if it accumulated a
// type, that type becomes an operand of the enclosing context.
func (t *Typer) PopAndFeed(pos int) *diag.Fault {
	if len(t.stack) <= 1 {
		// unmatched ')'; nothing to pop, caller's grammar already guards this.
		return nil
	}
	closed := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	if closed.hasAccumulated {
		return t.NoteOperand(closed.accumulatedType, pos)
	}
	return nil
}

// NoteOperand applies every pending unary operator (nearest-binds-first,
// i.e. right-to-left) to typ, then either adopts the result as the
// context's accumulated type or, if one already exists, folds the two
// operands through the pending binary operator.
func (t *Typer) NoteOperand(typ types.Type, pos int) *diag.Fault {
	cur := t.top()

	for i := len(cur.pendingUnaries) - 1; i >= 0; i-- {
		u := cur.pendingUnaries[i]
		var err *diag.Fault
		typ, err = t.applyUnary(u, typ)
		if err != nil {
			return err
		}
	}
	cur.pendingUnaries = nil

	if !cur.hasAccumulated {
		cur.accumulatedType = typ
		cur.hasAccumulated = true
		return nil
	}

	if !cur.hasPendingBinary {
		// two operands with no operator between them: grammar error upstream,
		// but stay defensive and just keep the latest operand.
		cur.accumulatedType = typ
		return nil
	}

	result := types.Exp(cur.accumulatedType, typ, cur.pendingBinaryOp)
	cur.hasPendingBinary = false
	if result == types.Error {
		fault := t.sink.Error("tipos de operando incompatíveis na expressão", cur.binaryPos, 1)
		cur.accumulatedType = types.Error
		return fault
	}
	cur.accumulatedType = result
	return nil
}

func (t *Typer) applyUnary(u pendingUnary, operand types.Type) (types.Type, *diag.Fault) {
	if operand == types.Error {
		return types.Error, nil
	}
	switch u.op {
	case Not:
		if !operand.TruthCoercible() {
			return types.Error, t.sink.Error("operando de '!' deve ser int, float, bool ou string", u.pos, 1)
		}
		return types.Bool, nil
	case BNot:
		if operand != types.Int {
			return types.Error, t.sink.Error("operando de '~' deve ser int", u.pos, 1)
		}
		return types.Int, nil
	default: // Neg
		if !operand.IsNumeric() {
			return types.Error, t.sink.Error("operando de '-' unário deve ser numérico", u.pos, 1)
		}
		return operand, nil
	}
}

// NoteBinary records a pending binary operator and the source position of
// its token, for diagnostics if the right operand turns out missing.
func (t *Typer) NoteBinary(op types.Operator, pos int) {
	cur := t.top()
	cur.pendingBinaryOp = op
	cur.hasPendingBinary = true
	cur.binaryPos = pos
}

// NoteUnary pushes op onto the pending-unary list of the current context.
func (t *Typer) NoteUnary(op UnaryOp, pos int) {
	cur := t.top()
	cur.pendingUnaries = append(cur.pendingUnaries, pendingUnary{op: op, pos: pos})
}

// Pending returns the type the typer has accumulated so far for the
// current (innermost) expression, and whether anything has been noted.
func (t *Typer) Pending() (types.Type, bool) {
	cur := t.top()
	return cur.accumulatedType, cur.hasAccumulated
}

// PopDiscard closes the innermost context on ']' (end of an index
// sub-expression) without feeding its result to the enclosing context: the
// caller (the dispatcher, for `a[i]`) supplies the indexed value's real
// type itself via NoteOperand once it has validated `a` is an array.
func (t *Typer) PopDiscard() {
	if len(t.stack) > 1 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

// Discard clears all contexts, used when a control-flow boundary aborts
// expression assembly (e.g. a statement terminator reached mid-expression).
func (t *Typer) Discard() {
	t.stack = t.stack[:0]
	t.stack = append(t.stack, &context{})
}

func (t *Typer) top() *context { return t.stack[len(t.stack)-1] }
