// Package symtab implements the symbol table (C3): a stack of scope frames
// enforcing no-redeclaration per frame, shadowing across frames,
// function-scope isolation (no closure capture), constant immutability and
// unused-symbol warnings on scope exit.
package symtab

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/types"
)

// Symbol is one declared name, as recorded in the symbol table.
type Symbol struct {
	Name            string
	Type            types.Type
	HasExplicitType bool
	Initialised     bool
	Used            bool
	ScopeDepth      int
	IsParameter     bool
	IsArray         bool
	IsFunction      bool
	IsConstant      bool
	Position        int
	Line, Column    int
}

// frameKind distinguishes a plain lexical block from a function-entry
// frame: references from inside a function frame to bindings declared in
// an enclosing frame above it are rejected (no closure capture, per §4.3).
type frameKind uint8

const (
	plainFrame frameKind = iota
	functionFrame
)

type frame struct {
	kind  frameKind
	depth int
	order []string // insertion order, for deterministic unused-symbol warnings
	names *swiss.Map[string, int]
}

// Table is the stack of scope frames described by §4.3.
type Table struct {
	sink    *diag.Sink
	symbols []*Symbol
	frames  []*frame
}

// New returns a Table with its global (root) frame already open.
func New(sink *diag.Sink) *Table {
	t := &Table{sink: sink}
	t.EnterScope()
	return t
}

// Depth returns the depth of the currently innermost frame (0 == global).
func (t *Table) Depth() int { return len(t.frames) - 1 }

// EnterScope pushes a new plain lexical frame.
func (t *Table) EnterScope() {
	t.pushFrame(plainFrame)
}

// EnterFunctionScope pushes a new function-entry frame: a reference from
// inside it to a binding above it is rejected unless that binding is
// itself a function.
func (t *Table) EnterFunctionScope() {
	t.pushFrame(functionFrame)
}

func (t *Table) pushFrame(kind frameKind) {
	t.frames = append(t.frames, &frame{
		kind:  kind,
		depth: len(t.frames),
		names: swiss.NewMap[string, int](8),
	})
}

// ExitScope pops the innermost frame, emitting an "unused identifier"
// warning for every symbol declared in it that was never marked used.
func (t *Table) ExitScope() {
	f := t.frames[len(t.frames)-1]
	for _, name := range f.order {
		idx, _ := f.names.Get(name)
		sym := t.symbols[idx]
		if !sym.Used && !sym.IsFunction {
			t.sink.Warning(fmt.Sprintf("unused identifier '%s' (scope %d)", sym.Name, f.depth), sym.Position, len(sym.Name))
		}
	}
	t.frames = t.frames[:len(t.frames)-1]
}

// currentFrame returns the innermost frame.
func (t *Table) currentFrame() *frame { return t.frames[len(t.frames)-1] }

// currentFunctionDepth returns the depth of the nearest enclosing
// function-entry frame, or -1 if analysis is currently at the top level
// (no function frame open).
func (t *Table) currentFunctionDepth() int {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i].kind == functionFrame {
			return t.frames[i].depth
		}
	}
	return -1
}

// Declare registers sym in the current frame, or emits a duplicate-
// declaration error if the frame already binds sym.Name.
func (t *Table) Declare(sym *Symbol) *diag.Fault {
	f := t.currentFrame()
	if _, ok := f.names.Get(sym.Name); ok {
		return t.sink.Error(fmt.Sprintf("identificador '%s' já declarado neste escopo", sym.Name), sym.Position, len(sym.Name))
	}
	sym.ScopeDepth = f.depth
	idx := len(t.symbols)
	t.symbols = append(t.symbols, sym)
	f.names.Put(sym.Name, idx)
	f.order = append(f.order, sym.Name)
	return nil
}

// Lookup scans frames top-down for the nearest enclosing binding of name.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if idx, ok := t.frames[i].names.Get(name); ok {
			return t.symbols[idx], true
		}
	}
	return nil, false
}

// depthOf returns the frame-stack index (not Symbol.ScopeDepth, which is
// the same value, but named for clarity at call sites) of the frame
// currently binding name, or -1.
func (t *Table) depthOf(name string) int {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if _, ok := t.frames[i].names.Get(name); ok {
			return i
		}
	}
	return -1
}

// MarkUsed locates the binding of name and marks it used, enforcing the
// function-scope isolation rule and (optionally) that it denotes an array.
func (t *Table) MarkUsed(name string, pos, length int, requireArray bool) *diag.Fault {
	sym, ok := t.Lookup(name)
	if !ok {
		return t.sink.Error(fmt.Sprintf("identificador '%s' não declarado", name), pos, length)
	}

	if fd := t.currentFunctionDepth(); fd >= 0 && sym.ScopeDepth < fd && !sym.IsFunction {
		return t.sink.Error(fmt.Sprintf("identificador '%s' não declarado neste escopo", name), pos, length)
	}

	if requireArray && !sym.IsArray {
		return t.sink.Error(fmt.Sprintf("'%s' não é um vetor", name), pos, length)
	}

	sym.Used = true
	if !sym.Initialised && !sym.IsFunction {
		t.sink.Warning(fmt.Sprintf("possível uso de '%s' sem inicialização", name), pos, length)
	}
	return nil
}

// CommitStatement implements the hybrid declaration-or-assignment commit
// described by §4.3/§4.9: a builder that looks like a declaration
// (`has_explicit_type` or `is_parameter`) always binds a fresh symbol in the
// current frame — shadowing any outer binding of the same name, per the
// aliasing example in §9 (`{ var x: int; { var x: int; } }`, where the code
// generator must see two distinct symbols to alias) — unless the current
// frame already holds that name, which is a duplicate-declaration error. A
// builder that does not look like a declaration names a plain assignment:
// absence anywhere is treated as an implicit first declaration, presence
// anywhere reuses that binding. The assignment branch leaves Used
// untouched: `var x: int = 1; x = 2;` reports `used=false` with an unused
// warning (§8, example E2), so the LHS of a plain write does not itself
// count as a use — only mark_used (a read) does.
func (t *Table) CommitStatement(builder *Symbol, pendingType types.Type, hasPending bool) *diag.Fault {
	currentDepth := len(t.frames) - 1
	existingDepth := t.depthOf(builder.Name)

	looksLikeDecl := builder.HasExplicitType || builder.IsParameter
	if looksLikeDecl {
		if existingDepth == currentDepth {
			return t.sink.Error(fmt.Sprintf("identificador '%s' já declarado neste escopo", builder.Name), builder.Position, len(builder.Name))
		}
		if err := t.Declare(builder); err != nil {
			return err
		}
		if hasPending {
			return t.checkAssignable(builder, pendingType)
		}
		return nil
	}

	if existingDepth < 0 {
		if err := t.Declare(builder); err != nil {
			return err
		}
		if hasPending {
			return t.checkAssignable(builder, pendingType)
		}
		return nil
	}

	sym, _ := t.Lookup(builder.Name)
	if sym.IsConstant {
		return t.sink.Error(fmt.Sprintf("não é possível modificar constante '%s'", sym.Name), builder.Position, len(builder.Name))
	}
	if hasPending {
		return t.checkAssignable(sym, pendingType)
	}
	return nil
}

func (t *Table) checkAssignable(sym *Symbol, src types.Type) *diag.Fault {
	switch types.Assign(sym.Type, src) {
	case types.ERR:
		return t.sink.Error(fmt.Sprintf("tipos incompatíveis atribuindo %s a '%s' (%s)", src, sym.Name, sym.Type), sym.Position, len(sym.Name))
	case types.WAR:
		t.sink.Warning(fmt.Sprintf("Conversão implícita na inicialização de '%s'", sym.Name), sym.Position, len(sym.Name))
		sym.Initialised = true
		return nil
	default:
		sym.Initialised = true
		return nil
	}
}

// BeginFunction declares the function symbol (as a constant binding) and
// opens its function frame, declaring each parameter inside it.
func (t *Table) BeginFunction(name string, ret types.Type, pos int, params []*Symbol) *diag.Fault {
	fnSym := &Symbol{
		Name: name, Type: ret, HasExplicitType: true,
		Initialised: true, IsFunction: true, IsConstant: true, Position: pos,
	}
	if err := t.Declare(fnSym); err != nil {
		return err
	}

	t.EnterFunctionScope()
	for _, p := range params {
		p.Initialised = true
		p.IsParameter = true
		if err := t.Declare(p); err != nil {
			return err
		}
	}
	return nil
}

// MaybeCloseFunction closes the innermost function frame if one is open at
// the very top of the stack.
func (t *Table) MaybeCloseFunction() {
	if len(t.frames) > 0 && t.currentFrame().kind == functionFrame {
		t.ExitScope()
	}
}

// CloseAll unwinds every frame above and including the root, in order,
// generating unused-symbol warnings at each step.
func (t *Table) CloseAll() {
	for len(t.frames) > 0 {
		t.ExitScope()
	}
}

// Symbols returns every declared symbol, in declaration order.
func (t *Table) Symbols() []*Symbol { return t.symbols }
