package dispatcher

import "github.com/DanielAraldiEDU/uniscript/internal/symtab"

// Listener lets the code generator (C6) cooperate with the dispatcher
// without the two packages depending on each other's internals: it is
// notified of every declaration and assignment commit, by source
// position, so that a later independent re-scan of the source can key its
// emitted instructions the same way.
type Listener interface {
	// Declared is called once a declaration has been committed to the
	// symbol table.
	Declared(sym *symtab.Symbol)
	// Assigned is called once an assignment to an existing binding has been
	// committed, at the assignment statement's recorded position.
	Assigned(name string, pos int)
}

// NopListener implements Listener with no-ops, for callers that only need
// the semantic analysis pipeline (e.g. diagnostics-only compiles).
type NopListener struct{}

func (NopListener) Declared(*symtab.Symbol) {}
func (NopListener) Assigned(string, int)    {}
