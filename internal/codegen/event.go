package codegen

import "github.com/DanielAraldiEDU/uniscript/internal/symtab"

// EventKind distinguishes the two notifications C5 raises for C6.
type EventKind int8

const (
	EventDeclared EventKind = iota
	EventAssigned
)

// Event is one declaration or assignment commit, as registered by the
// dispatcher at the source position of the statement's leading name.
type Event struct {
	Kind     EventKind
	Symbol   *symtab.Symbol // set for EventDeclared
	Name     string         // set for EventAssigned
	Position int
}

// Recorder implements dispatcher.Listener, collecting the declaration and
// assignment stream C5 produces. Generate accepts these events but does not
// consult them: its re-scan works from the token stream and the final symbol
// table alone.
type Recorder struct {
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Declared(sym *symtab.Symbol) {
	r.events = append(r.events, Event{Kind: EventDeclared, Symbol: sym, Position: sym.Position})
}

func (r *Recorder) Assigned(name string, pos int) {
	r.events = append(r.events, Event{Kind: EventAssigned, Name: name, Position: pos})
}

// Events returns every recorded event, in the order the dispatcher raised
// them (source order).
func (r *Recorder) Events() []Event { return r.events }
