// Package compiler wires the lexer, parser, dispatcher, symbol table,
// typer, code generator and snapshot into the host-facing call graph §6
// describes: set_source(text); parse(); finalise(); snapshot(). It is the
// one place that owns a full compile's mutable state, mirroring the
// teacher's maincmd commands that each construct a fresh pipeline per run.
package compiler

import (
	"github.com/DanielAraldiEDU/uniscript/internal/codegen"
	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/dispatcher"
	"github.com/DanielAraldiEDU/uniscript/internal/lexer"
	"github.com/DanielAraldiEDU/uniscript/internal/parser"
	"github.com/DanielAraldiEDU/uniscript/internal/snapshot"
	"github.com/DanielAraldiEDU/uniscript/internal/symtab"
	"github.com/DanielAraldiEDU/uniscript/internal/token"
	"github.com/DanielAraldiEDU/uniscript/internal/typer"
)

// Core is the host-facing compiler core (§6, "Host ↔ core"): a single call
// graph, reusable across compiles via SetSource, which resets all pipeline
// state (§5, "reset_state()"; concurrent compiles require separate Cores).
type Core struct {
	source   []byte
	file     *token.File
	sink     *diag.Sink
	symbols  *symtab.Table
	typer    *typer.Typer
	recorder *codegen.Recorder
	toks     []token.Token
	fault    *diag.Fault
}

// New returns a Core with no source loaded yet.
func New() *Core {
	c := &Core{}
	c.SetSource(nil)
	return c
}

func (c *Core) reset() {
	c.sink = diag.NewSink(c.file)
	c.symbols = symtab.New(c.sink)
	c.typer = typer.New(c.sink)
	c.recorder = codegen.NewRecorder()
	c.toks = nil
	c.fault = nil
}

// SetSource loads program text for the next compile, returning the core to
// a clean slate first. It also builds the token.File backing every
// position this compile resolves to a line/column, per §6's "line/column
// derived on demand" contract.
func (c *Core) SetSource(text []byte) {
	c.source = text
	c.file = token.NewFile(text)
	c.reset()
}

// Parse tokenizes the loaded source and runs the full parser-driven
// semantic analysis pipeline, stopping at the first lexical, syntactic or
// semantic fault. The sink retains every diagnostic emitted before that
// fault, per §4.2's "the sink survives unwinding".
func (c *Core) Parse() *diag.Fault {
	toks, fault := lexer.ScanAll(c.source)
	c.toks = toks
	if fault != nil {
		c.sink.Record(fault)
		c.fault = fault
		return fault
	}

	d := dispatcher.New(c.sink, c.symbols, c.typer, c.recorder)
	if f := parser.New(toks, d).Parse(); f != nil {
		c.sink.Record(f)
		c.fault = f
		return f
	}
	return nil
}

// Finalise closes any scopes a fault left open, so Snapshot always sees a
// symbol table with every still-live declaration, including globals.
func (c *Core) Finalise() {
	c.symbols.CloseAll()
}

// Snapshot builds the language-neutral symbol table/diagnostics view. Valid
// after a Parse fault as much as after a clean one (§6, "After a throw,
// snapshot() still returns the partial state").
func (c *Core) Snapshot() *snapshot.Result {
	return snapshot.Build(c.file, c.symbols.Symbols(), c.sink.Entries(), c.fault)
}

// Generate runs the BIP code generator (C6) over the token stream the
// parser drove. It returns nil if Parse has not completed without a fault:
// the generated program is only meaningful over analysed-clean source.
func (c *Core) Generate() *codegen.Program {
	if c.fault != nil || c.toks == nil {
		return nil
	}
	return codegen.Generate(c.toks, c.symbols.Symbols(), c.recorder.Events())
}

// Result is the convenience one-shot return of Compile: the snapshot every
// host consumes, the generated program when analysis succeeded, and the
// lexical/syntactic faults in go/scanner.ErrorList shape for hosts that
// want real line:column prefixes (CLI output, editor integrations) rather
// than the snapshot's flat byte offsets.
type Result struct {
	Snapshot   *snapshot.Result
	Program    *codegen.Program
	ScanErrors diag.ScanErrorList
}

// Compile runs set_source/parse/finalise/snapshot in one call and, when
// analysis raised no fault, the code generator as well.
func Compile(text []byte) *Result {
	c := New()
	c.SetSource(text)
	c.Parse()
	c.Finalise()

	res := &Result{Snapshot: c.Snapshot(), ScanErrors: c.sink.ScanErrors()}
	if res.Snapshot.Ok {
		res.Program = c.Generate()
	}
	return res
}
