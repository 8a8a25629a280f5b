// Package snapshot implements the Snapshot/Export component (C7): a
// language-neutral view of the symbol table and diagnostics, shaped as the
// FFI JSON contract in §6 for GUI/FFI consumers. It never mutates the
// symbol table or sink it reads from. It converts the diagnostics' byte
// positions to line/column (diag.Sink does the same for its scan-error
// list), resolved on demand via the
// compile's token.File (built once per source, per §6's "line/column
// derived on demand" contract) rather than carried through the pipeline.
package snapshot

import (
	"encoding/json"

	"github.com/DanielAraldiEDU/uniscript/internal/diag"
	"github.com/DanielAraldiEDU/uniscript/internal/symtab"
	"github.com/DanielAraldiEDU/uniscript/internal/token"
)

// SymbolRecord is the flat, language-neutral view of one declared symbol.
type SymbolRecord struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Initialized bool   `json:"initialized"`
	Used        bool   `json:"used"`
	Scope       int    `json:"scope"`
	IsParameter bool   `json:"isParameter"`
	Position    int    `json:"position"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	IsArray     bool   `json:"isArray"`
	IsFunction  bool   `json:"isFunction"`
	IsConstant  bool   `json:"isConstant"`
}

// DiagnosticRecord is the flat, language-neutral view of one diagnostic.
type DiagnosticRecord struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Position int    `json:"position"`
	Length   int    `json:"length"`
}

// Result is the convenience one-shot FFI shape described by §6.
type Result struct {
	Ok          bool               `json:"ok"`
	Kind        string             `json:"kind,omitempty"`
	Message     string             `json:"message,omitempty"`
	Position    int                `json:"pos,omitempty"`
	Length      int                `json:"length,omitempty"`
	SymbolTable []SymbolRecord     `json:"symbolTable"`
	Diagnostics []DiagnosticRecord `json:"diagnostics"`
}

// JSON marshals the Result into the stable one-shot FFI shape.
func (r *Result) JSON() ([]byte, error) { return json.Marshal(r) }

// Build assembles the full snapshot from the final symbol table and
// diagnostics sink, plus the terminal fault if the pipeline unwound
// (nil on success). file is the token.File built from the original program
// text (internal/token.NewFile), used to resolve line/column for each
// position via go/token.File.Position.
func Build(file *token.File, symbols []*symtab.Symbol, entries []diag.Diagnostic, fault *diag.Fault) *Result {
	r := &Result{
		Ok:          fault == nil,
		SymbolTable: make([]SymbolRecord, 0, len(symbols)),
		Diagnostics: make([]DiagnosticRecord, 0, len(entries)),
	}

	if fault != nil {
		r.Kind = fault.Kind.String()
		r.Message = fault.Message
		r.Position = fault.Position
		r.Length = fault.Length
	}

	for _, s := range symbols {
		pos := token.Pos(file, s.Position)
		r.SymbolTable = append(r.SymbolTable, SymbolRecord{
			Name:        s.Name,
			Type:        s.Type.String(),
			Initialized: s.Initialised,
			Used:        s.Used,
			Scope:       s.ScopeDepth,
			IsParameter: s.IsParameter,
			Position:    s.Position,
			Line:        pos.Line,
			Column:      pos.Column,
			IsArray:     s.IsArray,
			IsFunction:  s.IsFunction,
			IsConstant:  s.IsConstant,
		})
	}

	for _, d := range entries {
		r.Diagnostics = append(r.Diagnostics, DiagnosticRecord{
			Severity: d.Severity.String(),
			Message:  d.Message,
			Position: d.Position,
			Length:   d.Length,
		})
	}

	return r
}
