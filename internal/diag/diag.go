// Package diag implements the diagnostics sink (C2): an append-only log of
// severity-tagged messages with source positions, plus the structured
// faults that unwind analysis on the first error.
package diag

import (
	"fmt"
	"go/scanner"

	"github.com/DanielAraldiEDU/uniscript/internal/token"
)

// ScanError and ScanErrorList alias go/scanner's error type the same way
// the teacher's lang/scanner package does (`Error = scanner.Error`,
// `ErrorList = scanner.ErrorList`): every lexical and syntactic fault the
// sink records is also captured in this shape, carrying a real line/column
// (via the Sink's token.File) rather than just a byte offset.
type (
	ScanError     = scanner.Error
	ScanErrorList = scanner.ErrorList
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is one reported finding: a lexical, syntactic or semantic
// message anchored at a byte position and length in the source.
type Diagnostic struct {
	Severity Severity
	Message  string
	Position int
	Length   int
}

// Kind distinguishes the three fault families the core can raise.
type Kind int

const (
	KindSemantic Kind = iota
	KindLexical
	KindSyntactic
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindSyntactic:
		return "syntactic"
	default:
		return "semantic"
	}
}

// Fault is the single structured-fault abstraction that unwinds the parser
// driver immediately after a diagnostic is emitted. Every terminal error
// maps to exactly one Fault.
type Fault struct {
	Kind     Kind
	Message  string
	Position int
	Length   int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s error at %d: %s", f.Kind, f.Position, f.Message)
}

// NewSemanticFault builds the fault raised by the sink's own Error method.
func NewSemanticFault(msg string, pos, length int) *Fault {
	return &Fault{Kind: KindSemantic, Message: msg, Position: pos, Length: length}
}

// NewLexicalFault builds the fault a lexer raises for an ill-formed token.
func NewLexicalFault(msg string, pos, length int) *Fault {
	return &Fault{Kind: KindLexical, Message: msg, Position: pos, Length: length}
}

// NewSyntacticFault builds the fault a parser driver raises when its
// current state rejects the next token.
func NewSyntacticFault(msg string, pos, length int) *Fault {
	return &Fault{Kind: KindSyntactic, Message: msg, Position: pos, Length: length}
}

// Sink is an append-only diagnostics log. It survives unwinding: callers
// collect Entries() after recovering from a Fault.
type Sink struct {
	entries    []Diagnostic
	file       *token.File
	scanErrors ScanErrorList
}

// NewSink returns a ready-to-use, empty Sink. file resolves byte positions
// to line/column for the lexical/syntactic ScanErrors it records; it may be
// nil (as in most unit tests, which only exercise byte-offset behaviour),
// in which case recorded positions carry Offset only.
func NewSink(file *token.File) *Sink { return &Sink{file: file} }

// Warning appends a warning diagnostic. Warnings never unwind.
func (s *Sink) Warning(msg string, pos, length int) {
	s.entries = append(s.entries, Diagnostic{Severity: Warning, Message: msg, Position: pos, Length: length})
}

// Error appends an error diagnostic and returns the Fault that the caller
// must propagate to unwind the parser driver.
func (s *Sink) Error(msg string, pos, length int) *Fault {
	s.entries = append(s.entries, Diagnostic{Severity: Error, Message: msg, Position: pos, Length: length})
	return NewSemanticFault(msg, pos, length)
}

// Record appends an externally-raised fault (lexical or syntactic) as a
// terminal diagnostic, without producing a new Fault (the caller already
// has one). It also captures the fault in ScanErrors(), in the same
// go/scanner.Error shape and line/column resolution the teacher's
// scanner/resolver packages use for their own ErrorList accumulation.
func (s *Sink) Record(f *Fault) {
	s.entries = append(s.entries, Diagnostic{Severity: Error, Message: f.Message, Position: f.Position, Length: f.Length})
	s.scanErrors.Add(token.Pos(s.file, f.Position), f.Message)
}

// ScanErrors returns every lexical/syntactic fault recorded so far, sorted
// by position, as a go/scanner.ErrorList — ready for a host to print with
// real line:column prefixes via its own Error() method.
func (s *Sink) ScanErrors() ScanErrorList {
	s.scanErrors.Sort()
	return s.scanErrors
}

// Entries returns the accumulated diagnostics in emission order.
func (s *Sink) Entries() []Diagnostic { return s.entries }

// HasErrors reports whether any diagnostic so far is an Error.
func (s *Sink) HasErrors() bool {
	for _, d := range s.entries {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Reset clears the sink, returning it to a clean slate.
func (s *Sink) Reset() {
	s.entries = s.entries[:0]
	s.scanErrors = nil
}
