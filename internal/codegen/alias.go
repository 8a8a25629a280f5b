package codegen

import (
	"fmt"

	"github.com/DanielAraldiEDU/uniscript/internal/symtab"
)

// AliasTable implements the code-generator alias table described by §4.6:
// every source-scope binding gets a unique alias `<name>_s<depth>` (first
// occurrence at that depth) or `<name>_s<depth>_<n>` (subsequent ones), and
// a reference resolves to the alias of the binding with the greatest
// ScopeDepth not exceeding the depth at the reference position, ties broken
// by the latest declaration position.
type AliasTable struct {
	bySymbol map[*symtab.Symbol]string
	counts   map[string]int
	byName   map[string][]*symtab.Symbol
}

// NewAliasTable returns an empty AliasTable.
func NewAliasTable() *AliasTable {
	return &AliasTable{
		bySymbol: make(map[*symtab.Symbol]string),
		counts:   make(map[string]int),
		byName:   make(map[string][]*symtab.Symbol),
	}
}

// Register assigns sym its alias and returns it. Call once per declared
// symbol, in declaration order.
func (a *AliasTable) Register(sym *symtab.Symbol) string {
	key := fmt.Sprintf("%s@%d", sym.Name, sym.ScopeDepth)
	n := a.counts[key]
	a.counts[key] = n + 1

	var alias string
	if n == 0 {
		alias = fmt.Sprintf("%s_s%d", sym.Name, sym.ScopeDepth)
	} else {
		alias = fmt.Sprintf("%s_s%d_%d", sym.Name, sym.ScopeDepth, n+1)
	}
	a.bySymbol[sym] = alias
	a.byName[sym.Name] = append(a.byName[sym.Name], sym)
	return alias
}

// AliasOf returns the alias already assigned to sym.
func (a *AliasTable) AliasOf(sym *symtab.Symbol) (string, bool) {
	alias, ok := a.bySymbol[sym]
	return alias, ok
}

// Resolve picks, among every symbol named `name` registered so far, the one
// a reference at byte position `pos` with brace-nesting `depthAtPos` binds
// to, and returns its alias.
func (a *AliasTable) Resolve(name string, pos, depthAtPos int) (*symtab.Symbol, string, bool) {
	var best *symtab.Symbol
	for _, sym := range a.byName[name] {
		if sym.Position > pos {
			continue
		}
		if sym.ScopeDepth > depthAtPos {
			continue
		}
		if best == nil || sym.ScopeDepth > best.ScopeDepth ||
			(sym.ScopeDepth == best.ScopeDepth && sym.Position > best.Position) {
			best = sym
		}
	}
	if best == nil {
		return nil, "", false
	}
	alias := a.bySymbol[best]
	return best, alias, true
}
