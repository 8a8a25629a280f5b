package dispatcher

import "github.com/DanielAraldiEDU/uniscript/internal/types"

// builder is the transient "current variable/declaration" record the
// dispatcher accumulates while a statement is being reduced, reset after
// every statement commit (§3).
type builder struct {
	name            string
	typ             types.Type
	hasExplicitType bool
	isConstant      bool
	isArray         bool
	literalIsArray  bool
	isInitialised   bool
	isUsed          bool
	isFunction      bool
	isParameter     bool
	position        int
	line, column    int

	valueTokens    []string
	valuePositions []int
	valueLengths   []int

	// parameters accumulated while parsing a function header; each becomes
	// its own builder-like declaration once the header closes.
	params []*builder
}

func (b *builder) reset() { *b = builder{} }

func (b *builder) pushValue(lexeme string, pos int) {
	b.valueTokens = append(b.valueTokens, lexeme)
	b.valuePositions = append(b.valuePositions, pos)
	b.valueLengths = append(b.valueLengths, len(lexeme))
}
