package codegen

import "github.com/DanielAraldiEDU/uniscript/internal/token"

// blockKind identifies which control construct a ctrlBlock reconstructs.
type blockKind int8

const (
	blockRoot blockKind = iota
	blockIf
	blockElse
	blockWhile
	blockDo
	blockFor
)

// ctrlBlock is one control-flow region found by the independent source
// re-scan (§4.6 "Control flow"): its condition/update token spans and the
// token span of its body, plus whatever nests inside that body.
type ctrlBlock struct {
	kind blockKind
	pos  int // source byte position of the construct's leading token

	headTok int // token index of the leading keyword
	endTok  int // token index just past the whole construct (body, trailing `;`, etc.)

	condStart, condEnd int // token indices, exclusive end; unused for for/blockRoot

	forInitStart, forInitEnd     int
	forCondStart, forCondEnd     int
	forUpdateStart, forUpdateEnd int

	bodyStart, bodyEnd int // token indices spanning the body, exclusive end

	elseBlock *ctrlBlock // set on blockIf when a matching `else` follows

	children []*ctrlBlock
}

// buildBraceDepth returns, for every token index, the lexical nesting depth
// of that token: the number of enclosing unclosed '{' plus one for each
// enclosing `for (...)` header, matching symtab's EnterScope/ExitScope
// convention for braced bodies and for-headers (a for-header variable lives
// one scope deeper than the loop statement).
func buildBraceDepth(toks []token.Token) []int {
	depth := make([]int, len(toks))
	cur, parens := 0, 0
	var forHeads []int // paren depth at which each open for-header's '(' sits
	for i, t := range toks {
		switch t.Kind {
		case token.RBRACE:
			cur--
		case token.RPAREN:
			parens--
			if n := len(forHeads); n > 0 && forHeads[n-1] == parens {
				forHeads = forHeads[:n-1]
			}
		}
		depth[i] = cur + len(forHeads)
		switch t.Kind {
		case token.LBRACE:
			cur++
		case token.LPAREN:
			if i > 0 && toks[i-1].Kind == token.FOR {
				forHeads = append(forHeads, parens)
			}
			parens++
		}
	}
	return depth
}

// matchBrackets pairs every '{'/'}'and '('/')' token index with its partner.
func matchBrackets(toks []token.Token) (matchBrace, matchParen map[int]int) {
	matchBrace = make(map[int]int)
	matchParen = make(map[int]int)
	var braceStack, parenStack []int
	for i, t := range toks {
		switch t.Kind {
		case token.LBRACE:
			braceStack = append(braceStack, i)
		case token.RBRACE:
			if n := len(braceStack); n > 0 {
				j := braceStack[n-1]
				braceStack = braceStack[:n-1]
				matchBrace[j], matchBrace[i] = i, j
			}
		case token.LPAREN:
			parenStack = append(parenStack, i)
		case token.RPAREN:
			if n := len(parenStack); n > 0 {
				j := parenStack[n-1]
				parenStack = parenStack[:n-1]
				matchParen[j], matchParen[i] = i, j
			}
		}
	}
	return matchBrace, matchParen
}

// scanner walks a token stream once to reconstruct if/while/do/for nesting.
// It deliberately does not handle switch/case (§4.6 "Control flow" names
// only if/while/do/for as code-generator targets). A braceless body is taken
// to end at the next ';' (see bodyBounds), so it covers one simple statement;
// a braceless body that is itself a control construct is not delimited.
type scanner struct {
	toks       []token.Token
	matchBrace map[int]int
	matchParen map[int]int
}

func newScanner(toks []token.Token) *scanner {
	mb, mp := matchBrackets(toks)
	return &scanner{toks: toks, matchBrace: mb, matchParen: mp}
}

// nextOfKind finds the first token of kind at or after from.
func (s *scanner) nextOfKind(from int, kind token.Kind) int {
	for i := from; i < len(s.toks); i++ {
		if s.toks[i].Kind == kind {
			return i
		}
	}
	return len(s.toks) - 1
}

// buildRoot scans the whole program into a synthetic root block.
func (s *scanner) buildRoot() *ctrlBlock {
	root := &ctrlBlock{kind: blockRoot, headTok: 0, endTok: len(s.toks), bodyStart: 0, bodyEnd: len(s.toks)}
	root.children = s.scan(0, len(s.toks))
	return root
}

// bodyBounds reads the body following a condition's closing ')': if a '{'
// comes next, the body is everything between the matched braces; otherwise
// (braceless body) the body is the tokens up to the next ';', with the ';'
// itself excluded from the body and skipped by next.
func (s *scanner) bodyBounds(afterParen int) (start, end, next int) {
	if afterParen < len(s.toks) && s.toks[afterParen].Kind == token.LBRACE {
		close := s.matchBrace[afterParen]
		return afterParen + 1, close, close + 1
	}
	i := afterParen
	for i < len(s.toks) && s.toks[i].Kind != token.SEMI {
		i++
	}
	return afterParen, i, i + 1
}

// scan finds every if/while/do/for directly within [start, end) (not
// descending into a construct's own body except to recurse into it), in
// source order.
func (s *scanner) scan(start, end int) []*ctrlBlock {
	var out []*ctrlBlock
	i := start
	for i < end {
		t := s.toks[i]
		switch t.Kind {
		case token.IF:
			blk, next := s.scanIf(i)
			out = append(out, blk)
			i = next
			continue
		case token.WHILE:
			blk, next := s.scanWhile(i)
			out = append(out, blk)
			i = next
			continue
		case token.DO:
			blk, next := s.scanDo(i)
			out = append(out, blk)
			i = next
			continue
		case token.FOR:
			blk, next := s.scanFor(i)
			out = append(out, blk)
			i = next
			continue
		case token.FUNCTION:
			// opaque to codegen: BIP has no call/return opcode, so function
			// bodies never contribute to the emitted instruction stream.
			lparen := s.nextOfKind(i, token.LPAREN)
			rparen := s.matchParen[lparen]
			lbrace := s.nextOfKind(rparen, token.LBRACE)
			rbrace := s.matchBrace[lbrace]
			i = rbrace + 1
			continue
		case token.SWITCH:
			// opaque to codegen: no BIP lowering for switch/case is specified.
			lparen := s.nextOfKind(i, token.LPAREN)
			rparen := s.matchParen[lparen]
			lbrace := s.nextOfKind(rparen, token.LBRACE)
			rbrace := s.matchBrace[lbrace]
			i = rbrace + 1
			continue
		case token.LBRACE:
			// a bare compound statement: its constructs join the enclosing
			// list; the scope it opens is tracked by buildBraceDepth.
			close := s.matchBrace[i]
			out = append(out, s.scan(i+1, close)...)
			i = close + 1
			continue
		}
		i++
	}
	return out
}

func (s *scanner) scanIf(i int) (*ctrlBlock, int) {
	blk := &ctrlBlock{kind: blockIf, pos: s.toks[i].Position, headTok: i}
	lparen := i + 1
	rparen := s.matchParen[lparen]
	blk.condStart, blk.condEnd = lparen+1, rparen
	bodyStart, bodyEnd, next := s.bodyBounds(rparen + 1)
	blk.bodyStart, blk.bodyEnd = bodyStart, bodyEnd
	blk.children = s.scan(bodyStart, bodyEnd)

	if next < len(s.toks) && s.toks[next].Kind == token.ELSE {
		elseBodyStart, elseBodyEnd, elseNext := s.bodyBounds(next + 1)
		eb := &ctrlBlock{kind: blockElse, pos: s.toks[next].Position, headTok: next, endTok: elseNext, bodyStart: elseBodyStart, bodyEnd: elseBodyEnd}
		eb.children = s.scan(elseBodyStart, elseBodyEnd)
		blk.elseBlock = eb
		next = elseNext
	}
	blk.endTok = next
	return blk, next
}

func (s *scanner) scanWhile(i int) (*ctrlBlock, int) {
	blk := &ctrlBlock{kind: blockWhile, pos: s.toks[i].Position, headTok: i}
	lparen := i + 1
	rparen := s.matchParen[lparen]
	blk.condStart, blk.condEnd = lparen+1, rparen
	bodyStart, bodyEnd, next := s.bodyBounds(rparen + 1)
	blk.bodyStart, blk.bodyEnd = bodyStart, bodyEnd
	blk.children = s.scan(bodyStart, bodyEnd)
	blk.endTok = next
	return blk, next
}

func (s *scanner) scanDo(i int) (*ctrlBlock, int) {
	blk := &ctrlBlock{kind: blockDo, pos: s.toks[i].Position, headTok: i}
	bodyStart, bodyEnd, next := s.bodyBounds(i + 1)
	blk.bodyStart, blk.bodyEnd = bodyStart, bodyEnd
	blk.children = s.scan(bodyStart, bodyEnd)

	// next is positioned right after the body; the grammar requires `while (cond);`
	if next < len(s.toks) && s.toks[next].Kind == token.WHILE {
		lparen := next + 1
		rparen := s.matchParen[lparen]
		blk.condStart, blk.condEnd = lparen+1, rparen
		next = rparen + 1
		if next < len(s.toks) && s.toks[next].Kind == token.SEMI {
			next++
		}
	}
	blk.endTok = next
	return blk, next
}

func (s *scanner) scanFor(i int) (*ctrlBlock, int) {
	blk := &ctrlBlock{kind: blockFor, pos: s.toks[i].Position, headTok: i}
	lparen := i + 1
	rparen := s.matchParen[lparen]

	semi1 := lparen + 1
	for semi1 < rparen && s.toks[semi1].Kind != token.SEMI {
		semi1++
	}
	semi2 := semi1 + 1
	for semi2 < rparen && s.toks[semi2].Kind != token.SEMI {
		semi2++
	}

	blk.forInitStart, blk.forInitEnd = lparen+1, semi1
	blk.forCondStart, blk.forCondEnd = semi1+1, semi2
	blk.forUpdateStart, blk.forUpdateEnd = semi2+1, rparen

	bodyStart, bodyEnd, next := s.bodyBounds(rparen + 1)
	blk.bodyStart, blk.bodyEnd = bodyStart, bodyEnd
	blk.children = s.scan(bodyStart, bodyEnd)
	blk.endTok = next
	return blk, next
}
