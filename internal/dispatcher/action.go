// Package dispatcher implements the action dispatcher (C5): it receives
// (action_id, token) events from the parser driver, mutates the current
// declaration builder, and drives the symbol table (C3) and expression
// typer (C4) accordingly. The action-ID table below is the one named
// authoritative by §9: earlier divergent snapshots are superseded.
package dispatcher

// Action IDs, per spec §4.5. Gaps in the numbering (16, 20-21, 26, 28-29,
// 32-33) are reserved by the grammar for productions that carry no
// semantic action of their own (e.g. pure punctuation reductions).
const (
	ActionValue            = 1
	ActionOr               = 2
	ActionAnd              = 3
	ActionBitOr            = 4
	ActionPow               = 5
	ActionBitAnd            = 6
	ActionRel                = 7
	ActionBitXorShift        = 8
	ActionArithLow           = 9
	ActionArithHigh          = 10
	ActionUnaryPrefix        = 11
	ActionLParen             = 12
	ActionRParen             = 13
	ActionCall               = 14
	ActionIndexedValue       = 15
	ActionPrint              = 17
	ActionRead               = 18
	ActionTypeKeyword        = 19
	ActionIdentBinding       = 22
	ActionFuncDeclHeader     = 23
	ActionIncDecValue        = 24
	ActionConstVar           = 25
	ActionIncDecAssign       = 27
	ActionFuncTypeDecoration = 30
	ActionReturn             = 31
	ActionIf                 = 34
	ActionDo                 = 35
	ActionWhile              = 36
	ActionFor                = 37
	ActionForInitVarName     = 38
	ActionForInitVarType     = 39
	ActionForInitValue       = 40
	ActionSwitchCaseDefault  = 41
	ActionSemi               = 42
	ActionFuncBodyClosed     = 43
	ActionBranchCloseIf      = 44
	ActionBranchCloseWhile   = 45
	ActionBranchCloseDo      = 46
	ActionBranchCloseFor     = 47
	ActionBranchCloseSwitch  = 48
	ActionBranchCloseCase    = 49
	ActionBranchCloseCase2   = 50
	ActionBranchCloseCase3   = 51
	ActionProgramEnd         = 99
)
