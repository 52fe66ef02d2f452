package analysis

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/core/vm"

	"abiscan/internal/disasm"
	"abiscan/internal/opcodes"
)

// scanState is everything the scanner carries from one instruction to the
// next besides the Program it is filling in.
type scanState struct {
	// current is the region being built.
	current *Function
	// checkJumpTable is set while we may still be inside the dispatcher.
	checkJumpTable bool
	// resumeJumpTable holds offsets where the dispatcher continues: default
	// branches and the far side of binary-search nodes.
	resumeJumpTable mapset.Set[int]
	// lastPush32 is the operand of the most recent PUSH32, a topic candidate.
	// It stays set until the next PUSH32, so every later LOG reports it.
	lastPush32 []byte
}

func newScanState(p *Program) scanState {
	entry := newFunction(0, 0)
	p.Functions[entry.Start] = entry
	return scanState{
		current:         entry,
		checkJumpTable:  true,
		resumeJumpTable: mapset.NewThreadUnsafeSet[int](),
	}
}

// Disasm scans code in a single pass and returns the jump destinations,
// regions, selectors, value guards and event candidates it found. It never
// fails: unrecognized sequences are skipped.
func Disasm(code []byte) *Program {
	return DisasmWithHistory(code, HistorySize)
}

// DisasmWithHistory is Disasm with a larger lookback window. Sizes below
// HistorySize are raised to it.
func DisasmWithHistory(code []byte, history int) *Program {
	if history < HistorySize {
		history = HistorySize
	}
	p := newProgram()
	st := newScanState(p)

	c := disasm.NewCursor(code, history)
	for c.HasMore() {
		st = step(c, p, st, c.Next())
	}
	return p
}

// step applies one instruction, the one most recently returned by c.
func step(c *disasm.Cursor, p *Program, st scanState, op vm.OpCode) scanState {
	w := window{c}

	// Track the last PUSH32 to find LOG topics.
	if op == vm.PUSH32 {
		st.lastPush32 = c.Value()
		return st
	}
	if opcodes.IsLog(op) && len(st.lastPush32) == TopicSize {
		p.EventCandidates = append(p.EventCandidates, disasm.Hex(st.lastPush32))
		return st
	}

	if op == vm.JUMPDEST {
		return enterLabel(c, p, st)
	}

	// Annotate the current region.
	if (op == vm.JUMP || op == vm.JUMPI) && w.isPush(-2) {
		st.current.Jumps = append(st.current.Jumps, disasm.ToOffset(w.value(-2)))
	}
	if opcodes.Interesting(op) {
		st.current.OpTags.Add(op)
	}

	if !st.checkJumpTable {
		return st
	}

	// The table continues elsewhere, or this is its default target.
	if op == vm.JUMP && w.isPush(-2) {
		st.resumeJumpTable.Add(disasm.ToOffset(w.value(-2)))
	}

	// Everything below ends in PUSHN <dest> JUMPI.
	if op != vm.JUMPI || !w.isPush(-2) {
		return st
	}
	dest := disasm.ToOffset(w.value(-2))
	st.current.Jumps = append(st.current.Jumps, dest)

	switch m := dispatchDetectors.Detect(w); m.Kind {
	case SelectorMatch:
		p.Selectors.Set(m.Selector, dest)
	case BranchMatch:
		st.resumeJumpTable.Add(dest)
	}
	return st
}

// enterLabel handles a JUMPDEST. A label right after a halt or an
// unconditional jump cannot be reached by falling through, so it opens a
// new region; any other label is an internal branch target.
func enterLabel(c *disasm.Cursor, p *Program, st scanState) scanState {
	w := window{c}
	pos := c.Pos()

	if prev, ok := w.at(-2); ok && (opcodes.IsHalt(prev) || prev == vm.JUMP) {
		st.current.End = pos - 1
		st.current = newFunction(pos, c.Step())
		p.Functions[pos] = st.current

		// Keep looking for the dispatcher until at least one selector turns up.
		if st.checkJumpTable && p.Selectors.Len() > 0 {
			st.checkJumpTable = false
		}
		if st.resumeJumpTable.Contains(pos) {
			st.resumeJumpTable.Remove(pos)
			// Dispatch subtrees start from the selector still on the stack,
			// or load it again.
			next := c.At(pos + 1)
			st.checkJumpTable = next == vm.DUP1 || next == vm.CALLDATALOAD
		}
	}

	p.Dests[pos] = st.current.Start

	// JUMPDEST CALLVALUE DUP1 ISZERO: the function rejects value transfers.
	// None of these carry operands, so absolute offsets are safe.
	if c.At(pos+1) == vm.CALLVALUE && c.At(pos+2) == vm.DUP1 && c.At(pos+3) == vm.ISZERO {
		p.NotPayable[pos] = c.Step()
	}
	return st
}
