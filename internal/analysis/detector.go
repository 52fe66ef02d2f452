package analysis

import (
	"github.com/ethereum/go-ethereum/core/vm"

	"abiscan/internal/disasm"
	"abiscan/internal/opcodes"
)

// MatchKind says what a dispatch detector recognized.
type MatchKind int

const (
	NoMatch MatchKind = iota
	// SelectorMatch is a selector comparison branching to its function.
	SelectorMatch
	// BranchMatch is an inner node of a binary-search dispatch tree; its
	// target continues the dispatch table.
	BranchMatch
)

// Match is a detector verdict for the sequence ending at the current JUMPI.
type Match struct {
	Kind     MatchKind
	Selector string // set for SelectorMatch
}

// Detector recognizes a dispatch pattern ending in PUSH dest; JUMPI. The
// window's -1 is the JUMPI and -2 the push of its destination.
type Detector interface {
	Detect(w window) Match
}

// DetectorChain tries detectors in order; the first match wins.
type DetectorChain struct {
	detectors []Detector
}

// NewDetectorChain creates a new detector chain
func NewDetectorChain(detectors ...Detector) *DetectorChain {
	return &DetectorChain{
		detectors: detectors,
	}
}

// Detect returns the first match, or a NoMatch verdict.
func (dc *DetectorChain) Detect(w window) Match {
	for _, detector := range dc.detectors {
		if m := detector.Detect(w); m.Kind != NoMatch {
			return m
		}
	}
	return Match{}
}

// dispatchDetectors are the patterns emitted by the Solidity dispatcher.
// The DUP1 ISZERO shortcut for the zero selector is deliberately absent: it
// also matches ordinary zero checks.
var dispatchDetectors = NewDetectorChain(
	directSelector{},
	swappedSelector{},
	branchNode{},
)

// window is a bounds-checked view over the cursor's lookback history. A
// relative step the cursor has not yet produced never matches.
type window struct {
	c *disasm.Cursor
}

func (w window) at(i int) (vm.OpCode, bool) {
	if i < 0 && -i > w.c.Retained() {
		return vm.STOP, false
	}
	return w.c.At(i), true
}

func (w window) is(i int, op vm.OpCode) bool {
	got, ok := w.at(i)
	return ok && got == op
}

func (w window) isPush(i int) bool {
	got, ok := w.at(i)
	return ok && opcodes.IsPush(got)
}

func (w window) value(i int) []byte {
	if _, ok := w.at(i); !ok {
		return nil
	}
	return w.c.ValueAt(i)
}

// DUP1 PUSH4 <selector> EQ PUSHN <dest> JUMPI
type directSelector struct{}

func (directSelector) Detect(w window) Match {
	if !w.is(-3, vm.EQ) || !w.isPush(-4) {
		return Match{}
	}
	return selectorMatch(w.value(-4))
}

// PUSH4 <selector> DUP2 EQ PUSHN <dest> JUMPI
type swappedSelector struct{}

func (swappedSelector) Detect(w window) Match {
	if !w.is(-3, vm.EQ) || !w.is(-4, vm.DUP2) || !w.isPush(-5) {
		return Match{}
	}
	return selectorMatch(w.value(-5))
}

// DUP1 PUSHN <bound> GT|LT PUSHN <dest> JUMPI
type branchNode struct{}

func (branchNode) Detect(w window) Match {
	op, ok := w.at(-3)
	if !ok || op == vm.EQ || !opcodes.IsCompare(op) || !w.is(-5, vm.DUP1) {
		return Match{}
	}
	return Match{Kind: BranchMatch}
}

// selectorMatch normalizes a compared operand. Selectors with leading zero
// bytes get pushed with a narrower PUSH, so they are padded back to four
// bytes. Operands wider than a selector are dropped rather than reported
// as-is: a selector is always eight hex digits, so a wider compare is some
// other constant.
func selectorMatch(value []byte) Match {
	if len(value) > SelectorSize {
		return Match{}
	}
	return Match{
		Kind:     SelectorMatch,
		Selector: disasm.Hex(disasm.LeftPad(value, SelectorSize)),
	}
}
