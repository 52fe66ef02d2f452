package disasm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"

	"abiscan/internal/opcodes"
)

// DefaultHistorySize is the lookback window used when none is configured.
const DefaultHistorySize = 1

// ErrHistoryExhausted is the panic value (wrapped) raised when a relative
// lookback reaches past the positions the cursor still retains.
var ErrHistoryExhausted = errors.New("history does not contain relative step")

// Cursor walks bytecode one instruction at a time, stepping over push
// operands, and remembers the start offsets of the last few instructions so
// heuristics can look back at a short instruction window without rescanning.
type Cursor struct {
	code     []byte
	nextStep int // instructions consumed
	nextPos  int // byte offset of the next instruction

	history []int // ring buffer of instruction offsets
	head    int   // index of the oldest entry
	size    int   // number of retained entries
}

// NewCursor returns a cursor over code retaining the offsets of the last
// historySize instructions. Sizes below one are raised to one.
func NewCursor(code []byte, historySize int) *Cursor {
	if historySize < DefaultHistorySize {
		historySize = DefaultHistorySize
	}
	return &Cursor{
		code:    code,
		history: make([]int, historySize),
	}
}

// HasMore reports whether unconsumed bytes remain.
func (c *Cursor) HasMore() bool {
	return len(c.code) > c.nextPos
}

// Next returns the instruction at the current position and advances past it
// and its operand. Past the end of code it returns STOP, the same implicit
// halt the machine executes there, and does not advance.
func (c *Cursor) Next() vm.OpCode {
	if len(c.code) <= c.nextPos {
		return vm.STOP
	}
	op := vm.OpCode(c.code[c.nextPos])
	c.record(c.nextPos)

	c.nextStep++
	c.nextPos += 1 + opcodes.PushWidth(op)
	return op
}

func (c *Cursor) record(pos int) {
	if c.size < len(c.history) {
		c.history[(c.head+c.size)%len(c.history)] = pos
		c.size++
		return
	}
	c.history[c.head] = pos
	c.head = (c.head + 1) % len(c.history)
}

// Step is the index of the last returned instruction, or -1 before the
// first call to Next.
func (c *Cursor) Step() int {
	return c.nextStep - 1
}

// Pos is the byte offset of the last returned instruction, or -1 before the
// first call to Next.
func (c *Cursor) Pos() int {
	if c.size == 0 {
		return -1
	}
	return c.history[(c.head+c.size-1)%len(c.history)]
}

// Retained is the number of instruction offsets currently held, so
// Retained() == n means relative steps -1 through -n resolve.
func (c *Cursor) Retained() int {
	return c.size
}

// Len is the length of the underlying bytecode.
func (c *Cursor) Len() int {
	return len(c.code)
}

// AsPos resolves posOrRelativeStep into an absolute byte offset. Negative
// values count back through the history, -1 being the last returned
// instruction. Looking back further than the retained history panics: the
// caller asked for a window larger than the one it configured.
func (c *Cursor) AsPos(posOrRelativeStep int) int {
	if posOrRelativeStep >= 0 {
		return posOrRelativeStep
	}
	back := -posOrRelativeStep
	if back > c.size {
		panic(fmt.Errorf("%w: %d (retained %d)", ErrHistoryExhausted, posOrRelativeStep, c.size))
	}
	return c.history[(c.head+c.size-back)%len(c.history)]
}

// At returns the instruction at an absolute offset or a relative step.
// Offsets beyond the code read as STOP.
func (c *Cursor) At(posOrRelativeStep int) vm.OpCode {
	pos := c.AsPos(posOrRelativeStep)
	if pos >= len(c.code) {
		return vm.STOP
	}
	return vm.OpCode(c.code[pos])
}

// ValueAt returns the immediate operand of the push instruction at an
// absolute offset or relative step, truncated to the bytes actually present.
// Non-push instructions have an empty value.
func (c *Cursor) ValueAt(posOrRelativeStep int) []byte {
	pos := c.AsPos(posOrRelativeStep)
	if pos >= len(c.code) {
		return []byte{}
	}
	width := opcodes.PushWidth(vm.OpCode(c.code[pos]))
	end := pos + 1 + width
	if end > len(c.code) {
		end = len(c.code)
	}
	return c.code[pos+1 : end]
}

// Value is the operand of the last returned instruction.
func (c *Cursor) Value() []byte {
	return c.ValueAt(-1)
}
