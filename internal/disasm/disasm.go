// Package disasm decodes EVM bytecode into instructions. It provides the
// width-aware Cursor used by the analysis heuristics, a linear listing, and
// the hex helpers shared by both.
package disasm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/vm"

	"abiscan/internal/opcodes"
)

// Inst is a simplified decoded instruction.
type Inst struct {
	Pos int       // byte offset of the instruction
	Op  vm.OpCode // instruction byte
	Arg []byte    // push operand, truncated at end of code
}

// String formats the instruction as "pos  MNEMONIC 0xarg".
func (i Inst) String() string {
	if opcodes.IsPush(i.Op) && i.Op != vm.PUSH0 {
		return fmt.Sprintf("%-6x %s %s", i.Pos, i.Op, Hex(i.Arg))
	}
	return fmt.Sprintf("%-6x %s", i.Pos, i.Op)
}

// Stream is a linear sequence of instructions.
type Stream []Inst

// Disassemble decodes the whole of code.
func Disassemble(code []byte) Stream {
	c := NewCursor(code, DefaultHistorySize)
	var out Stream
	for c.HasMore() {
		op := c.Next()
		out = append(out, Inst{Pos: c.Pos(), Op: op, Arg: c.Value()})
	}
	return out
}

// String renders one instruction per line.
func (s Stream) String() string {
	var sb strings.Builder
	for _, inst := range s {
		sb.WriteString(inst.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
