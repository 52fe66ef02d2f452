// Package opcodes classifies EVM instructions for the bytecode heuristics.
// The instruction set itself comes from go-ethereum's core/vm table.
package opcodes

import "github.com/ethereum/go-ethereum/core/vm"

// OpCode is re-exported so callers need not import core/vm for comparisons.
type OpCode = vm.OpCode

// MaxPushWidth is the widest immediate operand an instruction can carry.
const MaxPushWidth = 32

// IsPush reports whether op is a PUSH0..PUSH32 instruction.
func IsPush(op OpCode) bool {
	return op >= vm.PUSH0 && op <= vm.PUSH32
}

// PushWidth returns the number of immediate bytes op owns. PUSH0 and
// every non-push instruction own none.
func PushWidth(op OpCode) int {
	if op < vm.PUSH1 || op > vm.PUSH32 {
		return 0
	}
	return int(op-vm.PUSH1) + 1
}

// IsLog reports whether op emits a log carrying at least one topic.
func IsLog(op OpCode) bool {
	return op >= vm.LOG1 && op <= vm.LOG4
}

// IsHalt reports whether op ends execution of the current frame.
func IsHalt(op OpCode) bool {
	switch op {
	case vm.STOP, vm.RETURN, vm.REVERT, vm.INVALID, vm.SELFDESTRUCT:
		return true
	}
	return false
}

// IsCompare reports whether op is a two-operand comparison.
func IsCompare(op OpCode) bool {
	switch op {
	case vm.EQ, vm.LT, vm.GT, vm.SLT, vm.SGT:
		return true
	}
	return false
}

// IsCalldataRead reports whether op reads the call input.
func IsCalldataRead(op OpCode) bool {
	return op == vm.CALLDATALOAD || op == vm.CALLDATASIZE || op == vm.CALLDATACOPY
}

// Interesting reports whether op tells us something about the routine it
// appears in (reads input, touches storage, returns or reverts).
func Interesting(op OpCode) bool {
	switch op {
	case vm.STOP, vm.RETURN, vm.CALLDATALOAD, vm.CALLDATASIZE, vm.CALLDATACOPY,
		vm.SLOAD, vm.SSTORE, vm.REVERT:
		return true
	}
	return false
}
