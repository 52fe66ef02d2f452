package analysis

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/vm"
)

// Tiny two-pass assembler for test fixtures.
//
//	vm.OpCode  one instruction byte
//	[]byte     raw bytes (use push() for PUSHn with operand)
//	label      records the current offset, emits nothing
//	ref        PUSH1 <offset of label>
type (
	label string
	ref   string
)

func push(operand ...byte) []byte {
	if len(operand) == 0 {
		return []byte{byte(vm.PUSH0)}
	}
	return append([]byte{byte(vm.PUSH1) + byte(len(operand)-1)}, operand...)
}

func asm(parts ...any) ([]byte, map[string]int) {
	labels := make(map[string]int)
	pos := 0
	for _, part := range parts {
		switch p := part.(type) {
		case vm.OpCode:
			pos++
		case []byte:
			pos += len(p)
		case label:
			labels[string(p)] = pos
		case ref:
			pos += 2
		default:
			panic(fmt.Sprintf("asm: unsupported part %T", part))
		}
	}

	code := make([]byte, 0, pos)
	for _, part := range parts {
		switch p := part.(type) {
		case vm.OpCode:
			code = append(code, byte(p))
		case []byte:
			code = append(code, p...)
		case ref:
			off, ok := labels[string(p)]
			if !ok || off > 0xff {
				panic(fmt.Sprintf("asm: bad label %q", p))
			}
			code = append(code, byte(vm.PUSH1), byte(off))
		}
	}
	return code, labels
}

// selectorPrologue loads the selector from calldata: PUSH1 0 CALLDATALOAD PUSH1 0xe0 SHR.
var selectorPrologue = []any{push(0x00), vm.CALLDATALOAD, push(0xe0), vm.SHR}

// revert is PUSH1 0 DUP1 REVERT, the dispatcher fallback.
var revert = []any{push(0x00), vm.DUP1, vm.REVERT}

func seq(groups ...[]any) []any {
	var out []any
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
