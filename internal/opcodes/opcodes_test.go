package opcodes

import (
	"testing"

	"github.com/ethereum/go-ethereum/core/vm"
)

func TestPushWidth(t *testing.T) {
	tests := []struct {
		op   OpCode
		want int
		push bool
	}{
		{vm.PUSH0, 0, true},
		{vm.PUSH1, 1, true},
		{vm.PUSH4, 4, true},
		{vm.PUSH20, 20, true},
		{vm.PUSH32, MaxPushWidth, true},
		{vm.DUP1, 0, false},
		{vm.JUMPDEST, 0, false},
		{vm.STOP, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			if got := PushWidth(tt.op); got != tt.want {
				t.Errorf("PushWidth(%s) = %d, want %d", tt.op, got, tt.want)
			}
			if got := IsPush(tt.op); got != tt.push {
				t.Errorf("IsPush(%s) = %v, want %v", tt.op, got, tt.push)
			}
		})
	}
}

func TestClasses(t *testing.T) {
	if IsLog(vm.LOG0) {
		t.Error("LOG0 has no topic and should not count as a log")
	}
	for _, op := range []OpCode{vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4} {
		if !IsLog(op) {
			t.Errorf("IsLog(%s) = false", op)
		}
	}

	for _, op := range []OpCode{vm.STOP, vm.RETURN, vm.REVERT, vm.INVALID, vm.SELFDESTRUCT} {
		if !IsHalt(op) {
			t.Errorf("IsHalt(%s) = false", op)
		}
	}
	if IsHalt(vm.JUMP) {
		t.Error("JUMP is not a halt")
	}

	for _, op := range []OpCode{vm.EQ, vm.LT, vm.GT, vm.SLT, vm.SGT} {
		if !IsCompare(op) {
			t.Errorf("IsCompare(%s) = false", op)
		}
	}
	if IsCompare(vm.ISZERO) {
		t.Error("ISZERO is unary and not a comparison")
	}

	if !Interesting(vm.SSTORE) || Interesting(vm.JUMP) {
		t.Error("unexpected Interesting classification")
	}
	if !IsCalldataRead(vm.CALLDATACOPY) || IsCalldataRead(vm.CALLVALUE) {
		t.Error("unexpected IsCalldataRead classification")
	}
}
