package disasm

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorPushWidths(t *testing.T) {
	for w := 0; w <= 32; w++ {
		t.Run(fmt.Sprintf("PUSH%d", w), func(t *testing.T) {
			operand := bytes.Repeat([]byte{byte(vm.JUMPDEST)}, w) // would decode as labels if misread
			code := append([]byte{byte(vm.PUSH0) + byte(w)}, operand...)
			code = append(code, byte(vm.STOP))

			c := NewCursor(code, 2)
			var ops []vm.OpCode
			var positions []int
			for c.HasMore() {
				ops = append(ops, c.Next())
				positions = append(positions, c.Pos())
			}

			require.Len(t, ops, 2)
			assert.Equal(t, vm.PUSH0+vm.OpCode(w), ops[0])
			assert.Equal(t, vm.STOP, ops[1])
			assert.Equal(t, []int{0, 1 + w}, positions)
			assert.Equal(t, 1, c.Step())
			assert.Equal(t, operand, c.ValueAt(-2))
		})
	}
}

func TestCursorTruncatedPush(t *testing.T) {
	code := []byte{byte(vm.PUSH4), 0xaa, 0xbb}

	c := NewCursor(code, 1)
	require.True(t, c.HasMore())
	assert.Equal(t, vm.PUSH4, c.Next())
	assert.Equal(t, []byte{0xaa, 0xbb}, c.Value())
	assert.False(t, c.HasMore())

	// Past the end the cursor keeps returning the implicit halt.
	assert.Equal(t, vm.STOP, c.Next())
	assert.Equal(t, 0, c.Pos())
	assert.Equal(t, 0, c.Step())
}

func TestCursorBeforeFirstStep(t *testing.T) {
	c := NewCursor([]byte{byte(vm.STOP)}, 3)
	assert.Equal(t, -1, c.Step())
	assert.Equal(t, -1, c.Pos())
	assert.Equal(t, 0, c.Retained())

	c = NewCursor(nil, 3)
	assert.False(t, c.HasMore())
}

func TestCursorLookback(t *testing.T) {
	code := []byte{
		byte(vm.PUSH1), 0x01, // 0
		byte(vm.DUP1),        // 2
		byte(vm.PUSH2), 0x01, 0x02, // 3
		byte(vm.EQ),    // 6
		byte(vm.ISZERO), // 7
		byte(vm.STOP),  // 8
	}
	const size = 3

	c := NewCursor(code, size)
	for c.HasMore() {
		c.Next()
	}

	assert.Equal(t, size, c.Retained())
	assert.Equal(t, vm.STOP, c.At(-1))
	assert.Equal(t, vm.ISZERO, c.At(-2))
	assert.Equal(t, vm.EQ, c.At(-size))
	assert.Equal(t, 6, c.AsPos(-size))

	// Absolute addressing is unaffected by the window.
	assert.Equal(t, vm.PUSH2, c.At(3))
	assert.Equal(t, []byte{0x01, 0x02}, c.ValueAt(3))
	assert.Equal(t, []byte{}, c.ValueAt(2))
	assert.Equal(t, vm.STOP, c.At(100))

	require.Panics(t, func() { c.At(-size - 1) })

	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %v", r)
		assert.True(t, errors.Is(err, ErrHistoryExhausted))
	}()
	c.ValueAt(-size - 1)
}

func TestCursorLookbackBeforeWindowFills(t *testing.T) {
	c := NewCursor([]byte{byte(vm.CALLVALUE), byte(vm.DUP1)}, 5)
	c.Next()
	assert.Equal(t, vm.CALLVALUE, c.At(-1))
	assert.Panics(t, func() { c.At(-2) })
}

func TestDisassemble(t *testing.T) {
	code, err := ParseBytecode("0x60806040526004366100")
	require.NoError(t, err)

	stream := Disassemble(code)
	require.Len(t, stream, 6)
	assert.Equal(t, Inst{Pos: 0, Op: vm.PUSH1, Arg: []byte{0x80}}, stream[0])
	assert.Equal(t, vm.MSTORE, stream[2].Op)
	assert.Equal(t, vm.CALLDATASIZE, stream[4].Op)
	assert.Equal(t, Inst{Pos: 8, Op: vm.PUSH2, Arg: []byte{0x00}}, stream[5])
	assert.Equal(t, "0      PUSH1 0x80", stream[0].String())
	assert.Equal(t, "7      CALLDATASIZE", stream[4].String())
}

func TestHexHelpers(t *testing.T) {
	code, err := ParseBytecode(" 60ff \n")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0xff}, code)

	_, err = ParseBytecode("0x6")
	assert.Error(t, err)
	_, err = ParseBytecode("zz")
	assert.Error(t, err)

	assert.Equal(t, "0x00000001", Hex(LeftPad([]byte{0x01}, 4)))
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, LeftPad([]byte{1, 2, 3, 4, 5}, 4))

	assert.Equal(t, 0, ToOffset(nil))
	assert.Equal(t, 0x1234, ToOffset([]byte{0x12, 0x34}))
	assert.Equal(t, NoOffset, ToOffset(bytes.Repeat([]byte{0xff}, 32)))
}
