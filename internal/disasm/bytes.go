package disasm

import (
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// NoOffset is the offset assigned to operands too wide to address code.
const NoOffset = -1

// ParseBytecode decodes a hex string with or without the 0x prefix.
// Surrounding whitespace is ignored.
func ParseBytecode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	code, err := hexutil.Decode("0x" + s[2:])
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex: %w", err)
	}
	return code, nil
}

// Hex encodes b as lowercase hex with the 0x prefix.
func Hex(b []byte) string {
	return hexutil.Encode(b)
}

// LeftPad zero-pads b on the left to n bytes. Longer input is returned as is.
func LeftPad(b []byte, n int) []byte {
	return common.LeftPadBytes(b, n)
}

// ToOffset interprets a big-endian push operand as a code offset. Values
// that cannot be a position in any bytecode map to NoOffset.
func ToOffset(b []byte) int {
	if len(b) > 32 {
		return NoOffset
	}
	v := new(uint256.Int).SetBytes(b)
	if !v.IsUint64() || v.Uint64() > math.MaxInt32 {
		return NoOffset
	}
	return int(v.Uint64())
}
