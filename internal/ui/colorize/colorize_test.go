package colorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRoundTrip(t *testing.T) {
	lines := []string{
		"14     JUMPDEST                                         ; region 0x14..end, selector 0xa9059cbb",
		"0      PUSH1 0x80",
		"2a     STOP",
		"not a listing line",
	}
	for _, line := range lines {
		colored := Line(line)
		assert.Equal(t, line, Strip(colored))
	}
}

func TestLineHighlights(t *testing.T) {
	colored := Line("0      PUSH1 0x80")
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, posColor+"0"+reset)
}

func TestNoColor(t *testing.T) {
	t.Setenv("ABISCAN_NO_COLOR", "1")
	assert.False(t, Enabled())
	assert.Equal(t, "0      STOP", Line("0      STOP"))
	assert.Equal(t, "0 STOP\n1 STOP", Listing("0 STOP\n1 STOP"))
}

func TestIsHex(t *testing.T) {
	assert.True(t, isHex("1aF"))
	assert.False(t, isHex(""))
	assert.False(t, isHex("0x1"))
}
