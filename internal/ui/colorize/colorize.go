// Package colorize highlights the EVM listing for terminal output.
package colorize

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const (
	posColor        = "\033[38;2;79;79;79m"
	annotationColor = "\033[38;2;235;194;237m"
	reset           = "\033[0m"
)

var disabled atomic.Bool

// Disable turns highlighting off for the rest of the process, as does a
// non-empty ABISCAN_NO_COLOR.
func Disable() {
	disabled.Store(true)
}

// Enabled reports whether output is highlighted.
func Enabled() bool {
	return !disabled.Load() && os.Getenv("ABISCAN_NO_COLOR") == ""
}

// getLexer returns the lexer used for the mnemonic and operand part.
func getLexer() chroma.Lexer {
	for _, name := range []string{"nasm", "gas"} {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

func getStyle() *chroma.Style {
	for _, name := range []string{"evm-dark", "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

func getFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Line highlights one listing line of the form
//
//	pos    MNEMONIC 0xoperand     ; annotation, annotation
//
// The position is dimmed, the instruction goes through chroma and the
// annotations keep one color. Lines that do not start with a hex position
// are highlighted as a whole.
func Line(line string) string {
	if !Enabled() {
		return line
	}

	body, note, hasNote := strings.Cut(line, " ; ")

	pos, inst, ok := strings.Cut(body, " ")
	if !ok || !isHex(pos) {
		return highlight(line)
	}

	var b strings.Builder
	b.WriteString(posColor + pos + reset + " ")
	b.WriteString(highlight(inst))
	if hasNote {
		b.WriteString(" " + annotationColor + "; " + note + reset)
	}
	return b.String()
}

// Listing highlights every line of a multi-line listing.
func Listing(text string) string {
	if !Enabled() {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = Line(line)
		}
	}
	return strings.Join(lines, "\n")
}

func highlight(s string) string {
	lexer := getLexer()
	if lexer == nil {
		return s
	}
	iterator, err := lexer.Tokenise(nil, s)
	if err != nil {
		return s
	}
	var buf strings.Builder
	if err := getFormatter().Format(&buf, getStyle(), iterator); err != nil {
		return s
	}
	// Some lexers append a newline to the input.
	return strings.ReplaceAll(buf.String(), "\n", "")
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return false
		}
	}
	return true
}

// Strip removes ANSI color sequences.
func Strip(s string) string {
	var result strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
