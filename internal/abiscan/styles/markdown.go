package styles

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Palette of the summary view. Selectors and topics share the inline code
// color so they read the same in the summary and the listing.
var (
	Foreground = charmtone.Smoke.Hex()
	Heading    = charmtone.Malibu.Hex()
	Title      = charmtone.Zest.Hex()
	TitleBg    = charmtone.Charple.Hex()
	Muted      = charmtone.Squid.Hex()
	Rule       = charmtone.Charcoal.Hex()
	Selector   = "#EACD53"
	Payable    = charmtone.Guac.Hex()
	View       = charmtone.Malibu.Hex()
	NonPayable = charmtone.Cheeky.Hex()
)

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
func uintPtr(u uint) *uint       { return &u }

// MarkdownRenderer returns a glamour renderer for the analysis summary.
func MarkdownRenderer(width int) (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithStyles(MarkdownStyle()),
		// Code blocks are preserved by glamour
		glamour.WithWordWrap(width),
	)
}

// MarkdownStyle is the glamour style of the summary.
func MarkdownStyle() ansi.StyleConfig {
	heading := func(prefix string) ansi.StyleBlock {
		return ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: prefix}}
	}
	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: stringPtr(Foreground)},
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: stringPtr(Muted), Italic: boolPtr(true)},
			Indent:         uintPtr(1),
			IndentToken:    stringPtr("│ "),
		},
		List: ansi.StyleList{LevelIndent: 2},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockSuffix: "\n",
				Color:       stringPtr(Heading),
				Bold:        boolPtr(true),
			},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix:          " ",
				Suffix:          " ",
				Color:           stringPtr(Title),
				BackgroundColor: stringPtr(TitleBg),
				Bold:            boolPtr(true),
			},
		},
		H2:     heading("## "),
		H3:     heading("### "),
		H4:     heading("#### "),
		Strong: ansi.StylePrimitive{Bold: boolPtr(true)},
		Emph:   ansi.StylePrimitive{Italic: boolPtr(true)},
		HorizontalRule: ansi.StylePrimitive{
			Color:  stringPtr(Rule),
			Format: "\n--------\n",
		},
		Item:        ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration: ansi.StylePrimitive{BlockPrefix: ". "},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: stringPtr(Selector)},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{Color: stringPtr(Muted)},
				Margin:         uintPtr(1),
			},
		},
		Table: ansi.StyleTable{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{Color: stringPtr(Foreground)},
			},
			CenterSeparator: stringPtr("┼"),
			ColumnSeparator: stringPtr("│"),
			RowSeparator:    stringPtr("─"),
		},
	}
}
