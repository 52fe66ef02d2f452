package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"abiscan/internal/abicache"
	"abiscan/internal/analysis"
)

// BatchOutput is the JSON form of one batch or watch result.
type BatchOutput struct {
	Input    string       `json:"input"`
	CodeHash string       `json:"codeHash,omitempty"`
	ABI      analysis.ABI `json:"abi,omitempty"`
	Error    string       `json:"error,omitempty"`
}

func batchOutput(r abicache.Result) BatchOutput {
	out := BatchOutput{Input: r.Input}
	if r.Err != nil {
		out.Error = r.Err.Error()
		return out
	}
	out.CodeHash = r.Entry.CodeHash.Hex()
	out.ABI = r.Entry.ABI
	return out
}

// writeABI writes the descriptor list as indented JSON.
func writeABI(w io.Writer, abi analysis.ABI) error {
	data, err := json.MarshalIndent(abi, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// functionNames returns the known signatures of a selector, or "".
func functionNames(sigs *analysis.SignatureDB, selector string) string {
	if sigs == nil {
		return ""
	}
	return strings.Join(sigs.Function(selector), " | ")
}

func eventNames(sigs *analysis.SignatureDB, topic string) string {
	if sigs == nil {
		return ""
	}
	return strings.Join(sigs.Event(topic), " | ")
}

func ioSummary(f *analysis.ABIFunction) string {
	var parts []string
	if len(f.Inputs) > 0 {
		parts = append(parts, "in")
	}
	if len(f.Outputs) > 0 {
		parts = append(parts, "out")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "/")
}

// summaryMarkdown describes one analyzed input: header block, function
// table and event table.
func summaryMarkdown(name string, code []byte, e *abicache.Entry, sigs *analysis.SignatureDB) string {
	var b strings.Builder

	fns := e.ABI.Functions()
	events := e.ABI.Events()

	b.WriteString("# abiscan\n\n```\n")
	if name != "" {
		fmt.Fprintf(&b, "; %s\n", name)
	}
	fmt.Fprintf(&b, "; code hash %s\n", e.CodeHash.Hex())
	fmt.Fprintf(&b, "; %d bytes, %d regions, %d jump destinations\n",
		len(code), len(e.Program.Functions), len(e.Program.Dests))
	fmt.Fprintf(&b, "; %d selectors, %d functions, %d events\n",
		e.Program.Selectors.Len(), len(fns), len(events))
	b.WriteString("```\n")

	if len(fns) > 0 {
		b.WriteString("\n## Functions\n\n")
		b.WriteString("| selector | signature | mutability | io |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, f := range fns {
			sig := functionNames(sigs, f.Selector)
			if sig == "" {
				sig = "?"
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", f.Selector, sig, f.StateMutability, ioSummary(f))
		}
	}
	if dropped := e.Program.Selectors.Len() - len(fns); dropped > 0 {
		fmt.Fprintf(&b, "\n> %d selector(s) jump to offsets that are not JUMPDEST and were dropped.\n", dropped)
	}

	if len(events) > 0 {
		b.WriteString("\n## Events\n\n")
		b.WriteString("| topic | signature |\n")
		b.WriteString("|---|---|\n")
		for _, ev := range events {
			sig := eventNames(sigs, ev.Hash)
			if sig == "" {
				sig = "?"
			}
			fmt.Fprintf(&b, "| `%s` | %s |\n", ev.Hash, sig)
		}
	}

	if len(fns) == 0 && len(events) == 0 {
		b.WriteString("\nNo selectors or events found.\n")
	}
	return b.String()
}

// listingText is the annotated linear disassembly, one instruction per line.
func listingText(code []byte, p *analysis.Program, sigs *analysis.SignatureDB) string {
	listing := analysis.Annotate(code, p, sigs)
	lines := make([]string, len(listing))
	for i, inst := range listing {
		lines[i] = inst.String()
	}
	return strings.Join(lines, "\n")
}

// descriptorLine is the one-line form of a descriptor used by the batch
// text output and the TUI list.
func descriptorLine(item analysis.ABIItem, sigs *analysis.SignatureDB) string {
	switch d := item.(type) {
	case *analysis.ABIFunction:
		line := fmt.Sprintf("function %s %-10s %s", d.Selector, d.StateMutability, ioSummary(d))
		if names := functionNames(sigs, d.Selector); names != "" {
			line += "  " + names
		}
		return line
	case *analysis.ABIEvent:
		line := "event    " + d.Hash
		if names := eventNames(sigs, d.Hash); names != "" {
			line += "  " + names
		}
		return line
	}
	return fmt.Sprintf("%v", item)
}

func shortHash(h string) string {
	if len(h) <= 18 {
		return h
	}
	return h[:10] + "…" + h[len(h)-6:]
}
