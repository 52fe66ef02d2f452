package analysis

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/vm"

	"abiscan/internal/disasm"
)

// AnnotatedInst represents a disassembled instruction with annotations
type AnnotatedInst struct {
	disasm.Inst
	Annotations []string // Comments to display
}

// String formats the instruction with annotations after a ';' column.
// This returns plain text, colorization happens afterwards.
func (a AnnotatedInst) String() string {
	base := a.Inst.String()
	if len(a.Annotations) == 0 {
		return base
	}
	return fmt.Sprintf("%-48s ; %s", base, strings.Join(a.Annotations, ", "))
}

// Annotate produces the full listing of code with the scan results of p
// attached: region starts, selector targets, value guards and topic pushes.
// sigs may be nil.
func Annotate(code []byte, p *Program, sigs *SignatureDB) []AnnotatedInst {
	targets := make(map[int][]string)
	for _, sd := range p.SelectorList() {
		label := "selector " + sd.Selector
		if sigs != nil {
			if names := sigs.Function(sd.Selector); len(names) > 0 {
				label += " " + strings.Join(names, " | ")
			}
		}
		targets[sd.Dest] = append(targets[sd.Dest], label)
	}
	topics := make(map[string]bool, len(p.EventCandidates))
	for _, h := range p.EventCandidates {
		topics[h] = true
	}

	stream := disasm.Disassemble(code)
	out := make([]AnnotatedInst, 0, len(stream))
	for _, inst := range stream {
		a := AnnotatedInst{Inst: inst}
		if inst.Op == vm.JUMPDEST {
			if fn, ok := p.Functions[inst.Pos]; ok && fn.Start == inst.Pos {
				a.Annotations = append(a.Annotations, regionLabel(fn))
			}
			a.Annotations = append(a.Annotations, targets[inst.Pos]...)
			if _, ok := p.NotPayable[inst.Pos]; ok {
				a.Annotations = append(a.Annotations, "rejects value")
			}
		}
		if inst.Op == vm.PUSH32 {
			if h := disasm.Hex(inst.Arg); topics[h] {
				a.Annotations = append(a.Annotations, eventLabel(h, sigs))
			}
		}
		out = append(out, a)
	}
	return out
}

func regionLabel(fn *Function) string {
	if fn.End < 0 {
		return fmt.Sprintf("region %#x..end", fn.Start)
	}
	return fmt.Sprintf("region %#x..%#x", fn.Start, fn.End)
}

func eventLabel(topic string, sigs *SignatureDB) string {
	if sigs != nil {
		if names := sigs.Event(topic); len(names) > 0 {
			return "event " + strings.Join(names, " | ")
		}
	}
	return "event topic"
}
