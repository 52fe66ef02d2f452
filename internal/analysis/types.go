package analysis

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/core/vm"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Function is a contiguous candidate routine. Regions reference each other
// only by offset, resolved through Program.Dests.
type Function struct {
	Start  int                   // byte offset of the region's first instruction
	End    int                   // last byte offset, or -1 while still open
	Step   int                   // instruction index at which the region began
	OpTags mapset.Set[vm.OpCode] // interesting opcodes seen in the region
	Jumps  []int                 // statically resolved jump targets, in scan order
}

func newFunction(start, step int) *Function {
	return &Function{
		Start:  start,
		End:    -1,
		Step:   step,
		OpTags: mapset.NewThreadUnsafeSet[vm.OpCode](),
	}
}

// Program is the result of a single scan.
type Program struct {
	// Dests maps every JUMPDEST offset to the start of the region owning it.
	Dests map[int]int
	// Functions holds every region keyed by its start offset.
	Functions map[int]*Function
	// Selectors maps 0x-prefixed selectors to their jump destination, in
	// the order they were first seen.
	Selectors *orderedmap.OrderedMap[string, int]
	// NotPayable maps guarded destinations to the step of their guard.
	NotPayable map[int]int
	// EventCandidates lists suspected event topics in scan order.
	EventCandidates []string
}

func newProgram() *Program {
	return &Program{
		Dests:      make(map[int]int),
		Functions:  make(map[int]*Function),
		Selectors:  orderedmap.New[string, int](),
		NotPayable: make(map[int]int),
	}
}

// FunctionAt returns the region owning the JUMPDEST at dest.
func (p *Program) FunctionAt(dest int) (*Function, bool) {
	start, ok := p.Dests[dest]
	if !ok {
		return nil, false
	}
	fn, ok := p.Functions[start]
	return fn, ok
}

// Regions returns all regions ordered by start offset.
func (p *Program) Regions() []*Function {
	out := make([]*Function, 0, len(p.Functions))
	for _, fn := range p.Functions {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// SelectorList returns selectors with their destinations in insertion order.
func (p *Program) SelectorList() []SelectorDest {
	out := make([]SelectorDest, 0, p.Selectors.Len())
	for pair := p.Selectors.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, SelectorDest{Selector: pair.Key, Dest: pair.Value})
	}
	return out
}

// SelectorDest pairs a selector with the offset it dispatches to.
type SelectorDest struct {
	Selector string
	Dest     int
}

// Mutability is the inferred state mutability of a function.
type Mutability string

const (
	Payable    Mutability = "payable"
	NonPayable Mutability = "nonpayable"
	View       Mutability = "view"
)

// ABIParam is a function input or output. Only the generic dynamic type
// is ever inferred.
type ABIParam struct {
	Type string `json:"type"`
}

func dynamicBytes() []ABIParam {
	return []ABIParam{{Type: "bytes"}}
}

// ABIItem is one synthesized descriptor: *ABIFunction or *ABIEvent.
type ABIItem interface {
	ItemType() string
}

// ABIFunction describes a callable entry point recovered from a selector.
type ABIFunction struct {
	Type            string     `json:"type"`
	Selector        string     `json:"selector"`
	Payable         bool       `json:"payable"`
	StateMutability Mutability `json:"stateMutability"`
	Inputs          []ABIParam `json:"inputs,omitempty"`
	Outputs         []ABIParam `json:"outputs,omitempty"`
}

// ItemType implements ABIItem.
func (f *ABIFunction) ItemType() string { return f.Type }

// ABIEvent carries a suspected event topic. The signature behind the hash
// cannot be recovered from bytecode.
type ABIEvent struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
}

// ItemType implements ABIItem.
func (e *ABIEvent) ItemType() string { return e.Type }

// ABI is an ordered descriptor list: functions in selector order followed by
// events in scan order.
type ABI []ABIItem

// Functions returns the function descriptors.
func (a ABI) Functions() []*ABIFunction {
	var out []*ABIFunction
	for _, item := range a {
		if fn, ok := item.(*ABIFunction); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Events returns the event descriptors.
func (a ABI) Events() []*ABIEvent {
	var out []*ABIEvent
	for _, item := range a {
		if ev, ok := item.(*ABIEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}
