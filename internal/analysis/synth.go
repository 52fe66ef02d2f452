package analysis

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/core/vm"

	"abiscan/internal/opcodes"
)

// ABIFromBytecode scans code and synthesizes its descriptor list.
func ABIFromBytecode(code []byte) ABI {
	return ABIFromProgram(Disasm(code))
}

// ABIFromProgram turns scan results into descriptors: one function per
// selector whose destination is a known label, in selector order, then one
// event per candidate topic in scan order.
//
// Mutability and the presence of inputs and outputs are hints. They come
// from tags of statically reachable regions only.
func ABIFromProgram(p *Program) ABI {
	abi := ABI{}
	for _, sd := range p.SelectorList() {
		fn, ok := p.FunctionAt(sd.Dest)
		if !ok {
			// Selector does not point to a known JUMPDEST.
			continue
		}
		tags := SubtreeTags(p, fn)

		_, guarded := p.NotPayable[sd.Dest]
		f := &ABIFunction{
			Type:     "function",
			Selector: sd.Selector,
			Payable:  !guarded,
		}
		switch {
		case f.Payable:
			f.StateMutability = Payable
		case !tags.Contains(vm.SSTORE):
			f.StateMutability = View
		default:
			f.StateMutability = NonPayable
		}
		if tags.Contains(vm.RETURN) || f.StateMutability == View {
			f.Outputs = dynamicBytes()
		}
		if anyTag(tags, opcodes.IsCalldataRead) {
			f.Inputs = dynamicBytes()
		}
		abi = append(abi, f)
	}

	for _, h := range p.EventCandidates {
		abi = append(abi, &ABIEvent{
			Type: "event",
			Hash: h,
		})
	}
	return abi
}

func anyTag(tags mapset.Set[vm.OpCode], match func(vm.OpCode) bool) bool {
	found := false
	tags.Each(func(op vm.OpCode) bool {
		found = match(op)
		return found
	})
	return found
}

// SubtreeTags unions the tags of every region reachable from entry through
// static jumps. Each region contributes once, so cycles terminate.
func SubtreeTags(p *Program, entry *Function) mapset.Set[vm.OpCode] {
	tags := mapset.NewThreadUnsafeSet[vm.OpCode]()
	seen := mapset.NewThreadUnsafeSet[int]()

	stack := []*Function{entry}
	for len(stack) > 0 {
		fn := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !seen.Add(fn.Start) {
			continue
		}
		tags = tags.Union(fn.OpTags)
		for _, offset := range fn.Jumps {
			if next, ok := p.FunctionAt(offset); ok {
				stack = append(stack, next)
			}
		}
	}
	return tags
}
