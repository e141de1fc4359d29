// Package bus implements the bus network (§4.E): the container PU that
// hosts sub-PUs, owns the shared bus timeline, enumerates cross-PU
// dataflow transfers and aggregates every sub-PU's process into one
// final schedule.
package bus

import (
	"fmt"
	"sort"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/pu"
	"github.com/nitta-corp/nitta/internal/value"
)

// Network is the bus network PU (§4.E). It is immutable: every method
// that changes it returns a new *Network, sharing unchanged sub-PUs by
// reference with its parent (spec.md §9's structural-sharing guidance).
type Network struct {
	tag string

	remains []*ir.Function
	binded  map[string][]*ir.Function
	pus     map[string]pu.PU
	order   []string // deterministic sub-PU iteration order

	proc     *process.Record
	busWidth int
}

// New builds a network from an explicit, order-preserving set of tagged
// sub-PUs.
func New(tag string, busWidth int, subPUs []pu.PU) *Network {
	pus := make(map[string]pu.PU, len(subPUs))
	order := make([]string, 0, len(subPUs))
	for _, p := range subPUs {
		pus[p.Tag()] = p
		order = append(order, p.Tag())
	}
	return &Network{
		tag:      tag,
		binded:   map[string][]*ir.Function{},
		pus:      pus,
		order:    order,
		proc:     process.New(),
		busWidth: busWidth,
	}
}

func (n *Network) Tag() string { return n.tag }

func (n *Network) clone() *Network {
	binded := make(map[string][]*ir.Function, len(n.binded))
	for k, v := range n.binded {
		binded[k] = append([]*ir.Function(nil), v...)
	}
	puMap := make(map[string]pu.PU, len(n.pus))
	for k, v := range n.pus {
		puMap[k] = v
	}
	return &Network{
		tag:      n.tag,
		remains:  append([]*ir.Function(nil), n.remains...),
		binded:   binded,
		pus:      puMap,
		order:    n.order,
		proc:     n.proc,
		busWidth: n.busWidth,
	}
}

// WithAlgorithm returns a network with every function of algo queued in
// remains, ready for the synthesis driver to bind.
func (n *Network) WithAlgorithm(algo *ir.Algorithm) *Network {
	next := n.clone()
	next.remains = append(next.remains, algo.Functions()...)
	return next
}

// PU returns the sub-PU tagged tag, or nil if none is.
func (n *Network) PU(tag string) pu.PU { return n.pus[tag] }

// Remains returns the functions bound to the network but not yet placed
// on a sub-PU.
func (n *Network) Remains() []*ir.Function { return n.remains }

// Tags returns every sub-PU tag, in the network's deterministic
// iteration order.
func (n *Network) Tags() []string { return append([]string(nil), n.order...) }

// TransferredVariables unions every sub-PU's own TransferredVariables:
// the set of algorithm variables actually broadcast onto the bus so
// far (spec.md §4.G's completeness check).
func (n *Network) TransferredVariables() []string {
	seen := map[string]bool{}
	var out []string
	for _, tag := range n.order {
		for _, v := range n.pus[tag].Process().TransferredVariables() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// NextTick is the network's own next_tick, advanced by every committed
// dataflow decision.
func (n *Network) NextTick() value.Tick { return n.proc.NextTick() }

// BindOption is one admissible (function, sub-PU) placement (§4.E).
type BindOption struct {
	Function *ir.Function
	PUTag    string
	Metric   BindMetric
}

// BindMetric carries the per-option scoring inputs §4.G's Binding
// formula reads; Network computes what it can observe locally and
// leaves global/driver-level inputs (e.g. search-wide counts) to
// internal/synth.
type BindMetric struct {
	Critical     bool
	Alternatives int
	NumOutputs   int
	Enablement   int
	Restlessness value.Tick
}

// BindingOptions enumerates every admissible (function, PU) placement
// for every function still in remains (§4.E).
func (n *Network) BindingOptions() []BindOption {
	var out []BindOption
	for _, f := range n.remains {
		var feasible []string
		for _, tag := range n.order {
			if _, err := n.pus[tag].TryBind(f); err == nil {
				feasible = append(feasible, tag)
			}
		}
		for _, tag := range feasible {
			out = append(out, BindOption{
				Function: f,
				PUTag:    tag,
				Metric: BindMetric{
					Critical:     f.MayCauseInternalLock(),
					Alternatives: len(feasible),
					NumOutputs:   len(f.Outputs()),
					Enablement:   n.enablementFor(f, feasible),
					Restlessness: n.proc.NextTick(),
				},
			})
		}
	}
	return out
}

// enablementFor approximates "how many pending transfers this binding
// unblocks" by counting other queued functions that would lose one of
// their own feasible placements once f claims a PU they also fit —
// i.e. functions this binding would make more urgent to place
// elsewhere. This is a deliberately cheap proxy (exact enablement would
// require simulating the resulting endpoint options); see DESIGN.md.
func (n *Network) enablementFor(f *ir.Function, feasible []string) int {
	shared := map[string]bool{}
	for _, t := range feasible {
		shared[t] = true
	}
	count := 0
	for _, other := range n.remains {
		if other == f {
			continue
		}
		for _, tag := range n.order {
			if shared[tag] {
				if _, err := n.pus[tag].TryBind(other); err == nil {
					count++
					break
				}
			}
		}
	}
	return count
}

// BindDecision moves f from remains to binded[tag], delegating admission
// to the sub-PU, and appends a CAD metadata step (§4.E).
func (n *Network) BindDecision(opt BindOption) (*Network, error) {
	sub, ok := n.pus[opt.PUTag]
	if !ok {
		return nil, fmt.Errorf("bus %s: unknown PU tag %q", n.tag, opt.PUTag)
	}
	bound, err := sub.TryBind(opt.Function)
	if err != nil {
		return nil, fmt.Errorf("bus %s: %w", n.tag, err)
	}

	next := n.clone()
	next.remains = removeFunc(next.remains, opt.Function)
	next.binded[opt.PUTag] = append(next.binded[opt.PUTag], opt.Function)
	next.pus[opt.PUTag] = bound
	withStep, _ := next.proc.AddStep(value.Point(next.proc.NextTick()),
		process.CAD(fmt.Sprintf("bind %s to %s", opt.Function, opt.PUTag)))
	next.proc = withStep
	return next, nil
}

func removeFunc(fs []*ir.Function, target *ir.Function) []*ir.Function {
	out := make([]*ir.Function, 0, len(fs))
	for _, f := range fs {
		if f != target {
			out = append(out, f)
		}
	}
	return out
}

// BoundFunctions returns the functions bound to the sub-PU tagged tag.
func (n *Network) BoundFunctions(tag string) []*ir.Function {
	return append([]*ir.Function(nil), n.binded[tag]...)
}

// AllFunctions returns every function the network currently knows
// about, queued or bound, in a stable order.
func (n *Network) AllFunctions() []*ir.Function {
	out := append([]*ir.Function(nil), n.remains...)
	for _, tag := range n.order {
		out = append(out, n.binded[tag]...)
	}
	return out
}

// Locks aggregates every sub-PU's currently-exported locks.
func (n *Network) Locks() []ir.Lock {
	var out []ir.Lock
	for _, tag := range n.order {
		out = append(out, n.pus[tag].Locks()...)
	}
	return out
}

// MicrocodeAt returns the bus-wide control word at tick t: the
// conflict-checked merge of every sub-PU's own MicrocodeAt, projected
// through portMap (local signal name -> global bus signal name).
func (n *Network) MicrocodeAt(t value.Tick, portMap map[string]map[pu.Signal]pu.Signal) pu.MicrocodeWord {
	word := pu.NoOp()
	for _, tag := range n.order {
		local := n.pus[tag].MicrocodeAt(t)
		projected := projectSignals(local, portMap[tag])
		word = word.Merge(projected, t)
	}
	return word
}

func projectSignals(w pu.MicrocodeWord, m map[pu.Signal]pu.Signal) pu.MicrocodeWord {
	if m == nil {
		return w
	}
	out := make(pu.MicrocodeWord, len(w))
	for s, v := range w {
		if g, ok := m[s]; ok {
			out[g] = v
		} else {
			out[s] = v
		}
	}
	return out
}

// DumpMicrocode renders the network's control word for every tick in
// [fromTick, toTick] as a hexadecimal bit-string with one bit per
// signal of order, as pu.HexDump encodes it; the string's width follows
// len(order), not busWidth. Tick −1 is the reset no-op and always dumps
// as all-zero.
func (n *Network) DumpMicrocode(fromTick, toTick int, portMap map[string]map[pu.Signal]pu.Signal, order []pu.Signal) []string {
	out := make([]string, 0, toTick-fromTick+1)
	for t := fromTick; t <= toTick; t++ {
		word := n.MicrocodeAt(value.Tick(t), portMap)
		out = append(out, pu.HexDump(word, order))
	}
	return out
}

// BusWidth is the control-signal bit count declared by the
// microarchitecture.
func (n *Network) BusWidth() int { return n.busWidth }

// Process returns the network's own process record — CAD/bind metadata
// and Transport steps, before aggregation with sub-PU histories.
func (n *Network) Process() *process.Record { return n.proc }

// sortedTags is a small helper kept for deterministic debug output.
func (n *Network) sortedTags() []string {
	tags := append([]string(nil), n.order...)
	sort.Strings(tags)
	return tags
}
