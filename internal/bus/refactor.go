package bus

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/value"
)

// BreakLoopOption names a loop function still queued in remains that
// could be split into a begin/end pseudo-function pair (§4.B, §4.E).
//
// Splitting is only offered for queued (not-yet-bound) loop functions:
// once a loop is admitted into a Fram cell, that cell's reservation
// already tracks the two halves' obligations independently (see
// internal/pu's loopSourceDone/loopTargetDone), so nothing in the
// engine's default search order ever needs to break an already-bound
// loop. DESIGN.md records this as a deliberate scope reduction of
// §4.E's "find the PU holding the loop function" wording.
type BreakLoopOption struct {
	Function *ir.Function
	Locks    int // locks this split would remove, for the refactor bonus
}

// BreakLoopOptions enumerates every queued loop function.
func (n *Network) BreakLoopOptions() []BreakLoopOption {
	var out []BreakLoopOption
	for _, f := range n.remains {
		if f.Kind == ir.Loop {
			out = append(out, BreakLoopOption{Function: f, Locks: len(f.Locks())})
		}
	}
	return out
}

// BreakLoopDecision replaces opt.Function in remains with the
// LoopBegin/LoopEnd pair ir.BreakLoop produces.
func (n *Network) BreakLoopDecision(opt BreakLoopOption) (*Network, error) {
	algo := &ir.Algorithm{Name: n.tag, Graph: ir.Cluster(leaves(n.remains)...)}
	_, diff, err := ir.BreakLoop(algo, opt.Function)
	if err != nil {
		return nil, fmt.Errorf("bus %s: %w", n.tag, err)
	}

	begin := ir.NewLoopBegin(opt.Function.Literal, opt.Function.Outputs()[0].Suffixed(".prev"), opt.Function.Outputs()[0])
	end := ir.NewLoopEnd(opt.Function.Inputs()[0], opt.Function.Outputs()[0].Suffixed(".prev"))

	next := n.clone()
	next.remains = replaceFunc(next.remains, opt.Function, begin, end)
	if !diff.IsEmpty() {
		next.applyDiff(diff)
	}
	withStep, _ := next.proc.AddStep(value.Point(next.proc.NextTick()),
		process.CAD(fmt.Sprintf("break loop %s", opt.Function)))
	next.proc = withStep
	return next, nil
}

func leaves(fs []*ir.Function) []*ir.Graph {
	out := make([]*ir.Graph, len(fs))
	for i, f := range fs {
		out[i] = ir.Leaf(f)
	}
	return out
}

func replaceFunc(fs []*ir.Function, target *ir.Function, with ...*ir.Function) []*ir.Function {
	out := make([]*ir.Function, 0, len(fs)+len(with)-1)
	for _, f := range fs {
		if f == target {
			out = append(out, with...)
			continue
		}
		out = append(out, f)
	}
	return out
}

// OptimizeAccumulateOption names a connected, single-consumer chain of
// queued add/sub functions that optimize-accumulate could merge (§4.B).
type OptimizeAccumulateOption struct {
	Chain []*ir.Function
	Locks int
}

// OptimizeAccumulateOptions finds every maximal such chain among the
// still-queued functions.
func (n *Network) OptimizeAccumulateOptions() []OptimizeAccumulateOption {
	byInput := map[ir.Variable][]*ir.Function{}
	producedBy := map[ir.Variable]*ir.Function{}
	for _, f := range n.remains {
		if f.Kind != ir.Add && f.Kind != ir.Sub {
			continue
		}
		for _, in := range f.Inputs() {
			byInput[in] = append(byInput[in], f)
		}
		for _, out := range f.Outputs() {
			producedBy[out] = f
		}
	}

	isChainHead := func(f *ir.Function) bool {
		prev, ok := producedBy[f.Inputs()[0]]
		return !ok || prev.Kind != ir.Add && prev.Kind != ir.Sub
	}

	var out []OptimizeAccumulateOption
	for _, f := range n.remains {
		if f.Kind != ir.Add && f.Kind != ir.Sub || !isChainHead(f) {
			continue
		}
		chain := []*ir.Function{f}
		cur := f
		for {
			out0 := cur.Outputs()[0]
			consumers := byInput[out0]
			if len(consumers) != 1 {
				break
			}
			next := consumers[0]
			if next.Kind != ir.Add && next.Kind != ir.Sub {
				break
			}
			chain = append(chain, next)
			cur = next
		}
		if len(chain) > 1 {
			locks := 0
			for _, c := range chain {
				locks += len(c.Locks())
			}
			out = append(out, OptimizeAccumulateOption{Chain: chain, Locks: locks})
		}
	}
	return out
}

// OptimizeAccumulateDecision merges opt.Chain into one Accumulate
// function in remains.
func (n *Network) OptimizeAccumulateDecision(opt OptimizeAccumulateOption) (*Network, error) {
	algo := &ir.Algorithm{Name: n.tag, Graph: ir.Cluster(leaves(n.remains)...)}
	_, _, err := ir.OptimizeAccumulate(algo, opt.Chain)
	if err != nil {
		return nil, fmt.Errorf("bus %s: %w", n.tag, err)
	}

	inputs := []ir.Variable{opt.Chain[0].Inputs()[0], opt.Chain[0].Inputs()[1]}
	signs := []bool{true, opt.Chain[0].Kind == ir.Add}
	for i := 1; i < len(opt.Chain); i++ {
		inputs = append(inputs, opt.Chain[i].Inputs()[1])
		signs = append(signs, opt.Chain[i].Kind == ir.Add)
	}
	merged := ir.NewAccumulate(inputs, signs, opt.Chain[len(opt.Chain)-1].Outputs()[0])

	next := n.clone()
	remaining := make([]*ir.Function, 0, len(next.remains))
	inChain := map[*ir.Function]bool{}
	for _, f := range opt.Chain {
		inChain[f] = true
	}
	inserted := false
	for _, f := range next.remains {
		if inChain[f] {
			if !inserted {
				remaining = append(remaining, merged)
				inserted = true
			}
			continue
		}
		remaining = append(remaining, f)
	}
	next.remains = remaining
	withStep, _ := next.proc.AddStep(value.Point(next.proc.NextTick()),
		process.CAD(fmt.Sprintf("optimize-accumulate %d functions into %s", len(opt.Chain), merged)))
	next.proc = withStep
	return next, nil
}

// ResolveDeadlockOption names a variable whose mutual-wait lock cycle
// must be broken by inserting a fresh reg copy (§4.E).
type ResolveDeadlockOption struct {
	Variable ir.Variable
	Locks    int // count of the lock pair this decision breaks
}

// DeadlockOptions scans every sub-PU's currently-exported locks for a
// symmetric pair — var A locked by var B on one consumer and var B
// locked by var A on another — the signature of two PUs each waiting on
// the other's output. Detecting genuinely unreachable cycles in general
// would require simulating forward; this pairwise scan is the
// documented scope reduction (DESIGN.md) that suffices for the
// symmetric two-PU deadlocks spec.md's scenarios describe.
func (n *Network) DeadlockOptions() []ResolveDeadlockOption {
	locks := n.Locks()
	var out []ResolveDeadlockOption
	seen := map[ir.Variable]bool{}
	for i, a := range locks {
		for j, b := range locks {
			if i == j {
				continue
			}
			if a.Locked == b.By && a.By == b.Locked && !seen[a.Locked] {
				seen[a.Locked] = true
				out = append(out, ResolveDeadlockOption{Variable: a.Locked, Locks: 2})
			}
		}
	}
	return out
}

// ResolveDeadlockDecision inserts a fresh reg function copying opt.Variable
// into a suffixed variable and patches the network's queued functions
// and binding lists so their consumers read the copy instead (§4.E).
// The sub-PUs' own copies of functions already bound to them are not
// patched and keep reading the original variable.
func (n *Network) ResolveDeadlockDecision(opt ResolveDeadlockOption) (*Network, error) {
	renamed := opt.Variable.Suffixed(".dl")
	reg := ir.NewReg(opt.Variable, renamed)

	diff := ir.NewDiff().RenameInput(opt.Variable, renamed)

	next := n.clone()
	next.applyDiff(diff)
	next.remains = append(next.remains, reg)

	withStep, _ := next.proc.AddStep(value.Point(next.proc.NextTick()),
		process.CAD(fmt.Sprintf("resolve deadlock on %s via %s", opt.Variable, reg)))
	next.proc = withStep
	return next, nil
}

// applyDiff patches every queued and bound function through d. It does
// not patch functions already finalized into a sub-PU's process record
// — the record is history (spec.md §9: "do not rewrite the process
// record").
func (n *Network) applyDiff(d ir.Diff) {
	for i, f := range n.remains {
		n.remains[i] = f.Patch(d)
	}
	for tag, fs := range n.binded {
		patched := make([]*ir.Function, len(fs))
		for i, f := range fs {
			patched[i] = f.Patch(d)
		}
		n.binded[tag] = patched
	}
}
