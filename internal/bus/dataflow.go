package bus

import (
	"fmt"

	"github.com/nitta-corp/nitta/internal/ir"
	"github.com/nitta-corp/nitta/internal/process"
	"github.com/nitta-corp/nitta/internal/pu"
	"github.com/nitta-corp/nitta/internal/value"
)

// TransportInstr is the bus-wide microinstruction recorded for every
// variable actually carried across the bus during a dataflow decision
// (§4.E).
type TransportInstr struct {
	Var     ir.Variable
	SrcTag  string
	DstTag  string
}

func (t TransportInstr) InstructionString() string {
	return fmt.Sprintf("TRANSPORT %s %s->%s", t.Var, t.SrcTag, t.DstTag)
}

type targetCandidate struct {
	tag string
	opt pu.EndpointOption
}

// DataflowOption is one admissible cross-PU transfer: a Source option on
// SrcTag together with a non-colliding assignment of a non-empty subset
// of its variables to Target options on distinct destination PUs
// (§4.E).
type DataflowOption struct {
	SrcTag  string
	SrcOpt  pu.EndpointOption
	Targets map[ir.Variable]targetCandidate

	EarliestStart value.Tick
}

// Vars returns the variables this option would transfer, in a stable
// order.
func (o DataflowOption) Vars() []ir.Variable {
	out := make([]ir.Variable, 0, len(o.Targets))
	for _, v := range o.SrcOpt.Role.Sources {
		if _, ok := o.Targets[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// DataflowOptions enumerates every admissible cross-PU transfer (§4.E).
// For a source offering multiple variables with multiple reachable
// consumers, every non-colliding assignment is returned as a separate
// option, including partial ones that leave some reachable variables
// without a receiver; variables with no reachable consumer are dropped
// (options with an empty target set are never returned, matching "a
// dataflow option with an empty target set is discarded").
func (n *Network) DataflowOptions() []DataflowOption {
	var out []DataflowOption
	for _, srcTag := range n.order {
		srcPU := n.pus[srcTag]
		for _, srcOpt := range srcPU.EndpointOptions() {
			if !srcOpt.Role.IsSource {
				continue
			}
			candidates := n.candidatesFor(srcTag, srcOpt.Role.Sources)
			if len(candidates) == 0 {
				continue
			}
			for _, assignment := range nonCollidingAssignments(candidates) {
				earliest := n.earliestStart(srcOpt, assignment)
				out = append(out, DataflowOption{
					SrcTag:        srcTag,
					SrcOpt:        srcOpt,
					Targets:       assignment,
					EarliestStart: earliest,
				})
			}
		}
	}
	return out
}

// candidatesFor finds, for each variable in vs, every (dstTag,
// targetOption) pair currently offering to receive it.
func (n *Network) candidatesFor(srcTag string, vs []ir.Variable) map[ir.Variable][]targetCandidate {
	out := map[ir.Variable][]targetCandidate{}
	for _, v := range vs {
		for _, dstTag := range n.order {
			if dstTag == srcTag {
				continue
			}
			for _, opt := range n.pus[dstTag].EndpointOptions() {
				if !opt.Role.IsSource && opt.Role.Target == v {
					out[v] = append(out[v], targetCandidate{tag: dstTag, opt: opt})
				}
			}
		}
	}
	for v := range out {
		if len(out[v]) == 0 {
			delete(out, v)
		}
	}
	return out
}

// nonCollidingAssignments enumerates every way to pick at most one
// candidate per variable such that no two variables land on the same
// destination PU,
// requiring at least one variable be assigned (rule 1 of §4.E).
func nonCollidingAssignments(candidates map[ir.Variable][]targetCandidate) []map[ir.Variable]targetCandidate {
	vars := make([]ir.Variable, 0, len(candidates))
	for v := range candidates {
		vars = append(vars, v)
	}

	var results []map[ir.Variable]targetCandidate
	var rec func(i int, used map[string]bool, chosen map[ir.Variable]targetCandidate)
	rec = func(i int, used map[string]bool, chosen map[ir.Variable]targetCandidate) {
		if i == len(vars) {
			if len(chosen) > 0 {
				cp := make(map[ir.Variable]targetCandidate, len(chosen))
				for k, v := range chosen {
					cp[k] = v
				}
				results = append(results, cp)
			}
			return
		}
		v := vars[i]
		// Option: skip this variable (held, no receiver chosen this round).
		rec(i+1, used, chosen)
		for _, c := range candidates[v] {
			if used[c.tag] {
				continue
			}
			used[c.tag] = true
			chosen[v] = c
			rec(i+1, used, chosen)
			delete(chosen, v)
			used[c.tag] = false
		}
	}
	rec(0, map[string]bool{}, map[ir.Variable]targetCandidate{})
	return results
}

func (n *Network) earliestStart(srcOpt pu.EndpointOption, assignment map[ir.Variable]targetCandidate) value.Tick {
	earliest := maxTick(n.proc.NextTick(), srcOpt.Constraint.Available.Inf())
	for _, c := range assignment {
		earliest = maxTick(earliest, c.opt.Constraint.Available.Inf())
	}
	return earliest
}

func maxTick(a, b value.Tick) value.Tick {
	if a > b {
		return a
	}
	return b
}

// DataflowDecision applies opt: it commits the source's broadcast and
// every target's receipt, appends one Transport instruction step per
// transferred variable, and advances next_tick (§4.E).
func (n *Network) DataflowDecision(opt DataflowOption) (*Network, error) {
	next := n.clone()

	srcStart := opt.EarliestStart
	targetAt := map[ir.Variable]value.Interval{}
	srcDuration := value.Tick(1)
	for v, c := range opt.Targets {
		start := maxTick(srcStart, c.opt.Constraint.Available.Inf())
		width := c.opt.Constraint.Duration.Inf()
		if width < 1 {
			width = 1
		}
		at := value.NewInterval(start, start+width-1)
		targetAt[v] = at
		if d := at.Inf() - srcStart + at.Width(); d > srcDuration {
			srcDuration = d
		}
	}
	srcEnd := srcStart + srcDuration - 1
	srcAt := value.NewInterval(srcStart, srcEnd)

	updatedSrc, err := next.pus[opt.SrcTag].EndpointDecision(pu.EndpointDecision{
		Role: process.SourceRole(opt.Vars()...),
		At:   srcAt,
	})
	if err != nil {
		return nil, fmt.Errorf("bus %s: source decision on %s: %w", n.tag, opt.SrcTag, err)
	}
	next.pus[opt.SrcTag] = updatedSrc

	for v, c := range opt.Targets {
		updatedDst, err := next.pus[c.tag].EndpointDecision(pu.EndpointDecision{
			Role: process.TargetRole(v),
			At:   targetAt[v],
		})
		if err != nil {
			return nil, fmt.Errorf("bus %s: target decision on %s: %w", n.tag, c.tag, err)
		}
		next.pus[c.tag] = updatedDst

		withStep, _ := next.proc.AddStep(srcAt, process.InstructionDesc{
			Op: TransportInstr{Var: v, SrcTag: opt.SrcTag, DstTag: c.tag},
		})
		next.proc = withStep
	}

	next.proc = next.proc.UpdateTick(srcAt.Sup() + 1)
	return next, nil
}
