package synth

import (
	"sort"

	"github.com/nitta-corp/nitta/internal/bus"
)

// Status classifies a search node per §4.G.
type Status int

const (
	InProgress Status = iota
	Complete
	Dead
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case Dead:
		return "dead"
	default:
		return "in-progress"
	}
}

// Node is one state of the search tree: a model snapshot together with
// the decision that produced it and its depth from the root.
type Node struct {
	Model  *bus.Network
	Parent Option
	Depth  int

	allVars []string // the full algorithm variable set, carried from the root
}

// NewRoot builds the root node for algo's full variable set.
func NewRoot(model *bus.Network, allVars []string) *Node {
	return &Node{Model: model, allVars: allVars}
}

func (no *Node) child(model *bus.Network, opt Option) *Node {
	return &Node{Model: model, Parent: opt, Depth: no.Depth + 1, allVars: no.allVars}
}

// collectOptions enumerates and deterministically orders every option
// the node's model currently offers, across all five problem kinds
// (§4.F), and scores each per §4.G.
func (no *Node) collectOptions() []scored {
	n := no.Model

	binds := n.BindingOptions()
	sort.SliceStable(binds, func(i, j int) bool {
		if binds[i].Function.String() != binds[j].Function.String() {
			return binds[i].Function.String() < binds[j].Function.String()
		}
		return binds[i].PUTag < binds[j].PUTag
	})

	flows := n.DataflowOptions()
	sort.SliceStable(flows, func(i, j int) bool {
		if flows[i].SrcTag != flows[j].SrcTag {
			return flows[i].SrcTag < flows[j].SrcTag
		}
		return len(flows[i].Targets) < len(flows[j].Targets)
	})

	breaks := n.BreakLoopOptions()
	sort.SliceStable(breaks, func(i, j int) bool {
		return breaks[i].Function.String() < breaks[j].Function.String()
	})

	accs := n.OptimizeAccumulateOptions()
	sort.SliceStable(accs, func(i, j int) bool {
		return accs[i].Chain[0].String() < accs[j].Chain[0].String()
	})

	deadlocks := n.DeadlockOptions()
	sort.SliceStable(deadlocks, func(i, j int) bool {
		return deadlocks[i].Variable < deadlocks[j].Variable
	})

	g := GlobalMetrics{Bindings: len(binds), Dataflows: len(flows), Refactors: len(breaks) + len(accs) + len(deadlocks)}
	nextTick := n.NextTick()

	var out []scored
	idx := 0
	add := func(o Option, score int) {
		out = append(out, scored{opt: o, score: score, index: idx})
		idx++
	}
	for _, b := range binds {
		bo := bindOption{b}
		add(bo, bo.score())
	}
	for _, f := range flows {
		fo := dataflowOption{f, nextTick}
		add(fo, fo.score(g.Dataflows))
	}
	for _, b := range breaks {
		bo := breakLoopOption{b}
		add(bo, bo.score())
	}
	for _, a := range accs {
		ao := optimizeAccumulateOption{a}
		add(ao, ao.score())
	}
	for _, d := range deadlocks {
		do := resolveDeadlockOption{d}
		add(do, do.score())
	}
	return out
}

// Status classifies the node. complete requires no unbound functions,
// no sub-PU still offering an endpoint option, and every algorithm
// variable transferred at least once (§4.G).
func (no *Node) Status() Status {
	n := no.Model
	opts := no.collectOptions()

	if len(n.Remains()) == 0 && no.allEndpointsExhausted() && no.allVariablesTransferred() {
		return Complete
	}
	if len(opts) == 0 {
		return Dead
	}
	return InProgress
}

func (no *Node) allEndpointsExhausted() bool {
	for _, tag := range no.Model.Tags() {
		if len(no.Model.PU(tag).EndpointOptions()) > 0 {
			return false
		}
	}
	return true
}

func (no *Node) allVariablesTransferred() bool {
	got := map[string]bool{}
	for _, v := range no.Model.TransferredVariables() {
		got[v] = true
	}
	for _, v := range no.allVars {
		if !got[v] {
			return false
		}
	}
	return true
}
